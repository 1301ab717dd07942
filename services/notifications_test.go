package services

import (
	"context"
	"testing"

	"mpoint-server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchCreatesOneRow(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.Notification{}))
	d := NewNotificationDispatcher(db)

	n, err := d.Dispatch(context.Background(), 42, models.NotificationMatchRequest, "Titel", "Nachricht", "/matches/1")
	require.NoError(t, err)
	assert.NotZero(t, n.ID)
	assert.False(t, n.IsRead)

	var count int64
	db.Model(&models.Notification{}).Where("user_id = ?", 42).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestTypedHelpersSetTypeAndURL(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.Notification{}))
	d := NewNotificationDispatcher(db)

	n, err := d.GroupApproved(context.Background(), 7, "Netzwerk Nord", 3)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationGroupApproved, n.Type)
	assert.Equal(t, "/groups/3", n.URL)

	n, err = d.MatchConnected(context.Background(), 7, "Berg GmbH", 12)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationMatchConnected, n.Type)
	assert.Equal(t, "/matches/12", n.URL)
}
