package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"mpoint-server/models"
	"mpoint-server/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Company{}, &models.Match{}))
	return db
}

func seedMatch(t *testing.T, db *gorm.DB, status models.MatchStatus) *models.Match {
	t.Helper()
	sender := models.User{FirstName: "Anna", LastName: "Berg", Email: "anna@example.com", Password: "x"}
	receiver := models.User{FirstName: "Ben", LastName: "Cole", Email: "ben@example.com", Password: "x"}
	require.NoError(t, db.Create(&sender).Error)
	require.NoError(t, db.Create(&receiver).Error)

	senderCo := models.Company{OwnerID: sender.ID, Name: "Berg GmbH"}
	receiverCo := models.Company{OwnerID: receiver.ID, Name: "Cole AG"}
	require.NoError(t, db.Create(&senderCo).Error)
	require.NoError(t, db.Create(&receiverCo).Error)

	match := models.Match{
		SenderUserID:      sender.ID,
		SenderCompanyID:   senderCo.ID,
		ReceiverUserID:    receiver.ID,
		ReceiverCompanyID: receiverCo.ID,
		Status:            status,
		Score:             72,
	}
	require.NoError(t, db.Create(&match).Error)
	return &match
}

func TestChannelKeyIsOrderIndependent(t *testing.T) {
	a := ChatChannel{Type: ChannelDirect, UserA: 7, UserB: 3}
	b := ChatChannel{Type: ChannelDirect, UserA: 3, UserB: 7}
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "direct:3:7", a.Key())
}

func TestChannelKeySortsLexicographically(t *testing.T) {
	// Decimal IDs sort as strings, so 100 comes before 9.
	c := ChatChannel{Type: ChannelDirect, UserA: 9, UserB: 100}
	assert.Equal(t, "direct:100:9", c.Key())
}

func TestResolveChatChannelSelf(t *testing.T) {
	m := NewMatcher(openTestDB(t))

	_, err := m.ResolveChatChannel(context.Background(), 5, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrValidation))
}

func TestResolveChatChannelUsesActiveMatch(t *testing.T) {
	db := openTestDB(t)
	m := NewMatcher(db)
	match := seedMatch(t, db, models.MatchConnected)

	// Either direction resolves to the same match channel.
	forward, err := m.ResolveChatChannel(context.Background(), match.SenderUserID, match.ReceiverUserID)
	require.NoError(t, err)
	backward, err := m.ResolveChatChannel(context.Background(), match.ReceiverUserID, match.SenderUserID)
	require.NoError(t, err)

	assert.Equal(t, ChannelMatch, forward.Type)
	assert.Equal(t, match.ID, forward.MatchID)
	assert.Equal(t, forward.Key(), backward.Key())
}

func TestResolveChatChannelIgnoresInactiveMatch(t *testing.T) {
	db := openTestDB(t)
	m := NewMatcher(db)

	for _, status := range []models.MatchStatus{models.MatchPending, models.MatchDeclined, models.MatchExpired} {
		match := seedMatch(t, db, status)
		channel, err := m.ResolveChatChannel(context.Background(), match.SenderUserID, match.ReceiverUserID)
		require.NoError(t, err)
		assert.Equal(t, ChannelDirect, channel.Type, "status %s should not produce a match channel", status)

		require.NoError(t, db.Exec("DELETE FROM matches").Error)
		require.NoError(t, db.Exec("DELETE FROM companies").Error)
		require.NoError(t, db.Exec("DELETE FROM users").Error)
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to models.MatchStatus
		want     bool
	}{
		{models.MatchPending, models.MatchAcceptedBySender, true},
		{models.MatchPending, models.MatchAcceptedByReceiver, true},
		{models.MatchPending, models.MatchDeclined, true},
		{models.MatchPending, models.MatchExpired, true},
		{models.MatchPending, models.MatchConnected, false},
		{models.MatchAcceptedBySender, models.MatchAccepted, true},
		{models.MatchAcceptedByReceiver, models.MatchAccepted, true},
		{models.MatchAccepted, models.MatchConnected, true},
		{models.MatchAccepted, models.MatchPending, false},
		{models.MatchConnected, models.MatchDeclined, false},
		{models.MatchDeclined, models.MatchAccepted, false},
		{models.MatchExpired, models.MatchPending, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestTransitionMatchRejectsInvalidMove(t *testing.T) {
	db := openTestDB(t)
	m := NewMatcher(db)
	match := seedMatch(t, db, models.MatchConnected)

	_, err := m.TransitionMatch(context.Background(), match.ID, models.MatchDeclined)
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrConflict))
}

func TestAcceptMeetsInAccepted(t *testing.T) {
	db := openTestDB(t)
	m := NewMatcher(db)
	match := seedMatch(t, db, models.MatchPending)

	first, err := m.Accept(context.Background(), match.ID, match.ReceiverUserID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchAcceptedByReceiver, first.Status)

	second, err := m.Accept(context.Background(), match.ID, match.SenderUserID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchAccepted, second.Status)
}

func TestAcceptRejectsOutsider(t *testing.T) {
	db := openTestDB(t)
	m := NewMatcher(db)
	match := seedMatch(t, db, models.MatchPending)

	_, err := m.Accept(context.Background(), match.ID, 9999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrValidation))
}

func TestScoreBand(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{-10, "Negativ"},
		{0, "Negativ"},
		{35, "Negativ"},
		{36, "Neutral"},
		{64, "Neutral"},
		{65, "Positiv"},
		{100, "Positiv"},
		{150, "Positiv"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ScoreBand(c.score), "score %d", c.score)
	}
}
