package services

import (
	"context"
	"fmt"

	"mpoint-server/models"

	"gorm.io/gorm"
)

// NotificationDispatcher persists user-addressed notification records as a
// side effect of domain actions. One call, one row; there is no deduplication
// and no delivery guarantee beyond database durability — clients poll.
type NotificationDispatcher struct {
	db *gorm.DB
}

func NewNotificationDispatcher(db *gorm.DB) *NotificationDispatcher {
	return &NotificationDispatcher{db: db}
}

// Dispatch inserts a notification for the given user. Store failures
// propagate to the caller; the caller's primary mutation is not rolled back.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, userID uint, typ models.NotificationType, title, message, url string) (*models.Notification, error) {
	n := models.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
		URL:     url,
	}
	if err := d.db.WithContext(ctx).Create(&n).Error; err != nil {
		return nil, fmt.Errorf("persisting notification: %w", err)
	}
	return &n, nil
}

// GroupJoinRequested notifies a group owner about a pending join request.
func (d *NotificationDispatcher) GroupJoinRequested(ctx context.Context, ownerID uint, requesterName, groupName string, groupID uint) (*models.Notification, error) {
	return d.Dispatch(ctx, ownerID, models.NotificationGroupRequest,
		"Neue Beitrittsanfrage",
		fmt.Sprintf("%s möchte der Gruppe \"%s\" beitreten.", requesterName, groupName),
		fmt.Sprintf("/groups/%d/requests", groupID))
}

// GroupApproved notifies a member that their join request was approved.
func (d *NotificationDispatcher) GroupApproved(ctx context.Context, memberID uint, groupName string, groupID uint) (*models.Notification, error) {
	return d.Dispatch(ctx, memberID, models.NotificationGroupApproved,
		"Beitritt bestätigt",
		fmt.Sprintf("Ihre Anfrage für die Gruppe \"%s\" wurde angenommen.", groupName),
		fmt.Sprintf("/groups/%d", groupID))
}

// GroupInvited notifies a user about a group invitation.
func (d *NotificationDispatcher) GroupInvited(ctx context.Context, inviteeID uint, inviterName, groupName, linkToken string) (*models.Notification, error) {
	return d.Dispatch(ctx, inviteeID, models.NotificationGroupInvite,
		"Gruppeneinladung",
		fmt.Sprintf("%s hat Sie in die Gruppe \"%s\" eingeladen.", inviterName, groupName),
		fmt.Sprintf("/groups/invite/%s", linkToken))
}

// MatchRequested notifies the receiver of a new connection request.
func (d *NotificationDispatcher) MatchRequested(ctx context.Context, receiverID uint, senderCompany string, matchID uint) (*models.Notification, error) {
	return d.Dispatch(ctx, receiverID, models.NotificationMatchRequest,
		"Neue Matching-Anfrage",
		fmt.Sprintf("%s möchte sich mit Ihnen vernetzen.", senderCompany),
		fmt.Sprintf("/matches/%d", matchID))
}

// MatchAccepted notifies the other party that their match was accepted.
func (d *NotificationDispatcher) MatchAccepted(ctx context.Context, userID uint, companyName string, matchID uint) (*models.Notification, error) {
	return d.Dispatch(ctx, userID, models.NotificationMatchAccepted,
		"Match angenommen",
		fmt.Sprintf("%s hat Ihre Anfrage angenommen.", companyName),
		fmt.Sprintf("/matches/%d", matchID))
}

// MatchConnected notifies both parties that a match is now connected.
func (d *NotificationDispatcher) MatchConnected(ctx context.Context, userID uint, companyName string, matchID uint) (*models.Notification, error) {
	return d.Dispatch(ctx, userID, models.NotificationMatchConnected,
		"Verbindung hergestellt",
		fmt.Sprintf("Sie sind jetzt mit %s verbunden.", companyName),
		fmt.Sprintf("/matches/%d", matchID))
}

// BookingConfirmed notifies a user that their event booking is confirmed.
func (d *NotificationDispatcher) BookingConfirmed(ctx context.Context, userID uint, eventTitle string, bookingID uint) (*models.Notification, error) {
	return d.Dispatch(ctx, userID, models.NotificationBookingConfirmed,
		"Buchung bestätigt",
		fmt.Sprintf("Ihre Buchung für \"%s\" wurde bestätigt.", eventTitle),
		fmt.Sprintf("/bookings/%d", bookingID))
}
