package models

import "time"

// NotificationType identifies the domain action a notification records.
type NotificationType string

const (
	NotificationGroupRequest     NotificationType = "GROUP_REQUEST"
	NotificationGroupApproved    NotificationType = "GROUP_APPROVED"
	NotificationGroupDeclined    NotificationType = "GROUP_DECLINED"
	NotificationGroupInvite      NotificationType = "GROUP_INVITE"
	NotificationMatchRequest     NotificationType = "MATCH_REQUEST"
	NotificationMatchAccepted    NotificationType = "MATCH_ACCEPTED"
	NotificationMatchConnected   NotificationType = "MATCH_CONNECTED"
	NotificationBookingConfirmed NotificationType = "BOOKING_CONFIRMED"
)

// Notification is a persisted, user-addressed event record surfaced in the UI.
type Notification struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	UserID uint `json:"userID" gorm:"not null;index"`
	User   User `json:"user" gorm:"foreignKey:UserID"`

	Type    NotificationType `json:"type" gorm:"size:32;index"`
	Title   string           `json:"title" gorm:"size:200"`
	Message string           `json:"message" gorm:"size:500"`
	URL     string           `json:"url" gorm:"size:512"` // optional deep link

	IsRead    bool       `json:"isRead" gorm:"default:false"`
	CreatedAt time.Time  `json:"createdAt"`
	ReadAt    *time.Time `json:"readAt"`
}
