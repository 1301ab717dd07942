package models

import "time"

// Message is a chat message between two users, grouped by the channel key
// derived by the channel resolver (match:<id> or direct:<low>:<high>).
type Message struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	ChannelKey string `json:"channelKey" gorm:"size:64;index;not null"`

	SenderID    uint `json:"senderID" gorm:"not null;index"`
	Sender      User `json:"sender" gorm:"foreignKey:SenderID"`
	RecipientID uint `json:"recipientID" gorm:"not null;index"`
	Recipient   User `json:"recipient" gorm:"foreignKey:RecipientID"`

	Content string `json:"content" gorm:"size:2000"`

	CreatedAt time.Time `json:"createdAt"`
}
