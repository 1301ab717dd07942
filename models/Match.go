package models

import "time"

// MatchStatus is the lifecycle state of a match between two companies.
type MatchStatus string

const (
	MatchPending            MatchStatus = "PENDING"
	MatchAcceptedBySender   MatchStatus = "ACCEPTED_BY_SENDER"
	MatchAcceptedByReceiver MatchStatus = "ACCEPTED_BY_RECEIVER"
	MatchAccepted           MatchStatus = "ACCEPTED"
	MatchConnected          MatchStatus = "CONNECTED"
	MatchDeclined           MatchStatus = "DECLINED"
	MatchExpired            MatchStatus = "EXPIRED"
)

// Match is a directed connection proposal between two (user, company) pairs.
type Match struct {
	ID uint `json:"id" gorm:"primaryKey"`

	SenderUserID    uint    `json:"senderUserID" gorm:"not null;index"`
	SenderUser      User    `json:"senderUser" gorm:"foreignKey:SenderUserID"`
	SenderCompanyID uint    `json:"senderCompanyID" gorm:"not null"`
	SenderCompany   Company `json:"senderCompany" gorm:"foreignKey:SenderCompanyID"`

	ReceiverUserID    uint    `json:"receiverUserID" gorm:"not null;index"`
	ReceiverUser      User    `json:"receiverUser" gorm:"foreignKey:ReceiverUserID"`
	ReceiverCompanyID uint    `json:"receiverCompanyID" gorm:"not null"`
	ReceiverCompany   Company `json:"receiverCompany" gorm:"foreignKey:ReceiverCompanyID"`

	Status MatchStatus `json:"status" gorm:"size:32;index"`
	Score  int         `json:"score"` // 0-100 compatibility score

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
