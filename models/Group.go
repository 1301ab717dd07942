package models

import (
	"time"

	"gorm.io/gorm"
)

type Group struct {
	gorm.Model
	Name        string `json:"name" gorm:"size:256;not null"`
	Description string `json:"description" gorm:"size:3000"`
	OwnerID     uint   `json:"ownerID" gorm:"not null;index"`
	Owner       User   `json:"owner" gorm:"foreignKey:OwnerID"`
}

// GroupMemberStatus is the membership state of a user within a group.
type GroupMemberStatus string

const (
	GroupMemberRequest GroupMemberStatus = "REQUEST"
	GroupMemberActive  GroupMemberStatus = "ACTIVE"
)

// GroupMember links a user to a group. The composite unique index makes the
// store reject a second row for the same (group, user) pair, so duplicate
// join requests fail on insert instead of racing a lookup.
type GroupMember struct {
	ID      uint  `json:"id" gorm:"primaryKey"`
	GroupID uint  `json:"groupID" gorm:"not null;uniqueIndex:idx_group_user"`
	Group   Group `json:"group" gorm:"foreignKey:GroupID"`
	UserID  uint  `json:"userID" gorm:"not null;uniqueIndex:idx_group_user"`
	User    User  `json:"user" gorm:"foreignKey:UserID"`

	Status   GroupMemberStatus `json:"status" gorm:"size:16;index"`
	JoinedAt *time.Time        `json:"joinedAt"` // stamped on approval

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GroupInvite is a link-based invitation into a group.
type GroupInvite struct {
	ID      uint  `json:"id" gorm:"primaryKey"`
	GroupID uint  `json:"groupID" gorm:"not null;index"`
	Group   Group `json:"group" gorm:"foreignKey:GroupID"`

	InviterID uint `json:"inviterID" gorm:"not null"`
	Inviter   User `json:"inviter" gorm:"foreignKey:InviterID"`

	InviteeUserID *uint `json:"inviteeUserID"`
	Invitee       *User `json:"invitee" gorm:"foreignKey:InviteeUserID"`

	// Use a pointer so NULL does not violate the unique index across rows
	LinkToken *string    `json:"linkToken" gorm:"uniqueIndex;size:64"`
	ExpiresAt *time.Time `json:"expiresAt"`

	Status string `json:"status" gorm:"index;size:16"` // pending, accepted, declined, expired, cancelled

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
