package models

import (
	"time"

	"gorm.io/gorm"
)

// News is an admin-authored article shown on the platform start page.
type News struct {
	gorm.Model
	Title       string     `json:"title" gorm:"size:256;not null"`
	Teaser      string     `json:"teaser" gorm:"size:500"`
	Content     string     `json:"content" gorm:"type:text"`
	ImageURL    string     `json:"imageURL" gorm:"size:512"`
	AuthorID    uint       `json:"authorID" gorm:"index"`
	Author      User       `json:"author" gorm:"foreignKey:AuthorID"`
	PublishedAt *time.Time `json:"publishedAt" gorm:"index"`
}
