package models

import "gorm.io/gorm"

type MarketplaceEntry struct {
	gorm.Model
	UserID    uint     `json:"userID" gorm:"not null;index"`
	User      User     `json:"user" gorm:"foreignKey:UserID"`
	CompanyID *uint    `json:"companyID" gorm:"index"`
	Company   *Company `json:"company,omitempty" gorm:"foreignKey:CompanyID"`

	Title       string  `json:"title" gorm:"size:256;not null"`
	Description string  `json:"description" gorm:"size:3000"`
	Category    string  `json:"category" gorm:"size:64;index"` // offer, request, cooperation
	Price       float64 `json:"price"`
	Status      string  `json:"status" gorm:"size:16;index;default:active"` // active, closed
}
