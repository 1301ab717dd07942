package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Company struct {
	gorm.Model
	OwnerID     uint           `json:"ownerID" gorm:"uniqueIndex;not null"` // one company per user
	Name        string         `json:"name" gorm:"size:256;index"`
	Sector      string         `json:"sector" gorm:"size:128;index"`
	Size        string         `json:"size" gorm:"size:32"` // e.g. "1-10", "11-50", "51-200"
	Goals       datatypes.JSON `json:"goals"`
	Description string         `json:"description" gorm:"size:3000"`
	Website     string         `json:"website" gorm:"size:512"`
	City        string         `json:"city" gorm:"size:128"`
}
