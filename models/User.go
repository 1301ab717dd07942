package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	FirstName           string         `json:"firstName"`
	LastName            string         `json:"lastName"`
	Email               string         `json:"email" gorm:"uniqueIndex;size:256"`
	Password            string         `json:"-"`
	AvatarURL           string         `json:"avatarURL"`
	Bio                 string         `json:"bio"`
	Languages           datatypes.JSON `json:"languages"`
	AllowsNotifications *bool          `json:"allowsNotifications"`
	Role                string         `json:"role" gorm:"type:varchar(20);default:user;index"` // user, admin, super_admin
	Company             *Company       `json:"company,omitempty" gorm:"foreignKey:OwnerID"`
}

func (u *User) IsAdmin() bool {
	return u.Role == "admin" || u.Role == "super_admin"
}

// MarshalJSON flattens the Languages JSON column into a plain string slice.
func (u *User) MarshalJSON() ([]byte, error) {
	type Alias User
	aux := &struct {
		Languages []string `json:"languages"`
		*Alias
	}{
		Languages: []string{},
		Alias:     (*Alias)(u),
	}

	if u.Languages != nil {
		var languages []string
		if err := json.Unmarshal(u.Languages, &languages); err == nil {
			aux.Languages = languages
		}
	}

	return json.Marshal(aux)
}
