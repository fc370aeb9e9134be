package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Officer is a directory entry for an investigator.
type Officer struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Avatar string `json:"avatar,omitempty"`
	Online bool   `json:"online"`
}

// OfficerRow is the officers table.
type OfficerRow struct {
	ID      string `gorm:"primaryKey" json:"id"`
	BadgeID string `gorm:"uniqueIndex"`
	Name    string `gorm:"type:text;not null"`
	Role    string
	Avatar  string
	Online  bool

	// TokenHash is the bcrypt hash of the officer's access token.
	TokenHash string `json:"-"`
}

func (OfficerRow) TableName() string { return TableOfficers }

// BeforeCreate generates a UUID for the officer if ID is not set yet.
func (o *OfficerRow) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return
}
