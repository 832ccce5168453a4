package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a registered identity. Email is stored lower-cased and is the login name.
type User struct {
	ID             string `gorm:"primaryKey;size:36"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Name           string `gorm:"size:255;not null"`
	Email          string `gorm:"size:255;not null;uniqueIndex"`
	HashedPassword []byte `gorm:"not null"`

	FailedLoginAttempts int        `gorm:"default:0"`
	LockedUntil         *time.Time `gorm:"index"`
	LastLoginAt         *time.Time

	RefreshTokens []RefreshToken `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
