package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Saving is money put aside by its owner.
type Saving struct {
	ID          string `gorm:"primaryKey;size:36"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	OwnerID     string    `gorm:"size:36;index;not null"`
	Amount      Amount    `gorm:"not null"`
	Currency    string    `gorm:"size:16;not null"`
	Type        string    `gorm:"size:64;not null"`
	Description string    `gorm:"size:512"`
	Date        time.Time `gorm:"not null"`
}

func (s *Saving) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
