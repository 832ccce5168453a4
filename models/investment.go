package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Investment is a named position held by its owner.
type Investment struct {
	ID          string `gorm:"primaryKey;size:36"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	OwnerID     string    `gorm:"size:36;index;not null"`
	Name        string    `gorm:"size:255;not null"`
	Amount      Amount    `gorm:"not null"`
	Currency    string    `gorm:"size:16;not null"`
	Type        string    `gorm:"size:64;not null"`
	Description string    `gorm:"size:512"`
	Date        time.Time `gorm:"not null"`
}

func (i *Investment) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
