package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Expense is money spent by its owner. Category is one of essential, discretionary or luxury.
type Expense struct {
	ID          string `gorm:"primaryKey;size:36"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	OwnerID     string    `gorm:"size:36;index;not null"`
	Amount      Amount    `gorm:"not null"`
	Currency    string    `gorm:"size:16;not null"`
	Type        string    `gorm:"size:64;not null"`
	Category    string    `gorm:"size:32;not null"`
	Description string    `gorm:"size:512"`
	Date        time.Time `gorm:"not null"`
}

func (e *Expense) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
