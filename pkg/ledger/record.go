// Package ledger holds the savings, expenses and investments of an identity: the record
// shapes, their validation, the owner-scoped repository and the dashboard aggregation.
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind discriminates the three record variants.
type Kind string

const (
	KindSaving     Kind = "saving"
	KindExpense    Kind = "expense"
	KindInvestment Kind = "investment"
)

// Kinds lists every record kind.
var Kinds = []Kind{KindSaving, KindExpense, KindInvestment}

func (k Kind) Valid() bool {
	switch k {
	case KindSaving, KindExpense, KindInvestment:
		return true
	}
	return false
}

// ParseKind accepts the singular kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown record kind %q", s)
	}
	return k, nil
}

// Category classifies an expense.
type Category string

const (
	Essential     Category = "essential"
	Discretionary Category = "discretionary"
	Luxury        Category = "luxury"
)

// Categories lists the allowed expense categories.
var Categories = []Category{Essential, Discretionary, Luxury}

func (c Category) Valid() bool {
	switch c {
	case Essential, Discretionary, Luxury:
		return true
	}
	return false
}

// Record is a Saving, Expense or Investment. Kind is set when the record is built and is never
// inferred from which fields are filled in. Category is only meaningful for expenses and Name
// only for investments.
type Record struct {
	Kind        Kind            `json:"kind"`
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Name        string          `json:"name,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Type        string          `json:"type"`
	Category    Category        `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// newRecord builds a record of kind k from a normalized create bag.
func newRecord(k Kind, f Fields) Record {
	r := Record{Kind: k}
	if f.Amount != nil {
		r.Amount = *f.Amount
	}
	if f.Currency != nil {
		r.Currency = *f.Currency
	}
	if f.Type != nil {
		r.Type = *f.Type
	}
	if f.Description != nil {
		r.Description = *f.Description
	}
	if f.Date != nil {
		r.Date = *f.Date
	}
	if k == KindExpense && f.Category != nil {
		r.Category = Category(*f.Category)
	}
	if k == KindInvestment && f.Name != nil {
		r.Name = *f.Name
	}
	return r
}
