package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Fields is a bag of record fields as submitted by a client. A nil pointer means the field was
// not supplied. Owner, id and timestamps are not part of it: they are never client-supplied.
type Fields struct {
	Name        *string
	Amount      *decimal.Decimal
	Currency    *string
	Type        *string
	Category    *string
	Description *string
	Date        *time.Time
}

// Empty reports whether no field is present.
func (f Fields) Empty() bool {
	return f.Name == nil && f.Amount == nil && f.Currency == nil && f.Type == nil &&
		f.Category == nil && f.Description == nil && f.Date == nil
}

func (f Fields) normalized() Fields {
	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		s := strings.TrimSpace(*p)
		return &s
	}
	out := Fields{
		Name:        trim(f.Name),
		Amount:      f.Amount,
		Currency:    trim(f.Currency),
		Type:        trim(f.Type),
		Category:    trim(f.Category),
		Description: trim(f.Description),
		Date:        f.Date,
	}
	if out.Currency != nil {
		c := strings.ToUpper(*out.Currency)
		out.Currency = &c
	}
	if out.Category != nil {
		c := strings.ToLower(*out.Category)
		out.Category = &c
	}
	return out
}

// ValidateForCreate checks a complete field bag for a new record of kind k and returns it
// normalized: strings trimmed, currency upper-cased and the date defaulted to now.
func ValidateForCreate(k Kind, f Fields, now time.Time) (Fields, error) {
	if !k.Valid() {
		return Fields{}, invalid("kind", "unknown record kind")
	}
	f = f.normalized()
	if err := checkApplicable(k, f); err != nil {
		return Fields{}, err
	}
	if f.Amount == nil {
		return Fields{}, invalid("amount", "is required")
	}
	if err := checkAmount(*f.Amount); err != nil {
		return Fields{}, err
	}
	if blank(f.Currency) {
		return Fields{}, invalid("currency", "is required")
	}
	if blank(f.Type) {
		return Fields{}, invalid("type", "is required")
	}
	if k == KindExpense {
		if blank(f.Category) {
			return Fields{}, invalid("category", "is required")
		}
		if err := checkCategory(*f.Category); err != nil {
			return Fields{}, err
		}
	}
	if k == KindInvestment && blank(f.Name) {
		return Fields{}, invalid("name", "is required")
	}
	if f.Date == nil || f.Date.IsZero() {
		d := now
		f.Date = &d
	}
	return f, nil
}

// ValidateForUpdate applies the create rules to the fields present in a partial bag. Absent
// fields are left untouched by the repository.
func ValidateForUpdate(k Kind, f Fields) (Fields, error) {
	if !k.Valid() {
		return Fields{}, invalid("kind", "unknown record kind")
	}
	if f.Empty() {
		return Fields{}, invalid("fields", "nothing to update")
	}
	f = f.normalized()
	if err := checkApplicable(k, f); err != nil {
		return Fields{}, err
	}
	if f.Amount != nil {
		if err := checkAmount(*f.Amount); err != nil {
			return Fields{}, err
		}
	}
	if f.Currency != nil && *f.Currency == "" {
		return Fields{}, invalid("currency", "must not be empty")
	}
	if f.Type != nil && *f.Type == "" {
		return Fields{}, invalid("type", "must not be empty")
	}
	if f.Category != nil {
		if err := checkCategory(*f.Category); err != nil {
			return Fields{}, err
		}
	}
	if f.Name != nil && *f.Name == "" {
		return Fields{}, invalid("name", "must not be empty")
	}
	if f.Date != nil && f.Date.IsZero() {
		return Fields{}, invalid("date", "must not be zero")
	}
	return f, nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate accepts an RFC 3339 timestamp, a local timestamp without zone or a calendar date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, invalid("date", "expected YYYY-MM-DD or RFC 3339")
}

func checkApplicable(k Kind, f Fields) error {
	if f.Category != nil && k != KindExpense {
		return invalid("category", "only expenses have a category")
	}
	if f.Name != nil && k != KindInvestment {
		return invalid("name", "only investments have a name")
	}
	return nil
}

// Amounts are stored as numeric(20,8).
const (
	AmountScale         = 8
	AmountIntegerDigits = 12
)

var amountLimit = decimal.New(1, AmountIntegerDigits)

func checkAmount(a decimal.Decimal) error {
	if !a.IsPositive() {
		return invalid("amount", "must be greater than zero")
	}
	if a.Cmp(amountLimit) >= 0 {
		return invalid("amount", "must have at most 12 integer digits")
	}
	if !a.Equal(a.Truncate(AmountScale)) {
		return invalid("amount", "must have at most 8 decimal places")
	}
	return nil
}

func checkCategory(c string) error {
	if !Category(c).Valid() {
		return invalid("category", "must be one of essential, discretionary, luxury")
	}
	return nil
}

func blank(p *string) bool { return p == nil || *p == "" }
