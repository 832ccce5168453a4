package ledger

import (
	"slices"

	"github.com/shopspring/decimal"
)

const (
	// RecentPerKind is how many of each list enter the activity feed before merging.
	RecentPerKind = 5
	// DefaultRecentLimit is the feed length when the caller gives none.
	DefaultRecentLimit = 5
)

// TotalsByCurrency sums amounts per currency code.
func TotalsByCurrency(records []Record) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, r := range records {
		totals[r.Currency] = totals[r.Currency].Add(r.Amount)
	}
	return totals
}

// AllCurrencies returns the distinct currency codes used by either list, sorted.
func AllCurrencies(savings, expenses []Record) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range [][]Record{savings, expenses} {
		for _, r := range list {
			if _, ok := seen[r.Currency]; ok {
				continue
			}
			seen[r.Currency] = struct{}{}
			out = append(out, r.Currency)
		}
	}
	slices.Sort(out)
	return out
}

// AvailableBalance is what is left of the savings once expenses are taken out. It may be negative.
func AvailableBalance(savingsTotal, expensesTotal decimal.Decimal) decimal.Decimal {
	return savingsTotal.Sub(expensesTotal)
}

// BalanceLabel names the sign of a balance for display next to its absolute value.
func BalanceLabel(balance decimal.Decimal) string {
	if balance.IsNegative() {
		return "negative"
	}
	return "available"
}

// RecentActivity interleaves the two lists for the activity feed. It takes the first
// RecentPerKind records of each list as given, merges them newest first and keeps limit of them.
// A list with many recent records can crowd the other one out entirely.
func RecentActivity(savings, expenses []Record, limit int) []Record {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	merged := make([]Record, 0, 2*RecentPerKind)
	merged = append(merged, savings[:min(len(savings), RecentPerKind)]...)
	merged = append(merged, expenses[:min(len(expenses), RecentPerKind)]...)
	SortByDateDesc(merged)
	return merged[:min(len(merged), limit)]
}

// CurrencySummary is one dashboard card.
type CurrencySummary struct {
	Currency        string          `json:"currency"`
	Savings         decimal.Decimal `json:"savings"`
	Expenses        decimal.Decimal `json:"expenses"`
	Balance         decimal.Decimal `json:"balance"`
	BalanceLabel    string          `json:"balance_label"`
	SavingsDisplay  string          `json:"savings_display"`
	ExpensesDisplay string          `json:"expenses_display"`
	BalanceDisplay  string          `json:"balance_display"`
}

// Summarize builds a summary per currency used by either list.
func Summarize(savings, expenses []Record) []CurrencySummary {
	st := TotalsByCurrency(savings)
	et := TotalsByCurrency(expenses)
	currencies := AllCurrencies(savings, expenses)
	out := make([]CurrencySummary, 0, len(currencies))
	for _, c := range currencies {
		bal := AvailableBalance(st[c], et[c])
		out = append(out, CurrencySummary{
			Currency:        c,
			Savings:         st[c],
			Expenses:        et[c],
			Balance:         bal,
			BalanceLabel:    BalanceLabel(bal),
			SavingsDisplay:  FormatAmount(st[c], c),
			ExpensesDisplay: FormatAmount(et[c], c),
			BalanceDisplay:  FormatAmount(bal.Abs(), c),
		})
	}
	return out
}
