// Package report builds the month-bounded per-currency report printed by ledgerctl.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"finledger/pkg/ledger"
)

// Report covers the savings and expenses of one identity dated within a calendar month (UTC).
type Report struct {
	Owner     ledger.Identity
	Month     string
	Start     time.Time
	End       time.Time
	Summaries []ledger.CurrencySummary
	Records   []ledger.Record
}

// ParseMonth returns the first instant of month (YYYY-MM) and of the month after it.
func ParseMonth(month string) (time.Time, time.Time, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month format, expected YYYY-MM: %w", err)
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0), nil
}

// Monthly reads the identity's records through repo and keeps those dated in month.
func Monthly(ctx context.Context, repo *ledger.Repository, owner ledger.Identity, month string) (Report, error) {
	start, end, err := ParseMonth(month)
	if err != nil {
		return Report{}, err
	}
	ctx = ledger.WithIdentity(ctx, owner)
	savings, err := repo.List(ctx, ledger.KindSaving)
	if err != nil {
		return Report{}, err
	}
	expenses, err := repo.List(ctx, ledger.KindExpense)
	if err != nil {
		return Report{}, err
	}
	savings = within(savings, start, end)
	expenses = within(expenses, start, end)

	records := append(append([]ledger.Record{}, savings...), expenses...)
	ledger.SortByDateDesc(records)
	return Report{
		Owner:     owner,
		Month:     month,
		Start:     start,
		End:       end,
		Summaries: ledger.Summarize(savings, expenses),
		Records:   records,
	}, nil
}

func within(recs []ledger.Record, start, end time.Time) []ledger.Record {
	var out []ledger.Record
	for _, r := range recs {
		if !r.Date.Before(start) && r.Date.Before(end) {
			out = append(out, r)
		}
	}
	return out
}

// Write prints the report and, when list is set, one line per record.
func Write(w io.Writer, r Report, list bool) error {
	if _, err := fmt.Fprintf(w, "Report for user=%s month=%s (UTC):\n", r.Owner.Email, r.Month); err != nil {
		return err
	}
	fmt.Fprintf(w, "  records=%d\n", len(r.Records))
	for _, s := range r.Summaries {
		sign := ""
		if s.BalanceLabel == "negative" {
			sign = "-"
		}
		fmt.Fprintf(w, "  %s savings=%s expenses=%s balance=%s%s\n",
			s.Currency, s.SavingsDisplay, s.ExpensesDisplay, sign, s.BalanceDisplay)
	}
	if !list {
		return nil
	}
	for _, rec := range r.Records {
		fmt.Fprintf(w, "%s|%s|%s|%s|%s|%s\n", rec.ID, rec.Kind, rec.Type,
			ledger.FormatAmount(rec.Amount, rec.Currency), rec.Date.Format(time.RFC3339), rec.CreatedAt.Format(time.RFC3339))
	}
	return nil
}
