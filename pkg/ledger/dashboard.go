package ledger

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Activity is a feed entry: the record plus its display line.
type Activity struct {
	Record
	Label   string `json:"label"`
	Display string `json:"display"`
}

// Dashboard is the aggregated view of an identity's savings and expenses.
type Dashboard struct {
	Summaries []CurrencySummary `json:"summaries"`
	Recent    []Activity        `json:"recent"`
}

// Dashboard fetches the caller's savings and expenses concurrently and aggregates them once
// both lists are in.
func (r *Repository) Dashboard(ctx context.Context, limit int) (Dashboard, error) {
	var savings, expenses []Record
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		savings, err = r.List(gctx, KindSaving)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = r.List(gctx, KindExpense)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{Summaries: Summarize(savings, expenses), Recent: []Activity{}}
	for _, rec := range RecentActivity(savings, expenses, limit) {
		d.Recent = append(d.Recent, Activity{
			Record:  rec,
			Label:   activityLabel(rec),
			Display: FormatAmount(rec.Amount, rec.Currency),
		})
	}
	return d, nil
}

func activityLabel(r Record) string {
	switch r.Kind {
	case KindExpense:
		return "Expense - " + r.Type
	case KindInvestment:
		return "Investment - " + r.Type
	}
	return "Saving - " + r.Type
}
