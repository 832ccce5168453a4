package store

import (
	"context"
	"fmt"
	"time"

	"finledger/models"
	"finledger/pkg/ledger"

	"gorm.io/gorm"
)

// Records is a ledger.RecordStore backed by one table per record kind.
type Records struct {
	db *gorm.DB
}

// NewRecords returns a record store over db.
func NewRecords(db *gorm.DB) *Records {
	return &Records{db: db}
}

var _ ledger.RecordStore = (*Records)(nil)

func (s *Records) Insert(ctx context.Context, r ledger.Record) (ledger.Record, error) {
	db := s.db.WithContext(ctx)
	switch r.Kind {
	case ledger.KindSaving:
		m := models.Saving{
			CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, OwnerID: r.OwnerID,
			Amount: models.NewAmount(r.Amount), Currency: r.Currency, Type: r.Type, Description: r.Description, Date: r.Date,
		}
		if err := db.Create(&m).Error; err != nil {
			return ledger.Record{}, err
		}
		return savingRecord(m), nil
	case ledger.KindExpense:
		m := models.Expense{
			CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, OwnerID: r.OwnerID,
			Amount: models.NewAmount(r.Amount), Currency: r.Currency, Type: r.Type, Category: string(r.Category),
			Description: r.Description, Date: r.Date,
		}
		if err := db.Create(&m).Error; err != nil {
			return ledger.Record{}, err
		}
		return expenseRecord(m), nil
	case ledger.KindInvestment:
		m := models.Investment{
			CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, OwnerID: r.OwnerID, Name: r.Name,
			Amount: models.NewAmount(r.Amount), Currency: r.Currency, Type: r.Type, Description: r.Description, Date: r.Date,
		}
		if err := db.Create(&m).Error; err != nil {
			return ledger.Record{}, err
		}
		return investmentRecord(m), nil
	}
	return ledger.Record{}, unknownKind(r.Kind)
}

// FindByOwner returns the owner's records in no particular order.
func (s *Records) FindByOwner(ctx context.Context, k ledger.Kind, ownerID string) ([]ledger.Record, error) {
	q := s.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	switch k {
	case ledger.KindSaving:
		var rows []models.Saving
		if err := q.Find(&rows).Error; err != nil {
			return nil, err
		}
		return convert(rows, savingRecord), nil
	case ledger.KindExpense:
		var rows []models.Expense
		if err := q.Find(&rows).Error; err != nil {
			return nil, err
		}
		return convert(rows, expenseRecord), nil
	case ledger.KindInvestment:
		var rows []models.Investment
		if err := q.Find(&rows).Error; err != nil {
			return nil, err
		}
		return convert(rows, investmentRecord), nil
	}
	return nil, unknownKind(k)
}

func (s *Records) Patch(ctx context.Context, k ledger.Kind, ownerID, id string, f ledger.Fields, updatedAt time.Time) (ledger.Record, error) {
	model, err := modelFor(k)
	if err != nil {
		return ledger.Record{}, err
	}
	res := s.db.WithContext(ctx).Model(model).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(columns(f, updatedAt))
	if res.Error != nil {
		return ledger.Record{}, res.Error
	}
	if res.RowsAffected == 0 {
		return ledger.Record{}, ledger.ErrNoRecord
	}
	return s.find(ctx, k, ownerID, id)
}

// Remove hard-deletes the owner's record id.
func (s *Records) Remove(ctx context.Context, k ledger.Kind, ownerID, id string) error {
	model, err := modelFor(k)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ledger.ErrNoRecord
	}
	return nil
}

func (s *Records) find(ctx context.Context, k ledger.Kind, ownerID, id string) (ledger.Record, error) {
	q := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID)
	switch k {
	case ledger.KindSaving:
		var m models.Saving
		if err := q.First(&m).Error; err != nil {
			return ledger.Record{}, err
		}
		return savingRecord(m), nil
	case ledger.KindExpense:
		var m models.Expense
		if err := q.First(&m).Error; err != nil {
			return ledger.Record{}, err
		}
		return expenseRecord(m), nil
	case ledger.KindInvestment:
		var m models.Investment
		if err := q.First(&m).Error; err != nil {
			return ledger.Record{}, err
		}
		return investmentRecord(m), nil
	}
	return ledger.Record{}, unknownKind(k)
}

func modelFor(k ledger.Kind) (any, error) {
	switch k {
	case ledger.KindSaving:
		return &models.Saving{}, nil
	case ledger.KindExpense:
		return &models.Expense{}, nil
	case ledger.KindInvestment:
		return &models.Investment{}, nil
	}
	return nil, unknownKind(k)
}

// columns lists the present fields by column name. The repository has already rejected fields
// that do not apply to the kind.
func columns(f ledger.Fields, updatedAt time.Time) map[string]any {
	cols := map[string]any{"updated_at": updatedAt}
	if f.Name != nil {
		cols["name"] = *f.Name
	}
	if f.Amount != nil {
		cols["amount"] = models.NewAmount(*f.Amount)
	}
	if f.Currency != nil {
		cols["currency"] = *f.Currency
	}
	if f.Type != nil {
		cols["type"] = *f.Type
	}
	if f.Category != nil {
		cols["category"] = *f.Category
	}
	if f.Description != nil {
		cols["description"] = *f.Description
	}
	if f.Date != nil {
		cols["date"] = *f.Date
	}
	return cols
}

func convert[M any](rows []M, fn func(M) ledger.Record) []ledger.Record {
	out := make([]ledger.Record, 0, len(rows))
	for _, m := range rows {
		out = append(out, fn(m))
	}
	return out
}

func savingRecord(m models.Saving) ledger.Record {
	return ledger.Record{
		Kind: ledger.KindSaving, ID: m.ID, OwnerID: m.OwnerID,
		Amount: m.Amount.Decimal, Currency: m.Currency, Type: m.Type, Description: m.Description,
		Date: m.Date, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func expenseRecord(m models.Expense) ledger.Record {
	return ledger.Record{
		Kind: ledger.KindExpense, ID: m.ID, OwnerID: m.OwnerID,
		Amount: m.Amount.Decimal, Currency: m.Currency, Type: m.Type, Category: ledger.Category(m.Category),
		Description: m.Description, Date: m.Date, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func investmentRecord(m models.Investment) ledger.Record {
	return ledger.Record{
		Kind: ledger.KindInvestment, ID: m.ID, OwnerID: m.OwnerID, Name: m.Name,
		Amount: m.Amount.Decimal, Currency: m.Currency, Type: m.Type, Description: m.Description,
		Date: m.Date, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func unknownKind(k ledger.Kind) error {
	return fmt.Errorf("unknown record kind %q", k)
}
