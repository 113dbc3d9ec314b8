package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-storefront/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/inventory/ports"
	platformpostgres "github.com/Apurer/go-gin-storefront/internal/platform/postgres"
)

var _ ports.Ledger = (*Ledger)(nil)

// Ledger mutates product stock under row locks.
type Ledger struct {
	db *gorm.DB
}

// NewLedger wires a gorm-backed ledger. Caller manages DB lifecycle.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

type stockRow struct {
	ID    string
	Stock int
}

// Reserve locks every referenced product row in id order, checks all lines,
// then decrements them. Nothing is written unless every line fits.
func (l *Ledger) Reserve(ctx context.Context, lines []domain.Line) error {
	if err := ensureDB(l.db); err != nil {
		return err
	}
	normalized, err := domain.NormalizeLines(lines)
	if err != nil {
		return err
	}
	return platformpostgres.Conn(ctx, l.db).Transaction(func(tx *gorm.DB) error {
		stock, err := lockStock(tx, normalized)
		if err != nil {
			return err
		}
		if err := domain.CheckAvailability(normalized, stock); err != nil {
			return err
		}
		for _, line := range normalized {
			result := tx.Model(&productRecord{}).
				Where("id = ? AND stock >= ?", line.ProductID, line.Quantity).
				Updates(map[string]any{
					"stock":      gorm.Expr("stock - ?", line.Quantity),
					"updated_at": gorm.Expr("NOW()"),
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected != 1 {
				return fmt.Errorf("stock for %s changed while locked", line.ProductID)
			}
		}
		return nil
	})
}

// Release adds previously reserved units back.
func (l *Ledger) Release(ctx context.Context, lines []domain.Line) error {
	if err := ensureDB(l.db); err != nil {
		return err
	}
	normalized, err := domain.NormalizeLines(lines)
	if err != nil {
		return err
	}
	return platformpostgres.Conn(ctx, l.db).Transaction(func(tx *gorm.DB) error {
		if _, err := lockStock(tx, normalized); err != nil {
			return err
		}
		for _, line := range normalized {
			if err := tx.Model(&productRecord{}).
				Where("id = ?", line.ProductID).
				Updates(map[string]any{
					"stock":      gorm.Expr("stock + ?", line.Quantity),
					"updated_at": gorm.Expr("NOW()"),
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (l *Ledger) Available(ctx context.Context, productID string) (int, error) {
	if err := ensureDB(l.db); err != nil {
		return 0, err
	}
	var row stockRow
	err := platformpostgres.Conn(ctx, l.db).
		Model(&productRecord{}).
		Select("id", "stock").
		Where("id = ?", productID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ports.ErrProductNotFound
		}
		return 0, err
	}
	return row.Stock, nil
}

// lockStock takes FOR UPDATE locks on the product rows in ascending id order
// and fails when any product is missing.
func lockStock(tx *gorm.DB, lines []domain.Line) (map[string]int, error) {
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	var rows []stockRow
	if err := tx.Model(&productRecord{}).
		Select("id", "stock").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	stock := make(map[string]int, len(rows))
	for _, row := range rows {
		stock[row.ID] = row.Stock
	}
	for _, id := range ids {
		if _, ok := stock[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ports.ErrProductNotFound, id)
		}
	}
	return stock, nil
}
