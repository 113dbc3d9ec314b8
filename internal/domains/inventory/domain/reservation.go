package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInsufficientStock matches any *InsufficientStockError.
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("reservation quantity must be greater than zero")
	ErrEmptyReservation  = errors.New("reservation has no lines")
)

// Line asks the ledger for quantity units of one product.
type Line struct {
	ProductID string
	Quantity  int
}

// Shortage describes one line the ledger could not satisfy.
type Shortage struct {
	ProductID string `json:"productId"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// InsufficientStockError lists every line that exceeded available stock.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s (requested %d, available %d)", s.ProductID, s.Requested, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// NormalizeLines validates lines, merges repeated products and sorts by product id.
// Sorted order is the lock order used by persistent ledgers.
func NormalizeLines(lines []Line) ([]Line, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyReservation
	}
	totals := make(map[string]int, len(lines))
	for _, line := range lines {
		id := strings.TrimSpace(line.ProductID)
		if id == "" {
			return nil, ErrInvalidProductID
		}
		if line.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		totals[id] += line.Quantity
	}
	merged := make([]Line, 0, len(totals))
	for id, qty := range totals {
		merged = append(merged, Line{ProductID: id, Quantity: qty})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ProductID < merged[j].ProductID })
	return merged, nil
}

// CheckAvailability compares normalized lines with current stock levels and
// returns an InsufficientStockError naming every short line.
func CheckAvailability(lines []Line, stock map[string]int) error {
	var shortages []Shortage
	for _, line := range lines {
		available := stock[line.ProductID]
		if line.Quantity > available {
			shortages = append(shortages, Shortage{ProductID: line.ProductID, Requested: line.Quantity, Available: available})
		}
	}
	if len(shortages) > 0 {
		return &InsufficientStockError{Shortages: shortages}
	}
	return nil
}
