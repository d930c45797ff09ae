// Package cart holds the line items of a draft invoice.
package cart

import (
	"errors"
	"math"
	"sync"

	"invoice-desk/internal/models"
	"invoice-desk/internal/util"
)

// ErrCartEmpty is returned when an operation needs at least one line
var ErrCartEmpty = errors.New("please add at least one item to cart")

// Ledger is an insertion-ordered set of cart lines keyed by product id.
// Quantities never drop below one.
type Ledger struct {
	mu    sync.Mutex
	lines []models.CartLine
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{}
}

// Add merges product into the ledger: an existing line gains one unit,
// otherwise a new line with quantity 1 is appended. Stock is not checked.
func (l *Ledger) Add(product models.Product) models.CartLine {
	l.mu.Lock()
	defer l.mu.Unlock()

	util.CartMutationsTotal.WithLabelValues("add").Inc()

	if i := l.indexOf(product.ID); i >= 0 {
		l.lines[i].Quantity = addQuantity(l.lines[i].Quantity, 1)
		return l.lines[i]
	}

	line := models.CartLine{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  1,
	}
	l.lines = append(l.lines, line)
	return line
}

// UpdateQuantity adds delta to the line's quantity, flooring the result at 1.
// It reports false when no line exists for productID.
func (l *Ledger) UpdateQuantity(productID int64, delta int) (models.CartLine, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(productID)
	if i < 0 {
		return models.CartLine{}, false
	}

	util.CartMutationsTotal.WithLabelValues("update").Inc()

	l.lines[i].Quantity = addQuantity(l.lines[i].Quantity, delta)
	return l.lines[i], true
}

// addQuantity returns q+delta clamped to [1, math.MaxInt]. q is at least 1,
// so a negative delta cannot wrap.
func addQuantity(q, delta int) int {
	if delta > 0 && q > math.MaxInt-delta {
		return math.MaxInt
	}
	if q+delta < 1 {
		return 1
	}
	return q + delta
}

// Remove deletes the line for productID whatever its quantity
func (l *Ledger) Remove(productID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(productID)
	if i < 0 {
		return false
	}

	util.CartMutationsTotal.WithLabelValues("remove").Inc()
	l.lines = append(l.lines[:i], l.lines[i+1:]...)
	return true
}

// Clear empties the ledger
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	util.CartMutationsTotal.WithLabelValues("clear").Inc()
	l.lines = nil
}

// Snapshot returns a copy of the lines in insertion order
func (l *Ledger) Snapshot() []models.CartLine {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.CartLine, len(l.lines))
	copy(out, l.lines)
	return out
}

// Len returns the number of distinct lines
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}

func (l *Ledger) IsEmpty() bool {
	return l.Len() == 0
}

func (l *Ledger) indexOf(productID int64) int {
	for i := range l.lines {
		if l.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}
