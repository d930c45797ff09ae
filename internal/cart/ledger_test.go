package cart

import (
	"math"
	"sync"
	"testing"

	"invoice-desk/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id int64, name, price string, stock int) models.Product {
	return models.Product{
		ID:    id,
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
}

func TestAdd_MergesSameProduct(t *testing.T) {
	l := NewLedger()
	p := product(7, "Sugar 1kg", "45", 12)

	for i := 0; i < 5; i++ {
		l.Add(p)
	}

	lines := l.Snapshot()
	require.Len(t, lines, 1)
	assert.Equal(t, int64(7), lines[0].ProductID)
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestAdd_PreservesInsertionOrder(t *testing.T) {
	l := NewLedger()
	l.Add(product(3, "Tea", "120", 4))
	l.Add(product(1, "Milk", "28", 30))
	l.Add(product(3, "Tea", "120", 4))
	l.Add(product(2, "Bread", "40", 9))

	lines := l.Snapshot()
	require.Len(t, lines, 3)
	assert.Equal(t, []int64{3, 1, 2}, []int64{lines[0].ProductID, lines[1].ProductID, lines[2].ProductID})
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestAdd_SnapshotsNameAndPrice(t *testing.T) {
	l := NewLedger()
	l.Add(product(1, "Oil", "150", 3))

	// A later catalog price change must not touch the existing line.
	l.Add(product(1, "Oil (new pack)", "175", 3))

	lines := l.Snapshot()
	require.Len(t, lines, 1)
	assert.Equal(t, "Oil", lines[0].Name)
	assert.True(t, decimal.RequireFromString("150").Equal(lines[0].Price))
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestAdd_AllowsOutOfStock(t *testing.T) {
	l := NewLedger()
	line := l.Add(product(9, "Salt", "20", 0))

	assert.Equal(t, 1, line.Quantity)
	assert.Equal(t, 1, l.Len())
}

func TestUpdateQuantity_FloorsAtOne(t *testing.T) {
	l := NewLedger()
	l.Add(product(1, "Soap", "35", 10))
	l.Add(product(1, "Soap", "35", 10))

	for i := 0; i < 10; i++ {
		line, ok := l.UpdateQuantity(1, -1)
		require.True(t, ok)
		assert.GreaterOrEqual(t, line.Quantity, 1)
	}

	assert.Equal(t, 1, l.Snapshot()[0].Quantity)

	line, ok := l.UpdateQuantity(1, -50)
	require.True(t, ok)
	assert.Equal(t, 1, line.Quantity)
}

func TestUpdateQuantity_Increment(t *testing.T) {
	l := NewLedger()
	l.Add(product(1, "Soap", "35", 10))

	line, ok := l.UpdateQuantity(1, 3)
	require.True(t, ok)
	assert.Equal(t, 4, line.Quantity)
}

func TestQuantity_SaturatesAtExtremes(t *testing.T) {
	l := NewLedger()
	p := product(7, "Sugar 1kg", "45", 12)

	l.Add(p)
	line, ok := l.UpdateQuantity(7, math.MaxInt-1)
	require.True(t, ok)
	assert.Equal(t, math.MaxInt, line.Quantity)

	line = l.Add(p)
	assert.Equal(t, math.MaxInt, line.Quantity)

	line, _ = l.UpdateQuantity(7, math.MaxInt)
	assert.Equal(t, math.MaxInt, line.Quantity)

	line, _ = l.UpdateQuantity(7, math.MinInt)
	assert.Equal(t, 1, line.Quantity)

	line, _ = l.UpdateQuantity(7, math.MinInt)
	assert.Equal(t, 1, line.Quantity)

	for _, got := range l.Snapshot() {
		assert.GreaterOrEqual(t, got.Quantity, 1)
	}
}

func TestUpdateQuantity_UnknownProduct(t *testing.T) {
	l := NewLedger()

	_, ok := l.UpdateQuantity(42, 1)
	assert.False(t, ok)
	assert.True(t, l.IsEmpty())
}

func TestRemove_ThenAddStartsAtOne(t *testing.T) {
	l := NewLedger()
	p := product(5, "Flour", "60", 8)
	l.Add(p)
	l.Add(p)
	l.Add(p)

	assert.True(t, l.Remove(5))
	assert.True(t, l.IsEmpty())

	line := l.Add(p)
	assert.Equal(t, 1, line.Quantity)
}

func TestRemove_UnknownProduct(t *testing.T) {
	l := NewLedger()
	l.Add(product(1, "Flour", "60", 8))

	assert.False(t, l.Remove(2))
	assert.Equal(t, 1, l.Len())
}

func TestClear(t *testing.T) {
	l := NewLedger()
	l.Add(product(1, "Flour", "60", 8))
	l.Add(product(2, "Dal", "110", 8))

	l.Clear()

	assert.True(t, l.IsEmpty())
	assert.Empty(t, l.Snapshot())
}

func TestSnapshot_IsACopy(t *testing.T) {
	l := NewLedger()
	l.Add(product(1, "Flour", "60", 8))

	snap := l.Snapshot()
	snap[0].Quantity = 99

	assert.Equal(t, 1, l.Snapshot()[0].Quantity)
}

func TestLedger_ConcurrentAdds(t *testing.T) {
	l := NewLedger()
	p := product(1, "Matches", "2", 100)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Add(p)
		}()
	}
	wg.Wait()

	lines := l.Snapshot()
	require.Len(t, lines, 1)
	assert.Equal(t, 50, lines[0].Quantity)
}
