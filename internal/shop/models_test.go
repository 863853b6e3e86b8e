package shop

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	lines := []CartLine{
		{ProductID: uuid.New(), ProductName: "A", Qty: 2, Price: decimal.RequireFromString("100.00")},
		{ProductID: uuid.New(), ProductName: "B", Qty: 1, Price: decimal.RequireFromString("50.00")},
	}
	s := Summarize(lines)
	require.Equal(t, 3, s.TotalQty)
	require.Equal(t, "250.00", s.TotalPrice.StringFixed(2))
	require.Len(t, s.Lines, 2)
}

func TestSummarizeEmpty(t *testing.T) {
	t.Parallel()

	s := Summarize(nil)
	require.Zero(t, s.TotalQty)
	require.True(t, s.TotalPrice.IsZero())
}

func TestInsufficientStockErrorNamesProduct(t *testing.T) {
	t.Parallel()

	err := &InsufficientStockError{
		ProductID:   uuid.New(),
		ProductName: "Gramophone",
		Requested:   2,
		Available:   1,
	}
	require.Contains(t, err.Error(), "Gramophone")
	require.Contains(t, err.Error(), "requested 2")
	require.Contains(t, err.Error(), "available 1")
}
