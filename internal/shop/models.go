package shop

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	IsStaff      bool
	CreatedAt    time.Time
}

type Product struct {
	ID        uuid.UUID
	SKU       string
	Name      string
	Price     decimal.Decimal
	Stock     int
	Available bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Cart struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

// CartLine is a cart item joined with the product fields the services need:
// current price for totals, current stock for ceiling checks.
type CartLine struct {
	ProductID   uuid.UUID
	ProductName string
	Qty         int
	Price       decimal.Decimal
	Stock       int
}

type CartSummary struct {
	Lines      []CartLine
	TotalQty   int
	TotalPrice decimal.Decimal
}

// Summarize aggregates loaded cart lines. Pure function, no storage access.
func Summarize(lines []CartLine) CartSummary {
	s := CartSummary{Lines: lines, TotalPrice: decimal.Zero}
	for _, l := range lines {
		s.TotalQty += l.Qty
		s.TotalPrice = s.TotalPrice.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Qty))))
	}
	return s
}

type Order struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Status       Status
	Total        decimal.Decimal
	CancelReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OrderItem carries the price snapshot taken at order creation. It is never
// updated after insert.
type OrderItem struct {
	ID        int64
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Qty       int
	Price     decimal.Decimal
}
