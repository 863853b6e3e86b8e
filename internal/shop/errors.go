package shop

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrEmptyCart               = errors.New("cart is empty")
	ErrOutOfStock              = errors.New("requested quantity exceeds stock")
	ErrInvalidCredential       = errors.New("invalid credentials")
	ErrInvalidStateForDeletion = errors.New("order can no longer be deleted")
	ErrNotOrderOwner           = errors.New("order belongs to another user")
	ErrProductReferenced       = errors.New("product is referenced by existing orders")
	ErrEmailTaken              = errors.New("email already registered")
	ErrUnknownStatus           = errors.New("unknown order status")
	ErrNotFound                = errors.New("not found")
)

// InsufficientStockError names the first product that failed stock
// re-validation during checkout.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}
