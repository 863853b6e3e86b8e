package cart

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ariefcatur/go-storefront/internal/shop"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "cart").Logger()

// Repo is the cart persistence contract. The SQL implementation enforces the
// stock ceiling and line uniqueness under row locks.
type Repo interface {
	EnsureCart(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	Lines(ctx context.Context, userID uuid.UUID) ([]shop.CartLine, error)
	AddLine(ctx context.Context, userID, productID uuid.UUID, qty int) (lineQty, totalQty int, err error)
	DecrementLine(ctx context.Context, userID, productID uuid.UUID) error
	RemoveLine(ctx context.Context, userID, productID uuid.UUID) error
}

type Service struct {
	Repo Repo
}

type AddResult struct {
	LineQty  int
	TotalQty int
}

// AddItem adds qty units of the product to the user's cart, defaulting to
// one. The quantity ceiling (existing + qty <= stock) is enforced by the
// repository.
func (s *Service) AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (AddResult, error) {
	if qty <= 0 {
		qty = 1
	}
	lineQty, totalQty, err := s.Repo.AddLine(ctx, userID, productID, qty)
	if err != nil {
		return AddResult{}, err
	}
	logger.Debug().
		Str("user_id", userID.String()).
		Str("product_id", productID.String()).
		Int("line_qty", lineQty).
		Msg("cart line updated")
	return AddResult{LineQty: lineQty, TotalQty: totalQty}, nil
}

func (s *Service) DecrementItem(ctx context.Context, userID, productID uuid.UUID) error {
	return s.Repo.DecrementLine(ctx, userID, productID)
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	return s.Repo.RemoveLine(ctx, userID, productID)
}

// Summary returns the cart lines with derived totals, creating an empty cart
// for users who have none yet.
func (s *Service) Summary(ctx context.Context, userID uuid.UUID) (shop.CartSummary, error) {
	if _, err := s.Repo.EnsureCart(ctx, userID); err != nil {
		return shop.CartSummary{}, err
	}
	lines, err := s.Repo.Lines(ctx, userID)
	if err != nil {
		return shop.CartSummary{}, err
	}
	return shop.Summarize(lines), nil
}
