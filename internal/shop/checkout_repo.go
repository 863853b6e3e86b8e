package shop

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type CheckoutRepo struct{ DB *pgxpool.Pool }

// CreateOrderTx converts the user's cart into an order in a single
// transaction: every product row is locked FOR UPDATE (in cart-line order,
// which callers supply sorted by product id), stock is re-validated under
// the lock, the order and its price-snapshotted items are inserted, stock is
// decremented, and the ordered lines are removed from the cart. Any shortfall
// rolls the whole unit back.
func (r *CheckoutRepo) CreateOrderTx(ctx context.Context, userID uuid.UUID, lines []CartLine) (Order, error) {
	if len(lines) == 0 {
		return Order{}, ErrEmptyCart
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	type locked struct {
		price decimal.Decimal
		stock int
	}
	current := make(map[uuid.UUID]locked, len(lines))
	total := decimal.Zero

	for _, l := range lines {
		var c locked
		err := tx.QueryRow(ctx, `SELECT price, stock FROM products WHERE id=$1 FOR UPDATE`,
			l.ProductID).Scan(&c.price, &c.stock)
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		if err != nil {
			return Order{}, err
		}
		if c.stock < l.Qty {
			return Order{}, &InsufficientStockError{
				ProductID:   l.ProductID,
				ProductName: l.ProductName,
				Requested:   l.Qty,
				Available:   c.stock,
			}
		}
		current[l.ProductID] = c
		total = total.Add(c.price.Mul(decimal.NewFromInt(int64(l.Qty))))
	}

	order := Order{
		ID:     uuid.New(),
		UserID: userID,
		Status: StatusNew,
		Total:  total,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(id, user_id, status, total)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		order.ID, order.UserID, order.Status, order.Total).
		Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return Order{}, err
	}

	for _, l := range lines {
		c := current[l.ProductID]
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, qty, price)
			VALUES ($1, $2, $3, $4)`,
			order.ID, l.ProductID, l.Qty, c.price); err != nil {
			return Order{}, err
		}
		if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock - $2, updated_at = now() WHERE id=$1`,
			l.ProductID, l.Qty); err != nil {
			return Order{}, err
		}
	}

	// Only the ordered lines are cleared; a line added after the caller read
	// the cart stays in place for the next checkout.
	ordered := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ordered = append(ordered, l.ProductID)
	}
	if _, err := tx.Exec(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.cart_id = c.id AND c.user_id = $1 AND ci.product_id = ANY($2)`,
		userID, ordered); err != nil {
		return Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return order, nil
}
