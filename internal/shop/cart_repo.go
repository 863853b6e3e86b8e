package shop

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CartRepo struct{ DB *pgxpool.Pool }

// EnsureCart returns the user's cart id, creating the cart when the user has
// none yet (registration normally creates it, but older rows may predate
// that).
func (r *CartRepo) EnsureCart(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.DB.QueryRow(ctx, `SELECT id FROM carts WHERE user_id=$1`, userID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, err
	}

	id = uuid.New()
	_, err = r.DB.Exec(ctx, `
		INSERT INTO carts(id, user_id) VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING`, id, userID)
	if err != nil {
		return uuid.Nil, err
	}
	// re-read in case a concurrent request won the insert
	err = r.DB.QueryRow(ctx, `SELECT id FROM carts WHERE user_id=$1`, userID).Scan(&id)
	return id, err
}

// Lines loads the cart joined with product name, current price and current
// stock. Ordered by product id so checkout locks rows in a stable order.
func (r *CartRepo) Lines(ctx context.Context, userID uuid.UUID) ([]CartLine, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT ci.product_id, p.name, ci.qty, p.price, p.stock
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		JOIN products p ON p.id = ci.product_id
		WHERE c.user_id = $1
		ORDER BY ci.product_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CartLine
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.Qty, &l.Price, &l.Stock); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// AddLine creates or increments the single line for (cart, product) via an
// additive upsert. The upsert takes the line's row lock (or, for a brand-new
// line, conflicts with the concurrent insert and waits for it), so two
// concurrent adds serialize and neither increment is lost. The stock ceiling
// is checked against the post-increment qty; rollback undoes the write.
// Returns the new line qty and the cart's new total item count.
func (r *CartRepo) AddLine(ctx context.Context, userID, productID uuid.UUID, qty int) (lineQty, totalQty int, err error) {
	cartID, err := r.EnsureCart(ctx, userID)
	if err != nil {
		return 0, 0, err
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var stock int
	err = tx.QueryRow(ctx, `SELECT stock FROM products WHERE id=$1 AND available`, productID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, ErrNotFound
	}
	if err != nil {
		return 0, 0, err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO cart_items(cart_id, product_id, qty) VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET qty = cart_items.qty + EXCLUDED.qty
		RETURNING qty`,
		cartID, productID, qty).Scan(&lineQty)
	if err != nil {
		return 0, 0, err
	}
	if lineQty > stock {
		return 0, 0, ErrOutOfStock
	}

	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(qty), 0) FROM cart_items WHERE cart_id=$1`, cartID).
		Scan(&totalQty); err != nil {
		return 0, 0, err
	}
	return lineQty, totalQty, tx.Commit(ctx)
}

// DecrementLine drops the line's qty by one and deletes it at zero. Missing
// lines are a no-op.
func (r *CartRepo) DecrementLine(ctx context.Context, userID, productID uuid.UUID) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cartID uuid.UUID
	var qty int
	err = tx.QueryRow(ctx, `
		SELECT ci.cart_id, ci.qty
		FROM cart_items ci JOIN carts c ON c.id = ci.cart_id
		WHERE c.user_id=$1 AND ci.product_id=$2
		FOR UPDATE OF ci`, userID, productID).Scan(&cartID, &qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	if qty <= 1 {
		_, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id=$1 AND product_id=$2`, cartID, productID)
	} else {
		_, err = tx.Exec(ctx, `UPDATE cart_items SET qty = qty - 1 WHERE cart_id=$1 AND product_id=$2`, cartID, productID)
	}
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RemoveLine deletes the line regardless of quantity; missing lines are a
// no-op.
func (r *CartRepo) RemoveLine(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.cart_id = c.id AND c.user_id=$1 AND ci.product_id=$2`,
		userID, productID)
	return err
}
