package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	AddOrIncrement(ctx context.Context, userID string, productID int64, quantity int) (*Item, error)
	Delete(ctx context.Context, userID string, productID int64) (*Item, error)
	ListByUser(ctx context.Context, userID string) ([]Item, error)
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

// AddOrIncrement inserts the line or bumps its quantity. The product row is
// locked so concurrent adds cannot oversell the remaining stock.
func (r *postgresRepository) AddOrIncrement(ctx context.Context, userID string, productID int64, quantity int) (*Item, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning cart tx: %w", err)
	}
	defer tx.Rollback(ctx)

	item := &Item{ProductID: productID}
	var stock int
	err = tx.QueryRow(ctx,
		`SELECT name, price, stock, color, style FROM products WHERE id = $1 FOR UPDATE`,
		productID,
	).Scan(&item.Name, &item.Price, &stock, &item.Color, &item.Style)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("locking product: %w", err)
	}

	var existing int
	err = tx.QueryRow(ctx,
		`SELECT quantity FROM cart_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	).Scan(&existing)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reading cart line: %w", err)
	}
	if existing+quantity > stock {
		return nil, ErrOutOfStock
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, quantity`,
		userID, productID, quantity,
	).Scan(&item.ID, &item.Quantity)
	if err != nil {
		return nil, fmt.Errorf("upserting cart line: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing cart tx: %w", err)
	}
	return item, nil
}

func (r *postgresRepository) Delete(ctx context.Context, userID string, productID int64) (*Item, error) {
	query := `
		WITH deleted AS (
			DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2
			RETURNING id, product_id, quantity
		)
		SELECT d.id, d.product_id, p.name, p.price, d.quantity, p.color, p.style
		FROM deleted d
		JOIN products p ON p.id = d.product_id`

	item := &Item{}
	err := r.pool.QueryRow(ctx, query, userID, productID).Scan(
		&item.ID, &item.ProductID, &item.Name, &item.Price, &item.Quantity, &item.Color, &item.Style)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotInCart
		}
		return nil, fmt.Errorf("deleting cart line: %w", err)
	}
	return item, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID string) ([]Item, error) {
	query := `
		SELECT ci.id, ci.product_id, p.name, p.price, ci.quantity, p.color, p.style
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at, ci.id`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Name, &it.Price, &it.Quantity, &it.Color, &it.Style); err != nil {
			return nil, fmt.Errorf("scanning cart item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
