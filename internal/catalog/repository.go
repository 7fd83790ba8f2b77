package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Search(ctx context.Context, c Criteria) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const productColumns = `p.id, p.name, p.description, p.price, p.stock, p.color, p.style,
		       COALESCE(p.category_id, 0), COALESCE(c.name, ''), p.image_url, p.created_at`

// Search returns in-stock products matching the criteria, newest first.
func (r *postgresRepository) Search(ctx context.Context, c Criteria) ([]Product, error) {
	conditions := []string{"p.stock > 0"}
	var args []any
	argIdx := 1

	if id, ok := CategoryID(c.Category); ok {
		conditions = append(conditions, fmt.Sprintf("p.category_id = $%d", argIdx))
		args = append(args, id)
		argIdx++
	}
	if c.Color != "" {
		conditions = append(conditions, fmt.Sprintf("p.color ILIKE $%d", argIdx))
		args = append(args, "%"+c.Color+"%")
		argIdx++
	}
	// Styles match whole, so "casual" does not pick up "smart casual".
	if c.Style != "" {
		conditions = append(conditions, fmt.Sprintf(`regexp_replace(lower(trim(p.style)), '[\s_-]+', ' ', 'g') = $%d`, argIdx))
		args = append(args, NormalizeStyle(c.Style))
		argIdx++
	}
	if c.PriceRange != nil {
		if c.PriceRange.Min > 0 {
			conditions = append(conditions, fmt.Sprintf("p.price >= $%d", argIdx))
			args = append(args, c.PriceRange.Min)
			argIdx++
		}
		if c.PriceRange.Max > 0 {
			conditions = append(conditions, fmt.Sprintf("p.price <= $%d", argIdx))
			args = append(args, c.PriceRange.Max)
			argIdx++
		}
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE %s
		ORDER BY p.id DESC
		LIMIT $%d`, productColumns, strings.Join(conditions, " AND "), argIdx)
	args = append(args, c.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1`, productColumns)

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying product by id: %w", err)
	}
	return p, nil
}

func scanProduct(row pgx.Row) (*Product, error) {
	p := &Product{}
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Color, &p.Style,
		&p.CategoryID, &p.Category, &p.ImageURL, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
