package products

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Upsert inserts or updates a product keyed by product_id.
func (r *PGRepo) Upsert(ctx context.Context, p Product) error {
	const query = `
INSERT INTO products (product_id, product_name, price, image_url)
VALUES ($1, $2, $3, $4)
ON CONFLICT (product_id) DO UPDATE SET
	product_name = EXCLUDED.product_name,
	price = EXCLUDED.price,
	image_url = EXCLUDED.image_url,
	updated_at = NOW()`
	_, err := r.DB.ExecContext(ctx, query, p.ProductID, p.ProductName, nullString(p.Price), nullString(p.ImageURL))
	return err
}

// Get returns one product by its marketplace id.
func (r *PGRepo) Get(ctx context.Context, productID string) (Product, error) {
	const query = `
SELECT id, product_id, product_name, price, image_url, created_at, updated_at
FROM products
WHERE product_id = $1`
	p, err := scanProduct(r.DB.QueryRowContext(ctx, query, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// List returns products ordered by creation time, newest first.
func (r *PGRepo) List(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 || limit > MaxList {
		limit = MaxList
	}
	const query = `
SELECT id, product_id, product_name, price, image_url, created_at, updated_at
FROM products
ORDER BY created_at DESC
LIMIT $1`
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p        Product
		price    sql.NullString
		imageURL sql.NullString
	)
	if err := row.Scan(&p.ID, &p.ProductID, &p.ProductName, &price, &imageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	p.Price = price.String
	p.ImageURL = imageURL.String
	return p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
