package products

import "context"

// Repo defines persistence operations for products.
type Repo interface {
	// Upsert inserts the product or refreshes name, price and image of an existing one.
	Upsert(ctx context.Context, p Product) error
	Get(ctx context.Context, productID string) (Product, error)
	// List returns up to limit products, newest first.
	List(ctx context.Context, limit int) ([]Product, error)
}
