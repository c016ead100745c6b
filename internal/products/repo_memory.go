package products

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores products in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[string]Product
	now    func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID: make(map[string]Product),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Upsert stores the product, keeping id and created_at of an existing row.
func (r *MemoryRepo) Upsert(ctx context.Context, p Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if existing, ok := r.byID[p.ProductID]; ok {
		existing.ProductName = p.ProductName
		existing.Price = p.Price
		existing.ImageURL = p.ImageURL
		existing.UpdatedAt = now
		r.byID[p.ProductID] = existing
		return nil
	}

	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = now
	p.UpdatedAt = now
	r.byID[p.ProductID] = p
	return nil
}

// Get returns a product by marketplace id.
func (r *MemoryRepo) Get(ctx context.Context, productID string) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[productID]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

// List returns products newest first.
func (r *MemoryRepo) List(ctx context.Context, limit int) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > MaxList {
		limit = MaxList
	}
	r.mu.RLock()
	items := make([]Product, 0, len(r.byID))
	for _, p := range r.byID {
		items = append(items, p)
	}
	r.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
