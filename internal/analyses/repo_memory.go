package analyses

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores analyses in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu         sync.RWMutex
	byID       map[string]Analysis
	statistics []StatisticsRecord
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Analysis)}
}

// CreateAnalysis stores the analysis.
func (r *MemoryRepo) CreateAnalysis(ctx context.Context, analysis Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[analysis.ID] = analysis
	return nil
}

// CreateStatistics stores the record and assigns a sequential id.
func (r *MemoryRepo) CreateStatistics(ctx context.Context, stats StatisticsRecord) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stats.ID = int64(len(r.statistics) + 1)
	r.statistics = append(r.statistics, stats)
	return stats.ID, nil
}

// GetByID returns an analysis by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Analysis, error) {
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	analysis, ok := r.byID[id]
	if !ok {
		return Analysis{}, ErrNotFound
	}
	return analysis, nil
}

// List returns analyses newest first.
func (r *MemoryRepo) List(ctx context.Context, productID string, limit int) ([]Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	r.mu.RLock()
	items := make([]Analysis, 0, len(r.byID))
	for _, a := range r.byID {
		if productID != "" && a.ProductID != productID {
			continue
		}
		a.Report = ""
		items = append(items, a)
	}
	r.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Statistics returns the stored statistics records for productID in insertion order.
func (r *MemoryRepo) Statistics(productID string) []StatisticsRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []StatisticsRecord{}
	for _, s := range r.statistics {
		if s.ProductID == productID {
			out = append(out, s)
		}
	}
	return out
}
