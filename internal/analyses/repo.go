package analyses

import "context"

// Repo defines persistence operations for analyses and statistics.
type Repo interface {
	// CreateAnalysis stores the run, registering a stub product row when the
	// product is not yet known.
	CreateAnalysis(ctx context.Context, analysis Analysis) error
	CreateStatistics(ctx context.Context, stats StatisticsRecord) (int64, error)
	GetByID(ctx context.Context, id string) (Analysis, error)
	// List returns runs newest first; an empty productID lists every product.
	List(ctx context.Context, productID string, limit int) ([]Analysis, error)
}
