package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const ensureProductQuery = `
INSERT INTO products (product_id, product_name)
VALUES ($1, $2)
ON CONFLICT (product_id) DO NOTHING`

// CreateAnalysis inserts an analysis_results row inside a transaction that
// first registers the product.
func (r *PGRepo) CreateAnalysis(ctx context.Context, analysis Analysis) error {
	keywords, err := marshalJSONB(analysis.Keywords)
	if err != nil {
		return err
	}
	issues, err := marshalJSONB(analysis.Issues)
	if err != nil {
		return err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, ensureProductQuery, analysis.ProductID, productName(analysis.ProductID, analysis.ProductName)); err != nil {
		return fmt.Errorf("ensure product: %w", err)
	}

	const query = `
INSERT INTO analysis_results (
	id, product_id, review_count, quality_score, sentiment, positive_count, negative_count,
	analysis_report, report_key, keywords, issues, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	if _, err := tx.ExecContext(ctx, query,
		analysis.ID,
		analysis.ProductID,
		analysis.ReviewCount,
		analysis.QualityScore,
		analysis.Sentiment,
		analysis.PositiveCount,
		analysis.NegativeCount,
		nullString(analysis.Report),
		nullString(analysis.ReportKey),
		keywords,
		issues,
		analysis.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return tx.Commit()
}

// CreateStatistics inserts a statistics row and returns its id.
func (r *PGRepo) CreateStatistics(ctx context.Context, stats StatisticsRecord) (int64, error) {
	topKeywords, err := marshalJSONB(stats.TopKeywords)
	if err != nil {
		return 0, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, ensureProductQuery, stats.ProductID, productName(stats.ProductID, stats.ProductName)); err != nil {
		return 0, fmt.Errorf("ensure product: %w", err)
	}

	const query = `
INSERT INTO statistics (
	product_id, total_reviews, avg_review_length, positive_count, negative_count, top_keywords, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`
	var id int64
	if err := tx.QueryRowContext(ctx, query,
		stats.ProductID,
		stats.TotalReviews,
		stats.AvgReviewLength,
		stats.PositiveCount,
		stats.NegativeCount,
		topKeywords,
		stats.CreatedAt,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert statistics: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

const selectColumns = `
SELECT id, product_id, review_count, quality_score, sentiment, positive_count, negative_count,
	analysis_report, report_key, keywords, issues, created_at
FROM analysis_results`

// GetByID returns a single analysis.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Analysis, error) {
	analysis, err := scanAnalysis(r.DB.QueryRowContext(ctx, selectColumns+`
WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Analysis{}, ErrNotFound
	}
	return analysis, err
}

// List returns analyses newest first, optionally filtered by product.
func (r *PGRepo) List(ctx context.Context, productID string, limit int) ([]Analysis, error) {
	limit = clampLimit(limit)

	var (
		rows *sql.Rows
		err  error
	)
	if productID == "" {
		rows, err = r.DB.QueryContext(ctx, selectColumns+`
ORDER BY created_at DESC
LIMIT $1`, limit)
	} else {
		rows, err = r.DB.QueryContext(ctx, selectColumns+`
WHERE product_id = $1
ORDER BY created_at DESC
LIMIT $2`, productID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Analysis{}
	for rows.Next() {
		analysis, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		// Reports are served by the report endpoint.
		analysis.Report = ""
		items = append(items, analysis)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (Analysis, error) {
	var (
		a         Analysis
		score     sql.NullFloat64
		sentiment sql.NullString
		report    sql.NullString
		reportKey sql.NullString
		keywords  []byte
		issues    []byte
	)
	if err := row.Scan(
		&a.ID,
		&a.ProductID,
		&a.ReviewCount,
		&score,
		&sentiment,
		&a.PositiveCount,
		&a.NegativeCount,
		&report,
		&reportKey,
		&keywords,
		&issues,
		&a.CreatedAt,
	); err != nil {
		return Analysis{}, err
	}
	a.QualityScore = score.Float64
	a.Sentiment = sentiment.String
	a.Report = report.String
	a.ReportKey = reportKey.String
	if len(keywords) > 0 {
		if err := json.Unmarshal(keywords, &a.Keywords); err != nil {
			return Analysis{}, fmt.Errorf("decode keywords: %w", err)
		}
	}
	if len(issues) > 0 {
		if err := json.Unmarshal(issues, &a.Issues); err != nil {
			return Analysis{}, fmt.Errorf("decode issues: %w", err)
		}
	}
	return a, nil
}

func marshalJSONB(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode jsonb: %w", err)
	}
	return data, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func productName(productID, name string) string {
	if name == "" {
		return productID
	}
	return name
}
