package analyses

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"review-backend/internal/scoring"
	"review-backend/internal/shared/storage/object"
	"review-backend/internal/shared/telemetry"
	"review-backend/internal/shared/util"
)

const reportContentType = "text/markdown; charset=utf-8"

// Service persists scoring output and serves stored runs.
type Service struct {
	Repo  Repo
	Store object.ObjectStore
	Now   func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repo, store object.ObjectStore) *Service {
	return &Service{Repo: repo, Store: store, Now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now()
}

// SaveAnalysis stores a scoring result and its Markdown report. A report
// upload failure is logged; the row still keeps the report text. When the row
// cannot be written the uploaded report is removed again.
func (s *Service) SaveAnalysis(ctx context.Context, productID, productName string, reviewCount int, result scoring.Result) (Analysis, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Analysis{}, ErrInvalidInput
	}

	analysis := Analysis{
		ID:            uuid.NewString(),
		ProductID:     productID,
		ProductName:   strings.TrimSpace(productName),
		ReviewCount:   reviewCount,
		QualityScore:  result.QualityScore,
		Sentiment:     scoring.SentimentLabel(result.Sentiment.Ratio),
		PositiveCount: result.Sentiment.Positive,
		NegativeCount: result.Sentiment.Negative,
		Report:        result.Report,
		Keywords:      result.Keywords,
		Issues:        result.Issues,
		CreatedAt:     s.now(),
	}

	if s.Store != nil && result.Report != "" {
		key, err := reportKey(productID, analysis.ID)
		if err == nil {
			_, err = s.Store.Put(ctx, key, reportContentType, strings.NewReader(result.Report))
		}
		if err != nil {
			telemetry.Warn("analysis.report_store_failed", map[string]any{
				"analysis_id": analysis.ID,
				"product_id":  productID,
				"error":       err.Error(),
			})
		} else {
			analysis.ReportKey = key
		}
	}

	if err := s.Repo.CreateAnalysis(ctx, analysis); err != nil {
		if analysis.ReportKey != "" {
			if delErr := s.Store.Delete(ctx, analysis.ReportKey); delErr != nil {
				telemetry.Warn("analysis.report_cleanup_failed", map[string]any{
					"analysis_id": analysis.ID,
					"report_key":  analysis.ReportKey,
					"error":       delErr.Error(),
				})
			}
		}
		return Analysis{}, fmt.Errorf("save analysis: %w", err)
	}
	telemetry.Info("analysis.saved", map[string]any{
		"analysis_id":   analysis.ID,
		"product_id":    productID,
		"quality_score": analysis.QualityScore,
		"report_key":    analysis.ReportKey,
	})
	return analysis, nil
}

// SaveStatistics stores a statistics run.
func (s *Service) SaveStatistics(ctx context.Context, productID, productName string, stats scoring.Statistics) (StatisticsRecord, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return StatisticsRecord{}, ErrInvalidInput
	}
	record := StatisticsRecord{
		ProductID:       productID,
		ProductName:     strings.TrimSpace(productName),
		TotalReviews:    stats.TotalReviews,
		AvgReviewLength: stats.AverageLength,
		PositiveCount:   stats.PositiveCount,
		NegativeCount:   stats.NegativeCount,
		TopKeywords:     stats.TopKeywords,
		CreatedAt:       s.now(),
	}
	id, err := s.Repo.CreateStatistics(ctx, record)
	if err != nil {
		return StatisticsRecord{}, fmt.Errorf("save statistics: %w", err)
	}
	record.ID = id
	return record, nil
}

// Get returns one analysis. Malformed ids are reported as not found.
func (s *Service) Get(ctx context.Context, id string) (Analysis, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Analysis{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

// List returns analyses newest first.
func (s *Service) List(ctx context.Context, productID string, limit int) ([]Analysis, error) {
	return s.Repo.List(ctx, strings.TrimSpace(productID), limit)
}

// OpenReport returns the analysis and a reader over its Markdown report,
// preferring the object store and falling back to the stored text.
func (s *Service) OpenReport(ctx context.Context, id string) (Analysis, io.ReadCloser, error) {
	analysis, err := s.Get(ctx, id)
	if err != nil {
		return Analysis{}, nil, err
	}

	if s.Store != nil && analysis.ReportKey != "" {
		rc, err := s.Store.Open(ctx, analysis.ReportKey)
		switch {
		case err == nil:
			return analysis, rc, nil
		case !errors.Is(err, object.ErrNotFound):
			return Analysis{}, nil, fmt.Errorf("open report: %w", err)
		}
	}
	if analysis.Report == "" {
		return Analysis{}, nil, ErrReportNotFound
	}
	return analysis, io.NopCloser(strings.NewReader(analysis.Report)), nil
}

func reportKey(productID, analysisID string) (string, error) {
	return util.JoinKey("reports", productID, analysisID+".md")
}
