package analyses

import (
	"errors"
	"time"

	"review-backend/internal/scoring"
)

var (
	// ErrNotFound indicates the analysis does not exist.
	ErrNotFound = errors.New("analysis not found")
	// ErrReportNotFound indicates no report body is available for the analysis.
	ErrReportNotFound = errors.New("analysis report not found")
	// ErrInvalidInput indicates a save request without a product id.
	ErrInvalidInput = errors.New("invalid analysis input")
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Analysis is one persisted scoring run.
type Analysis struct {
	ID            string                `json:"id"`
	ProductID     string                `json:"productId"`
	ProductName   string                `json:"-"`
	ReviewCount   int                   `json:"reviewCount"`
	QualityScore  float64               `json:"qualityScore"`
	Sentiment     string                `json:"sentiment"`
	PositiveCount int                   `json:"positiveCount"`
	NegativeCount int                   `json:"negativeCount"`
	Report        string                `json:"report,omitempty"`
	ReportKey     string                `json:"reportKey,omitempty"`
	Keywords      scoring.KeywordCounts `json:"keywords"`
	Issues        []scoring.Issue       `json:"issues"`
	CreatedAt     time.Time             `json:"createdAt"`
}

// StatisticsRecord is one persisted statistics run.
type StatisticsRecord struct {
	ID              int64                      `json:"id"`
	ProductID       string                     `json:"productId"`
	ProductName     string                     `json:"-"`
	TotalReviews    int                        `json:"totalReviews"`
	AvgReviewLength int                        `json:"avgReviewLength"`
	PositiveCount   int                        `json:"positiveCount"`
	NegativeCount   int                        `json:"negativeCount"`
	TopKeywords     []scoring.KeywordFrequency `json:"topKeywords"`
	CreatedAt       time.Time                  `json:"createdAt"`
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
