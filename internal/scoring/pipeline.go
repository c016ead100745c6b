package scoring

import (
	"errors"
	"time"
)

// ErrNoReviews is returned when a pipeline is asked to score an empty batch.
var ErrNoReviews = errors.New("no reviews to analyze")

// Result is the full output of one analysis run.
type Result struct {
	Keywords     KeywordCounts `json:"keywords"`
	Sentiment    Sentiment     `json:"sentiment"`
	Issues       []Issue       `json:"issues"`
	QualityScore float64       `json:"qualityScore"`
	Report       string        `json:"-"`
}

// Analyze runs keyword, sentiment, issue and score extraction and renders the report.
func Analyze(reviews []Review, productName string, now time.Time) (Result, error) {
	if len(reviews) == 0 {
		return Result{}, ErrNoReviews
	}
	keywords := AnalyzeKeywords(reviews)
	sentiment := AnalyzeSentiment(reviews)
	issues := ExtractIssues(reviews)
	score := CalculateQualityScore(sentiment, keywords, issues)

	report := GenerateReport(ReportInput{
		ProductName:  productName,
		ReviewCount:  len(reviews),
		Keywords:     keywords,
		Sentiment:    sentiment,
		Issues:       issues,
		QualityScore: score,
		GeneratedAt:  now,
	})

	return Result{
		Keywords:     keywords,
		Sentiment:    sentiment,
		Issues:       issues,
		QualityScore: score,
		Report:       report,
	}, nil
}
