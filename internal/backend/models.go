package backend

import "encoding/json"

// Product is a tracked marketplace product as the backend stores it.
type Product struct {
	Source          string         `json:"source"`
	SourceProductID string         `json:"source_product_id"`
	Title           string         `json:"title"`
	SourceURL       string         `json:"source_url"`
	Price           float64        `json:"price"`
	Category        string         `json:"category"`
	Status          string         `json:"status"`
	AnalysisStatus  AnalysisStatus `json:"analysis_status"`
	Seller          *string        `json:"seller,omitempty"`
	Rating          *float64       `json:"rating,omitempty"`
	ReviewCount     int            `json:"review_count"`
	CollectedAt     string         `json:"collected_at"`
}

// ProductInput is the create/update payload.
type ProductInput struct {
	Source          string  `json:"source" binding:"required"`
	SourceProductID string  `json:"source_product_id" binding:"required"`
	Title           string  `json:"title" binding:"required"`
	SourceURL       string  `json:"source_url"`
	Price           float64 `json:"price"`
	Category        string  `json:"category"`
}

// Review is one crawled review.
type Review struct {
	ReviewID int64   `json:"review_id"`
	Reviewer string  `json:"reviewer"`
	Rating   float64 `json:"rating"`
	Content  string  `json:"content"`
	ReviewAt string  `json:"review_at"`
}

// SentimentBreakdown counts reviews per sentiment class.
type SentimentBreakdown struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

// AnalysisResult is the backend's aggregate analysis for a job.
type AnalysisResult struct {
	JobID         string             `json:"job_id"`
	TotalReviews  int                `json:"total_reviews"`
	SentimentJSON SentimentBreakdown `json:"sentiment_json"`
	AspectsJSON   json.RawMessage    `json:"aspects_json,omitempty"`
	KeywordsJSON  []string           `json:"keywords_json"`
	IssuesJSON    []string           `json:"issues_json"`
	TrendJSON     json.RawMessage    `json:"trend_json,omitempty"`
	CreatedAt     string             `json:"created_at"`
}

// InsightResult is the generated summary attached to an analysis.
type InsightResult struct {
	JobID        string          `json:"job_id"`
	Summary      string          `json:"summary"`
	InsightsJSON json.RawMessage `json:"insights_json,omitempty"`
	MetadataJSON json.RawMessage `json:"metadata_json,omitempty"`
	EvidenceIDs  []int64         `json:"evidence_ids"`
	CreatedAt    string          `json:"created_at"`
}

// LatestAnalysis pairs the newest analysis and insight; either may be nil.
type LatestAnalysis struct {
	AnalysisResult *AnalysisResult `json:"analysis_result"`
	InsightResult  *InsightResult  `json:"insight_result"`
}

type jobRequest struct {
	Platform  string `json:"platform"`
	ProductID string `json:"product_id"`
}
