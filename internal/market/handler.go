package market

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"review-backend/internal/analyses"
	"review-backend/internal/scoring"
	"review-backend/internal/shared/metrics"
	"review-backend/internal/shared/server/middleware"
	"review-backend/internal/shared/server/respond"
	"review-backend/internal/shared/telemetry"
)

// MsgNoReviews is the 400 message for an empty or missing review batch.
const MsgNoReviews = "리뷰 데이터가 없습니다."

const (
	endpointAnalyze    = "analyze"
	endpointStatistics = "statistics"
)

// Persister stores scoring output for a product.
type Persister interface {
	SaveAnalysis(ctx context.Context, productID, productName string, reviewCount int, result scoring.Result) (analyses.Analysis, error)
	SaveStatistics(ctx context.Context, productID, productName string, stats scoring.Statistics) (analyses.StatisticsRecord, error)
}

// Handler serves the scoring endpoints and the marketplace proxies.
type Handler struct {
	Persist Persister
	Backend Backend
	Metrics *metrics.Metrics
	// Now returns the report clock, already in the report time zone.
	Now func() time.Time

	analyze    func([]scoring.Review, string, time.Time) (scoring.Result, error)
	statistics func([]scoring.Review) (scoring.Statistics, error)
}

// NewHandler constructs a Handler whose report clock runs in loc.
func NewHandler(persist Persister, backend Backend, m *metrics.Metrics, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		Persist:    persist,
		Backend:    backend,
		Metrics:    m,
		Now:        func() time.Time { return time.Now().In(loc) },
		analyze:    scoring.Analyze,
		statistics: scoring.ComputeStatistics,
	}
}

// RegisterRoutes attaches market routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/market/analyze", h.analyzeReviews)
	rg.POST("/market/statistics", h.reviewStatistics)
	rg.GET("/market/reviews", h.reviews)
	rg.GET("/market/search", h.search)
	rg.GET("/api/market/fetch", h.fetch)
}

type analyzeRequest struct {
	Reviews     []scoring.Review `json:"reviews"`
	ProductName string           `json:"productName"`
	ProductID   string           `json:"productId"`
}

// AnalysisData is the structured part of an analyze response.
type AnalysisData struct {
	Keywords     scoring.KeywordCounts `json:"keywords"`
	Sentiment    scoring.Sentiment     `json:"sentiment"`
	Issues       []scoring.Issue       `json:"issues"`
	QualityScore string                `json:"qualityScore"`
}

// AnalyzeResponse is the body of a successful analyze call.
type AnalyzeResponse struct {
	Analysis   string       `json:"analysis"`
	Data       AnalysisData `json:"data"`
	AnalysisID string       `json:"analysisId,omitempty"`
}

// NewAnalyzeResponse renders a scoring result, formatting the score to one decimal.
func NewAnalyzeResponse(result scoring.Result) AnalyzeResponse {
	return AnalyzeResponse{
		Analysis: result.Report,
		Data: AnalysisData{
			Keywords:     result.Keywords,
			Sentiment:    result.Sentiment,
			Issues:       result.Issues,
			QualityScore: scoring.FormatScore(result.QualityScore),
		},
	}
}

func (h *Handler) analyzeReviews(c *gin.Context) {
	start := time.Now()
	defer h.recoverScoring(c, endpointAnalyze, start)

	var req analyzeRequest
	if !h.bindReviews(c, endpointAnalyze, start, &req) {
		return
	}
	productID := strings.TrimSpace(req.ProductID)
	if productID != "" {
		c.Set(middleware.ProductIDKey, productID)
	}

	result, err := h.analyze(req.Reviews, req.ProductName, h.now())
	if err != nil {
		h.fail(c, endpointAnalyze, start, err)
		return
	}

	resp := NewAnalyzeResponse(result)
	if productID != "" && h.Persist != nil {
		saved, err := h.Persist.SaveAnalysis(c.Request.Context(), productID, req.ProductName, len(req.Reviews), result)
		if err != nil {
			telemetry.Warn("analysis.persist_failed", map[string]any{
				"product_id": productID,
				"error":      err.Error(),
			})
		} else {
			resp.AnalysisID = saved.ID
			c.Set(middleware.AnalysisIDKey, saved.ID)
		}
	}

	h.Metrics.ObserveAnalysis(endpointAnalyze, metrics.OutcomeSuccess, time.Since(start))
	respond.OK(c, resp)
}

func (h *Handler) reviewStatistics(c *gin.Context) {
	start := time.Now()
	defer h.recoverScoring(c, endpointStatistics, start)

	var req analyzeRequest
	if !h.bindReviews(c, endpointStatistics, start, &req) {
		return
	}
	productID := strings.TrimSpace(req.ProductID)
	if productID != "" {
		c.Set(middleware.ProductIDKey, productID)
	}

	stats, err := h.statistics(req.Reviews)
	if err != nil {
		h.fail(c, endpointStatistics, start, err)
		return
	}
	if productID != "" && h.Persist != nil {
		if _, err := h.Persist.SaveStatistics(c.Request.Context(), productID, req.ProductName, stats); err != nil {
			telemetry.Warn("statistics.persist_failed", map[string]any{
				"product_id": productID,
				"error":      err.Error(),
			})
		}
	}

	h.Metrics.ObserveAnalysis(endpointStatistics, metrics.OutcomeSuccess, time.Since(start))
	respond.OK(c, gin.H{"statistics": stats})
}

// bindReviews decodes the body and rejects empty batches before any scoring.
func (h *Handler) bindReviews(c *gin.Context, endpoint string, start time.Time, req *analyzeRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.Metrics.ObserveAnalysis(endpoint, metrics.OutcomeInvalid, time.Since(start))
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid request body", nil)
		return false
	}
	if len(req.Reviews) == 0 {
		h.Metrics.ObserveAnalysis(endpoint, metrics.OutcomeInvalid, time.Since(start))
		respond.Error(c, http.StatusBadRequest, "no_reviews", MsgNoReviews, nil)
		return false
	}
	return true
}

func (h *Handler) fail(c *gin.Context, endpoint string, start time.Time, err error) {
	h.Metrics.ObserveAnalysis(endpoint, metrics.OutcomeFailure, time.Since(start))
	if errors.Is(err, scoring.ErrNoReviews) {
		respond.Error(c, http.StatusBadRequest, "no_reviews", MsgNoReviews, nil)
		return
	}
	respond.Error(c, http.StatusInternalServerError, "internal", err.Error(), nil)
}

// recoverScoring turns a panic inside scoring into the endpoint's 500 envelope.
func (h *Handler) recoverScoring(c *gin.Context, endpoint string, start time.Time) {
	rec := recover()
	if rec == nil {
		return
	}
	h.Metrics.ObserveAnalysis(endpoint, metrics.OutcomeFailure, time.Since(start))
	telemetry.Error("analysis.panic", map[string]any{
		"endpoint": endpoint,
		"panic":    rec,
	})
	respond.Error(c, http.StatusInternalServerError, "internal", middleware.PanicMessage(rec), nil)
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}
