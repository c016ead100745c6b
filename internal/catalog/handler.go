package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"review-backend/internal/analyses"
	"review-backend/internal/backend"
	"review-backend/internal/market"
	"review-backend/internal/scoring"
	"review-backend/internal/shared/metrics"
	"review-backend/internal/shared/server/middleware"
	"review-backend/internal/shared/server/respond"
	"review-backend/internal/shared/telemetry"
)

const endpointLocalAnalysis = "local_analysis"

// Backend is the crawler client surface the catalog forwards to.
type Backend interface {
	ListProducts(ctx context.Context, limit int) ([]backend.Product, error)
	GetProduct(ctx context.Context, source, sourceProductID string) (*backend.Product, error)
	CreateProduct(ctx context.Context, in backend.ProductInput) (json.RawMessage, error)
	UpdateProduct(ctx context.Context, in backend.ProductInput) (json.RawMessage, error)
	DeleteProduct(ctx context.Context, source, sourceProductID string) (json.RawMessage, error)
	ListReviews(ctx context.Context, source, sourceProductID string, limit int) ([]backend.Review, error)
	LatestAnalysis(ctx context.Context, source, sourceProductID string) (*backend.LatestAnalysis, error)
	StartCollect(ctx context.Context, source, sourceProductID string) (json.RawMessage, error)
	StartAnalyze(ctx context.Context, source, sourceProductID string) (json.RawMessage, error)
	Recollect(ctx context.Context, source, sourceProductID string) (json.RawMessage, error)
}

// AnalysisSaver persists a local scoring run.
type AnalysisSaver interface {
	SaveAnalysis(ctx context.Context, productID, productName string, reviewCount int, result scoring.Result) (analyses.Analysis, error)
}

// Handler exposes the tracked-product catalog.
type Handler struct {
	Backend Backend
	Persist AnalysisSaver
	Metrics *metrics.Metrics
	// Now is the clock for relative times and reports, in the report time zone.
	Now func() time.Time
}

// NewHandler constructs a Handler whose clock runs in loc.
func NewHandler(b Backend, persist AnalysisSaver, m *metrics.Metrics, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		Backend: b,
		Persist: persist,
		Metrics: m,
		Now:     func() time.Time { return time.Now().In(loc) },
	}
}

// RegisterRoutes attaches catalog routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/products", h.list)
	rg.POST("/products", h.create)
	rg.GET("/products/:source/:id", h.get)
	rg.PUT("/products/:source/:id", h.update)
	rg.DELETE("/products/:source/:id", h.remove)
	rg.GET("/products/:source/:id/reviews", h.reviews)
	rg.GET("/products/:source/:id/analysis/latest", h.latestAnalysis)
	rg.POST("/products/:source/:id/collect", h.collect)
	rg.POST("/products/:source/:id/analyze", h.analyze)
	rg.POST("/products/:source/:id/recollect", h.recollect)
	rg.POST("/products/:source/:id/local-analysis", h.localAnalysis)
}

// ProductView is a backend product enriched with display data.
type ProductView struct {
	backend.Product
	PlatformName string             `json:"platform_name"`
	PlatformIcon string             `json:"platform_icon"`
	ProductURL   string             `json:"product_url"`
	PriceText    string             `json:"price_text"`
	RatingStars  string             `json:"rating_stars,omitempty"`
	CollectedAgo string             `json:"collected_ago,omitempty"`
	StatusInfo   backend.StatusInfo `json:"status_info"`
	IsBusy       bool               `json:"is_busy"`
}

func (h *Handler) view(p backend.Product) ProductView {
	now := h.now()
	platform := PlatformFor(p.Source)
	v := ProductView{
		Product:      p,
		PlatformName: platform.Name,
		PlatformIcon: platform.Icon,
		ProductURL:   p.SourceURL,
		PriceText:    FormatPrice(p.Price),
		StatusInfo:   p.AnalysisStatus.Info(),
		IsBusy:       p.AnalysisStatus.IsBusy(),
	}
	if v.ProductURL == "" {
		v.ProductURL = ProductURL(p.Source, p.SourceProductID)
	}
	if p.Rating != nil {
		v.RatingStars = RatingStars(*p.Rating)
	}
	if t, ok := parseTimestamp(p.CollectedAt, now.Location()); ok {
		v.CollectedAgo = RelativeTime(t, now)
	}
	return v
}

func (h *Handler) list(c *gin.Context) {
	limit, ok := queryLimit(c, backend.DefaultProductLimit)
	if !ok {
		return
	}
	items, err := h.Backend.ListProducts(c.Request.Context(), limit)
	if err != nil {
		upstreamError(c, err)
		return
	}
	views := make([]ProductView, 0, len(items))
	for _, p := range items {
		views = append(views, h.view(p))
	}
	respond.OK(c, gin.H{"products": views})
}

func (h *Handler) create(c *gin.Context) {
	var in backend.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "source, source_product_id and title are required", nil)
		return
	}
	body, err := h.Backend.CreateProduct(c.Request.Context(), in)
	if err != nil {
		upstreamError(c, err)
		return
	}
	telemetry.Info("catalog.product_created", map[string]any{
		"source":     in.Source,
		"product_id": in.SourceProductID,
	})
	respond.RawJSON(c, http.StatusCreated, body)
}

func (h *Handler) update(c *gin.Context) {
	source, id := productKey(c)
	// Path parameters identify the product and win over the body.
	in := backend.ProductInput{Source: source, SourceProductID: id}
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "title is required", nil)
		return
	}
	in.Source, in.SourceProductID = source, id
	body, err := h.Backend.UpdateProduct(c.Request.Context(), in)
	if err != nil {
		upstreamError(c, err)
		return
	}
	respond.RawJSON(c, http.StatusOK, body)
}

func (h *Handler) get(c *gin.Context) {
	source, id := productKey(c)
	p, err := h.Backend.GetProduct(c.Request.Context(), source, id)
	if err != nil {
		upstreamError(c, err)
		return
	}
	respond.OK(c, gin.H{"product": h.view(*p)})
}

func (h *Handler) remove(c *gin.Context) {
	source, id := productKey(c)
	body, err := h.Backend.DeleteProduct(c.Request.Context(), source, id)
	if err != nil {
		upstreamError(c, err)
		return
	}
	telemetry.Info("catalog.product_deleted", map[string]any{"source": source, "product_id": id})
	respond.RawJSON(c, http.StatusOK, body)
}

func (h *Handler) reviews(c *gin.Context) {
	source, id := productKey(c)
	limit, ok := queryLimit(c, backend.DefaultReviewLimit)
	if !ok {
		return
	}
	items, err := h.Backend.ListReviews(c.Request.Context(), source, id, limit)
	if err != nil {
		upstreamError(c, err)
		return
	}
	respond.OK(c, gin.H{"reviews": items})
}

func (h *Handler) latestAnalysis(c *gin.Context) {
	source, id := productKey(c)
	latest, err := h.Backend.LatestAnalysis(c.Request.Context(), source, id)
	if err != nil {
		upstreamError(c, err)
		return
	}
	respond.OK(c, latest)
}

func (h *Handler) collect(c *gin.Context) {
	h.startJob(c, "collect", h.Backend.StartCollect)
}

func (h *Handler) analyze(c *gin.Context) {
	h.startJob(c, "analyze", h.Backend.StartAnalyze)
}

func (h *Handler) recollect(c *gin.Context) {
	h.startJob(c, "recollect", h.Backend.Recollect)
}

func (h *Handler) startJob(c *gin.Context, kind string, start func(context.Context, string, string) (json.RawMessage, error)) {
	source, id := productKey(c)
	body, err := start(c.Request.Context(), source, id)
	if err != nil {
		upstreamError(c, err)
		return
	}
	telemetry.Info("catalog.job_started", map[string]any{
		"kind":       kind,
		"source":     source,
		"product_id": id,
	})
	respond.RawJSON(c, http.StatusOK, body)
}

// localAnalysis scores the backend's crawled reviews with the in-process pipeline.
func (h *Handler) localAnalysis(c *gin.Context) {
	start := time.Now()
	source, id := productKey(c)
	ctx := c.Request.Context()

	crawled, err := h.Backend.ListReviews(ctx, source, id, backend.DefaultReviewLimit)
	if err != nil {
		h.Metrics.ObserveAnalysis(endpointLocalAnalysis, metrics.OutcomeFailure, time.Since(start))
		upstreamError(c, err)
		return
	}
	reviews := make([]scoring.Review, 0, len(crawled))
	for _, r := range crawled {
		reviews = append(reviews, scoring.Review{Content: r.Content, Nickname: r.Reviewer, Date: r.ReviewAt})
	}
	if len(reviews) == 0 {
		h.Metrics.ObserveAnalysis(endpointLocalAnalysis, metrics.OutcomeInvalid, time.Since(start))
		respond.Error(c, http.StatusBadRequest, "no_reviews", market.MsgNoReviews, nil)
		return
	}

	name := id
	if p, err := h.Backend.GetProduct(ctx, source, id); err == nil && p.Title != "" {
		name = p.Title
	}

	result, err := scoring.Analyze(reviews, name, h.now())
	if err != nil {
		h.Metrics.ObserveAnalysis(endpointLocalAnalysis, metrics.OutcomeFailure, time.Since(start))
		respond.Error(c, http.StatusInternalServerError, "internal", err.Error(), nil)
		return
	}

	resp := market.NewAnalyzeResponse(result)
	if h.Persist != nil {
		saved, err := h.Persist.SaveAnalysis(ctx, LocalProductID(source, id), name, len(reviews), result)
		if err != nil {
			telemetry.Warn("analysis.persist_failed", map[string]any{
				"product_id": LocalProductID(source, id),
				"error":      err.Error(),
			})
		} else {
			resp.AnalysisID = saved.ID
			c.Set(middleware.AnalysisIDKey, saved.ID)
		}
	}
	h.Metrics.ObserveAnalysis(endpointLocalAnalysis, metrics.OutcomeSuccess, time.Since(start))
	respond.OK(c, resp)
}

// LocalProductID is the product id local analyses are stored under.
func LocalProductID(source, sourceProductID string) string {
	return strings.ToLower(source) + ":" + sourceProductID
}

func productKey(c *gin.Context) (string, string) {
	source, id := c.Param("source"), c.Param("id")
	c.Set(middleware.ProductIDKey, LocalProductID(source, id))
	return source, id
}

func queryLimit(c *gin.Context, fallback int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be a positive integer", nil)
		return 0, false
	}
	return n, true
}

// upstreamError maps backend failures: client errors keep their status,
// an open breaker is 503, anything else is 502.
func upstreamError(c *gin.Context, err error) {
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.IsClientError():
		msg := apiErr.Detail
		if msg == "" {
			msg = http.StatusText(apiErr.Status)
		}
		respond.Error(c, apiErr.Status, "backend_rejected", msg, nil)
	case errors.As(err, &apiErr):
		respond.Error(c, http.StatusBadGateway, "backend_error", "backend error", apiErr.Detail)
	case errors.Is(err, backend.ErrBackendUnavailable):
		respond.Error(c, http.StatusServiceUnavailable, "backend_unavailable", "backend unavailable", nil)
	default:
		respond.Error(c, http.StatusBadGateway, "backend_error", "backend request failed", err.Error())
	}
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}
