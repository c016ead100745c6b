package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"review-backend/internal/analyses"
	"review-backend/internal/catalog"
	"review-backend/internal/market"
	"review-backend/internal/products"
	"review-backend/internal/services/health"
	"review-backend/internal/shared/config"
	"review-backend/internal/shared/metrics"
	"review-backend/internal/shared/server/middleware"
	"review-backend/internal/shared/server/respond"
)

// Rate limit groups.
const (
	GroupScoring = "SCORING"
	GroupRead    = "READ"
	GroupDefault = "DEFAULT"
)

// readRateMultiplier scales the configured rate for GET requests.
const readRateMultiplier = 4

// RouterDeps holds handlers and shared services used by the router.
type RouterDeps struct {
	Config   config.Config
	Metrics  *metrics.Metrics
	Health   *health.Service
	Market   *market.Handler
	Products *products.Handler
	Analyses *analyses.Handler
	Catalog  *catalog.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	rateLimit := RateLimitConfig(deps.Config)
	rateLimit.OnLimited = deps.Metrics.ObserveRateLimited

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigins),
		deps.Metrics.Middleware(),
		middleware.RateLimit(rateLimit),
	)

	r.GET("/metrics", deps.Metrics.Handler())

	root := r.Group("")
	if deps.Market != nil {
		deps.Market.RegisterRoutes(root)
	}
	if deps.Products != nil {
		deps.Products.RegisterRoutes(root)
	}
	if deps.Analyses != nil {
		deps.Analyses.RegisterRoutes(root)
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		status := deps.Health.Status(c.Request.Context())
		code := http.StatusOK
		if !status.OK {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})
	if deps.Catalog != nil {
		deps.Catalog.RegisterRoutes(api)
	}

	return r
}

// RateLimitConfig derives per-group token buckets from cfg. A zero rate disables limiting.
func RateLimitConfig(cfg config.Config) middleware.RateLimitConfig {
	rules := map[string]middleware.RateLimitRule{}
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst > 0 {
		rules[GroupScoring] = middleware.RateLimitRule{Rate: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst}
		rules[GroupDefault] = middleware.RateLimitRule{Rate: cfg.RateLimitRPS * 2, Burst: cfg.RateLimitBurst * 2}
		rules[GroupRead] = middleware.RateLimitRule{
			Rate:  cfg.RateLimitRPS * readRateMultiplier,
			Burst: cfg.RateLimitBurst * readRateMultiplier,
		}
	}
	return middleware.RateLimitConfig{
		Rules:        rules,
		DefaultGroup: GroupDefault,
		GroupFor:     rateLimitGroup,
	}
}

func rateLimitGroup(c *gin.Context) string {
	path := c.Request.URL.Path
	switch {
	case path == "/metrics" || path == "/api/v1/health":
		return "NONE"
	case c.Request.Method == http.MethodGet:
		return GroupRead
	case path == "/market/analyze" || path == "/market/statistics" || strings.HasSuffix(path, "/local-analysis"):
		return GroupScoring
	default:
		return GroupDefault
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
