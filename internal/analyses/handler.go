package analyses

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"review-backend/internal/shared/server/middleware"
	"review-backend/internal/shared/server/respond"
	"review-backend/internal/shared/telemetry"
	"review-backend/internal/shared/util"
)

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/market/analyses", h.list)
	rg.GET("/market/analyses/:id", h.get)
	rg.GET("/market/analyses/:id/report", h.report)
}

func (h *Handler) list(c *gin.Context) {
	productID := c.Query("productId")
	if productID != "" {
		c.Set(middleware.ProductIDKey, productID)
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be a positive integer", nil)
			return
		}
		limit = n
	}

	items, err := h.Svc.List(c.Request.Context(), productID, limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", err.Error(), nil)
		return
	}
	respond.OK(c, gin.H{"analyses": items})
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.AnalysisIDKey, id)

	analysis, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal", err.Error(), nil)
		}
		return
	}
	c.Set(middleware.ProductIDKey, analysis.ProductID)
	respond.OK(c, gin.H{"analysis": analysis})
}

func (h *Handler) report(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.AnalysisIDKey, id)

	analysis, rc, err := h.Svc.OpenReport(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		case errors.Is(err, ErrReportNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "report not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal", err.Error(), nil)
		}
		return
	}
	defer rc.Close()
	c.Set(middleware.ProductIDKey, analysis.ProductID)

	name, err := util.SanitizeFileName(analysis.ProductID + "_" + analysis.ID + ".md")
	if err != nil {
		name = analysis.ID + ".md"
	}
	c.Header("Content-Type", reportContentType)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		telemetry.Warn("analysis.report_stream_failed", map[string]any{
			"analysis_id": analysis.ID,
			"error":       err.Error(),
		})
	}
}
