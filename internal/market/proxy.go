package market

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"review-backend/internal/backend"
	"review-backend/internal/shared/server/respond"
)

// Backend is the subset of the crawler client the proxies forward to.
type Backend interface {
	SearchMarket(ctx context.Context, query string) (json.RawMessage, error)
	FetchMarket(ctx context.Context, query string) (json.RawMessage, error)
	MarketReviews(ctx context.Context, productID string) (json.RawMessage, error)
}

func (h *Handler) reviews(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "id is required", nil)
		return
	}
	body, err := h.Backend.MarketReviews(c.Request.Context(), id)
	h.forward(c, body, err)
}

func (h *Handler) search(c *gin.Context) {
	body, err := h.Backend.SearchMarket(c.Request.Context(), c.Query("q"))
	h.forward(c, body, err)
}

func (h *Handler) fetch(c *gin.Context) {
	body, err := h.Backend.FetchMarket(c.Request.Context(), c.Query("query"))
	h.forward(c, body, err)
}

// forward writes the upstream JSON or maps the failure to an error envelope.
func (h *Handler) forward(c *gin.Context, body json.RawMessage, err error) {
	if err == nil {
		respond.RawJSON(c, http.StatusOK, body)
		return
	}
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &apiErr):
		respond.Error(c, http.StatusInternalServerError, "backend_error", "Backend error", apiErr.Detail)
	case errors.Is(err, backend.ErrBackendUnavailable):
		respond.Error(c, http.StatusServiceUnavailable, "backend_unavailable", "Backend unavailable", err.Error())
	default:
		respond.Error(c, http.StatusInternalServerError, "unexpected_error", "Unexpected error", err.Error())
	}
}
