package products

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"review-backend/internal/shared/server/middleware"
	"review-backend/internal/shared/server/respond"
	"review-backend/internal/shared/telemetry"
)

// Migrator applies the schema and reports the managed tables.
type Migrator interface {
	Migrate(ctx context.Context) ([]string, error)
}

// Handler serves the dashboard's product store and schema bootstrap.
type Handler struct {
	Repo     Repo
	Migrator Migrator
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo, migrator Migrator) *Handler {
	return &Handler{Repo: repo, Migrator: migrator}
}

// RegisterRoutes attaches product routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/market/db/products", h.upsert)
	rg.GET("/market/db/products", h.get)
	rg.GET("/market/db/init", h.init)
}

type upsertRequest struct {
	ProductID   string     `json:"productId"`
	ProductName string     `json:"productName"`
	Price       priceValue `json:"price"`
	ImageURL    string     `json:"imageUrl"`
}

// priceValue accepts the price as either a JSON string or number.
type priceValue string

func (p *priceValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*p = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = priceValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = priceValue(n.String())
	return nil
}

func (r upsertRequest) toProduct() (Product, error) {
	p := Product{
		ProductID:   strings.TrimSpace(r.ProductID),
		ProductName: strings.TrimSpace(r.ProductName),
		Price:       strings.TrimSpace(string(r.Price)),
		ImageURL:    strings.TrimSpace(r.ImageURL),
	}
	if p.ProductID == "" || p.ProductName == "" {
		return Product{}, ErrInvalidInput
	}
	return p, nil
}

func (h *Handler) upsert(c *gin.Context) {
	var req upsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	product, err := req.toProduct()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "productId and productName are required", nil)
		return
	}
	c.Set(middleware.ProductIDKey, product.ProductID)

	if err := h.Repo.Upsert(c.Request.Context(), product); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", err.Error(), nil)
		return
	}
	telemetry.Info("product.saved", map[string]any{"product_id": product.ProductID})
	respond.OK(c, gin.H{"message": "상품 저장 완료", "productId": product.ProductID})
}

func (h *Handler) get(c *gin.Context) {
	productID := strings.TrimSpace(c.Query("productId"))
	if productID == "" {
		items, err := h.Repo.List(c.Request.Context(), MaxList)
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, "internal", err.Error(), nil)
			return
		}
		respond.OK(c, gin.H{"products": items})
		return
	}

	c.Set(middleware.ProductIDKey, productID)
	product, err := h.Repo.Get(c.Request.Context(), productID)
	switch {
	case errors.Is(err, ErrNotFound):
		respond.OK(c, gin.H{"product": nil})
	case err != nil:
		respond.Error(c, http.StatusInternalServerError, "internal", err.Error(), nil)
	default:
		respond.OK(c, gin.H{"product": product})
	}
}

func (h *Handler) init(c *gin.Context) {
	tables, err := h.Migrator.Migrate(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", err.Error(), nil)
		return
	}
	telemetry.Info("db.initialized", map[string]any{"tables": tables})
	respond.OK(c, gin.H{"message": "테이블 생성 완료", "tables": tables})
}
