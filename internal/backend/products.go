package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultProductLimit = 50
	DefaultReviewLimit  = 100
)

func productQuery(source, sourceProductID string) url.Values {
	return url.Values{
		"source":            {source},
		"source_product_id": {sourceProductID},
	}
}

// ListProducts returns up to limit tracked products.
func (c *Client) ListProducts(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = DefaultProductLimit
	}
	resp, err := c.do(ctx, "list_products", http.MethodGet, "/product/list",
		url.Values{"limit": {strconv.Itoa(limit)}}, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Product]("list_products", resp.body, "products", "data")
}

// GetProduct reads one product.
func (c *Client) GetProduct(ctx context.Context, source, sourceProductID string) (*Product, error) {
	resp, err := c.do(ctx, "get_product", http.MethodGet, "/product/read",
		productQuery(source, sourceProductID), nil)
	if err != nil {
		return nil, err
	}
	var product Product
	if err := json.Unmarshal(resp.body, &product); err != nil {
		return nil, fmt.Errorf("backend get_product: decode: %w", err)
	}
	return &product, nil
}

// CreateProduct registers a new product and returns the backend's answer.
func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (json.RawMessage, error) {
	resp, err := c.do(ctx, "create_product", http.MethodPost, "/product/create", nil, in)
	if err != nil {
		return nil, err
	}
	return rawJSON("create_product", resp.body)
}

// UpdateProduct replaces the editable fields of a product.
func (c *Client) UpdateProduct(ctx context.Context, in ProductInput) (json.RawMessage, error) {
	resp, err := c.do(ctx, "update_product", http.MethodPut, "/product/update", nil, in)
	if err != nil {
		return nil, err
	}
	return rawJSON("update_product", resp.body)
}

// DeleteProduct removes a product and its crawled data.
func (c *Client) DeleteProduct(ctx context.Context, source, sourceProductID string) (json.RawMessage, error) {
	resp, err := c.do(ctx, "delete_product", http.MethodDelete, "/product/delete",
		productQuery(source, sourceProductID), nil)
	if err != nil {
		return nil, err
	}
	return rawJSON("delete_product", resp.body)
}

// ListReviews returns crawled reviews. A non-2xx answer yields an empty list.
func (c *Client) ListReviews(ctx context.Context, source, sourceProductID string, limit int) ([]Review, error) {
	if limit <= 0 {
		limit = DefaultReviewLimit
	}
	query := productQuery(source, sourceProductID)
	query.Set("limit", strconv.Itoa(limit))

	resp, err := c.do(ctx, "list_reviews", http.MethodGet, "/review/list", query, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return []Review{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeList[Review]("list_reviews", resp.body, "reviews", "data")
}

// LatestAnalysis returns the newest analysis and insight. A non-2xx answer
// yields an empty result.
func (c *Client) LatestAnalysis(ctx context.Context, source, sourceProductID string) (*LatestAnalysis, error) {
	path := "/analysis/" + url.PathEscape(source) + "/" + url.PathEscape(sourceProductID) + "/latest"
	resp, err := c.do(ctx, "latest_analysis", http.MethodGet, path, nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &LatestAnalysis{}, nil
	}
	if err != nil {
		return nil, err
	}
	var latest LatestAnalysis
	if len(strings.TrimSpace(string(resp.body))) == 0 {
		return &latest, nil
	}
	if err := json.Unmarshal(resp.body, &latest); err != nil {
		return nil, fmt.Errorf("backend latest_analysis: decode: %w", err)
	}
	return &latest, nil
}

// StartCollect asks the backend to crawl reviews for a product.
func (c *Client) StartCollect(ctx context.Context, source, sourceProductID string) (json.RawMessage, error) {
	resp, err := c.do(ctx, "start_collect", http.MethodPost, "/review/collect/start", nil,
		jobRequest{Platform: source, ProductID: sourceProductID})
	if err != nil {
		return nil, err
	}
	return rawJSON("start_collect", resp.body)
}

// StartAnalyze asks the backend to analyze collected reviews.
func (c *Client) StartAnalyze(ctx context.Context, source, sourceProductID string) (json.RawMessage, error) {
	resp, err := c.do(ctx, "start_analyze", http.MethodPost, "/review/analyze/start", nil,
		jobRequest{Platform: source, ProductID: sourceProductID})
	if err != nil {
		return nil, err
	}
	return rawJSON("start_analyze", resp.body)
}

// Recollect drops crawled reviews and starts a fresh crawl.
func (c *Client) Recollect(ctx context.Context, source, sourceProductID string) (json.RawMessage, error) {
	resp, err := c.do(ctx, "recollect", http.MethodPost, "/review/recollect",
		productQuery(source, sourceProductID), nil)
	if err != nil {
		return nil, err
	}
	return rawJSON("recollect", resp.body)
}
