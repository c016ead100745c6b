package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// SearchMarket forwards a marketplace search.
func (c *Client) SearchMarket(ctx context.Context, query string) (json.RawMessage, error) {
	resp, err := c.do(ctx, "market_search", http.MethodGet, "/market-data/search",
		url.Values{"query": {query}}, nil)
	if err != nil {
		return nil, err
	}
	return rawJSON("market_search", resp.body)
}

// FetchMarket forwards a marketplace fetch.
func (c *Client) FetchMarket(ctx context.Context, query string) (json.RawMessage, error) {
	resp, err := c.do(ctx, "market_fetch", http.MethodGet, "/market-data/fetch",
		url.Values{"query": {query}}, nil)
	if err != nil {
		return nil, err
	}
	return rawJSON("market_fetch", resp.body)
}

// MarketReviews returns the marketplace reviews for a product id.
func (c *Client) MarketReviews(ctx context.Context, productID string) (json.RawMessage, error) {
	path := "/market-data/products/" + url.PathEscape(productID) + "/reviews"
	resp, err := c.do(ctx, "market_reviews", http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return rawJSON("market_reviews", resp.body)
}
