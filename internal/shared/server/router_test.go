package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"review-backend/internal/market"
	"review-backend/internal/shared/config"
	"review-backend/internal/shared/metrics"
)

func TestAddr(t *testing.T) {
	tests := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range tests {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHealthReportsMemoryDatabase(t *testing.T) {
	r := NewRouter(RouterDeps{Config: config.Config{}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body struct {
		OK       bool   `json:"ok"`
		Database string `json:"database"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.OK || body.Database != "memory" {
		t.Fatalf("unexpected health body %+v", body)
	}
}

func TestMetricsEndpointServesRegistry(t *testing.T) {
	r := NewRouter(RouterDeps{Metrics: metrics.New()})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte("go_goroutines")) {
		t.Fatalf("expected metrics output")
	}
}

func TestScoringRoutesRateLimited(t *testing.T) {
	cfg := config.Config{RateLimitRPS: 0.001, RateLimitBurst: 2}
	m := metrics.New()
	r := NewRouter(RouterDeps{
		Config:  cfg,
		Metrics: m,
		Market:  market.NewHandler(nil, nil, m, time.UTC),
	})

	body := []byte(`{"reviews":[{"content":"배송 빠르고 만족"}]}`)
	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/market/analyze", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
	if got := testutil.ToFloat64(m.RateLimited.WithLabelValues(GroupScoring)); got != 1 {
		t.Fatalf("rate limited count = %v, want 1", got)
	}
}

func TestRateLimitDisabledWithoutRate(t *testing.T) {
	cfg := RateLimitConfig(config.Config{RateLimitBurst: 10})
	if len(cfg.Rules) != 0 {
		t.Fatalf("expected no rules, got %v", cfg.Rules)
	}

	cfg = RateLimitConfig(config.Config{RateLimitRPS: 2, RateLimitBurst: 5})
	if cfg.Rules[GroupRead].Rate <= cfg.Rules[GroupScoring].Rate {
		t.Fatalf("reads should allow more than scoring: %+v", cfg.Rules)
	}
}
