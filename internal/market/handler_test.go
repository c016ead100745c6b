package market

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"review-backend/internal/analyses"
	"review-backend/internal/backend"
	"review-backend/internal/scoring"
	"review-backend/internal/shared/metrics"
)

type fakePersister struct {
	analyses   []string
	statistics []string
	err        error
}

func (f *fakePersister) SaveAnalysis(ctx context.Context, productID, productName string, reviewCount int, result scoring.Result) (analyses.Analysis, error) {
	if f.err != nil {
		return analyses.Analysis{}, f.err
	}
	f.analyses = append(f.analyses, productID)
	return analyses.Analysis{ID: "analysis-1", ProductID: productID}, nil
}

func (f *fakePersister) SaveStatistics(ctx context.Context, productID, productName string, stats scoring.Statistics) (analyses.StatisticsRecord, error) {
	if f.err != nil {
		return analyses.StatisticsRecord{}, f.err
	}
	f.statistics = append(f.statistics, productID)
	return analyses.StatisticsRecord{ID: 1, ProductID: productID}, nil
}

type fakeBackend struct {
	body  string
	err   error
	query string
}

func (f *fakeBackend) SearchMarket(ctx context.Context, query string) (json.RawMessage, error) {
	f.query = query
	return f.result()
}

func (f *fakeBackend) FetchMarket(ctx context.Context, query string) (json.RawMessage, error) {
	f.query = query
	return f.result()
}

func (f *fakeBackend) MarketReviews(ctx context.Context, productID string) (json.RawMessage, error) {
	f.query = productID
	return f.result()
}

func (f *fakeBackend) result() (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.body), nil
}

var fixedNow = time.Date(2025, 3, 1, 14, 30, 0, 0, time.FixedZone("KST", 9*60*60))

func newTestHandler(persist Persister, b Backend) (*gin.Engine, *Handler) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(persist, b, metrics.New(), time.UTC)
	h.Now = func() time.Time { return fixedNow }
	router := gin.New()
	h.RegisterRoutes(router.Group(""))
	return router, h
}

func postJSON(router http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, resp.Body.String())
	}
	return env.Error
}

const sampleBody = `{"productName":"로지텍 G102","reviews":[
	{"content":"성능 좋고 가벼워서 만족합니다"},
	{"content":"더블클릭 문제가 생겼어요"},
	{"content":"가성비 최고, 디자인도 깔끔"}
]}`

func TestAnalyzeSuccess(t *testing.T) {
	router, h := newTestHandler(nil, &fakeBackend{})

	resp := postJSON(router, "/market/analyze", sampleBody)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var got struct {
		Analysis   string `json:"analysis"`
		AnalysisID string `json:"analysisId"`
		Data       struct {
			Keywords     map[string]int    `json:"keywords"`
			Sentiment    scoring.Sentiment `json:"sentiment"`
			Issues       []scoring.Issue   `json:"issues"`
			QualityScore string            `json:"qualityScore"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}

	reviews := []scoring.Review{
		{Content: "성능 좋고 가벼워서 만족합니다"},
		{Content: "더블클릭 문제가 생겼어요"},
		{Content: "가성비 최고, 디자인도 깔끔"},
	}
	want, _ := scoring.Analyze(reviews, "로지텍 G102", fixedNow)
	if got.Analysis != want.Report {
		t.Fatalf("report mismatch")
	}
	if got.Data.QualityScore != scoring.FormatScore(want.QualityScore) {
		t.Fatalf("qualityScore = %q, want %q", got.Data.QualityScore, scoring.FormatScore(want.QualityScore))
	}
	if len(got.Data.Keywords) != len(scoring.Categories()) {
		t.Fatalf("expected every category in keywords, got %v", got.Data.Keywords)
	}
	if len(got.Data.Issues) == 0 || got.Data.Issues[0].Keyword != "더블클릭" {
		t.Fatalf("unexpected issues %+v", got.Data.Issues)
	}
	if got.AnalysisID != "" {
		t.Fatalf("analysisId should be absent without productId")
	}
	if n := testutil.ToFloat64(h.Metrics.AnalysesTotal.WithLabelValues(endpointAnalyze, metrics.OutcomeSuccess)); n != 1 {
		t.Fatalf("expected one successful analysis metric, got %v", n)
	}
}

func TestAnalyzeEmptyReviews(t *testing.T) {
	for _, body := range []string{`{"reviews":[]}`, `{"productName":"x"}`} {
		called := false
		router, h := newTestHandler(nil, &fakeBackend{})
		h.analyze = func([]scoring.Review, string, time.Time) (scoring.Result, error) {
			called = true
			return scoring.Result{}, nil
		}

		resp := postJSON(router, "/market/analyze", body)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, resp.Code)
		}
		if msg := decodeError(t, resp); msg != MsgNoReviews {
			t.Fatalf("%s: unexpected message %q", body, msg)
		}
		if called {
			t.Fatalf("%s: scoring must not run for an empty batch", body)
		}
	}
}

func TestAnalyzeMalformedBody(t *testing.T) {
	router, _ := newTestHandler(nil, &fakeBackend{})
	if resp := postJSON(router, "/market/analyze", `{"reviews":`); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestAnalyzePanicBecomes500(t *testing.T) {
	router, h := newTestHandler(nil, &fakeBackend{})
	h.analyze = func([]scoring.Review, string, time.Time) (scoring.Result, error) {
		panic("lexicon exploded")
	}

	resp := postJSON(router, "/market/analyze", sampleBody)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if msg := decodeError(t, resp); msg != "lexicon exploded" {
		t.Fatalf("unexpected message %q", msg)
	}
	if n := testutil.ToFloat64(h.Metrics.AnalysesTotal.WithLabelValues(endpointAnalyze, metrics.OutcomeFailure)); n != 1 {
		t.Fatalf("expected failure metric, got %v", n)
	}
}

func TestAnalyzePersistsWithProductID(t *testing.T) {
	persist := &fakePersister{}
	router, _ := newTestHandler(persist, &fakeBackend{})

	body := strings.Replace(sampleBody, `"productName"`, `"productId":"P-1","productName"`, 1)
	resp := postJSON(router, "/market/analyze", body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var got struct {
		AnalysisID string `json:"analysisId"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &got)
	if got.AnalysisID != "analysis-1" || len(persist.analyses) != 1 || persist.analyses[0] != "P-1" {
		t.Fatalf("expected persisted analysis, got id=%q calls=%v", got.AnalysisID, persist.analyses)
	}
}

func TestAnalyzePersistFailureDoesNotFailRequest(t *testing.T) {
	persist := &fakePersister{err: errors.New("db down")}
	router, _ := newTestHandler(persist, &fakeBackend{})

	body := strings.Replace(sampleBody, `"productName"`, `"productId":"P-1","productName"`, 1)
	resp := postJSON(router, "/market/analyze", body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if strings.Contains(resp.Body.String(), "analysisId") {
		t.Fatalf("analysisId should be absent when persistence fails")
	}
}

func TestStatistics(t *testing.T) {
	persist := &fakePersister{}
	router, _ := newTestHandler(persist, &fakeBackend{})

	resp := postJSON(router, "/market/statistics", `{"productId":"P-7","reviews":[{"content":"좋아요 추천"},{"content":"별로예요"}]}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var got struct {
		Statistics scoring.Statistics `json:"statistics"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &got)
	if got.Statistics.TotalReviews != 2 || got.Statistics.PositiveCount != 2 || got.Statistics.NegativeCount != 1 {
		t.Fatalf("unexpected statistics %+v", got.Statistics)
	}
	if len(persist.statistics) != 1 {
		t.Fatalf("expected statistics to be persisted")
	}

	resp = postJSON(router, "/market/statistics", `{"reviews":[]}`)
	if resp.Code != http.StatusBadRequest || decodeError(t, resp) != MsgNoReviews {
		t.Fatalf("expected 400 no reviews, got %d %s", resp.Code, resp.Body.String())
	}
}

func TestProxies(t *testing.T) {
	b := &fakeBackend{body: `{"items":[1,2]}`}
	router, _ := newTestHandler(nil, b)

	tests := []struct {
		path      string
		wantQuery string
	}{
		{path: "/market/search?q=%EB%A7%88%EC%9A%B0%EC%8A%A4", wantQuery: "마우스"},
		{path: "/api/market/fetch?query=keyboard", wantQuery: "keyboard"},
		{path: "/market/reviews?id=P-1", wantQuery: "P-1"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK || resp.Body.String() != `{"items":[1,2]}` {
			t.Fatalf("%s: unexpected response %d %s", tt.path, resp.Code, resp.Body.String())
		}
		if b.query != tt.wantQuery {
			t.Fatalf("%s: forwarded %q, want %q", tt.path, b.query, tt.wantQuery)
		}
	}
}

func TestProxyErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{name: "upstream status", err: &backend.APIError{Op: "market_search", Status: 502, Detail: "bad gateway"}, wantStatus: 500, wantError: "Backend error"},
		{name: "breaker open", err: backend.ErrBackendUnavailable, wantStatus: 503, wantError: "Backend unavailable"},
		{name: "transport", err: errors.New("dial tcp: refused"), wantStatus: 500, wantError: "Unexpected error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestHandler(nil, &fakeBackend{err: tt.err})
			req := httptest.NewRequest(http.MethodGet, "/market/search?q=x", nil)
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)
			if resp.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, resp.Code)
			}
			if msg := decodeError(t, resp); msg != tt.wantError {
				t.Fatalf("unexpected error %q", msg)
			}
		})
	}
}

func TestReviewsRequiresID(t *testing.T) {
	router, _ := newTestHandler(nil, &fakeBackend{})
	req := httptest.NewRequest(http.MethodGet, "/market/reviews", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
