package respond

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"review-backend/internal/shared/telemetry"
)

func TestErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	defer telemetry.SetOutput(io.Discard)()

	r := gin.New()
	r.GET("/fail", func(c *gin.Context) {
		Error(c, http.StatusBadGateway, "backend_error", "Backend error", "upstream down")
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/fail", nil))

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["error"] != "Backend error" {
		t.Fatalf("unexpected error: %v", payload["error"])
	}
	if payload["code"] != "backend_error" {
		t.Fatalf("unexpected code: %v", payload["code"])
	}
	if payload["detail"] != "upstream down" {
		t.Fatalf("unexpected detail: %v", payload["detail"])
	}
}

func TestErrorOmitsEmptyDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	defer telemetry.SetOutput(io.Discard)()

	r := gin.New()
	r.GET("/fail", func(c *gin.Context) {
		Error(c, http.StatusBadRequest, "", "리뷰 데이터가 없습니다.", nil)
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/fail", nil))

	want := `{"error":"리뷰 데이터가 없습니다."}`
	if resp.Body.String() != want {
		t.Fatalf("body = %s, want %s", resp.Body.String(), want)
	}
}
