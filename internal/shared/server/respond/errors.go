package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"review-backend/internal/shared/telemetry"
)

// ErrorResponse is the error envelope every handler writes.
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Detail any    `json:"detail,omitempty"`
}

// Error sends a standardized error response and logs it.
func Error(c *gin.Context, status int, code, message string, detail any) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if productID := c.GetString("productId"); productID != "" {
		fields["product_id"] = productID
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.rejected", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:  message,
		Code:   code,
		Detail: detail,
	})
}
