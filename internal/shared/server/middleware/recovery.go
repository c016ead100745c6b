package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"review-backend/internal/shared/server/respond"
	"review-backend/internal/shared/telemetry"
)

// Recovery turns a panic into a 500 envelope whose message is the panic value.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			telemetry.Error("panic", map[string]any{
				"request_id": RequestIDFromContext(c),
				"error":      fmt.Sprint(rec),
				"stack":      string(debug.Stack()),
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
			})
			respond.Error(c, http.StatusInternalServerError, "internal", PanicMessage(rec), nil)
		}()
		c.Next()
	}
}

// PanicMessage renders a recovered value as an error message.
func PanicMessage(rec any) string {
	switch v := rec.(type) {
	case error:
		return v.Error()
	case string:
		if v != "" {
			return v
		}
	case nil:
	default:
		return fmt.Sprint(v)
	}
	return "Unexpected server error"
}
