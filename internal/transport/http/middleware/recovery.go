package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resp "estate-api/internal/transport/http/response"
)

// Recovery converts panics into a generic 500; the cause goes to the log,
// never to the client.
func Recovery(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				l.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("path", c.Request.URL.Path),
				)
				resp.Fail(c, http.StatusInternalServerError, "internal error")
			}
		}()
		c.Next()
	}
}
