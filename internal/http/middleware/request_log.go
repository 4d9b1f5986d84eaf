package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OpenSundsvall/api-service-case-data/internal/platform/ctxutil"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
)

// RequestLogger writes one entry per request after the handler ran: server
// errors at error, client errors at warn and the rest at debug.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	return func(c *gin.Context) {
		began := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		kv := append([]interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"took_ms", time.Since(began).Milliseconds(),
		}, ctxutil.LogFields(c.Request.Context())...)
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			kv = append(kv, "error", errs.String())
		}

		switch {
		case status >= 500:
			log.Error("Request failed", kv...)
		case status >= 400:
			log.Warn("Request rejected", kv...)
		default:
			log.Debug("Request served", kv...)
		}
	}
}
