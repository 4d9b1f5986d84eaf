package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OpenSundsvall/api-service-case-data/internal/http/response"
)

// Pinger reports whether a backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	checks map[string]Pinger
}

// NewHealthHandler takes named dependencies; nil entries are skipped.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	active := map[string]Pinger{}
	for name, p := range checks {
		if p != nil {
			active[name] = p
		}
	}
	return &HealthHandler{checks: active}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	if h == nil || len(h.checks) == 0 {
		c.String(http.StatusOK, "ok")
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	down := gin.H{}
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			down[name] = err.Error()
		}
	}
	if len(down) > 0 {
		response.RespondError(c, http.StatusServiceUnavailable, "unhealthy", errorList(down))
		return
	}
	c.String(http.StatusOK, "ok")
}

type errorList gin.H

func (e errorList) Error() string {
	msg := "unavailable:"
	for name, v := range e {
		msg += " " + name + "=" + v.(string)
	}
	return msg
}
