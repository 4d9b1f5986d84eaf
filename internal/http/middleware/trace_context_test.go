package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/OpenSundsvall/api-service-case-data/internal/observability"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/ctxutil"
)

func TestAttachTraceContextKeepsCallerIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	var seen ctxutil.RequestMeta
	r.GET("/errands/:id", func(c *gin.Context) {
		seen, _ = ctxutil.RequestMetaFrom(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/errands/1", nil)
	req.Header.Set(HeaderRequestID, "req-7")
	req.Header.Set(HeaderTraceID, "trace-7")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if seen.RequestID != "req-7" || seen.TraceID != "trace-7" || seen.Received.IsZero() {
		t.Fatalf("request meta: %+v", seen)
	}
	if got := w.Header().Get(HeaderRequestID); got != "req-7" {
		t.Fatalf("echoed request id: want=req-7 got=%s", got)
	}
}

func TestAttachTraceContextGeneratesIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Header().Get(HeaderRequestID) == "" || w.Header().Get(HeaderTraceID) == "" {
		t.Fatalf("ids not generated: %v", w.Header())
	}
}

func TestMetricsSkipsHealthAndScrapeRoutes(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "true")
	m := observability.Init(nil)
	if m == nil {
		t.Fatalf("metrics not enabled")
	}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/healthcheck", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/errands/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for _, path := range []string{"/healthcheck", "/errands/4"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	var b strings.Builder
	if err := m.WritePrometheus(&b); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, `route="/errands/:id"`) {
		t.Fatalf("errand route missing:\n%s", out)
	}
	if strings.Contains(out, `route="/healthcheck"`) {
		t.Fatalf("healthcheck should not be metered:\n%s", out)
	}
}
