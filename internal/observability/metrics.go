package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/OpenSundsvall/api-service-case-data/internal/platform/envutil"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiReqTotal *Counter
	apiReqError *Counter

	aggregateOps       *CounterVec
	aggregateLatency   *HistogramVec
	aggregateConflicts *CounterVec
	aggregateRetries   *CounterVec

	processSyncCalls   *CounterVec
	processSyncLatency *HistogramVec
	compensations      *Counter

	errandsCreated *CounterVec

	pgStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	d := envutil.Millis("METRICS_SCRAPE_INTERVAL_MS", 10*time.Second)
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}

// Init builds the process-wide metrics registry. It returns nil when
// METRICS_ENABLED is off; every method is safe on a nil *Metrics.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("Observability metrics enabled")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	latencyBuckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}
	return &Metrics{
		apiRequests: NewCounterVec("casedata_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"casedata_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			latencyBuckets,
		),
		apiInflight: NewGauge("casedata_api_inflight_requests", "In-flight API requests."),
		apiReqTotal: NewCounter("casedata_api_requests_total_all", "Total API requests (all)."),
		apiReqError: NewCounter("casedata_api_requests_error_total", "Total API requests with 5xx status."),

		aggregateOps: NewCounterVec("casedata_aggregate_operations_total", "Aggregate writes by operation/status.", []string{"operation", "status"}),
		aggregateLatency: NewHistogramVec(
			"casedata_aggregate_operation_duration_seconds",
			"Aggregate write attempt latency in seconds by operation/status.",
			[]string{"operation", "status"},
			latencyBuckets,
		),
		aggregateConflicts: NewCounterVec("casedata_aggregate_conflicts_total", "Aggregate write attempts that lost a version check or unique constraint.", []string{"operation"}),
		aggregateRetries:   NewCounterVec("casedata_aggregate_retries_total", "Aggregate write attempts started again after a conflict.", []string{"operation"}),

		processSyncCalls: NewCounterVec("casedata_process_sync_calls_total", "Process sync calls by operation/status.", []string{"operation", "status"}),
		processSyncLatency: NewHistogramVec(
			"casedata_process_sync_duration_seconds",
			"Process sync call latency in seconds by operation/status.",
			[]string{"operation", "status"},
			latencyBuckets,
		),
		compensations: NewCounter("casedata_errand_compensations_total", "Errand creations rolled back because the process could not be started."),

		errandsCreated: NewCounterVec("casedata_errands_created_total", "Errands created by case type.", []string{"case_type"}),

		pgStats:   NewGaugeVec("casedata_db_stats", "Database connection pool stats.", []string{"metric"}),
		redisUp:   NewGauge("casedata_redis_up", "Redis connectivity (1=up, 0=down)."),
		redisPing: NewGauge("casedata_redis_ping_seconds", "Redis ping latency in seconds."),
	}
}

// StartServer serves the exposition on a dedicated listener at addr until
// ctx ends. It does nothing without metrics or an address; the API router
// also exposes /metrics.
func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil || strings.TrimSpace(addr) == "" {
		return
	}
	srv := &http.Server{Addr: addr, Handler: http.HandlerFunc(m.WriteHTTP), ReadHeaderTimeout: 5 * time.Second}
	context.AfterFunc(ctx, func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(stopCtx)
	})
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) && log != nil {
			log.Error("Metrics listener stopped", "addr", addr, "error", err)
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		http.Error(w, "metrics disabled", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, pw := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqTotal, m.apiReqError,
		m.aggregateOps, m.aggregateLatency, m.aggregateConflicts, m.aggregateRetries,
		m.processSyncCalls, m.processSyncLatency, m.compensations,
		m.errandsCreated,
		m.pgStats, m.redisUp, m.redisPing,
	} {
		if err := pw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	method = orUnknown(method, "UNKNOWN")
	route = orUnknown(route, "unknown")
	status = orUnknown(status, "0")
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	m.apiReqTotal.Inc()
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	op = orUnknown(op, "unknown")
	status = orUnknown(status, "unknown")
	m.aggregateOps.Inc(op, status)
	m.aggregateLatency.Observe(dur.Seconds(), op, status)
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.Inc(orUnknown(op, "unknown"))
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m == nil {
		return
	}
	m.aggregateRetries.Inc(orUnknown(op, "unknown"))
}

func (m *Metrics) ObserveProcessSync(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	op = orUnknown(op, "unknown")
	status = orUnknown(status, "unknown")
	m.processSyncCalls.Inc(op, status)
	m.processSyncLatency.Observe(dur.Seconds(), op, status)
}

func (m *Metrics) IncCompensation() {
	if m == nil {
		return
	}
	m.compensations.Inc()
}

func (m *Metrics) IncErrandCreated(caseType string) {
	if m == nil {
		return
	}
	m.errandsCreated.Inc(orUnknown(caseType, "unknown"))
}

// collectEvery runs fn on every scrape interval until ctx ends.
func collectEvery(ctx context.Context, fn func()) {
	go func() {
		t := time.NewTicker(scrapeInterval())
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				fn()
			}
		}
	}()
}

// StartPostgresCollector samples the database/sql pool behind db.
func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	collectEvery(ctx, func() {
		sqlDB, err := db.DB()
		if err != nil {
			if log != nil {
				log.Warn("Pool stats unavailable", "error", err)
			}
			return
		}
		st := sqlDB.Stats()
		for name, v := range map[string]float64{
			"open_connections":      float64(st.OpenConnections),
			"in_use":                float64(st.InUse),
			"idle":                  float64(st.Idle),
			"max_open_connections":  float64(st.MaxOpenConnections),
			"wait_count":            float64(st.WaitCount),
			"wait_duration_seconds": st.WaitDuration.Seconds(),
		} {
			m.pgStats.Set(v, name)
		}
	})
}

// StartRedisCollector records reachability and ping latency of the number
// lock's redis. rdb stays owned by the caller.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	collectEvery(ctx, func() {
		began := time.Now()
		if err := rdb.Ping(ctx).Err(); err != nil {
			m.redisUp.Set(0)
			if log != nil {
				log.Warn("Redis ping failed", "error", err)
			}
			return
		}
		m.redisUp.Set(1)
		m.redisPing.Set(time.Since(began).Seconds())
	})
}

func orUnknown(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

func isServerErrorStatus(status string) bool {
	return len(status) == 3 && status[0] == '5'
}
