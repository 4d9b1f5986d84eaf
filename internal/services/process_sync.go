package services

import (
	"context"
	"time"

	"github.com/OpenSundsvall/api-service-case-data/internal/observability"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
)

// ProcessSync keeps the external workflow of an errand informed. StartProcess
// returns a stable id of the errand's process, which may be empty when the
// implementation does not track one.
type ProcessSync interface {
	StartProcess(ctx context.Context, errandID int64) (string, error)
	UpdateProcess(ctx context.Context, errandID int64) error
}

type disabledProcessSync struct {
	log *logger.Logger
}

// NewDisabledProcessSync is used when no workflow engine is configured. Every
// call succeeds without side effects.
func NewDisabledProcessSync(baseLog *logger.Logger) ProcessSync {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &disabledProcessSync{log: baseLog.With("service", "DisabledProcessSync")}
}

func (d *disabledProcessSync) StartProcess(_ context.Context, errandID int64) (string, error) {
	d.log.Debug("Process sync disabled; not starting process", "errand_id", errandID)
	return "", nil
}

func (d *disabledProcessSync) UpdateProcess(_ context.Context, errandID int64) error {
	d.log.Debug("Process sync disabled; not updating process", "errand_id", errandID)
	return nil
}

type instrumentedProcessSync struct {
	inner   ProcessSync
	metrics *observability.Metrics
}

// InstrumentProcessSync records call counts and latency of inner. It returns
// inner unchanged when metrics are off.
func InstrumentProcessSync(inner ProcessSync, metrics *observability.Metrics) ProcessSync {
	if metrics == nil || inner == nil {
		return inner
	}
	return &instrumentedProcessSync{inner: inner, metrics: metrics}
}

func (p *instrumentedProcessSync) StartProcess(ctx context.Context, errandID int64) (string, error) {
	start := time.Now()
	id, err := p.inner.StartProcess(ctx, errandID)
	p.metrics.ObserveProcessSync("start", callStatus(err), time.Since(start))
	return id, err
}

func (p *instrumentedProcessSync) UpdateProcess(ctx context.Context, errandID int64) error {
	start := time.Now()
	err := p.inner.UpdateProcess(ctx, errandID)
	p.metrics.ObserveProcessSync("update", callStatus(err), time.Since(start))
	return err
}

func callStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
