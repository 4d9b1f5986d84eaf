package aggregates

import (
	"context"
	"strings"
	"time"

	domainagg "github.com/OpenSundsvall/api-service-case-data/internal/domain/aggregates"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/dbctx"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
	"gorm.io/gorm"
)

// TxRunner opens the transaction for one write attempt. Returning an error
// from fn rolls back everything it wrote, audit rows included.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

// BaseDeps is shared by every aggregate. Only DB is required.
type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.CASGuard.db == nil {
		d.CASGuard = NewCASGuard(d.DB)
	}
	return d
}

type gormTxRunner struct{ db *gorm.DB }

func NewGormTxRunner(db *gorm.DB) TxRunner { return gormTxRunner{db: db} }

func (r gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "no database configured", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

// executeWrite is a single attempt: one transaction, its error mapped to an
// aggregate code, and one ObserveOperation call. Retrying is the job of
// executeWithRetry.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	deps = deps.withDefaults()
	if op = strings.TrimSpace(op); op == "" {
		op = "aggregate.write"
	}
	began := time.Now()
	err := MapError(op, deps.Runner.InTx(ctx, fn))

	status, lostRace := outcome(err)
	if lostRace {
		deps.Hooks.IncConflict(op)
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(began))
	return err
}

// outcome names the metric status of a mapped write error and reports
// whether the attempt lost against a concurrent writer.
func outcome(err error) (status string, lostRace bool) {
	if err == nil {
		return "success", false
	}
	code := domainagg.CodeOf(err)
	if code == "" {
		code = domainagg.CodeOf(MapError("aggregate.status", err))
	}
	switch code {
	case "":
		return "failure", false
	case domainagg.CodeConflict, domainagg.CodeOptimisticConflict:
		return string(code), true
	default:
		return string(code), false
	}
}
