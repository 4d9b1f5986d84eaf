package testutil

import (
	"context"
	"sync"

	"github.com/OpenSundsvall/api-service-case-data/internal/data/aggregates"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/dbctx"
)

// InjectedTxRunner counts transaction attempts and injects failures. With an
// Inner runner it wraps real transactions, so injected failures roll back
// whatever the body wrote.
type InjectedTxRunner struct {
	mu sync.Mutex

	Inner aggregates.TxRunner

	FailBegin  error
	FailCommit error
	// ConflictFirst makes the first N attempts run their body and then lose
	// the version compare-and-set.
	ConflictFirst int

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	attempt := r.BeginCalls
	failBegin := r.FailBegin
	failCommit := r.FailCommit
	if attempt <= r.ConflictFirst {
		failCommit = aggregates.OptimisticConflictError("injected stale version")
	}
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	body := func(dbc dbctx.Context) error {
		if fn != nil {
			if err := fn(dbc); err != nil {
				return err
			}
		}
		return failCommit
	}

	var err error
	if r.Inner != nil {
		err = r.Inner.InTx(ctx, body)
	} else {
		err = body(dbctx.Context{Ctx: ctx})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.RollbackCalls++
		return err
	}
	r.CommitCalls++
	return nil
}

// Attempts returns how many transactions were started.
func (r *InjectedTxRunner) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.BeginCalls
}
