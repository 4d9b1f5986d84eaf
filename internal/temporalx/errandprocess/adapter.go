package errandprocess

import (
	"context"
	"fmt"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
	"github.com/OpenSundsvall/api-service-case-data/internal/temporalx"
)

// WorkflowClient is the part of the Temporal client the adapter uses.
type WorkflowClient interface {
	ExecuteWorkflow(ctx context.Context, options temporalsdkclient.StartWorkflowOptions, workflow interface{}, args ...interface{}) (temporalsdkclient.WorkflowRun, error)
	SignalWithStartWorkflow(ctx context.Context, workflowID string, signalName string, signalArg interface{}, options temporalsdkclient.StartWorkflowOptions, workflow interface{}, workflowArgs ...interface{}) (temporalsdkclient.WorkflowRun, error)
}

// Adapter starts and signals errand processes. Transient frontend failures
// are retried a bounded number of times; the last error is returned as is.
type Adapter struct {
	log         *logger.Logger
	tc          WorkflowClient
	taskQueue   string
	maxAttempts int
	backoff     time.Duration
	backoffMax  time.Duration
	clock       func() time.Time
}

func NewAdapter(log *logger.Logger, tc WorkflowClient, cfg temporalx.Config) *Adapter {
	if log == nil {
		log = logger.Nop()
	}
	attempts := cfg.RPCMaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Adapter{
		log:         log.With("adapter", "ErrandProcess"),
		tc:          tc,
		taskQueue:   cfg.TaskQueue,
		maxAttempts: attempts,
		backoff:     cfg.Backoff,
		backoffMax:  cfg.BackoffMax,
		clock:       time.Now,
	}
}

func (a *Adapter) startOptions(errandID int64) temporalsdkclient.StartWorkflowOptions {
	return temporalsdkclient.StartWorkflowOptions{
		ID:                    WorkflowID(errandID),
		TaskQueue:             a.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}
}

// StartProcess starts the errand's workflow and returns its workflow id. The
// id stays the same across continue-as-new and restarts, unlike the run id.
func (a *Adapter) StartProcess(ctx context.Context, errandID int64) (string, error) {
	if a == nil || a.tc == nil {
		return "", fmt.Errorf("errandprocess: temporal client not configured")
	}
	opts := a.startOptions(errandID)
	var runID string
	err := a.call(ctx, "start", errandID, func(ctx context.Context) error {
		run, err := a.tc.ExecuteWorkflow(ctx, opts, WorkflowName, StartInput{ErrandID: errandID})
		if err != nil {
			return err
		}
		runID = run.GetRunID()
		return nil
	})
	if err != nil {
		return "", err
	}
	a.log.Info("Started errand process", "errand_id", errandID, "workflow_id", opts.ID, "run_id", runID)
	return opts.ID, nil
}

// UpdateProcess signals the errand's workflow, starting a new run when the
// previous one has completed. A run for a closed errand ends after its first
// sync, so later updates land on a fresh run instead of a finished one.
func (a *Adapter) UpdateProcess(ctx context.Context, errandID int64) error {
	if a == nil || a.tc == nil {
		return fmt.Errorf("errandprocess: temporal client not configured")
	}
	opts := a.startOptions(errandID)
	sig := ErrandUpdated{ErrandID: errandID, UpdatedAt: a.clock().UTC()}
	return a.call(ctx, "update", errandID, func(ctx context.Context) error {
		_, err := a.tc.SignalWithStartWorkflow(ctx, opts.ID, SignalErrandUpdated, sig, opts, WorkflowName, StartInput{ErrandID: errandID})
		return err
	})
}

func (a *Adapter) call(ctx context.Context, op string, errandID int64, fn func(context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var err error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !temporalx.IsRetryableRPC(err) || attempt == a.maxAttempts {
			break
		}
		a.log.Warn("Errand process call retrying", "op", op, "errand_id", errandID, "attempt", attempt, "error", err)
		t := time.NewTimer(temporalx.ClampBackoff(a.backoff, a.backoffMax, attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return fmt.Errorf("errand process %s (errand_id=%d): %w", op, errandID, err)
}
