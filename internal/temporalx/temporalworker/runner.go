package temporalworker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OpenSundsvall/api-service-case-data/internal/data/repos"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/envutil"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
	"github.com/OpenSundsvall/api-service-case-data/internal/temporalx"
	"github.com/OpenSundsvall/api-service-case-data/internal/temporalx/errandprocess"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

// Runner hosts the errand process workflow and its sync activity.
type Runner struct {
	log *logger.Logger
	cfg temporalx.Config

	tc      temporalsdkclient.Client
	errands repos.ErrandRepo
}

func NewRunner(log *logger.Logger, cfg temporalx.Config, tc temporalsdkclient.Client, errands repos.ErrandRepo) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if errands == nil {
		return nil, fmt.Errorf("temporal worker missing errand repo")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{
		log:     log.With("service", "TemporalWorker"),
		cfg:     cfg,
		tc:      tc,
		errands: errands,
	}, nil
}

// Run starts the worker, retrying while the frontend is unavailable, and
// blocks until ctx ends.
func (r *Runner) Run(ctx context.Context) error {
	if r == nil || r.tc == nil {
		return fmt.Errorf("temporal worker not initialized")
	}
	r.log.Info("Starting Temporal worker", "address", r.cfg.Address, "namespace", r.cfg.Namespace, "task_queue", r.cfg.TaskQueue)

	if r.cfg.AutoRegisterNamespace {
		if err := temporalx.EnsureNamespace(ctx, r.cfg, r.log); err != nil {
			r.log.Warn("Temporal namespace ensure failed; worker will retry on start", "namespace", r.cfg.Namespace, "error", err)
		}
	}

	deadline := time.Now().Add(r.cfg.DialMaxWait)
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		w := r.newWorker()
		startErr := w.Start()
		if startErr == nil {
			r.log.Info("Temporal worker started", "namespace", r.cfg.Namespace, "task_queue", r.cfg.TaskQueue, "attempts", attempt)
			<-ctx.Done()
			w.Stop()
			return nil
		}
		w.Stop()

		var nfe *serviceerror.NamespaceNotFound
		missingNamespace := errors.As(startErr, &nfe)
		if missingNamespace && r.cfg.AutoRegisterNamespace {
			_ = temporalx.EnsureNamespace(ctx, r.cfg, r.log)
		}

		if r.cfg.DialMaxWait <= 0 || time.Now().After(deadline) {
			if missingNamespace {
				return fmt.Errorf("temporal namespace not found (namespace=%s): %w", r.cfg.Namespace, startErr)
			}
			return startErr
		}
		r.log.Warn("Temporal worker failed to start; retrying", "namespace", r.cfg.Namespace, "task_queue", r.cfg.TaskQueue, "attempt", attempt, "error", startErr)

		if err := temporalx.Pause(ctx, r.cfg, attempt); err != nil {
			return err
		}
	}
}

func (r *Runner) newWorker() worker.Worker {
	concurrency := envutil.Int("WORKER_CONCURRENCY", 4)
	if concurrency < 1 {
		concurrency = 1
	}
	w := worker.New(r.tc, r.cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: concurrency,
	})

	acts := &errandprocess.Activities{Log: r.log, Errands: r.errands}
	w.RegisterWorkflowWithOptions(errandprocess.Workflow, workflow.RegisterOptions{Name: errandprocess.WorkflowName})
	w.RegisterActivityWithOptions(acts.Sync, activity.RegisterOptions{Name: errandprocess.ActivitySync})
	return w
}
