package errandprocess

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const continueHistoryLimit = 15000

// Workflow follows one errand from creation until it is closed. It syncs on
// start and after every errand_updated signal.
func Workflow(ctx workflow.Context, in StartInput) error {
	if in.ErrandID <= 0 {
		return fmt.Errorf("errandprocess: missing errand_id")
	}
	limit := in.SignalLimit
	if limit <= 0 {
		limit = defaultSignalLimit
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    10,
		},
	})
	log := workflow.GetLogger(ctx)
	updates := workflow.GetSignalChannel(ctx, SignalErrandUpdated)

	handled := 0
	for {
		var out SyncResult
		if err := workflow.ExecuteActivity(ctx, ActivitySync, in.ErrandID).Get(ctx, &out); err != nil {
			return err
		}
		if out.Missing {
			log.Info("Errand gone; ending process", "errand_id", in.ErrandID)
			return nil
		}
		if out.Closed {
			log.Info("Errand closed; ending process", "errand_id", in.ErrandID, "errand_number", out.ErrandNumber)
			return nil
		}

		var sig ErrandUpdated
		updates.Receive(ctx, &sig)
		handled++
		// updates that queued up while syncing are covered by the next sync
		for updates.ReceiveAsync(&sig) {
		}

		if handled >= limit || workflow.GetInfo(ctx).GetCurrentHistoryLength() >= continueHistoryLimit {
			return workflow.NewContinueAsNewError(ctx, WorkflowName, in)
		}
	}
}
