package temporalx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/api/workflowservice/v1"
	temporalsdkclient "go.temporal.io/sdk/client"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
)

const namespaceEnsureTimeout = 10 * time.Second

// EnsureNamespace registers cfg.Namespace when the cluster does not know it.
// Only self-hosted clusters need this; it is a no-op when Temporal is off.
func EnsureNamespace(ctx context.Context, cfg Config, log *logger.Logger) error {
	if !cfg.Enabled() || cfg.Namespace == "" {
		return nil
	}
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithTimeout(ctx, namespaceEnsureTimeout)
	defer cancel()

	opts, err := cfg.clientOptions(log, false)
	if err != nil {
		return err
	}
	nc, err := temporalsdkclient.NewNamespaceClient(opts)
	if err != nil {
		return fmt.Errorf("temporal namespace client: %w", err)
	}
	defer nc.Close()

	for attempt := 1; ; attempt++ {
		done, err := ensureOnce(ctx, nc, cfg)
		if done {
			if err == nil {
				log.Debug("Temporal namespace present", "namespace", cfg.Namespace, "attempts", attempt)
			}
			return err
		}
		log.Warn("Temporal namespace ensure retrying", "namespace", cfg.Namespace, "attempt", attempt, "error", err)
		if perr := Pause(ctx, cfg, attempt); perr != nil {
			return fmt.Errorf("temporal namespace %s: %w", cfg.Namespace, errors.Join(perr, err))
		}
	}
}

// ensureOnce describes and, if missing, registers the namespace. done is
// false only for transient failures.
func ensureOnce(ctx context.Context, nc temporalsdkclient.NamespaceClient, cfg Config) (done bool, err error) {
	_, err = nc.Describe(ctx, cfg.Namespace)
	var missing *serviceerror.NamespaceNotFound
	switch {
	case err == nil:
		return true, nil
	case IsRetryableRPC(err):
		return false, err
	case !errors.As(err, &missing):
		return true, fmt.Errorf("describe temporal namespace %s: %w", cfg.Namespace, err)
	}

	err = nc.Register(ctx, &workflowservice.RegisterNamespaceRequest{
		Namespace:                        cfg.Namespace,
		Description:                      "errand processes of api-service-case-data",
		WorkflowExecutionRetentionPeriod: durationpb.New(cfg.NamespaceRetention),
	})
	var exists *serviceerror.NamespaceAlreadyExists
	switch {
	case err == nil, errors.As(err, &exists):
		return true, nil
	case IsRetryableRPC(err):
		return false, err
	default:
		return true, fmt.Errorf("register temporal namespace %s: %w", cfg.Namespace, err)
	}
}
