package deploy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/cappuccino213/eWordDockerManager/internal/core/reconcile"
	"github.com/cappuccino213/eWordDockerManager/internal/shell/docker"
)

// =============================================================================
// ServiceReconciler
// =============================================================================

// ServiceReconciler compares declared compose services against existing
// containers and creates or (on confirmation) recreates them, one service
// at a time in declared order.
type ServiceReconciler struct {
	docker  docker.Client
	compose ComposeRunner
	prompt  Prompter
	logger  *slog.Logger
}

// NewServiceReconciler creates a reconciler.
func NewServiceReconciler(cli docker.Client, compose ComposeRunner, prompt Prompter, logger *slog.Logger) *ServiceReconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ServiceReconciler{
		docker:  cli,
		compose: compose,
		prompt:  prompt,
		logger:  logger,
	}
}

// Run reconciles the given services in order. The container name snapshot
// is taken once up front; external changes after that are not observed.
// Per-service failures are recorded and do not stop later services.
func (r *ServiceReconciler) Run(ctx context.Context, services []string) ([]ServiceResult, error) {
	containers, err := r.docker.ListContainers(docker.ListOptions{All: true})
	if err != nil {
		return nil, fmt.Errorf("snapshot containers: %w", err)
	}
	snapshot := reconcile.NameSet(lo.Map(containers, func(c docker.ContainerInfo, _ int) string {
		return c.Name
	}))

	var results []ServiceResult
	for _, svc := range services {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		bound := r.boundContainerName(ctx, svc)

		switch reconcile.DecideService(bound, snapshot) {
		case reconcile.ActionCreate:
			r.logger.Info("creating service container", "service", svc)
			if err := r.compose.Up(ctx, svc); err != nil {
				r.logger.Error("failed to create service", "service", svc, "error", err)
				results = append(results, ServiceResult{Service: svc, Outcome: ServiceFailed, Err: err})
				continue
			}
			results = append(results, ServiceResult{Service: svc, Outcome: ServiceCreated})

		case reconcile.ActionPrompt:
			ok, promptErr := r.prompt.Confirm(
				fmt.Sprintf("Service %q already has container %q. Force recreate it?", svc, bound),
				false,
			)
			if promptErr != nil || !ok {
				r.logger.Info("leaving existing container untouched", "service", svc, "container", bound)
				results = append(results, ServiceResult{Service: svc, Container: bound, Outcome: ServiceKept})
				continue
			}
			r.logger.Info("recreating service container", "service", svc, "container", bound)
			if err := r.compose.UpForceRecreate(ctx, svc); err != nil {
				r.logger.Error("failed to recreate service", "service", svc, "error", err)
				results = append(results, ServiceResult{Service: svc, Container: bound, Outcome: ServiceFailed, Err: err})
				continue
			}
			results = append(results, ServiceResult{Service: svc, Container: bound, Outcome: ServiceRecreated})
		}
	}

	return results, nil
}

// boundContainerName resolves the display name of the container currently
// bound to a service. Any failure along the way means the service is
// treated as having no container.
func (r *ServiceReconciler) boundContainerName(ctx context.Context, service string) string {
	id, err := r.compose.ContainerID(ctx, service)
	if err != nil || id == "" {
		return ""
	}
	info, err := r.docker.InspectContainer(id)
	if err != nil {
		// Stale identifier: compose remembers a container that is gone.
		return ""
	}
	return info.Name
}
