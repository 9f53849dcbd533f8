package deploy

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/cappuccino213/eWordDockerManager/internal/core/compose"
)

// =============================================================================
// DeployWorkflow
// =============================================================================

// Workflow runs a full deploy: precondition checks, then the image load
// pass, then service reconciliation.
type Workflow struct {
	compose     ComposeRunner
	loader      *ImageLoader
	reconciler  *ServiceReconciler
	composeFile string
	logger      *slog.Logger
}

// NewWorkflow creates a deploy workflow.
func NewWorkflow(runner ComposeRunner, loader *ImageLoader, reconciler *ServiceReconciler, composeFile string, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{
		compose:     runner,
		loader:      loader,
		reconciler:  reconciler,
		composeFile: composeFile,
		logger:      logger,
	}
}

// Run executes the workflow. Precondition failures abort before any
// mutation; a load batch abort is returned together with the partial
// report so the caller can show what did complete.
func (w *Workflow) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: uuid.NewString()[:8]}
	logger := w.logger.With("run_id", report.RunID)

	// Preconditions: file present, parseable, and accepted by the compose
	// tool itself.
	content, err := os.ReadFile(w.composeFile)
	if err != nil {
		return report, &PreconditionError{Check: "compose file " + w.composeFile, Err: ErrComposeFileMissing}
	}

	spec, err := compose.ParseComposeSpec(string(content))
	if err != nil {
		return report, &PreconditionError{Check: "parse " + w.composeFile, Err: err}
	}

	if err := w.compose.ValidateConfig(ctx); err != nil {
		return report, &PreconditionError{Check: "compose config", Err: err}
	}

	for _, svc := range spec.Services {
		if svc.Image == "" {
			continue
		}
		if source, err := compose.ClassifyImageRef(svc.Image); err == nil {
			logger.Debug("service image source", "service", svc.Name, "image", svc.Image, "source", source)
		}
	}

	logger.Info("starting deploy", "services", len(spec.Services))

	report.Load, err = w.loader.Run(ctx)
	if err != nil {
		return report, err
	}

	report.Services, err = w.reconciler.Run(ctx, spec.ServiceNames())
	if err != nil {
		return report, err
	}

	logger.Info("deploy finished",
		"loaded", report.Load.Count(OutcomeLoaded),
		"skipped", report.Load.Count(OutcomeSkipped),
		"services", len(report.Services),
	)
	return report, nil
}
