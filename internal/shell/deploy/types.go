// Package deploy implements the deployment workflow: loading exported
// image archives into the local store and reconciling compose services
// against running containers.
package deploy

import (
	"context"
)

// =============================================================================
// Collaborator Interfaces
// =============================================================================

// ComposeRunner is the subset of the compose CLI surface the deploy flows
// use. Satisfied by *composecli.Runner.
type ComposeRunner interface {
	ValidateConfig(ctx context.Context) error
	Up(ctx context.Context, services ...string) error
	UpForceRecreate(ctx context.Context, service string) error
	ContainerID(ctx context.Context, service string) (string, error)
	Down(ctx context.Context) error
}

// Prompter asks the operator for confirmation before destructive steps.
type Prompter interface {
	Confirm(prompt string, defaultYes bool) (bool, error)
}

// =============================================================================
// Load Results
// =============================================================================

// LoadOutcome is the per-archive result of an image load pass.
type LoadOutcome string

const (
	// OutcomeLoaded means the archive was loaded into the image store.
	OutcomeLoaded LoadOutcome = "loaded"
	// OutcomeSkipped means the archive's tag was already present.
	OutcomeSkipped LoadOutcome = "skipped"
	// OutcomeFallback means no tag could be extracted and the archive was
	// loaded unconditionally, best effort.
	OutcomeFallback LoadOutcome = "fallback"
	// OutcomeFailed means the load call itself failed.
	OutcomeFailed LoadOutcome = "failed"
)

// LoadResult records what happened to a single archive.
type LoadResult struct {
	Archive string
	RepoTag string // empty when no tag could be extracted
	Outcome LoadOutcome
	Err     error
}

// LoadReport aggregates the results of one load pass.
type LoadReport struct {
	Results []LoadResult
}

// Count returns how many archives ended with the given outcome.
func (r *LoadReport) Count(outcome LoadOutcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// =============================================================================
// Reconcile Results
// =============================================================================

// ServiceOutcome is the per-service result of a reconcile pass.
type ServiceOutcome string

const (
	// ServiceCreated means a container was created (or started) for the service.
	ServiceCreated ServiceOutcome = "created"
	// ServiceRecreated means the operator confirmed a force recreate.
	ServiceRecreated ServiceOutcome = "recreated"
	// ServiceKept means a container existed and the operator declined to
	// recreate it.
	ServiceKept ServiceOutcome = "kept"
	// ServiceFailed means the compose invocation for the service failed.
	ServiceFailed ServiceOutcome = "failed"
)

// ServiceResult records the decision and outcome for a single service.
type ServiceResult struct {
	Service   string
	Container string // bound container name, empty if none existed
	Outcome   ServiceOutcome
	Err       error
}

// =============================================================================
// Workflow Report
// =============================================================================

// Report is the combined result of a full deploy run.
type Report struct {
	RunID    string
	Load     *LoadReport
	Services []ServiceResult
}
