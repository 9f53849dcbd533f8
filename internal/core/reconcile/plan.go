// Package reconcile contains the pure decision logic for comparing
// declared services and archived images against observed runtime state.
// No I/O happens here; callers feed in snapshots and act on the decisions.
package reconcile

// =============================================================================
// Service Decisions
// =============================================================================

// ServiceAction is the per-service reconciliation decision.
type ServiceAction string

const (
	// ActionCreate means the service has no live container and should be
	// started fresh.
	ActionCreate ServiceAction = "create"
	// ActionPrompt means a container for the service already exists and
	// recreating it needs explicit confirmation.
	ActionPrompt ServiceAction = "prompt"
)

// DecideService maps a service's bound container name against a snapshot
// of existing container names. An empty bound name, or a bound name absent
// from the snapshot (stale identifier), routes to create.
func DecideService(boundName string, snapshot map[string]bool) ServiceAction {
	if boundName == "" || !snapshot[boundName] {
		return ActionCreate
	}
	return ActionPrompt
}

// NameSet builds a membership set from a list of container names.
func NameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}

// =============================================================================
// Image Load Decisions
// =============================================================================

// LoadAction is the per-archive loading decision.
type LoadAction string

const (
	// LoadSkip means the archive's tag is already present in the image
	// store and no load is needed.
	LoadSkip LoadAction = "skip"
	// LoadPerform means the tag is known and absent, so the archive is
	// loaded; a failure here is fatal for the batch.
	LoadPerform LoadAction = "perform"
	// LoadFallback means no tag could be extracted; the archive is loaded
	// unconditionally, best effort, with no idempotence guarantee.
	LoadFallback LoadAction = "fallback"
)

// DecideLoad maps tag extraction and image store membership to a load
// decision. tagKnown is false when the archive manifest yielded no tag.
func DecideLoad(tagKnown, present bool) LoadAction {
	switch {
	case !tagKnown:
		return LoadFallback
	case present:
		return LoadSkip
	default:
		return LoadPerform
	}
}
