package menu

// =============================================================================
// Menu State Machine
// =============================================================================

// State is the interaction state of the menu loop.
type State string

const (
	// StateIdle means the menu is showing the top-level action list.
	StateIdle State = "idle"
	// StateListing means an action is rendering a numbered list of targets.
	StateListing State = "listing"
	// StateAwaitingSelection means the menu is waiting for a target number.
	StateAwaitingSelection State = "awaiting_selection"
	// StateAwaitingConfirmation means a yes/no answer is pending.
	StateAwaitingConfirmation State = "awaiting_confirmation"
)

// validTransitions enumerates the legal state changes. Every flow returns
// to idle when it finishes or is cancelled.
var validTransitions = map[State][]State{
	StateIdle:                 {StateListing, StateAwaitingConfirmation},
	StateListing:              {StateAwaitingSelection, StateIdle},
	StateAwaitingSelection:    {StateAwaitingConfirmation, StateIdle},
	StateAwaitingConfirmation: {StateIdle},
}

// CanTransition reports whether moving from one state to another is legal.
func CanTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
