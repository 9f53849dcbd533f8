package deploy

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Precondition failures; the operation is aborted before any mutation.
	ErrComposeFileMissing = errors.New("compose file not found")
	ErrComposeFileInvalid = errors.New("compose file is invalid")

	// ErrLoadAborted means a known-tag image load failed and the rest of
	// the archive batch was not processed.
	ErrLoadAborted = errors.New("image load batch aborted")
)

// PreconditionError reports a failed deploy precondition check.
type PreconditionError struct {
	Check string
	Err   error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed: %s: %v", e.Check, e.Err)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}
