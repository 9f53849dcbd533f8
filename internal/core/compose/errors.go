// Package compose contains pure functions for parsing docker-compose
// specifications. All functions here are side-effect free; reading the
// file from disk is the caller's job.
package compose

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Input validation errors
	ErrEmptyInput = errors.New("compose spec is empty")

	// YAML parsing errors
	ErrInvalidYAML = errors.New("invalid YAML syntax")

	// Compose structure errors
	ErrNoServices = errors.New("compose spec must define at least one service")

	// Service validation errors
	ErrServiceNoImage     = errors.New("service must have image or build")
	ErrServiceInvalidPort = errors.New("invalid port configuration")
	ErrCircularDependency = errors.New("circular dependency detected")

	// Image reference errors
	ErrInvalidImageRef = errors.New("invalid image reference")
)

// ParseError wraps errors with context about where parsing failed.
type ParseError struct {
	Field   string // e.g., "services.web.ports[0]"
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError.
func NewParseError(field, message string, err error) *ParseError {
	return &ParseError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
