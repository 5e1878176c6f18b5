// Package generate provides the generation gateway: the capability that
// produces description text for a catalog entity. The gateway performs no
// caching and no retries, both belong to the pipeline runner.
package generate

import (
	"context"
	"errors"
	"fmt"

	"github.com/siherrmann/describer/model"
)

// FailureKind classifies a generation failure for the caller's retry policy
type FailureKind string

const (
	// FailureTransient marks failures worth retrying (network, rate limit)
	FailureTransient FailureKind = "transient"
	// FailureRejected marks failures that must not be retried with the
	// same input (invalid request, content policy)
	FailureRejected FailureKind = "rejected"
	// FailureAuth marks invalid credentials, fatal for the whole run
	FailureAuth FailureKind = "auth"
)

// GenerationError wraps a failed generation call with its failure kind
type GenerationError struct {
	Kind FailureKind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// NewGenerationError creates a classified generation error
func NewGenerationError(kind FailureKind, err error) *GenerationError {
	return &GenerationError{Kind: kind, Err: err}
}

// IsTransient reports whether err is a retryable generation failure
func IsTransient(err error) bool {
	return failureKind(err) == FailureTransient
}

// IsRejected reports whether err is a non-retryable generation failure
func IsRejected(err error) bool {
	return failureKind(err) == FailureRejected
}

// IsAuthFailure reports whether err is a credential failure
func IsAuthFailure(err error) bool {
	return failureKind(err) == FailureAuth
}

func failureKind(err error) FailureKind {
	var generationErr *GenerationError
	if errors.As(err, &generationErr) {
		return generationErr.Kind
	}
	return ""
}

// PromptContext carries the catalog-derived context for one generation call.
// It never contains another entity's raw data, only identities and already
// known descriptions.
type PromptContext struct {
	// Descriptions maps "kind/id" identities to their known descriptions,
	// so prompts for composite entities can reference described parts.
	Descriptions map[string]string
}

// Generator is the capability interface producing description text for an
// entity. Implementations return a non-empty text on success or a
// *GenerationError on failure.
type Generator interface {
	Generate(ctx context.Context, entity *model.Entity, promptCtx PromptContext) (string, error)
}
