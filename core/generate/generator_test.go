package generate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerationError(t *testing.T) {
	t.Run("Classification helpers", func(t *testing.T) {
		transient := NewGenerationError(FailureTransient, errors.New("timeout"))
		rejected := NewGenerationError(FailureRejected, errors.New("bad prompt"))
		auth := NewGenerationError(FailureAuth, errors.New("invalid key"))

		assert.True(t, IsTransient(transient))
		assert.False(t, IsTransient(rejected))
		assert.True(t, IsRejected(rejected))
		assert.True(t, IsAuthFailure(auth))
		assert.False(t, IsAuthFailure(transient))
	})

	t.Run("Classification survives wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("failed to generate: %w", NewGenerationError(FailureAuth, errors.New("invalid key")))

		assert.True(t, IsAuthFailure(wrapped))
	})

	t.Run("Plain errors are not classified", func(t *testing.T) {
		plain := errors.New("something broke")

		assert.False(t, IsTransient(plain))
		assert.False(t, IsRejected(plain))
		assert.False(t, IsAuthFailure(plain))
	})

	t.Run("Unwrap exposes the cause", func(t *testing.T) {
		cause := errors.New("timeout")
		err := NewGenerationError(FailureTransient, cause)

		assert.ErrorIs(t, err, cause)
	})
}
