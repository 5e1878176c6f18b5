package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEmbedder(t *testing.T) {
	// Note: DefaultEmbedder uses hugot which requires downloading models
	// These tests may take longer on first run

	t.Run("Create embedder successfully", func(t *testing.T) {
		if testing.Short() {
			t.Skip("Skipping DefaultEmbedder test in short mode (requires model download)")
		}

		embedder, err := DefaultEmbedder()

		require.NoError(t, err)
		assert.NotNil(t, embedder)
	})

	t.Run("Generate embedding for description text", func(t *testing.T) {
		if testing.Short() {
			t.Skip("Skipping DefaultEmbedder test in short mode (requires model download)")
		}

		embedder, err := DefaultEmbedder()
		require.NoError(t, err)

		embedding, err := embedder("Total revenue across all completed orders.")

		require.NoError(t, err)
		assert.Equal(t, 384, len(embedding), "all-MiniLM-L6-v2 produces 384-dimensional embeddings")

		hasNonZero := false
		for _, val := range embedding {
			if val != 0 {
				hasNonZero = true
				break
			}
		}
		assert.True(t, hasNonZero, "Embedding should contain non-zero values")
	})
}
