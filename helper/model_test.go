package helper

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareModel(t *testing.T) {
	t.Run("Existing model path is returned without download", func(t *testing.T) {
		require.NoError(t, os.MkdirAll("./models/sentence-transformers_all-MiniLM-L6-v2", 0755))

		modelPath, err := PrepareModel("sentence-transformers/all-MiniLM-L6-v2", "onnx/model.onnx")

		require.NoError(t, err)
		assert.Equal(t, "models/sentence-transformers_all-MiniLM-L6-v2", modelPath)
	})

	t.Run("Missing model is downloaded", func(t *testing.T) {
		if testing.Short() {
			t.Skip("Skipping PrepareModel download test in short mode")
		}

		modelPath, err := PrepareModel("sentence-transformers/all-MiniLM-L6-v2", "onnx/model.onnx")

		require.NoError(t, err)
		assert.DirExists(t, modelPath)
	})
}
