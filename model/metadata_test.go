package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataMarshal(t *testing.T) {
	t.Run("Marshal empty metadata", func(t *testing.T) {
		m := Metadata{}

		bytes, err := m.Marshal()

		require.NoError(t, err)
		assert.Equal(t, []byte("{}"), bytes)
	})

	t.Run("Marshal metadata with nested record content", func(t *testing.T) {
		m := Metadata{
			"content": map[string]interface{}{
				"maql": "SELECT SUM({fact/price})",
			},
			"tags": []string{"core", "finance"},
		}

		bytes, err := m.Marshal()

		require.NoError(t, err)

		var result map[string]interface{}
		err = json.Unmarshal(bytes, &result)
		require.NoError(t, err)
		content, ok := result["content"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "SELECT SUM({fact/price})", content["maql"])
	})
}

func TestMetadataValue(t *testing.T) {
	t.Run("Nil metadata stores as empty object", func(t *testing.T) {
		var m Metadata

		value, err := m.Value()

		require.NoError(t, err)
		assert.Equal(t, []byte("{}"), value)
	})
}

func TestMetadataUnmarshal(t *testing.T) {
	t.Run("Unmarshal from bytes", func(t *testing.T) {
		var m Metadata

		err := m.Unmarshal([]byte(`{"visualizationUrl": "local:bar"}`))

		require.NoError(t, err)
		assert.Equal(t, "local:bar", m["visualizationUrl"])
	})

	t.Run("Unmarshal nil gives empty metadata", func(t *testing.T) {
		var m Metadata

		err := m.Unmarshal(nil)

		require.NoError(t, err)
		assert.NotNil(t, m)
		assert.Len(t, m, 0)
	})

	t.Run("Unmarshal unsupported type fails", func(t *testing.T) {
		var m Metadata

		err := m.Unmarshal(42)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "type assertion")
	})
}
