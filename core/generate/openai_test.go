package generate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/siherrmann/describer/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionResponse(content string) string {
	response := map[string]interface{}{
		"id": "chatcmpl-test",
		"choices": []map[string]interface{}{
			{
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	}
	encoded, _ := json.Marshal(response)
	return string(encoded)
}

func testEntity() *model.Entity {
	return &model.Entity{
		Kind:  model.KindMetric,
		ID:    "revenue",
		Title: "Revenue",
		Extra: model.Metadata{
			"content": map[string]interface{}{"maql": "SELECT SUM({fact/price})"},
		},
	}
}

func TestNewOpenAIClient(t *testing.T) {
	t.Run("Valid config with defaults", func(t *testing.T) {
		client, err := NewOpenAIClient(OpenAIConfig{APIKey: "test-key"})

		require.NoError(t, err)
		require.NotNil(t, client)
		assert.Equal(t, "https://api.openai.com/v1", client.baseURL)
		assert.Equal(t, "gpt-4o-mini", client.model)
		assert.Equal(t, 150, client.maxTokens)
	})

	t.Run("Missing API key", func(t *testing.T) {
		_, err := NewOpenAIClient(OpenAIConfig{})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "API key is required")
	})
}

func TestOpenAIClientGenerate(t *testing.T) {
	t.Run("Successful completion", func(t *testing.T) {
		var gotAuth string
		var gotBody openAIRequestBody
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(completionResponse("  Total revenue across all orders.  ")))
		}))
		defer server.Close()

		client, err := NewOpenAIClient(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})
		require.NoError(t, err)

		text, err := client.Generate(context.Background(), testEntity(), PromptContext{})

		require.NoError(t, err)
		assert.Equal(t, "Total revenue across all orders.", text, "Expected surrounding whitespace to be trimmed")
		assert.Equal(t, "Bearer test-key", gotAuth)
		assert.Equal(t, "gpt-4o-mini", gotBody.Model)
		require.Len(t, gotBody.Messages, 1)
		assert.Contains(t, gotBody.Messages[0]["content"], "MAQL: SELECT SUM({fact/price})")
	})

	t.Run("Rate limit is transient", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer server.Close()

		client, err := NewOpenAIClient(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})
		require.NoError(t, err)

		_, err = client.Generate(context.Background(), testEntity(), PromptContext{})

		require.Error(t, err)
		assert.True(t, IsTransient(err), "Expected 429 to classify as transient")
	})

	t.Run("Server error is transient", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream exploded", http.StatusBadGateway)
		}))
		defer server.Close()

		client, err := NewOpenAIClient(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})
		require.NoError(t, err)

		_, err = client.Generate(context.Background(), testEntity(), PromptContext{})

		require.Error(t, err)
		assert.True(t, IsTransient(err))
	})

	t.Run("Unauthorized is an auth failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid api key", http.StatusUnauthorized)
		}))
		defer server.Close()

		client, err := NewOpenAIClient(OpenAIConfig{APIKey: "bad-key", BaseURL: server.URL})
		require.NoError(t, err)

		_, err = client.Generate(context.Background(), testEntity(), PromptContext{})

		require.Error(t, err)
		assert.True(t, IsAuthFailure(err), "Expected 401 to classify as auth failure")
		assert.False(t, IsTransient(err))
	})

	t.Run("Bad request is rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid model", http.StatusBadRequest)
		}))
		defer server.Close()

		client, err := NewOpenAIClient(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})
		require.NoError(t, err)

		_, err = client.Generate(context.Background(), testEntity(), PromptContext{})

		require.Error(t, err)
		assert.True(t, IsRejected(err), "Expected 400 to classify as rejected")
	})

	t.Run("Empty completion is rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(completionResponse("   ")))
		}))
		defer server.Close()

		client, err := NewOpenAIClient(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL})
		require.NoError(t, err)

		_, err = client.Generate(context.Background(), testEntity(), PromptContext{})

		require.Error(t, err)
		assert.True(t, IsRejected(err))
	})

	t.Run("Unreachable server is transient", func(t *testing.T) {
		client, err := NewOpenAIClient(OpenAIConfig{APIKey: "test-key", BaseURL: "http://127.0.0.1:1"})
		require.NoError(t, err)

		_, err = client.Generate(context.Background(), testEntity(), PromptContext{})

		require.Error(t, err)
		assert.True(t, IsTransient(err), "Expected a connection error to classify as transient")
	})
}
