package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/ragchat/internal/domain/apperr"
)

func newOpenAITestServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if status != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"invalid key","type":"invalid_request_error"}}`))
			return
		}

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultOpenAIModel, req.Model)

		// Answer in reverse order to check that indexes are honored.
		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float64{float64(i), 0.5},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]any{"prompt_tokens": 3, "total_tokens": 3},
		})
	}))
}

func TestOpenAIAdapter_EmbedBatch(t *testing.T) {
	server := newOpenAITestServer(t, http.StatusOK)
	defer server.Close()

	a := NewOpenAIAdapter("sk-test", "", zerolog.Nop(), option.WithBaseURL(server.URL+"/"), option.WithMaxRetries(0))
	out, err := a.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i, vec := range out {
		assert.Equal(t, []float32{float32(i), 0.5}, vec)
	}
	assert.Equal(t, "openai/"+DefaultOpenAIModel, a.ModelName())
}

func TestOpenAIAdapter_AuthFailure(t *testing.T) {
	server := newOpenAITestServer(t, http.StatusUnauthorized)
	defer server.Close()

	a := NewOpenAIAdapter("sk-test", "", zerolog.Nop(), option.WithBaseURL(server.URL+"/"), option.WithMaxRetries(0))
	_, err := a.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, apperr.IsProvider(err))
}
