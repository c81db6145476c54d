package ai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Generate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/generate", r.URL.Path)

		var req struct {
			Prompt string `json:"prompt"`
			Format string `json:"format"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Summarize the audit", req.Prompt)
		assert.Equal(t, "markdown", req.Format)

		_ = json.NewEncoder(w).Encode(map[string]string{"text": "# Summary"})
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL)

	text, err := client.Generate(t.Context(), "Summarize the audit", FormatMarkdown)
	require.NoError(t, err)
	assert.Equal(t, "# Summary", text)
}

func TestClient_Generate_DefaultsToTextFormat(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Format string `json:"format"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text", req.Format)

		_ = json.NewEncoder(w).Encode(map[string]string{"text": "ok"})
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL)

	_, err := client.Generate(t.Context(), "hi", "")
	require.NoError(t, err)
}

func TestClient_Generate_ServiceError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "model overloaded"})
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL)

	_, err := client.Generate(t.Context(), "hi", FormatText)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestClient_Generate_HTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL)

	_, err := client.Generate(t.Context(), "hi", FormatText)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestUnavailable(t *testing.T) {
	t.Parallel()

	_, err := Unavailable{}.Generate(t.Context(), "hi", FormatText)
	assert.Error(t, err)
}
