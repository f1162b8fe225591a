package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/librarian/internal/core/ports/driven"
)

func TestGenerationService_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "You are a librarian.", req.Messages[0].Content)
		assert.Equal(t, "user", req.Messages[1].Role)

		resp := chatResponse{
			Message: chatMessage{Role: "assistant", Content: "The answer is 42."},
			Done:    true,
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	svc := NewGenerationService(Config{BaseURL: server.URL})
	answer, err := svc.Generate(context.Background(), "What is the answer?", driven.GenerateOptions{
		System: "You are a librarian.",
	})
	require.NoError(t, err)
	assert.Equal(t, "The answer is 42.", answer)
}

func TestGenerationService_Generate_NoSystem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		resp := chatResponse{Message: chatMessage{Role: "assistant", Content: "ok"}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	svc := NewGenerationService(Config{BaseURL: server.URL})
	_, err := svc.Generate(context.Background(), "hello", driven.GenerateOptions{})
	require.NoError(t, err)
}

func TestGenerationService_Generate_PassesOptions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.Options)
		assert.Equal(t, 256, req.Options.NumPredict)
		assert.InDelta(t, 0.2, req.Options.Temperature, 0.001)

		resp := chatResponse{Message: chatMessage{Role: "assistant", Content: "ok"}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	svc := NewGenerationService(Config{BaseURL: server.URL})
	_, err := svc.Generate(context.Background(), "hello", driven.GenerateOptions{
		MaxTokens:   256,
		Temperature: 0.2,
	})
	require.NoError(t, err)
}

func TestGenerationService_Generate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewGenerationService(Config{BaseURL: server.URL})
	_, err := svc.Generate(context.Background(), "hello", driven.GenerateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestGenerationService_Defaults(t *testing.T) {
	svc := NewGenerationService(Config{})
	assert.Equal(t, DefaultModel, svc.ModelName())
}
