package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/librarian/internal/core/domain"
	"github.com/custodia-labs/librarian/internal/core/ports/driven"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewStore(Config{URL: server.URL, Prefix: "librarian"})
}

func TestStore_CollectionName(t *testing.T) {
	store := NewStore(Config{URL: "http://localhost:6333", Prefix: "librarian"})
	assert.Equal(t, "librarian_handbook", store.CollectionName("handbook"))

	bare := NewStore(Config{URL: "http://localhost:6333"})
	assert.Equal(t, "handbook", bare.CollectionName("handbook"))
}

func TestStore_EnsureCollection_CreatesWhenMissing(t *testing.T) {
	var created bool
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			assert.Equal(t, "/collections/librarian_handbook", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut:
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			vectors := body["vectors"].(map[string]any)
			assert.Equal(t, float64(768), vectors["size"])
			assert.Equal(t, "Cosine", vectors["distance"])
			created = true
			w.WriteHeader(http.StatusOK)
		}
	})

	require.NoError(t, store.EnsureCollection(context.Background(), "handbook", 768))
	assert.True(t, created)
}

func TestStore_EnsureCollection_SkipsWhenPresent(t *testing.T) {
	var puts int
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			puts++
		}
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, store.EnsureCollection(context.Background(), "handbook", 768))
	assert.Equal(t, 0, puts)
}

func TestStore_EnsureCollection_CachesExistence(t *testing.T) {
	var gets int
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets++
		}
		w.WriteHeader(http.StatusOK)
	})

	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx, "handbook", 768))
	require.NoError(t, store.EnsureCollection(ctx, "handbook", 768))
	assert.Equal(t, 1, gets)

	// The cache also answers CollectionExists.
	exists, err := store.CollectionExists(ctx, "handbook")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 1, gets)
}

func TestStore_EnsureCollection_RejectsBadDimensions(t *testing.T) {
	store := NewStore(Config{URL: "http://localhost:6333"})
	err := store.EnsureCollection(context.Background(), "handbook", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_Upsert(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/collections/librarian_handbook/points", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("wait"))

		var body struct {
			Points []struct {
				ID      string         `json:"id"`
				Vector  []float32      `json:"vector"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Points, 2)
		assert.Equal(t, "chunk-1", body.Points[0].ID)
		assert.Equal(t, "alpha", body.Points[0].Payload["content"])
		w.WriteHeader(http.StatusOK)
	})

	points := []driven.VectorPoint{
		{ID: "chunk-1", Vector: []float32{0.1, 0.2}, Payload: map[string]any{"content": "alpha"}},
		{ID: "chunk-2", Vector: []float32{0.3, 0.4}, Payload: map[string]any{"content": "beta"}},
	}
	require.NoError(t, store.Upsert(context.Background(), "handbook", points))
}

func TestStore_Upsert_EmptyIsNoop(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
		w.WriteHeader(http.StatusInternalServerError)
	})
	require.NoError(t, store.Upsert(context.Background(), "handbook", nil))
}

func TestStore_Search(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/collections/librarian_handbook/points/search", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(3), body["limit"])
		assert.Equal(t, true, body["with_payload"])

		resp := map[string]any{
			"result": []map[string]any{
				{"id": "chunk-1", "score": 0.92, "payload": map[string]any{"content": "alpha"}},
				{"id": "chunk-2", "score": 0.85, "payload": map[string]any{"content": "beta"}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	hits, err := store.Search(context.Background(), "handbook", []float32{0.1, 0.2}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "chunk-1", hits[0].ID)
	assert.InDelta(t, 0.92, hits[0].Score, 0.001)
	assert.Equal(t, "beta", hits[1].Payload["content"])
}

func TestStore_Search_MissingCollection(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := store.Search(context.Background(), "ghost", []float32{0.1}, 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_DeletePoints(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/librarian_handbook/points/delete", r.URL.Path)
		var body struct {
			Points []string `json:"points"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"chunk-1", "chunk-2"}, body.Points)
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, store.DeletePoints(context.Background(), "handbook", []string{"chunk-1", "chunk-2"}))
}

func TestStore_DeletePoints_MissingCollectionIsNoop(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	require.NoError(t, store.DeletePoints(context.Background(), "ghost", []string{"chunk-1"}))
}

func TestStore_APIKeyHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := NewStore(Config{URL: server.URL, APIKey: "secret"})
	exists, err := store.CollectionExists(context.Background(), "handbook")
	require.NoError(t, err)
	assert.True(t, exists)
}
