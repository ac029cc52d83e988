package pinecone

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{Host: srv.URL, APIKey: "test-key"})
	require.NoError(t, err)
	return c
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{Host: "", APIKey: "k"})
	assert.Error(t, err)
	_, err = NewClient(Config{Host: "h", APIKey: ""})
	assert.Error(t, err)
}

func TestNewClientDefaultsScheme(t *testing.T) {
	c, err := NewClient(Config{Host: "my-index.svc.pinecone.io", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "https://my-index.svc.pinecone.io", c.host)
}

func TestUpsertBatches(t *testing.T) {
	type upsertBody struct {
		Vectors   []domain.EmbeddingRecord `json:"vectors"`
		Namespace string                   `json:"namespace"`
	}
	var batches []upsertBody

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/vectors/upsert", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("Api-Key"))
		var body upsertBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		batches = append(batches, body)
		fmt.Fprint(w, `{}`)
	})

	records := make([]domain.EmbeddingRecord, 150)
	for i := range records {
		records[i] = domain.EmbeddingRecord{
			ID:     fmt.Sprintf("chunk-%d", i),
			Values: []float64{1, 0},
		}
	}
	require.NoError(t, c.Upsert(context.Background(), "u:c", records))

	require.Len(t, batches, 2)
	assert.Len(t, batches[0].Vectors, 100)
	assert.Len(t, batches[1].Vectors, 50)
	assert.Equal(t, "u:c", batches[0].Namespace)
	assert.Equal(t, "chunk-100", batches[1].Vectors[0].ID)
}

func TestUpsertEmptyIsNoop(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty upsert")
	})
	assert.NoError(t, c.Upsert(context.Background(), "u:c", nil))
}

func TestQuery(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/query", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{"matches":[{"id":"chunk-1","score":0.92,"metadata":{"text":"hello"}}]}`)
	})

	matches, err := c.Query(context.Background(), "u:c", []float64{1, 0}, 0, map[string]string{"sourceType": "web"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "chunk-1", matches[0].ID)
	assert.InDelta(t, 0.92, matches[0].Score, 1e-9)
	assert.Equal(t, "hello", matches[0].Metadata["text"])

	// Zero topK falls back to the default; metadata is always requested.
	assert.Equal(t, float64(6), gotBody["topK"])
	assert.Equal(t, true, gotBody["includeMetadata"])
	assert.Equal(t, "u:c", gotBody["namespace"])
	filter, _ := gotBody["filter"].(map[string]any)
	assert.Equal(t, "web", filter["sourceType"])
}

func TestDeleteNamespace(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/vectors/delete", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{}`)
	})

	require.NoError(t, c.DeleteNamespace(context.Background(), "u:c"))
	assert.Equal(t, true, gotBody["deleteAll"])
	assert.Equal(t, "u:c", gotBody["namespace"])
}

func TestErrorStatusSurfaced(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"quota exceeded"}`, http.StatusForbidden)
	})

	err := c.Upsert(context.Background(), "u:c", []domain.EmbeddingRecord{{ID: "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "quota exceeded")

	assert.Error(t, c.Health(context.Background()))
}
