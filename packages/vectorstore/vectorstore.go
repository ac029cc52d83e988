// Package vectorstore
package vectorstore

import (
	"context"

	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/domain"
)

// Match is one similarity hit returned by a query.
type Match struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}

// Index is the vector store boundary. A namespace partitions stored vectors
// to one owner/document pair; cross-namespace interference is the backend's
// problem, not ours.
type Index interface {
	Upsert(ctx context.Context, namespace string, records []domain.EmbeddingRecord) error
	Query(ctx context.Context, namespace string, vector []float64, topK int, filter map[string]string) ([]Match, error)
	DeleteNamespace(ctx context.Context, namespace string) error
	Health(ctx context.Context) error
}
