// Package memory is an in-process Index for local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/domain"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/vectorstore"
)

type Index struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]domain.EmbeddingRecord
}

func NewIndex() *Index {
	return &Index{namespaces: make(map[string]map[string]domain.EmbeddingRecord)}
}

func (x *Index) Upsert(ctx context.Context, namespace string, records []domain.EmbeddingRecord) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	ns, ok := x.namespaces[namespace]
	if !ok {
		ns = make(map[string]domain.EmbeddingRecord)
		x.namespaces[namespace] = ns
	}
	for _, rec := range records {
		ns[rec.ID] = rec
	}
	return nil
}

func (x *Index) Query(ctx context.Context, namespace string, vector []float64, topK int, filter map[string]string) ([]vectorstore.Match, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if topK <= 0 {
		topK = 6
	}

	var matches []vectorstore.Match
	for _, rec := range x.namespaces[namespace] {
		if !matchesFilter(rec.Metadata, filter) {
			continue
		}
		matches = append(matches, vectorstore.Match{
			ID:       rec.ID,
			Score:    dot(rec.Values, vector),
			Metadata: rec.Metadata,
		})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (x *Index) DeleteNamespace(ctx context.Context, namespace string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.namespaces, namespace)
	return nil
}

func (x *Index) Health(ctx context.Context) error { return nil }

// Count reports how many records a namespace holds.
func (x *Index) Count(namespace string) int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.namespaces[namespace])
}

func matchesFilter(metadata, filter map[string]string) bool {
	for k, v := range filter {
		if metadata[k] != v {
			return false
		}
	}
	return true
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
