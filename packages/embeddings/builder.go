// Package embeddings
package embeddings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/domain"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/metrics"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/vectorstore"
)

// BuildParams describes one embedding-build call.
type BuildParams struct {
	UserID     string
	ConvID     string
	Texts      []string
	SourceType domain.SourceType
	Pages      []int  // PDF only, 1-based
	URL        string // web only
	// ChunkIDPrefix makes chunk ids deterministic: {prefix}_{i}. When empty
	// each chunk gets a random id.
	ChunkIDPrefix string
}

// Builder chunks text, embeds the chunks and upserts vector+metadata+text
// into the caller's namespace.
type Builder struct {
	embedder     Embedder
	index        vectorstore.Index
	chunkSize    int
	chunkOverlap int
}

func NewBuilder(embedder Embedder, index vectorstore.Index, chunkSize, chunkOverlap int) *Builder {
	if chunkSize <= 0 {
		chunkSize = 1600
	}
	if chunkOverlap <= 0 {
		chunkOverlap = 200
	}
	return &Builder{embedder: embedder, index: index, chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

func (b *Builder) Build(ctx context.Context, p BuildParams) error {
	fullText := strings.Join(p.Texts, "\n")
	chunks := Split(fullText, b.chunkSize, b.chunkOverlap)
	if len(chunks) == 0 {
		return nil
	}

	vectors, err := b.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}

	namespace := p.UserID + ":" + p.ConvID
	records := make([]domain.EmbeddingRecord, 0, len(chunks))
	for i, chunk := range chunks {
		chunkID := fmt.Sprintf("chunk_%s", strings.ReplaceAll(uuid.NewString(), "-", ""))
		if p.ChunkIDPrefix != "" {
			chunkID = fmt.Sprintf("%s_%d", p.ChunkIDPrefix, i)
		}

		metadata := map[string]string{
			"userId":     p.UserID,
			"convId":     p.ConvID,
			"chunkId":    chunkID,
			"sourceType": string(p.SourceType),
			"text":       chunk,
		}
		if p.SourceType == domain.SourcePDF && i < len(p.Pages) {
			metadata["page"] = strconv.Itoa(p.Pages[i])
		}
		if p.SourceType == domain.SourceWeb && p.URL != "" {
			metadata["url"] = p.URL
		}

		records = append(records, domain.EmbeddingRecord{
			ID:       chunkID,
			Values:   vectors[i],
			Metadata: metadata,
		})
	}

	if err := b.index.Upsert(ctx, namespace, records); err != nil {
		return fmt.Errorf("upsert %d records: %w", len(records), err)
	}
	metrics.EmbedBatches.Inc()
	return nil
}
