// Package pinecone is a minimal REST client to a Pinecone index.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/domain"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/vectorstore"
)

const upsertBatchSize = 100

type Client struct {
	host   string
	apiKey string
	client *http.Client
}

type Config struct {
	Host    string
	APIKey  string
	Timeout time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Host == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone host and api key are required")
	}
	host := cfg.Host
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		host:   strings.TrimRight(host, "/"),
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) Upsert(ctx context.Context, namespace string, records []domain.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}
	for start := 0; start < len(records); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		body := map[string]any{
			"vectors":   records[start:end],
			"namespace": namespace,
		}
		if err := c.postJSON(ctx, "/vectors/upsert", body, nil); err != nil {
			return fmt.Errorf("pinecone upsert: %w", err)
		}
	}
	return nil
}

func (c *Client) Query(ctx context.Context, namespace string, vector []float64, topK int, filter map[string]string) ([]vectorstore.Match, error) {
	if topK <= 0 {
		topK = 6
	}
	body := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"namespace":       namespace,
		"includeMetadata": true,
	}
	if len(filter) > 0 {
		body["filter"] = filter
	}

	var out struct {
		Matches []vectorstore.Match `json:"matches"`
	}
	if err := c.postJSON(ctx, "/query", body, &out); err != nil {
		return nil, fmt.Errorf("pinecone query: %w", err)
	}
	return out.Matches, nil
}

func (c *Client) DeleteNamespace(ctx context.Context, namespace string) error {
	body := map[string]any{
		"deleteAll": true,
		"namespace": namespace,
	}
	if err := c.postJSON(ctx, "/vectors/delete", body, nil); err != nil {
		return fmt.Errorf("pinecone delete namespace: %w", err)
	}
	return nil
}

func (c *Client) Health(ctx context.Context) error {
	if err := c.postJSON(ctx, "/describe_index_stats", map[string]any{}, nil); err != nil {
		return fmt.Errorf("pinecone health: %w", err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%s returned %s: %s", path, resp.Status, string(payload))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
