// Package pdfextract is the boundary to the external PDF text/OCR service.
package pdfextract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/domain"
)

type Extractor interface {
	ExtractPages(ctx context.Context, data []byte) (domain.PDFResult, error)
}

// HTTPExtractor posts raw PDF bytes to the extraction service and decodes
// its per-page response. Text/OCR internals live entirely on the other side
// of this call.
type HTTPExtractor struct {
	baseURL string
	client  *http.Client
}

func NewHTTPExtractor(baseURL string, timeout time.Duration) *HTTPExtractor {
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &HTTPExtractor{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (e *HTTPExtractor) ExtractPages(ctx context.Context, data []byte) (domain.PDFResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/extract", bytes.NewReader(data))
	if err != nil {
		return domain.PDFResult{}, err
	}
	req.Header.Set("Content-Type", "application/pdf")

	resp, err := e.client.Do(req)
	if err != nil {
		return domain.PDFResult{}, fmt.Errorf("pdf extraction call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return domain.PDFResult{}, fmt.Errorf("pdf extraction returned %s: %s", resp.Status, string(payload))
	}

	var out struct {
		Texts      []string `json:"texts"`
		PageCount  int      `json:"pageCount"`
		TotalWords int      `json:"totalWords"`
		OCRPages   []int    `json:"ocrPages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.PDFResult{}, fmt.Errorf("decode pdf extraction response: %w", err)
	}

	return domain.PDFResult{
		Texts:      out.Texts,
		PageCount:  out.PageCount,
		TotalWords: out.TotalWords,
		OCRPages:   out.OCRPages,
	}, nil
}
