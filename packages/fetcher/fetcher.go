// Package fetcher
package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/domain"
)

const readChunkSize = 8192

type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxDownload int64
}

func New(timeout time.Duration, userAgent string, maxDownload int64) *Fetcher {
	return &Fetcher{
		client:      &http.Client{Timeout: timeout},
		userAgent:   userAgent,
		maxDownload: maxDownload,
	}
}

// Fetch performs a single GET, following redirects, and returns the body
// bytes plus the lowercased Content-Type. The body is streamed and the read
// aborts once it exceeds the configured size cap. No retries; a failed fetch
// is the caller's problem.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", &domain.FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", &domain.FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Debug("Fetch returned bad status code", "url", rawURL, "status_code", resp.StatusCode)
		return nil, "", &domain.FetchError{URL: rawURL, Err: fmt.Errorf("bad status code: %d", resp.StatusCode)}
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))

	var buf bytes.Buffer
	chunk := make([]byte, readChunkSize)
	for {
		n, readErr := resp.Body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			if int64(buf.Len()) > f.maxDownload {
				return nil, "", &domain.FetchError{
					URL: rawURL,
					Err: fmt.Errorf("download exceeds size limit (%d bytes)", f.maxDownload),
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, "", &domain.FetchError{URL: rawURL, Err: readErr}
		}
	}

	return buf.Bytes(), contentType, nil
}
