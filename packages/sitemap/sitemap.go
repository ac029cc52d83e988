// Package sitemap
package sitemap

import (
	"bytes"
	"context"
	"encoding/xml"
	"log/slog"
	"strings"

	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/urlutil"
)

// Fetcher is the subset of the content fetcher the loader needs.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, string, error)
}

type Loader struct {
	fetcher Fetcher
	limit   int
}

func New(fetcher Fetcher, limit int) *Loader {
	if limit <= 0 {
		limit = 300
	}
	return &Loader{fetcher: fetcher, limit: limit}
}

// LoadURLs probes the two conventional sitemap locations for the root's
// origin and returns same-domain, non-asset URLs, deduplicated and capped.
// Sitemap absence and malformed XML are normal conditions and yield an empty
// list, never an error.
func (l *Loader) LoadURLs(ctx context.Context, rootURL string) []string {
	origin := urlutil.BaseOrigin(rootURL)
	if origin == "" {
		return nil
	}

	candidates := []string{
		origin + "/sitemap.xml",
		origin + "/sitemap_index.xml",
	}

	var found []string
	for _, sm := range candidates {
		body, _, err := l.fetcher.Fetch(ctx, sm)
		if err != nil {
			continue
		}
		if !bytes.HasPrefix(bytes.TrimSpace(body), []byte("<")) {
			continue
		}
		found = append(found, parse(body, rootURL)...)
	}

	seen := make(map[string]struct{}, len(found))
	out := make([]string, 0, len(found))
	for _, u := range found {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
		if len(out) >= l.limit {
			break
		}
	}

	if len(out) > 0 {
		slog.Debug("Sitemap URLs discovered", "root", rootURL, "count", len(out))
	}
	return out
}

// parse walks every element and collects the ones whose local name ends in
// "loc". Sitemap documents in the wild may or may not declare the standard
// namespace, so matching is namespace-agnostic.
func parse(body []byte, rootURL string) []string {
	var urls []string

	dec := xml.NewDecoder(bytes.NewReader(body))
	var inLoc bool
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			inLoc = strings.HasSuffix(strings.ToLower(t.Name.Local), "loc")
		case xml.EndElement:
			inLoc = false
		case xml.CharData:
			if !inLoc {
				continue
			}
			u := urlutil.Normalize(string(t))
			if u == "" {
				continue
			}
			if urlutil.SameDomain(rootURL, u) && !urlutil.ShouldSkip(u) {
				urls = append(urls, u)
			}
		}
	}
	return urls
}
