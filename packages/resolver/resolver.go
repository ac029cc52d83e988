// Package resolver
package resolver

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/domain"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/extractor"
)

var pdfMagic = []byte("%PDF")

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, string, error)
}

type Renderer interface {
	RenderPage(ctx context.Context, rawURL string) (string, error)
	DOMText(ctx context.Context, rawURL string) (string, error)
}

type PDFExtractor interface {
	ExtractPages(ctx context.Context, data []byte) (domain.PDFResult, error)
}

// Resolver turns a single URL into normalized text. PDFs short-circuit to
// page extraction; web pages run through an ordered list of strategies,
// cheapest first, and the first success wins. Only the last strategy's
// failure propagates.
type Resolver struct {
	fetcher  Fetcher
	renderer Renderer
	pdf      PDFExtractor
}

func New(fetcher Fetcher, renderer Renderer, pdf PDFExtractor) *Resolver {
	return &Resolver{fetcher: fetcher, renderer: renderer, pdf: pdf}
}

// DetectPDF reports whether a source is a PDF by content type or by its URL
// extension with any query string stripped.
func DetectPDF(rawURL, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "application/pdf") {
		return true
	}
	clean := strings.ToLower(rawURL)
	if i := strings.Index(clean, "?"); i >= 0 {
		clean = clean[:i]
	}
	return strings.HasSuffix(clean, ".pdf")
}

func (r *Resolver) Resolve(ctx context.Context, sourceURL string) (*domain.ResolvedSource, error) {
	data, contentType, err := r.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	if DetectPDF(sourceURL, contentType) || bytes.HasPrefix(data, pdfMagic) {
		return r.resolvePDF(ctx, data)
	}

	html := string(data)

	strategies := []struct {
		name string
		run  func() (string, error)
	}{
		{"static", func() (string, error) {
			return extractor.WebText(html)
		}},
		{"render", func() (string, error) {
			rendered, err := r.renderer.RenderPage(ctx, sourceURL)
			if err != nil {
				return "", err
			}
			return extractor.WebText(rendered)
		}},
		{"dom-text", func() (string, error) {
			return r.renderer.DOMText(ctx, sourceURL)
		}},
	}

	var lastErr error
	for _, s := range strategies {
		text, err := s.run()
		if err != nil {
			slog.Debug("Resolver strategy failed", "strategy", s.name, "url", sourceURL, "error", err)
			lastErr = err
			continue
		}
		return &domain.ResolvedSource{
			Text:       text,
			SourceType: domain.SourceWeb,
			TotalWords: len(strings.Fields(text)),
		}, nil
	}
	return nil, lastErr
}

func (r *Resolver) resolvePDF(ctx context.Context, data []byte) (*domain.ResolvedSource, error) {
	res, err := r.pdf.ExtractPages(ctx, data)
	if err != nil {
		return nil, err
	}

	pages := make([]int, res.PageCount)
	for i := range pages {
		pages[i] = i + 1
	}
	return &domain.ResolvedSource{
		Text:       strings.Join(res.Texts, "\n\n"),
		SourceType: domain.SourcePDF,
		Pages:      pages,
		TotalWords: res.TotalWords,
	}, nil
}
