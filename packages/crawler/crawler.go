// Package crawler
package crawler

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/domain"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/extractor"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/metrics"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/urlutil"
)

// commonPaths are informational routes most marketing/docs sites carry.
// They are seeded alongside the root so a shallow crawl still finds the
// pages users actually ask about.
var commonPaths = []string{
	"/about", "/about-us", "/company", "/team",
	"/contact", "/contact-us", "/support",
	"/pricing", "/plans",
	"/services", "/products", "/features",
	"/faq", "/docs", "/blog",
}

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, string, error)
}

type Renderer interface {
	RenderPage(ctx context.Context, rawURL string) (string, error)
}

type SeedLoader interface {
	LoadURLs(ctx context.Context, rootURL string) []string
}

type Config struct {
	MinTextLen      int
	PoliteDelay     time.Duration
	UseSitemap      bool
	UseCommonRoutes bool
}

type Crawler struct {
	fetcher  Fetcher
	renderer Renderer
	sitemap  SeedLoader
	cfg      Config
}

// New builds a crawler. renderer and sitemap may be nil to disable the
// JS-render fallback and sitemap seeding respectively.
func New(fetcher Fetcher, renderer Renderer, sitemap SeedLoader, cfg Config) *Crawler {
	if cfg.MinTextLen <= 0 {
		cfg.MinTextLen = extractor.MinTextLen
	}
	return &Crawler{fetcher: fetcher, renderer: renderer, sitemap: sitemap, cfg: cfg}
}

// Crawl walks the site rooted at rootURL breadth-first and returns the pages
// that passed the minimum-text gate, in dequeue order. The visited set is
// marked on dequeue, so a URL that failed once is never retried; the page
// and depth budgets bound total work on any link graph, cyclic ones
// included.
func (c *Crawler) Crawl(ctx context.Context, rootURL string, maxPages, maxDepth int) []domain.Page {
	rootURL = urlutil.Normalize(rootURL)
	if rootURL == "" {
		return nil
	}
	origin := urlutil.BaseOrigin(rootURL)

	seeds := []string{rootURL}
	if c.cfg.UseCommonRoutes && origin != "" {
		for _, p := range commonPaths {
			seeds = append(seeds, urlutil.Normalize(origin+p))
		}
	}
	if c.cfg.UseSitemap && c.sitemap != nil {
		smURLs := c.sitemap.LoadURLs(ctx, rootURL)
		metrics.SitemapSeeds.Add(float64(len(smURLs)))
		seeds = append(seeds, smURLs...)
	}

	frontier := make([]domain.CrawlTarget, 0, len(seeds))
	for _, s := range seeds {
		if s != "" {
			frontier = append(frontier, domain.CrawlTarget{URL: s, Depth: 0})
		}
	}

	visited := make(map[string]struct{})
	var pages []domain.Page

	for len(frontier) > 0 && len(pages) < maxPages {
		if ctx.Err() != nil {
			slog.Info("Crawl cancelled", "root", rootURL, "pages", len(pages))
			break
		}

		target := frontier[0]
		frontier = frontier[1:]

		if _, seen := visited[target.URL]; seen || target.Depth > maxDepth {
			continue
		}
		visited[target.URL] = struct{}{}

		html := c.fetchHTML(ctx, target.URL)
		if html == "" {
			continue
		}

		title, text := extractor.MainText(html)
		if len(text) < c.cfg.MinTextLen {
			metrics.PagesRejected.Inc()
			slog.Debug("Page rejected by text gate", "url", target.URL, "text_len", len(text))
			continue
		}

		desc := extractor.MetaDescription(html)
		pages = append(pages, domain.Page{
			URL:         target.URL,
			Title:       title,
			Description: desc,
			Text:        text,
			Language:    extractor.Language(title, desc, text),
		})
		metrics.PagesCrawled.Inc()

		if target.Depth < maxDepth {
			links := extractor.Links(target.URL, html, rootURL)
			// Shuffling spreads coverage across the site when the page
			// budget truncates the crawl; without it the first DOM-ordered
			// links of early pages dominate the result.
			rand.Shuffle(len(links), func(i, j int) {
				links[i], links[j] = links[j], links[i]
			})
			for _, link := range links {
				if _, seen := visited[link]; !seen {
					frontier = append(frontier, domain.CrawlTarget{URL: link, Depth: target.Depth + 1})
				}
			}
		}

		if c.cfg.PoliteDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(c.cfg.PoliteDelay):
			}
		}
	}

	slog.Info("Crawl finished", "root", rootURL, "pages", len(pages), "visited", len(visited))
	return pages
}

// fetchHTML tries a static fetch first and falls back to a JS render when
// the static result looks like an empty application shell or the fetch
// failed outright. Returns "" when neither path produced HTML.
func (c *Crawler) fetchHTML(ctx context.Context, rawURL string) string {
	start := time.Now()
	body, _, err := c.fetcher.Fetch(ctx, rawURL)
	metrics.FetchDuration.WithLabelValues("static").Observe(time.Since(start).Seconds())

	var html string
	if err != nil {
		slog.Debug("Static fetch failed", "url", rawURL, "error", err)
	} else {
		html = string(body)
	}

	if html != "" && !extractor.LooksLikeShell(html) {
		return html
	}

	if c.renderer == nil {
		return html
	}

	metrics.RenderFallbacks.Inc()
	start = time.Now()
	rendered, err := c.renderer.RenderPage(ctx, rawURL)
	metrics.FetchDuration.WithLabelValues("render").Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Debug("Render fallback failed", "url", rawURL, "error", err)
		return html
	}
	return rendered
}
