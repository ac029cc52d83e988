package crawler

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/domain"
)

const testRoot = "http://site.test"

// stubFetcher serves pages from a map and counts how often each URL is
// requested, so tests can assert the visited set prevents refetches.
type stubFetcher struct {
	pages  map[string]string
	counts map[string]int
}

func newStubFetcher(pages map[string]string) *stubFetcher {
	return &stubFetcher{pages: pages, counts: make(map[string]int)}
}

func (f *stubFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	f.counts[rawURL]++
	body, ok := f.pages[rawURL]
	if !ok {
		return nil, "", &domain.FetchError{URL: rawURL, Err: fmt.Errorf("status 404")}
	}
	return []byte(body), "text/html", nil
}

type stubRenderer struct {
	html  string
	calls int
}

func (r *stubRenderer) RenderPage(ctx context.Context, rawURL string) (string, error) {
	r.calls++
	return r.html, nil
}

type stubSeeds struct {
	urls []string
}

func (s *stubSeeds) LoadURLs(ctx context.Context, rootURL string) []string {
	return s.urls
}

// page builds a minimal HTML page with enough body text to clear a small
// text gate, plus the given outgoing links.
func page(text string, links ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><head><title>Test Page</title></head><body><p>")
	sb.WriteString(text)
	sb.WriteString("</p>")
	for _, l := range links {
		fmt.Fprintf(&sb, `<a href="%s">link</a>`, l)
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

func testConfig() Config {
	return Config{MinTextLen: 20, PoliteDelay: 0}
}

func pageURLs(pages []domain.Page) []string {
	urls := make([]string, 0, len(pages))
	for _, p := range pages {
		urls = append(urls, p.URL)
	}
	return urls
}

func TestCrawlThreePageSite(t *testing.T) {
	longText := strings.Repeat("meaningful words about the product ", 3)
	fetcher := newStubFetcher(map[string]string{
		testRoot:              page(longText, "/about", "/contact"),
		testRoot + "/about":   page(longText, "/contact", "/"),
		testRoot + "/contact": page(longText, "/"),
	})

	c := New(fetcher, nil, nil, testConfig())
	pages := c.Crawl(context.Background(), testRoot, 10, 5)

	assert.ElementsMatch(t, []string{
		testRoot, testRoot + "/about", testRoot + "/contact",
	}, pageURLs(pages))

	// Cycles back to the root never cause a refetch.
	for url, n := range fetcher.counts {
		assert.Equal(t, 1, n, "url %s fetched more than once", url)
	}
}

func TestCrawlDedupesSeedAndDiscoveredURL(t *testing.T) {
	longText := strings.Repeat("plenty of text on this page ", 3)
	fetcher := newStubFetcher(map[string]string{
		testRoot:            page(longText, "/about"),
		testRoot + "/about": page(longText),
	})

	cfg := testConfig()
	cfg.UseCommonRoutes = true
	c := New(fetcher, nil, nil, cfg)
	pages := c.Crawl(context.Background(), testRoot, 50, 5)

	// /about is both a common-route seed and a discovered link; it must be
	// fetched exactly once and appear exactly once.
	assert.Equal(t, 1, fetcher.counts[testRoot+"/about"])
	assert.ElementsMatch(t, []string{testRoot, testRoot + "/about"}, pageURLs(pages))

	// Every common path was probed even though most 404.
	assert.Equal(t, 1, fetcher.counts[testRoot+"/pricing"])
	assert.Equal(t, 1, fetcher.counts[testRoot+"/contact"])
}

func TestCrawlPageBudget(t *testing.T) {
	longText := strings.Repeat("a page full of real content ", 3)
	pages := map[string]string{testRoot: page(longText, "/p1", "/p2", "/p3", "/p4")}
	for i := 1; i <= 4; i++ {
		pages[fmt.Sprintf("%s/p%d", testRoot, i)] = page(longText)
	}
	fetcher := newStubFetcher(pages)

	c := New(fetcher, nil, nil, testConfig())
	got := c.Crawl(context.Background(), testRoot, 2, 5)

	assert.Len(t, got, 2)
}

func TestCrawlDepthBound(t *testing.T) {
	longText := strings.Repeat("deep chain of linked pages ", 3)
	fetcher := newStubFetcher(map[string]string{
		testRoot:        page(longText, "/a"),
		testRoot + "/a": page(longText, "/b"),
		testRoot + "/b": page(longText, "/c"),
		testRoot + "/c": page(longText),
	})

	c := New(fetcher, nil, nil, testConfig())
	got := c.Crawl(context.Background(), testRoot, 10, 1)

	assert.ElementsMatch(t, []string{testRoot, testRoot + "/a"}, pageURLs(got))
	assert.Zero(t, fetcher.counts[testRoot+"/b"], "depth-2 page should never be fetched")
}

func TestCrawlQualityGateStopsLinkExpansion(t *testing.T) {
	longText := strings.Repeat("substantial text for the root page ", 3)
	fetcher := newStubFetcher(map[string]string{
		testRoot:           page(longText, "/thin"),
		testRoot + "/thin": page("tiny", "/deep"),
		testRoot + "/deep": page(longText),
	})

	c := New(fetcher, nil, nil, testConfig())
	got := c.Crawl(context.Background(), testRoot, 10, 5)

	assert.ElementsMatch(t, []string{testRoot}, pageURLs(got))
	assert.Equal(t, 1, fetcher.counts[testRoot+"/thin"])
	// Rejected pages contribute no links to the frontier.
	assert.Zero(t, fetcher.counts[testRoot+"/deep"])
}

func TestCrawlRenderFallbackForShellPages(t *testing.T) {
	// A tiny static response reads as an application shell; the renderer's
	// output is used instead.
	fetcher := newStubFetcher(map[string]string{
		testRoot: `<html><body><div id="root"></div></body></html>`,
	})
	renderer := &stubRenderer{
		html: page(strings.Repeat("client rendered article text ", 3)),
	}

	c := New(fetcher, renderer, nil, testConfig())
	got := c.Crawl(context.Background(), testRoot, 10, 0)

	require.Len(t, got, 1)
	assert.Equal(t, 1, renderer.calls)
	assert.Contains(t, got[0].Text, "client rendered article text")
}

func TestCrawlSitemapSeeding(t *testing.T) {
	longText := strings.Repeat("documentation nobody links to ", 3)
	fetcher := newStubFetcher(map[string]string{
		testRoot:           page(longText),
		testRoot + "/docs": page(longText),
	})

	cfg := testConfig()
	cfg.UseSitemap = true
	c := New(fetcher, nil, &stubSeeds{urls: []string{testRoot + "/docs"}}, cfg)
	got := c.Crawl(context.Background(), testRoot, 10, 0)

	assert.ElementsMatch(t, []string{testRoot, testRoot + "/docs"}, pageURLs(got))
}

func TestCrawlCancelledContext(t *testing.T) {
	fetcher := newStubFetcher(map[string]string{
		testRoot: page(strings.Repeat("content ", 10)),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(fetcher, nil, nil, testConfig())
	got := c.Crawl(ctx, testRoot, 10, 5)

	assert.Empty(t, got)
	assert.Zero(t, fetcher.counts[testRoot])
}

func TestCrawlEmptyRoot(t *testing.T) {
	c := New(newStubFetcher(nil), nil, nil, testConfig())
	assert.Nil(t, c.Crawl(context.Background(), "   ", 10, 5))
}
