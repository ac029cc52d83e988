// Package renderer
package renderer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/domain"
)

// quiesce is a short settle period after body readiness; cheap stand-in for
// full network-idle tracking.
const quiesce = 1500 * time.Millisecond

type Renderer struct {
	timeout time.Duration
}

func New(timeout time.Duration) *Renderer {
	return &Renderer{timeout: timeout}
}

// RenderPage materializes the DOM after script execution and returns the
// rendered HTML. A fresh browser is launched per call and torn down on every
// exit path, timeouts included.
func (r *Renderer) RenderPage(ctx context.Context, rawURL string) (string, error) {
	runCtx, cancel := r.newBrowserContext(ctx)
	defer cancel()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(quiesce),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		slog.Debug("JS render failed", "url", rawURL, "error", err)
		return "", &domain.RenderError{URL: rawURL, Err: err}
	}
	return html, nil
}

// DOMText is the last-resort extraction tier: visible body text only, no
// structural filtering. Fails when the page yields under 500 characters.
func (r *Renderer) DOMText(ctx context.Context, rawURL string) (string, error) {
	runCtx, cancel := r.newBrowserContext(ctx)
	defer cancel()

	var text string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(quiesce),
		chromedp.Evaluate(`document.body.innerText || ""`, &text),
	)
	if err != nil {
		return "", &domain.RenderError{URL: rawURL, Err: err}
	}

	text = strings.TrimSpace(text)
	if len(text) < 500 {
		return "", &domain.ContentError{Reason: "DOM text too short"}
	}
	return text, nil
}

func (r *Renderer) newBrowserContext(ctx context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
	)

	timeoutCtx, cancelTimeout := context.WithTimeout(ctx, r.timeout)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(timeoutCtx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	cancel := func() {
		cancelBrowser()
		cancelAlloc()
		cancelTimeout()
	}
	return browserCtx, cancel
}
