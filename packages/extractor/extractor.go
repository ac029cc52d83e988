// Package extractor
package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/abadojack/whatlanggo"

	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/domain"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/urlutil"
)

const (
	// MinTextLen is the lenient per-page quality gate used by the crawler.
	MinTextLen = 120

	// strictMinInput and strictMinOutput gate the single-document extractor.
	strictMinInput  = 200
	strictMinOutput = 500
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
	spacesRe     = regexp.MustCompile(`[ \t]{2,}`)

	shellMarkers = []string{`id="root"`, `id="app"`, "__next", "react", "vite", "webpack"}
)

func cleanText(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// MainText strips boilerplate and returns the page title plus the main
// content text. It never errors; thin pages come back as short or empty
// strings and callers apply their own minimum-length gate.
func MainText(html string) (title, text string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", ""
	}

	doc.Find("script, style, noscript, svg").Remove()
	doc.Find("header, footer, nav, aside").Remove()

	title = cleanText(doc.Find("title").First().Text())

	root := doc.Find("main").First()
	if root.Length() == 0 {
		root = doc.Find("article").First()
	}
	if root.Length() == 0 {
		text = cleanText(doc.Text())
	} else {
		text = cleanText(root.Text())
	}
	return title, text
}

// WebText is the strict single-document extractor: it insists on a content
// root, keeps only substantial text blocks and rejects thin results with a
// ContentError.
func WebText(html string) (string, error) {
	if len(strings.TrimSpace(html)) < strictMinInput {
		return "", &domain.ContentError{Reason: "HTML too short"}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", &domain.ContentError{Reason: "unparseable HTML"}
	}

	doc.Find("script, style, noscript, iframe, svg").Remove()
	doc.Find("header, footer, nav, aside, form, button").Remove()

	root := doc.Find("article").First()
	if root.Length() == 0 {
		root = doc.Find("main").First()
	}
	if root.Length() == 0 {
		root = doc.Find("section").First()
	}
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	if root.Length() == 0 {
		return "", &domain.ContentError{Reason: "no meaningful content"}
	}

	var blocks []string
	root.Find("p, li, h1, h2, h3").Each(func(i int, s *goquery.Selection) {
		txt := cleanText(s.Text())
		if len(txt) >= 40 {
			blocks = append(blocks, txt)
		}
	})

	text := strings.Join(blocks, "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(spacesRe.ReplaceAllString(text, " "))

	if len(text) < strictMinOutput {
		return "", &domain.ContentError{Reason: "content too short"}
	}
	return text, nil
}

// LooksLikeShell reports whether HTML is an empty client-side application
// shell: tiny payload, or framework fingerprints with next to no body text.
// A two-signal heuristic; false positives only cost an extra render.
func LooksLikeShell(html string) bool {
	if len(html) < 2000 {
		return true
	}

	lower := strings.ToLower(html)
	score := 0
	for _, m := range shellMarkers {
		if strings.Contains(lower, m) {
			score++
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	body := doc.Find("body").First()
	var bodyText string
	if body.Length() > 0 {
		bodyText = cleanText(body.Text())
	} else {
		bodyText = cleanText(doc.Text())
	}

	return score >= 2 || len(bodyText) < 200
}

// Links returns normalized same-domain, non-asset links found in the page.
func Links(pageURL, html, rootURL string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	linkSet := make(map[string]struct{})
	var links []string

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
			return
		}

		resolved, err := urlutil.Resolve(pageURL, href)
		if err != nil {
			return
		}
		absURL := urlutil.Normalize(resolved)
		if !strings.HasPrefix(absURL, "http://") && !strings.HasPrefix(absURL, "https://") {
			return
		}
		if !urlutil.SameDomain(rootURL, absURL) || urlutil.ShouldSkip(absURL) {
			return
		}
		if _, seen := linkSet[absURL]; seen {
			return
		}
		linkSet[absURL] = struct{}{}
		links = append(links, absURL)
	})

	return links
}

// MetaDescription returns the page's meta description, or "".
func MetaDescription(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	desc, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	return cleanText(desc)
}

// Language detects the dominant language of a page from its title, meta
// description and the first ~100 words of text. Returns an ISO 639-3 code,
// or "" when there is nothing to detect.
func Language(title, description, text string) string {
	words := strings.Fields(text)
	if len(words) > 100 {
		words = words[:100]
	}
	sample := strings.TrimSpace(title + " " + description + " " + strings.Join(words, " "))
	if sample == "" {
		return ""
	}
	info := whatlanggo.Detect(sample)
	return info.Lang.Iso6393()
}
