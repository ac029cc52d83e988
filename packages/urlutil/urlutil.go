// Package urlutil
package urlutil

import (
	"net/url"
	"strings"
)

var skipExtensions = []string{
	".pdf", ".png", ".jpg", ".jpeg", ".webp", ".gif", ".svg",
	".zip", ".rar", ".7z", ".tar", ".gz",
	".mp4", ".mov", ".avi", ".mkv", ".mp3", ".wav",
	".css", ".js", ".json",
}

// SetSkipExtensions replaces the default asset extension list with the
// configured one. Call once at startup, before any crawl begins; the list is
// read without locking afterwards.
func SetSkipExtensions(exts []string) {
	cleaned := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		cleaned = append(cleaned, e)
	}
	if len(cleaned) > 0 {
		skipExtensions = cleaned
	}
}

// Normalize canonicalizes a URL: trims whitespace, defaults the scheme to
// https, strips the fragment and a trailing slash. Empty input passes
// through unchanged; callers check for emptiness themselves.
func Normalize(rawURL string) string {
	u := strings.TrimSpace(rawURL)
	if u == "" {
		return u
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + u
	}
	if i := strings.Index(u, "#"); i >= 0 {
		u = u[:i]
	}
	return strings.TrimRight(u, "/")
}

// BaseOrigin returns scheme://host for a URL.
func BaseOrigin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// SameDomain compares only hostnames; scheme, port and path are ignored.
func SameDomain(rootURL, otherURL string) bool {
	a, err := url.Parse(rootURL)
	if err != nil {
		return false
	}
	b, err := url.Parse(otherURL)
	if err != nil {
		return false
	}
	return a.Hostname() != "" && a.Hostname() == b.Hostname()
}

// ShouldSkip reports whether a URL points at a binary/media/asset file the
// crawler must not fetch.
func ShouldSkip(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, ext := range skipExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Resolve absolutizes href against base.
func Resolve(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(ref).String(), nil
}
