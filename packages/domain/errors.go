package domain

import "fmt"

// FetchError covers network failures, non-2xx responses and size-cap breaches.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.URL, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// RenderError covers headless browser failures and navigation timeouts.
type RenderError struct {
	URL string
	Err error
}

func (e *RenderError) Error() string { return fmt.Sprintf("render %s: %v", e.URL, e.Err) }
func (e *RenderError) Unwrap() error { return e.Err }

// ContentError means extraction produced nothing usable (too short, no
// content root).
type ContentError struct {
	Reason string
}

func (e *ContentError) Error() string { return "content: " + e.Reason }

// ValidationError covers bad caller input (empty source, wrong upload type).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation: " + e.Reason }
