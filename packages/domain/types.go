// Package domain
package domain

import "time"

type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusDone       JobStatus = "done"
	StatusFailed     JobStatus = "failed"
	StatusNotFound   JobStatus = "not_found"
)

// Ingestion stages in the order a successful run passes through them.
const (
	StageQueued  = "queued"
	StageFetch   = "fetch"
	StageExtract = "extract"
	StageCrawl   = "crawl"
	StageEmbed   = "embed"
	StageDone    = "done"
)

// Progress checkpoints per stage. Within one run progress only moves forward.
const (
	ProgressFetch   = 5
	ProgressExtract = 25
	ProgressCrawl   = 25
	ProgressEmbed   = 60
	ProgressDone    = 100
)

type SourceType string

const (
	SourcePDF SourceType = "pdf"
	SourceWeb SourceType = "web"
)

type Job struct {
	JobID     string    `json:"jobId"`
	SourceID  string    `json:"sourceId"`
	ConvID    string    `json:"convId,omitempty"`
	Status    JobStatus `json:"status"`
	Stage     string    `json:"stage"`
	Progress  int       `json:"progress"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CrawlTarget lives only in the crawl frontier.
type CrawlTarget struct {
	URL   string
	Depth int
}

// Page is one crawled document, immutable once the extractor produced it.
type Page struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Text        string `json:"text"`
	Language    string `json:"language,omitempty"`
}

// ResolvedSource is the output of the single-document resolver.
type ResolvedSource struct {
	Text       string
	SourceType SourceType
	Pages      []int // 1-based, PDF only
	TotalWords int
}

// PDFResult is the boundary shape returned by the external PDF extraction
// capability.
type PDFResult struct {
	Texts      []string
	PageCount  int
	TotalWords int
	OCRPages   []int
}

// IngestTask is the unit of work pulled off the queue by a worker.
type IngestTask struct {
	JobID  string `json:"jobId"`
	UserID string `json:"userId"`
	ConvID string `json:"convId"`
	URL    string `json:"url,omitempty"`
	PDF    []byte `json:"pdf,omitempty"`
}

// EmbeddingRecord is the vector+metadata shape handed to the vector index.
// The core constructs these; it never reads them back.
type EmbeddingRecord struct {
	ID       string            `json:"id"`
	Values   []float64         `json:"values"`
	Metadata map[string]string `json:"metadata"`
}
