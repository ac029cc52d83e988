// Package worker
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/domain"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/embeddings"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/jobs"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/metrics"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/resolver"
)

type Crawler interface {
	Crawl(ctx context.Context, rootURL string, maxPages, maxDepth int) []domain.Page
}

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, string, error)
}

type PDFExtractor interface {
	ExtractPages(ctx context.Context, data []byte) (domain.PDFResult, error)
}

type EmbeddingBuilder interface {
	Build(ctx context.Context, p embeddings.BuildParams) error
}

type IngestConfig struct {
	MaxPages int
	MaxDepth int
}

// Ingestor drives one ingestion run end to end and reports its progress
// through the job store. Failure is terminal for the run; a resubmission
// gets a fresh job id.
type Ingestor struct {
	jobs    jobs.Repo
	fetcher Fetcher
	crawler Crawler
	pdf     PDFExtractor
	builder EmbeddingBuilder
	cfg     IngestConfig
}

func NewIngestor(repo jobs.Repo, fetcher Fetcher, crawler Crawler, pdf PDFExtractor, builder EmbeddingBuilder, cfg IngestConfig) *Ingestor {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 100
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 5
	}
	return &Ingestor{jobs: repo, fetcher: fetcher, crawler: crawler, pdf: pdf, builder: builder, cfg: cfg}
}

// Ingest runs the job state machine: queued -> processing(fetch) ->
// processing(extract|crawl) -> processing(embed) -> done, with failed
// reachable from any processing stage on the first unrecoverable error.
func (i *Ingestor) Ingest(ctx context.Context, task domain.IngestTask) error {
	slog.Info("Ingest started", "job_id", task.JobID, "user_id", task.UserID, "has_pdf", len(task.PDF) > 0)

	if err := i.run(ctx, task); err != nil {
		if failErr := i.jobs.Fail(ctx, task.JobID, err.Error()); failErr != nil {
			slog.Error("Failed to mark job failed", "job_id", task.JobID, "error", failErr)
		}
		metrics.JobsProcessed.WithLabelValues(string(domain.StatusFailed)).Inc()
		slog.Error("Ingest failed", "job_id", task.JobID, "error", err)
		return err
	}

	if err := i.jobs.Complete(ctx, task.JobID); err != nil {
		slog.Error("Failed to mark job done", "job_id", task.JobID, "error", err)
	}
	metrics.JobsProcessed.WithLabelValues(string(domain.StatusDone)).Inc()
	slog.Info("Ingest completed", "job_id", task.JobID)
	return nil
}

func (i *Ingestor) run(ctx context.Context, task domain.IngestTask) error {
	i.update(ctx, task.JobID, jobs.Fields{
		jobs.FieldStatus:   string(domain.StatusProcessing),
		jobs.FieldStage:    domain.StageFetch,
		jobs.FieldProgress: strconv.Itoa(domain.ProgressFetch),
		jobs.FieldConvID:   task.ConvID,
	})

	url := strings.TrimSpace(task.URL)
	if len(task.PDF) == 0 && url == "" {
		return &domain.ValidationError{Reason: "source must be either a URL string or PDF bytes"}
	}

	var content []byte
	var contentType string
	if len(task.PDF) > 0 {
		content = task.PDF
		contentType = "application/pdf"
	} else {
		var err error
		content, contentType, err = i.fetcher.Fetch(ctx, url)
		if err != nil {
			return err
		}
	}

	if resolver.DetectPDF(url, contentType) {
		return i.ingestPDF(ctx, task, content)
	}
	return i.ingestWeb(ctx, task, url)
}

func (i *Ingestor) ingestPDF(ctx context.Context, task domain.IngestTask, content []byte) error {
	i.update(ctx, task.JobID, jobs.Fields{
		jobs.FieldStage:    domain.StageExtract,
		jobs.FieldProgress: strconv.Itoa(domain.ProgressExtract),
	})

	res, err := i.pdf.ExtractPages(ctx, content)
	if err != nil {
		return fmt.Errorf("pdf extraction: %w", err)
	}
	if len(res.Texts) == 0 {
		return &domain.ContentError{Reason: "no text extracted from PDF"}
	}
	slog.Info("PDF extracted", "job_id", task.JobID, "pages", res.PageCount, "words", res.TotalWords, "ocr_pages", len(res.OCRPages))

	i.update(ctx, task.JobID, jobs.Fields{
		jobs.FieldStage:    domain.StageEmbed,
		jobs.FieldProgress: strconv.Itoa(domain.ProgressEmbed),
	})

	pages := make([]int, res.PageCount)
	for n := range pages {
		pages[n] = n + 1
	}
	return i.builder.Build(ctx, embeddings.BuildParams{
		UserID:     task.UserID,
		ConvID:     task.ConvID,
		Texts:      res.Texts,
		SourceType: domain.SourcePDF,
		Pages:      pages,
	})
}

func (i *Ingestor) ingestWeb(ctx context.Context, task domain.IngestTask, url string) error {
	i.update(ctx, task.JobID, jobs.Fields{
		jobs.FieldStage:    domain.StageCrawl,
		jobs.FieldProgress: strconv.Itoa(domain.ProgressCrawl),
	})

	pages := i.crawler.Crawl(ctx, url, i.cfg.MaxPages, i.cfg.MaxDepth)
	if len(pages) == 0 {
		return &domain.ContentError{Reason: "no usable web content extracted"}
	}
	slog.Info("Crawl produced pages", "job_id", task.JobID, "count", len(pages))

	i.update(ctx, task.JobID, jobs.Fields{
		jobs.FieldStage:    domain.StageEmbed,
		jobs.FieldProgress: strconv.Itoa(domain.ProgressEmbed),
	})

	for idx, page := range pages {
		err := i.builder.Build(ctx, embeddings.BuildParams{
			UserID:        task.UserID,
			ConvID:        task.ConvID,
			Texts:         []string{page.Text},
			SourceType:    domain.SourceWeb,
			URL:           page.URL,
			ChunkIDPrefix: fmt.Sprintf("web-%d", idx),
		})
		if err != nil {
			return fmt.Errorf("embed page %s: %w", page.URL, err)
		}
	}
	return nil
}

func (i *Ingestor) update(ctx context.Context, jobID string, fields jobs.Fields) {
	if err := i.jobs.Update(ctx, jobID, fields); err != nil {
		slog.Warn("Job update failed", "job_id", jobID, "error", err)
	}
}
