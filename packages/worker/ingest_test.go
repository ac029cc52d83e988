package worker

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/domain"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/embeddings"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/jobs"
)

// recordingRepo wraps the in-memory job store and records every progress
// value as it is written, so tests can assert the state machine never moves
// backwards.
type recordingRepo struct {
	*jobs.MemoryRepo
	progress []int
	stages   []string
}

func newRecordingRepo() *recordingRepo {
	return &recordingRepo{MemoryRepo: jobs.NewMemoryRepo()}
}

func (r *recordingRepo) Update(ctx context.Context, jobID string, fields jobs.Fields) error {
	if v, ok := fields[jobs.FieldProgress]; ok {
		if p, err := strconv.Atoi(v); err == nil {
			r.progress = append(r.progress, p)
		}
	}
	if s, ok := fields[jobs.FieldStage]; ok {
		r.stages = append(r.stages, s)
	}
	return r.MemoryRepo.Update(ctx, jobID, fields)
}

func (r *recordingRepo) Complete(ctx context.Context, jobID string) error {
	r.progress = append(r.progress, domain.ProgressDone)
	r.stages = append(r.stages, domain.StageDone)
	return r.MemoryRepo.Complete(ctx, jobID)
}

type stubCrawler struct {
	pages []domain.Page
	calls int
}

func (c *stubCrawler) Crawl(ctx context.Context, rootURL string, maxPages, maxDepth int) []domain.Page {
	c.calls++
	return c.pages
}

type stubFetcher struct {
	body        []byte
	contentType string
	err         error
	calls       int
}

func (f *stubFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	f.calls++
	return f.body, f.contentType, f.err
}

type stubPDF struct {
	result domain.PDFResult
	err    error
	got    []byte
}

func (p *stubPDF) ExtractPages(ctx context.Context, data []byte) (domain.PDFResult, error) {
	p.got = data
	return p.result, p.err
}

type recordingBuilder struct {
	params []embeddings.BuildParams
	err    error
}

func (b *recordingBuilder) Build(ctx context.Context, p embeddings.BuildParams) error {
	if b.err != nil {
		return b.err
	}
	b.params = append(b.params, p)
	return nil
}

func newTask(t *testing.T, repo jobs.Repo, url string, pdf []byte) domain.IngestTask {
	t.Helper()
	job, err := repo.Create(context.Background(), url)
	require.NoError(t, err)
	return domain.IngestTask{
		JobID:  job.JobID,
		UserID: "user-1",
		ConvID: "conv-1",
		URL:    url,
		PDF:    pdf,
	}
}

func assertMonotonic(t *testing.T, progress []int) {
	t.Helper()
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1], "progress went backwards: %v", progress)
	}
}

func TestIngestWebHappyPath(t *testing.T) {
	repo := newRecordingRepo()
	crawler := &stubCrawler{pages: []domain.Page{
		{URL: "https://example.com", Title: "Home", Text: "home text", Language: "eng"},
		{URL: "https://example.com/about", Title: "About", Text: "about text", Language: "eng"},
	}}
	fetcher := &stubFetcher{body: []byte("<html>stub</html>"), contentType: "text/html"}
	builder := &recordingBuilder{}

	ing := NewIngestor(repo, fetcher, crawler, &stubPDF{}, builder, IngestConfig{MaxPages: 10, MaxDepth: 2})
	task := newTask(t, repo, "https://example.com", nil)

	require.NoError(t, ing.Ingest(context.Background(), task))

	job, err := repo.Get(context.Background(), task.JobID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, job.Status)
	assert.Equal(t, domain.ProgressDone, job.Progress)
	assert.Equal(t, "conv-1", job.ConvID)

	assertMonotonic(t, repo.progress)
	assert.Equal(t, domain.ProgressDone, repo.progress[len(repo.progress)-1])
	assert.Contains(t, repo.stages, domain.StageCrawl)
	assert.Contains(t, repo.stages, domain.StageEmbed)

	// One build per crawled page, with deterministic chunk id prefixes.
	require.Len(t, builder.params, 2)
	assert.Equal(t, "web-0", builder.params[0].ChunkIDPrefix)
	assert.Equal(t, "web-1", builder.params[1].ChunkIDPrefix)
	assert.Equal(t, "https://example.com/about", builder.params[1].URL)
	assert.Equal(t, []string{"about text"}, builder.params[1].Texts)
	assert.Equal(t, domain.SourceWeb, builder.params[0].SourceType)
}

func TestIngestWebNoUsableContent(t *testing.T) {
	repo := newRecordingRepo()
	crawler := &stubCrawler{} // zero pages
	fetcher := &stubFetcher{body: []byte("<html></html>"), contentType: "text/html"}
	builder := &recordingBuilder{}

	ing := NewIngestor(repo, fetcher, crawler, &stubPDF{}, builder, IngestConfig{})
	task := newTask(t, repo, "https://example.com", nil)

	err := ing.Ingest(context.Background(), task)
	require.Error(t, err)

	job, getErr := repo.Get(context.Background(), task.JobID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.StatusFailed, job.Status)
	assert.NotEmpty(t, job.Error)
	assert.Empty(t, builder.params, "nothing should be embedded when the crawl is empty")
}

func TestIngestPDFBytes(t *testing.T) {
	repo := newRecordingRepo()
	fetcher := &stubFetcher{}
	pdf := &stubPDF{result: domain.PDFResult{
		Texts:      []string{"page one", "page two", "page three"},
		PageCount:  3,
		TotalWords: 6,
	}}
	builder := &recordingBuilder{}

	ing := NewIngestor(repo, fetcher, &stubCrawler{}, pdf, builder, IngestConfig{})
	raw := []byte("%PDF-1.7 payload")
	task := newTask(t, repo, "", raw)

	require.NoError(t, ing.Ingest(context.Background(), task))

	// Uploaded bytes go straight to extraction without a fetch.
	assert.Zero(t, fetcher.calls)
	assert.Equal(t, raw, pdf.got)

	require.Len(t, builder.params, 1)
	assert.Equal(t, domain.SourcePDF, builder.params[0].SourceType)
	assert.Equal(t, []string{"page one", "page two", "page three"}, builder.params[0].Texts)
	assert.Equal(t, []int{1, 2, 3}, builder.params[0].Pages)

	assertMonotonic(t, repo.progress)
	assert.Contains(t, repo.stages, domain.StageExtract)
}

func TestIngestPDFByContentType(t *testing.T) {
	repo := newRecordingRepo()
	fetcher := &stubFetcher{body: []byte("%PDF-1.4"), contentType: "application/pdf"}
	pdf := &stubPDF{result: domain.PDFResult{Texts: []string{"text"}, PageCount: 1, TotalWords: 1}}
	builder := &recordingBuilder{}
	crawler := &stubCrawler{}

	ing := NewIngestor(repo, fetcher, crawler, pdf, builder, IngestConfig{})
	task := newTask(t, repo, "https://example.com/doc", nil)

	require.NoError(t, ing.Ingest(context.Background(), task))
	assert.Zero(t, crawler.calls)
	require.Len(t, builder.params, 1)
	assert.Equal(t, domain.SourcePDF, builder.params[0].SourceType)
}

func TestIngestPDFWithoutText(t *testing.T) {
	repo := newRecordingRepo()
	pdf := &stubPDF{result: domain.PDFResult{PageCount: 2}}
	builder := &recordingBuilder{}

	ing := NewIngestor(repo, &stubFetcher{}, &stubCrawler{}, pdf, builder, IngestConfig{})
	task := newTask(t, repo, "", []byte("%PDF-1.4"))

	err := ing.Ingest(context.Background(), task)
	require.Error(t, err)
	var ce *domain.ContentError
	assert.ErrorAs(t, err, &ce)

	job, _ := repo.Get(context.Background(), task.JobID)
	assert.Equal(t, domain.StatusFailed, job.Status)
	assert.Empty(t, builder.params)
}

func TestIngestEmptySource(t *testing.T) {
	repo := newRecordingRepo()
	ing := NewIngestor(repo, &stubFetcher{}, &stubCrawler{}, &stubPDF{}, &recordingBuilder{}, IngestConfig{})
	task := newTask(t, repo, "   ", nil)

	err := ing.Ingest(context.Background(), task)
	require.Error(t, err)
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestIngestFetchError(t *testing.T) {
	repo := newRecordingRepo()
	fetcher := &stubFetcher{err: &domain.FetchError{URL: "https://example.com", Err: errors.New("status 502")}}
	crawler := &stubCrawler{}

	ing := NewIngestor(repo, fetcher, crawler, &stubPDF{}, &recordingBuilder{}, IngestConfig{})
	task := newTask(t, repo, "https://example.com", nil)

	err := ing.Ingest(context.Background(), task)
	require.Error(t, err)
	assert.Zero(t, crawler.calls)

	job, _ := repo.Get(context.Background(), task.JobID)
	assert.Equal(t, domain.StatusFailed, job.Status)
	assert.Contains(t, job.Error, "502")
}

func TestIngestEmbedError(t *testing.T) {
	repo := newRecordingRepo()
	crawler := &stubCrawler{pages: []domain.Page{{URL: "https://example.com", Text: "text"}}}
	fetcher := &stubFetcher{body: []byte("<html>x</html>"), contentType: "text/html"}
	builder := &recordingBuilder{err: errors.New("embedding api down")}

	ing := NewIngestor(repo, fetcher, crawler, &stubPDF{}, builder, IngestConfig{})
	task := newTask(t, repo, "https://example.com", nil)

	err := ing.Ingest(context.Background(), task)
	require.Error(t, err)

	job, _ := repo.Get(context.Background(), task.JobID)
	assert.Equal(t, domain.StatusFailed, job.Status)
	assert.Contains(t, job.Error, "embedding api down")
}
