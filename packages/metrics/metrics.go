// Package metrics
package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_fetch_duration_seconds",
			Help:    "Duration of page fetches in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
	PagesCrawled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_pages_crawled_total",
			Help: "Total number of pages accepted by the crawler.",
		},
	)
	PagesRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_pages_rejected_total",
			Help: "Total number of pages rejected by the minimum-text gate.",
		},
	)
	RenderFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_render_fallbacks_total",
			Help: "Total number of JS-render fallbacks attempted.",
		},
	)
	SitemapSeeds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_sitemap_seeds_total",
			Help: "Total number of crawl seeds discovered via sitemaps.",
		},
	)
	JobsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_jobs_processed_total",
			Help: "Total number of ingestion jobs finished, by terminal status.",
		},
		[]string{"status"},
	)
	EmbedBatches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_embed_batches_total",
			Help: "Total number of embedding build calls issued.",
		},
	)
)

func init() {
	prometheus.MustRegister(FetchDuration)
	prometheus.MustRegister(PagesCrawled)
	prometheus.MustRegister(PagesRejected)
	prometheus.MustRegister(RenderFallbacks)
	prometheus.MustRegister(SitemapSeeds)
	prometheus.MustRegister(JobsProcessed)
	prometheus.MustRegister(EmbedBatches)
}

func ExposeMetrics(addr string) {
	slog.Info("Exposing Prometheus metrics", "address", addr)
	http.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, nil); err != nil {
		slog.Error("Failed to start Prometheus metrics server", "error", err)
	}
}
