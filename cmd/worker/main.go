package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/config"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/crawler"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/embeddings"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/fetcher"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/jobs"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/logging"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/metrics"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/pdfextract"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/renderer"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/sitemap"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/urlutil"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/vectorstore"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/vectorstore/memory"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/vectorstore/pinecone"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup("ingest-worker", cfg.LogFile, cfg.LogLevel)
	urlutil.SetSkipExtensions(cfg.IgnoreExtList)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("--- Starting Ingest Worker ---", "queue", cfg.QueueKey)

	go metrics.ExposeMetrics(cfg.MetricsAddr)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.Error("Failed to connect to Redis", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}

	var repo jobs.Repo
	if cfg.JobBackend == "memory" {
		// A queue worker with a process-local job store cannot share state
		// with the API. Only useful for debugging the worker alone.
		slog.Warn("Using in-memory job store in a queue worker; job status will not be visible to the API")
		repo = jobs.NewMemoryRepo()
	} else {
		repo = jobs.NewRedisRepo(redisClient, cfg.RedisPrefix, cfg.JobTTL)
	}

	fetch := fetcher.New(cfg.FetchTimeout, cfg.UserAgent, cfg.MaxDownload)
	render := renderer.New(cfg.RenderTimeout)
	seeds := sitemap.New(fetch, cfg.SitemapLimit)

	crawl := crawler.New(fetch, render, seeds, crawler.Config{
		MinTextLen:      cfg.MinTextLen,
		PoliteDelay:     cfg.PoliteDelay,
		UseSitemap:      cfg.UseSitemap,
		UseCommonRoutes: cfg.UseCommon,
	})

	embedder, err := embeddings.NewOpenAIClient(embeddings.OpenAIConfig{
		BaseURL:   cfg.EmbedBaseURL,
		APIKeyEnv: cfg.EmbedAPIKeyEnv,
		Model:     cfg.EmbedModel,
	})
	if err != nil {
		slog.Error("Failed to build embedder", "error", err)
		os.Exit(1)
	}

	var index vectorstore.Index
	if cfg.VectorBackend == "pinecone" {
		index, err = pinecone.NewClient(pinecone.Config{
			Host:   cfg.PineconeHost,
			APIKey: cfg.PineconeAPIKey,
		})
		if err != nil {
			slog.Error("Failed to build vector index client", "error", err)
			os.Exit(1)
		}
	} else {
		index = memory.NewIndex()
	}

	builder := embeddings.NewBuilder(embedder, index, cfg.ChunkSize, cfg.ChunkOverlap)
	pdf := pdfextract.NewHTTPExtractor(cfg.PdfAPIURL, 0)

	ingestor := worker.NewIngestor(repo, fetch, crawl, pdf, builder, worker.IngestConfig{
		MaxPages: cfg.MaxPages,
		MaxDepth: cfg.MaxDepth,
	})

	worker.NewRunner(redisClient, cfg.QueueKey, ingestor, cfg.MaxWorkers, cfg.PollInterval).Run(ctx)

	slog.Info("Shutdown complete")
}
