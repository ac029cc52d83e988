package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/server"
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
	logging.Setup("ingest-api", cfg.LogFile, cfg.LogLevel)
	urlutil.SetSkipExtensions(cfg.IgnoreExtList)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("--- Starting Ingest API ---", "addr", cfg.ListenAddr)

	go metrics.ExposeMetrics(cfg.MetricsAddr)

	var redisClient *redis.Client
	if cfg.JobBackend == "redis" || cfg.QueueEnabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.Error("Failed to connect to Redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
	}

	var repo jobs.Repo
	if cfg.JobBackend == "redis" {
		repo = jobs.NewRedisRepo(redisClient, cfg.RedisPrefix, cfg.JobTTL)
	} else {
		repo = jobs.NewMemoryRepo()
	}

	var dispatcher worker.Dispatcher
	if cfg.QueueEnabled {
		dispatcher = worker.NewQueueDispatcher(redisClient, cfg.QueueKey)
	} else {
		ingestor, err := buildIngestor(cfg, repo)
		if err != nil {
			slog.Error("Failed to build ingestor", "error", err)
			os.Exit(1)
		}
		dispatcher = worker.NewInlineDispatcher(ingestor)
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.New(repo, dispatcher, cfg.MaxDownload).Handler(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutdown signal received. Exiting...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}
}

func buildIngestor(cfg config.Config, repo jobs.Repo) (*worker.Ingestor, error) {
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
		return nil, err
	}

	var index vectorstore.Index
	if cfg.VectorBackend == "pinecone" {
		index, err = pinecone.NewClient(pinecone.Config{
			Host:   cfg.PineconeHost,
			APIKey: cfg.PineconeAPIKey,
		})
		if err != nil {
			return nil, err
		}
	} else {
		index = memory.NewIndex()
	}

	builder := embeddings.NewBuilder(embedder, index, cfg.ChunkSize, cfg.ChunkOverlap)
	pdf := pdfextract.NewHTTPExtractor(cfg.PdfAPIURL, 0)

	return worker.NewIngestor(repo, fetch, crawl, pdf, builder, worker.IngestConfig{
		MaxPages: cfg.MaxPages,
		MaxDepth: cfg.MaxDepth,
	}), nil
}
