// Package config
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP surface
	ListenAddr  string
	MetricsAddr string

	// Job store selection: "redis" for production, "memory" for local runs.
	JobBackend  string
	RedisAddr   string
	RedisPass   string
	RedisDB     int
	RedisPrefix string
	JobTTL      time.Duration

	// Task queue. When disabled, ingestion runs inline in the API process.
	QueueEnabled bool
	QueueKey     string
	MaxWorkers   int
	PollInterval time.Duration

	// Fetching
	FetchTimeout  time.Duration
	RenderTimeout time.Duration
	MaxDownload   int64
	UserAgent     string

	// Crawling
	MaxPages      int
	MaxDepth      int
	MinTextLen    int
	PoliteDelay   time.Duration
	UseSitemap    bool
	UseCommon     bool
	SitemapLimit  int
	IgnoreExtList []string

	// Embeddings / vector index
	EmbedBaseURL   string
	EmbedAPIKeyEnv string
	EmbedModel     string
	ChunkSize      int
	ChunkOverlap   int
	PineconeAPIKey string
	PineconeHost   string
	VectorBackend  string

	// External PDF extraction service
	PdfAPIURL string

	// Logging
	LogFile  string
	LogLevel string
}

func Load() (Config, error) {
	cfg := Config{}
	var missingVars []string

	cfg.ListenAddr = getEnv("LISTEN_ADDR", ":8080")
	cfg.MetricsAddr = getEnv("METRICS_ADDR", "0.0.0.0:9091")

	cfg.JobBackend = getEnv("JOB_BACKEND", "redis")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPass = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB, _ = strconv.Atoi(getEnv("REDIS_DB", "0"))
	cfg.RedisPrefix = getEnv("REDIS_PREFIX", "pinecone:")
	cfg.JobTTL, _ = time.ParseDuration(getEnv("JOB_TTL", "24h"))

	cfg.QueueEnabled = strings.EqualFold(getEnv("QUEUE_ENABLED", "true"), "true")
	cfg.QueueKey = getEnv("QUEUE_KEY", "pinecone:ingest_queue")
	cfg.MaxWorkers, _ = strconv.Atoi(getEnv("MAX_WORKERS", "4"))
	cfg.PollInterval, _ = time.ParseDuration(getEnv("POLL_INTERVAL", "2s"))

	cfg.FetchTimeout, _ = time.ParseDuration(getEnv("FETCH_TIMEOUT", "25s"))
	cfg.RenderTimeout, _ = time.ParseDuration(getEnv("RENDER_TIMEOUT", "25s"))
	cfg.MaxDownload, _ = strconv.ParseInt(getEnv("MAX_DOWNLOAD_BYTES", "26214400"), 10, 64)
	cfg.UserAgent = getEnv("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	cfg.MaxPages, _ = strconv.Atoi(getEnv("CRAWL_MAX_PAGES", "100"))
	cfg.MaxDepth, _ = strconv.Atoi(getEnv("CRAWL_MAX_DEPTH", "5"))
	cfg.MinTextLen, _ = strconv.Atoi(getEnv("CRAWL_MIN_TEXT_LEN", "120"))
	cfg.PoliteDelay, _ = time.ParseDuration(getEnv("CRAWL_POLITE_DELAY", "250ms"))
	cfg.UseSitemap = strings.EqualFold(getEnv("CRAWL_USE_SITEMAP", "true"), "true")
	cfg.UseCommon = strings.EqualFold(getEnv("CRAWL_USE_COMMON_ROUTES", "true"), "true")
	cfg.SitemapLimit, _ = strconv.Atoi(getEnv("SITEMAP_LIMIT", "300"))
	cfg.IgnoreExtList = strings.Split(getEnv("IGNORE_EXTENSIONS", ".pdf,.png,.jpg,.jpeg,.webp,.gif,.svg,.zip,.rar,.7z,.tar,.gz,.mp4,.mov,.avi,.mkv,.mp3,.wav,.css,.js,.json"), ",")

	cfg.EmbedBaseURL = getEnv("EMBED_BASE_URL", "https://api.openai.com/v1")
	cfg.EmbedAPIKeyEnv = getEnv("EMBED_API_KEY_ENV", "OPENAI_API_KEY")
	cfg.EmbedModel = getEnv("EMBED_MODEL", "text-embedding-3-small")
	cfg.ChunkSize, _ = strconv.Atoi(getEnv("CHUNK_SIZE", "1600"))
	cfg.ChunkOverlap, _ = strconv.Atoi(getEnv("CHUNK_OVERLAP", "200"))
	cfg.VectorBackend = getEnv("VECTOR_BACKEND", "pinecone")
	cfg.PineconeAPIKey = getEnv("PINECONE_API_KEY", "")
	cfg.PineconeHost = getEnv("PINECONE_HOST", "")
	cfg.PdfAPIURL = getEnv("PDF_API_URL", "")

	if cfg.VectorBackend == "pinecone" {
		if cfg.PineconeAPIKey == "" {
			missingVars = append(missingVars, "PINECONE_API_KEY")
		}
		if cfg.PineconeHost == "" {
			missingVars = append(missingVars, "PINECONE_HOST")
		}
	}
	if len(missingVars) > 0 {
		return cfg, fmt.Errorf("missing required environment variables: %s", strings.Join(missingVars, ", "))
	}

	if cfg.MaxWorkers <= 0 {
		slog.Warn("Invalid MAX_WORKERS, falling back to 4", "value", getEnv("MAX_WORKERS", "4"))
		cfg.MaxWorkers = 4
	}

	cfg.LogFile = getEnv("LOG_FILE", "logs/ingest.log")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
