package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP      HTTPConfig
	Graph     GraphConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Reasoning ReasoningConfig
	Shopify   ShopifyConfig
	Capture   CaptureConfig
	Pipeline  PipelineConfig
	Events    EventsConfig
	Logging   LoggingConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	AllowedOriginsCSV string
	AllowCredentials  bool
	JWTSecret         string
}

// GraphConfig describes connectivity to the evidence graph (Neo4j).
type GraphConfig struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// DatabaseConfig points at the relational payments replica.
type DatabaseConfig struct {
	URL      string
	MaxConns int
}

// RedisConfig points at the identity-record store.
type RedisConfig struct {
	URL string
}

// ReasoningConfig configures the external reasoning/classification service.
type ReasoningConfig struct {
	URL     string
	Timeout time.Duration
}

// ShopifyConfig configures the order/transaction API client.
type ShopifyConfig struct {
	APIVersion string
	Timeout    time.Duration
}

// CaptureConfig configures the headless screenshot service.
type CaptureConfig struct {
	Enabled         bool
	URL             string
	Timeout         time.Duration
	IdentityPageURL string
	ArtifactDir     string
}

// PipelineConfig tunes per-case document generation.
type PipelineConfig struct {
	OutputDir         string
	EvidenceWorkers   int
	EvidenceTimeout   time.Duration
	BatchConcurrency  int
	GeoThresholdMiles float64
	CatalogFile       string
	PolicyImageDir    string
	LogoPath          string
	BrandName         string
}

// EventsConfig configures outcome event publishing.
type EventsConfig struct {
	Brokers []string
	Topic   string
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

const (
	defaultHost              = "0.0.0.0"
	defaultPort              = 8080
	defaultReadTimeout       = 10 * time.Second
	defaultWriteTimeout      = 5 * time.Minute
	defaultIdleTimeout       = 60 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
	defaultLoggingLevel      = "info"
	defaultLoggingFormat     = "text"
	defaultGraphMaxSessions  = 10
	defaultDatabaseMaxConns  = 5
	defaultReasoningTimeout  = 120 * time.Second
	defaultShopifyAPIVersion = "2024-01"
	defaultShopifyTimeout    = 30 * time.Second
	defaultCaptureTimeout    = 90 * time.Second
	defaultArtifactDir       = "/tmp"
	defaultOutputDir         = "generated_pdfs"
	defaultEvidenceWorkers   = 6
	defaultEvidenceTimeout   = 60 * time.Second
	defaultBatchConcurrency  = 1
	defaultGeoThreshold      = 100.0
	defaultPolicyImageDir    = "return_policies"
	defaultLogoPath          = "fugu_logo.png"
	defaultBrandName         = "FUGU"
	defaultEventsTopic       = "dispute.documents"
)

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Host:              valueOrDefault("SERVER_HOST", defaultHost),
			AllowedOriginsCSV: os.Getenv("CORS_ALLOWED_ORIGINS"),
			AllowCredentials:  parseBoolWithDefault("CORS_ALLOW_CREDENTIALS", false),
			JWTSecret:         os.Getenv("API_JWT_SECRET"),
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Graph: GraphConfig{
			URI:            os.Getenv("GRAPH_URI"),
			Database:       valueOrDefault("GRAPH_DATABASE", ""),
			Username:       os.Getenv("GRAPH_USERNAME"),
			Password:       os.Getenv("GRAPH_PASSWORD"),
			MaxConnections: parseIntWithDefault("GRAPH_MAX_CONNECTIONS", defaultGraphMaxSessions),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			MaxConns: parseIntWithDefault("DATABASE_MAX_CONNS", defaultDatabaseMaxConns),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Reasoning: ReasoningConfig{
			URL: os.Getenv("REASONING_URL"),
		},
		Shopify: ShopifyConfig{
			APIVersion: valueOrDefault("SHOPIFY_API_VERSION", defaultShopifyAPIVersion),
		},
		Capture: CaptureConfig{
			Enabled:         parseBoolWithDefault("CAPTURE_ENABLED", true),
			URL:             os.Getenv("CAPTURE_URL"),
			IdentityPageURL: os.Getenv("IDENTITY_PAGE_URL"),
			ArtifactDir:     valueOrDefault("ARTIFACT_DIR", defaultArtifactDir),
		},
		Pipeline: PipelineConfig{
			OutputDir:        valueOrDefault("OUTPUT_DIR", defaultOutputDir),
			EvidenceWorkers:  parseIntWithDefault("EVIDENCE_WORKERS", defaultEvidenceWorkers),
			BatchConcurrency: parseIntWithDefault("BATCH_CONCURRENCY", defaultBatchConcurrency),
			CatalogFile:      os.Getenv("CATALOG_FILE"),
			PolicyImageDir:   valueOrDefault("POLICY_IMAGE_DIR", defaultPolicyImageDir),
			LogoPath:         valueOrDefault("LOGO_PATH", defaultLogoPath),
			BrandName:        valueOrDefault("BRAND_NAME", defaultBrandName),
		},
		Events: EventsConfig{
			Brokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
			Topic:   valueOrDefault("KAFKA_TOPIC", defaultEventsTopic),
		},
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	durations := []struct {
		key      string
		fallback time.Duration
		target   *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", defaultReadTimeout, &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", defaultWriteTimeout, &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", defaultIdleTimeout, &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", defaultShutdownTimeout, &cfg.HTTP.ShutdownTimeout},
		{"REASONING_TIMEOUT", defaultReasoningTimeout, &cfg.Reasoning.Timeout},
		{"SHOPIFY_TIMEOUT", defaultShopifyTimeout, &cfg.Shopify.Timeout},
		{"CAPTURE_TIMEOUT", defaultCaptureTimeout, &cfg.Capture.Timeout},
		{"EVIDENCE_TIMEOUT", defaultEvidenceTimeout, &cfg.Pipeline.EvidenceTimeout},
	}
	for _, d := range durations {
		val, err := parseDurationWithDefault(d.key, d.fallback)
		if err != nil {
			return Config{}, err
		}
		*d.target = val
	}

	threshold, err := parseFloatWithDefault("GEO_THRESHOLD_MILES", defaultGeoThreshold)
	if err != nil {
		return Config{}, err
	}
	if threshold <= 0 {
		return Config{}, fmt.Errorf("GEO_THRESHOLD_MILES must be positive, got %v", threshold)
	}
	cfg.Pipeline.GeoThresholdMiles = threshold

	if cfg.Pipeline.EvidenceWorkers <= 0 {
		cfg.Pipeline.EvidenceWorkers = defaultEvidenceWorkers
	}
	if cfg.Pipeline.BatchConcurrency <= 0 {
		cfg.Pipeline.BatchConcurrency = defaultBatchConcurrency
	}

	return cfg, nil
}

// AllowedOrigins splits the configured CORS origins.
func (c HTTPConfig) AllowedOrigins() []string {
	return splitCSV(c.AllowedOriginsCSV)
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseFloatWithDefault(key string, fallback float64) (float64, error) {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return val, nil
	}
	return fallback, nil
}

func parseDurationWithDefault(key string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
