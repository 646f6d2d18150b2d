package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanshika/chargeback/backend/internal/config"
	"github.com/vanshika/chargeback/backend/internal/graph"
	"github.com/vanshika/chargeback/backend/internal/logging"
	"github.com/vanshika/chargeback/backend/internal/repository"
	"github.com/vanshika/chargeback/backend/internal/service"
)

var (
	errMissingDataset = errors.New("dataset not found")
)

func main() {
	var (
		datasetDir   = flag.String("dataset-dir", "./data", "Directory containing evidence.json or evidence.yaml")
		evidencePath = flag.String("evidence", "", "Path to the evidence dataset (overrides dataset-dir)")
		workers      = flag.Int("workers", 4, "Number of concurrent workers for ingestion")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "ingest")

	path, err := resolveDatasetPath(*datasetDir, *evidencePath)
	if err != nil {
		logger.Error("dataset resolution failed", "error", err)
		os.Exit(1)
	}

	records, err := loadEvidence(path)
	if err != nil {
		logger.Error("failed to load evidence", "error", err, "path", path)
		os.Exit(1)
	}
	if len(records) == 0 {
		logger.Error("evidence dataset empty", "path", path)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	graphClient, err := buildGraphClient(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to create graph client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := graphClient.Close(context.Background()); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}()

	svc := service.NewEvidenceService(repository.New(graphClient))
	ingestor := service.NewBulkIngestor(svc, *workers)

	start := time.Now()
	logger.Info("ingesting evidence", "count", len(records), "workers", *workers)
	if err := ingestor.IngestEvidence(ctx, records); err != nil {
		var taskErr *service.TaskError
		if errors.As(err, &taskErr) {
			logger.Error("evidence ingestion incomplete", "failed", len(taskErr.Errors), "total", len(records), "error", err)
		} else {
			logger.Error("evidence ingestion failed", "error", err)
		}
		os.Exit(1)
	}

	logger.Info("ingestion complete", "duration", time.Since(start).String(), "payments", len(records))
}

func resolveDatasetPath(baseDir, explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("stat %s: %w", explicitPath, err)
		}
		return explicitPath, nil
	}
	for _, name := range []string{"evidence.json", "evidence.yaml"} {
		path := filepath.Join(baseDir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", errMissingDataset, filepath.Join(baseDir, "evidence.{json,yaml}"))
}

func loadEvidence(path string) ([]service.EvidenceInput, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	var records []service.EvidenceInput
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.NewDecoder(file).Decode(&records)
	default:
		err = json.NewDecoder(file).Decode(&records)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}

func buildGraphClient(ctx context.Context, logger *slog.Logger, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		return nil, fmt.Errorf("GRAPH_URI is required for ingestion")
	}
	client, err := graph.NewNeo4jClient(ctx, graph.OptionsFromConfig(cfg.Graph))
	if err != nil {
		return nil, err
	}
	if err := client.VerifyConnectivity(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
	return client, nil
}
