// Package app wires configuration into the document pipeline and its
// collaborators. Both the HTTP server and the CLI start from here.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vanshika/chargeback/backend/internal/capture"
	"github.com/vanshika/chargeback/backend/internal/classify"
	"github.com/vanshika/chargeback/backend/internal/config"
	"github.com/vanshika/chargeback/backend/internal/events"
	"github.com/vanshika/chargeback/backend/internal/evidence"
	"github.com/vanshika/chargeback/backend/internal/geo"
	"github.com/vanshika/chargeback/backend/internal/graph"
	"github.com/vanshika/chargeback/backend/internal/identity"
	"github.com/vanshika/chargeback/backend/internal/policy"
	"github.com/vanshika/chargeback/backend/internal/reasoning"
	"github.com/vanshika/chargeback/backend/internal/render"
	"github.com/vanshika/chargeback/backend/internal/repository"
	"github.com/vanshika/chargeback/backend/internal/server"
	"github.com/vanshika/chargeback/backend/internal/service"
	"github.com/vanshika/chargeback/backend/internal/shopify"
	"github.com/vanshika/chargeback/backend/internal/store"
)

// Options adjust the configuration for one process.
type Options struct {
	// NoScreenshots disables the capture service; documents carry placeholders.
	NoScreenshots bool
	// OutputDir overrides OUTPUT_DIR when set.
	OutputDir string
}

// App holds the wired pipeline and the handles that need closing.
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Generator *service.Generator
	Batch     *service.Batch
	Health    server.Checks

	closers []func(context.Context) error
}

// New connects every configured collaborator. Unconfigured stores are left
// out; the evidence they provide then degrades per case.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if opts.OutputDir != "" {
		cfg.Pipeline.OutputDir = opts.OutputDir
	}
	if opts.NoScreenshots {
		cfg.Capture.Enabled = false
	}

	a := &App{Config: cfg, Logger: logger}
	deps := service.Deps{
		Reasoner: reasoning.New(cfg.Reasoning),
		Orders:   shopify.New(cfg.Shopify),
		Capturer: capture.New(cfg.Capture, logger),
		Analyzer: geo.NewAnalyzer(cfg.Pipeline.GeoThresholdMiles),
		Renderer: render.New(render.FileLoader{},
			render.WithBrand(cfg.Pipeline.BrandName, cfg.Pipeline.LogoPath),
			render.WithLogger(logger),
		),
		Normalizer: evidence.NewNormalizer(logger),
	}

	catalog, err := config.LoadCatalog(cfg.Pipeline.CatalogFile)
	if err != nil {
		return nil, err
	}
	deps.Classifier = classifierFromCatalog(catalog, logger)
	deps.Policies = policiesFromCatalog(catalog.Policies)

	if err := a.connect(ctx, &deps); err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}

	publisher, err := events.New(cfg.Events.Brokers, cfg.Events.Topic)
	if err != nil {
		_ = a.Close(context.Background())
		return nil, fmt.Errorf("create event publisher: %w", err)
	}
	deps.Publisher = publisher
	a.closers = append(a.closers, func(context.Context) error { return publisher.Close() })

	a.Generator = service.NewGenerator(deps, service.SettingsFromConfig(cfg), logger)
	a.Batch = service.NewBatch(a.Generator, cfg.Pipeline.BatchConcurrency, logger)
	return a, nil
}

func (a *App) connect(ctx context.Context, deps *service.Deps) error {
	cfg := a.Config

	if cfg.Graph.URI != "" {
		client, err := graph.NewNeo4jClient(ctx, graph.OptionsFromConfig(cfg.Graph))
		if err != nil {
			return fmt.Errorf("connect evidence graph: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		deps.Graph = repository.New(client)
		a.Health = append(a.Health, server.Check{Name: "graph", Service: server.GraphHealthService{Client: client}})
		a.Logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)
	} else {
		a.Logger.Warn("GRAPH_URI not set; location and session evidence will be unavailable")
	}

	if cfg.Database.URL != "" {
		db, err := store.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return fmt.Errorf("connect payments database: %w", err)
		}
		payments := store.New(db)
		a.closers = append(a.closers, func(context.Context) error { return payments.Close() })
		deps.Payments = payments
		a.Health = append(a.Health, server.Check{Name: "database", Service: server.PingFunc(payments.Ping)})
	} else {
		a.Logger.Warn("DATABASE_URL not set; payment records and shop credentials will be unavailable")
	}

	if cfg.Redis.URL != "" {
		client, err := identity.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("connect identity store: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		getter := identity.RedisGetter{Client: client}
		deps.Identity = identity.New(getter)
		a.Health = append(a.Health, server.Check{Name: "redis", Service: server.PingFunc(getter.Ping)})
	} else {
		a.Logger.Warn("REDIS_URL not set; public records evidence will be unavailable")
	}
	return nil
}

// Close releases every connection in reverse order of creation.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewClassifier builds the reason classifier from the configured catalog
// without connecting any store.
func NewClassifier(cfg config.Config, logger *slog.Logger) (*classify.Classifier, error) {
	catalog, err := config.LoadCatalog(cfg.Pipeline.CatalogFile)
	if err != nil {
		return nil, err
	}
	return classifierFromCatalog(catalog, logger), nil
}

func classifierFromCatalog(catalog config.Catalog, logger *slog.Logger) *classify.Classifier {
	tables := tablesFromCatalog(catalog.Keywords)
	if overlaps := tables.Overlaps(); len(overlaps) > 0 {
		logger.Warn("reason keywords appear in more than one category; earlier categories win", "keywords", overlaps)
	}
	return classify.New(tables, logger)
}

func tablesFromCatalog(k config.KeywordCatalog) classify.Tables {
	if k.Empty() {
		return classify.DefaultTables()
	}
	t := classify.DefaultTables()
	if len(k.Fraud) > 0 {
		t.Fraud = k.Fraud
	}
	if len(k.ProductNotReceived) > 0 {
		t.ProductNotReceived = k.ProductNotReceived
	}
	if len(k.ProductNotAcceptable) > 0 {
		t.ProductNotAcceptable = k.ProductNotAcceptable
	}
	if len(k.CreditNotProcessed) > 0 {
		t.CreditNotProcessed = k.CreditNotProcessed
	}
	return t
}

func policiesFromCatalog(entries map[string]config.PolicyEntry) policy.Table {
	table := policy.DefaultTable()
	if len(entries) == 0 {
		return table
	}
	overrides := make(map[string]policy.Policy, len(entries))
	for tenant, e := range entries {
		overrides[tenant] = policy.Policy{Text: e.Text, URL: e.URL, Extract: e.Extract}
	}
	return table.With(overrides)
}
