package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vanshika/chargeback/backend/internal/app"
	"github.com/vanshika/chargeback/backend/internal/config"
	"github.com/vanshika/chargeback/backend/internal/domain"
	"github.com/vanshika/chargeback/backend/internal/geo"
	"github.com/vanshika/chargeback/backend/internal/logging"
)

func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logging.NewWithWriter(cfg.Logging, os.Stderr), nil
}

// withApp runs fn against a wired pipeline that is closed afterwards.
func withApp(flags *globalFlags, fn func(ctx context.Context, a *app.App) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger.With("component", "cli"), app.Options{
		NoScreenshots: flags.noScreenshots,
		OutputDir:     flags.outputDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			logger.Warn("closing collaborators failed", "error", err)
		}
	}()
	return fn(ctx, a)
}

func generateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <paymentid>",
		Short: "Generate the dispute document for one payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(ctx context.Context, a *app.App) error {
				out, err := a.Generator.Generate(ctx, args[0])
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), flags.format, out)
			})
		},
	}
}

func batchCmd(flags *globalFlags) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "batch [paymentid...]",
		Short: "Generate documents for many payments",
		Long: `Generate documents for every payment id given as an argument or listed
in --file (one id per line, # starts a comment). A failed case never stops
the others; the command exits non-zero when any case failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := append([]string(nil), args...)
			if file != "" {
				fromFile, err := readIDs(file)
				if err != nil {
					return err
				}
				ids = append(ids, fromFile...)
			}
			if len(ids) == 0 {
				return errors.New("no payment ids given")
			}

			return withApp(flags, func(ctx context.Context, a *app.App) error {
				summary := a.Batch.Run(ctx, ids)
				if err := writeOutput(cmd.OutOrStdout(), flags.format, summary); err != nil {
					return err
				}
				if n := len(summary.Failed); n > 0 {
					return fmt.Errorf("%d of %d cases failed", n, summary.Total)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "File with one payment id per line")
	return cmd
}

func readIDs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ids, nil
}

type classification struct {
	Reason   string `json:"reason" yaml:"reason"`
	Category string `json:"category" yaml:"category"`
	Label    string `json:"label" yaml:"label"`
}

func classifyCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <reason>",
		Short: "Show the document category for a dispute reason",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			classifier, err := app.NewClassifier(cfg, logger)
			if err != nil {
				return err
			}
			reason := strings.Join(args, " ")
			c := classifier.Classify(reason)
			return writeOutput(cmd.OutOrStdout(), flags.format, classification{
				Reason:   reason,
				Category: string(c),
				Label:    c.Label(),
			})
		},
	}
}

type pointView struct {
	Label     string  `json:"label" yaml:"label"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

type distanceView struct {
	From  string  `json:"from" yaml:"from"`
	To    string  `json:"to" yaml:"to"`
	Miles float64 `json:"miles" yaml:"miles"`
}

type analysisView struct {
	Points         []pointView    `json:"points" yaml:"points"`
	Distances      []distanceView `json:"distances" yaml:"distances"`
	Relevant       []string       `json:"relevant" yaml:"relevant"`
	AllClose       bool           `json:"all_close" yaml:"all_close"`
	ThresholdMiles float64        `json:"threshold_miles" yaml:"threshold_miles"`
	Summary        string         `json:"summary" yaml:"summary"`
	Narrative      string         `json:"narrative" yaml:"narrative"`
}

func analyzeCmd(flags *globalFlags) *cobra.Command {
	var ip, billing, shipping string
	var threshold float64
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the geolocation proximity analysis for a set of points",
		RunE: func(cmd *cobra.Command, args []string) error {
			var points []domain.GeoPoint
			for _, in := range []struct {
				label domain.GeoLabel
				raw   string
			}{
				{domain.GeoNetworkOrigin, ip},
				{domain.GeoBilling, billing},
				{domain.GeoShipping, shipping},
			} {
				if in.raw == "" {
					continue
				}
				p, err := parsePoint(in.label, in.raw)
				if err != nil {
					return err
				}
				points = append(points, p)
			}
			if len(points) == 0 {
				return errors.New("at least one of --ip, --billing, --shipping is required")
			}

			if !cmd.Flags().Changed("threshold") {
				cfg, _, err := loadConfig()
				if err != nil {
					return err
				}
				threshold = cfg.Pipeline.GeoThresholdMiles
			}
			return writeOutput(cmd.OutOrStdout(), flags.format, viewOf(geo.NewAnalyzer(threshold).Analyze(points)))
		},
	}
	cmd.Flags().StringVar(&ip, "ip", "", "IP geolocation as lat,lng")
	cmd.Flags().StringVar(&billing, "billing", "", "Billing address as lat,lng")
	cmd.Flags().StringVar(&shipping, "shipping", "", "Shipping address as lat,lng")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Proximity threshold in miles (default GEO_THRESHOLD_MILES)")
	return cmd
}

func parsePoint(label domain.GeoLabel, raw string) (domain.GeoPoint, error) {
	latRaw, lngRaw, ok := strings.Cut(raw, ",")
	if !ok {
		return domain.GeoPoint{}, fmt.Errorf("--%s: want lat,lng, got %q", label, raw)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil || lat < -90 || lat > 90 {
		return domain.GeoPoint{}, fmt.Errorf("--%s: invalid latitude %q", label, latRaw)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngRaw), 64)
	if err != nil || lng < -180 || lng > 180 {
		return domain.GeoPoint{}, fmt.Errorf("--%s: invalid longitude %q", label, lngRaw)
	}
	return domain.GeoPoint{Label: label, Latitude: lat, Longitude: lng}, nil
}

func viewOf(a domain.GeoAnalysis) analysisView {
	v := analysisView{
		Points:         []pointView{},
		Distances:      []distanceView{},
		Relevant:       []string{},
		AllClose:       a.AllClose,
		ThresholdMiles: a.ThresholdMiles,
		Summary:        a.Summary,
		Narrative:      a.Narrative,
	}
	for _, p := range a.Points {
		v.Points = append(v.Points, pointView{Label: string(p.Label), Latitude: p.Latitude, Longitude: p.Longitude})
	}
	for _, d := range a.Distances {
		v.Distances = append(v.Distances, distanceView{From: string(d.From), To: string(d.To), Miles: d.Miles})
	}
	for _, l := range a.Relevant {
		v.Relevant = append(v.Relevant, string(l))
	}
	return v
}
