package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vanshika/chargeback/backend/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		payments          = flag.Int("payments", cfg.NumPayments, "number of payment evidence records to generate")
		maxSessions       = flag.Int("max-sessions", cfg.MaxSessions, "maximum browsing sessions per payment")
		ipShareChance     = flag.Float64("ip-share-chance", cfg.IPShareChance, "probability of reusing an existing IP address")
		deviceShareChance = flag.Float64("device-share-chance", cfg.DeviceShareChance, "probability of reusing an existing device signature")
		farShipping       = flag.Float64("far-shipping-chance", cfg.FarShippingChance, "probability that shipping is in another city than billing")
		botChance         = flag.Float64("bot-chance", cfg.BotChance, "probability that a session is flagged as a bot")
		seed              = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		outputDir         = flag.String("output-dir", "data", "directory to write the evidence dataset")
		format            = flag.String("format", string(generator.FormatJSON), "dataset format (json, yaml)")
		writeStdout       = flag.Bool("stdout", false, "write the dataset to stdout instead of a file")
	)
	flag.Parse()

	outFormat, err := generator.ParseFormat(*format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	genCfg := generator.Config{
		NumPayments:       *payments,
		MaxSessions:       *maxSessions,
		IPShareChance:     *ipShareChance,
		DeviceShareChance: *deviceShareChance,
		FarShippingChance: *farShipping,
		BotChance:         *botChance,
		Seed:              *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dataset, err := generator.New(genCfg).Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *writeStdout {
		if err := generator.Encode(os.Stdout, dataset, outFormat); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write dataset to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	path, err := generator.WriteDataset(dataset, *outputDir, outFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d evidence records into %s\n", len(dataset.Evidence), path)
}
