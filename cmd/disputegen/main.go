package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var Version = "dev"

type globalFlags struct {
	noScreenshots bool
	outputDir     string
	format        string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:           "disputegen",
		Short:         "Generate chargeback dispute evidence documents",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch flags.format {
			case "json", "yaml":
				return nil
			}
			return fmt.Errorf("unsupported --format %q (want json or yaml)", flags.format)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&flags.noScreenshots, "no-screenshots", false, "Skip the screenshot service; documents carry placeholders")
	rootCmd.PersistentFlags().StringVarP(&flags.outputDir, "output-dir", "o", "", "Directory for generated documents (overrides OUTPUT_DIR)")
	rootCmd.PersistentFlags().StringVarP(&flags.format, "format", "f", "json", "Output format (json, yaml)")

	rootCmd.AddCommand(generateCmd(flags))
	rootCmd.AddCommand(batchCmd(flags))
	rootCmd.AddCommand(classifyCmd(flags))
	rootCmd.AddCommand(analyzeCmd(flags))

	return rootCmd
}

// writeOutput encodes v in the selected format.
func writeOutput(w io.Writer, format string, v any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
