package generator

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Format selects the dataset encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FileName is the dataset file written under the output directory.
func (f Format) FileName() string {
	return "evidence." + string(f)
}

// ParseFormat validates a format name.
func ParseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case FormatJSON, FormatYAML:
		return Format(raw), nil
	}
	return "", fmt.Errorf("unsupported format %q (want json or yaml)", raw)
}

// WriteDataset serializes the dataset into evidence.json or evidence.yaml
// under the provided directory and returns the written path.
func WriteDataset(dataset Dataset, dir string, format Format) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, format.FileName())
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if err := Encode(file, dataset, format); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// Encode writes the evidence records in the given format.
func Encode(w io.Writer, dataset Dataset, format Format) error {
	if format == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(dataset.Evidence); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dataset.Evidence); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
