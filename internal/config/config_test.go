package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HTTP.Port != defaultPort {
		t.Fatalf("expected default port %d, got %d", defaultPort, cfg.HTTP.Port)
	}
	if cfg.Pipeline.EvidenceWorkers != defaultEvidenceWorkers {
		t.Errorf("expected %d evidence workers, got %d", defaultEvidenceWorkers, cfg.Pipeline.EvidenceWorkers)
	}
	if cfg.Pipeline.GeoThresholdMiles != defaultGeoThreshold {
		t.Errorf("expected threshold %v, got %v", defaultGeoThreshold, cfg.Pipeline.GeoThresholdMiles)
	}
	if cfg.Reasoning.Timeout != defaultReasoningTimeout {
		t.Errorf("expected reasoning timeout %v, got %v", defaultReasoningTimeout, cfg.Reasoning.Timeout)
	}
	if !cfg.Capture.Enabled {
		t.Errorf("capture should be enabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("EVIDENCE_TIMEOUT", "5s")
	t.Setenv("GEO_THRESHOLD_MILES", "25.5")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092 ,")
	t.Setenv("CAPTURE_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Pipeline.EvidenceTimeout != 5*time.Second {
		t.Errorf("expected 5s evidence timeout, got %v", cfg.Pipeline.EvidenceTimeout)
	}
	if cfg.Pipeline.GeoThresholdMiles != 25.5 {
		t.Errorf("expected threshold 25.5, got %v", cfg.Pipeline.GeoThresholdMiles)
	}
	if len(cfg.Events.Brokers) != 2 || cfg.Events.Brokers[1] != "kafka-2:9092" {
		t.Errorf("unexpected brokers %#v", cfg.Events.Brokers)
	}
	if cfg.Capture.Enabled {
		t.Errorf("capture should be disabled")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"SERVER_PORT":         "70000",
		"REASONING_TIMEOUT":   "soon",
		"GEO_THRESHOLD_MILES": "-3",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	content := `keywords:
  fraud: [fraud, friendly_fraud]
  credit_not_processed: [refund_missing]
return_policies:
  acme:
    text: Returns within 10 days.
    url: https://acme.test/returns
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog returned error: %v", err)
	}
	if len(cat.Keywords.Fraud) != 2 || cat.Keywords.Fraud[1] != "friendly_fraud" {
		t.Fatalf("unexpected fraud keywords %#v", cat.Keywords.Fraud)
	}
	if cat.Keywords.Empty() {
		t.Fatalf("keywords should not be empty")
	}
	entry, ok := cat.Policies["acme"]
	if !ok {
		t.Fatalf("expected acme policy, got %#v", cat.Policies)
	}
	if entry.URL != "https://acme.test/returns" {
		t.Errorf("unexpected url %q", entry.URL)
	}
}

func TestLoadCatalogEmptyPath(t *testing.T) {
	cat, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("LoadCatalog returned error: %v", err)
	}
	if !cat.Keywords.Empty() || len(cat.Policies) != 0 {
		t.Fatalf("expected empty catalog, got %#v", cat)
	}
}

func TestLoadCatalogMissingFile(t *testing.T) {
	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing catalog")
	}
}
