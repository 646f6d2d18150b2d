package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vanshika/chargeback/backend/internal/domain"
	"github.com/vanshika/chargeback/backend/internal/geo"
	"github.com/vanshika/chargeback/backend/internal/service"
)

var reference = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.NumPayments = 40
	cfg.Reference = reference
	return cfg
}

func TestGenerate_Deterministic(t *testing.T) {
	a, err := New(smallConfig()).Generate(context.Background())
	require.NoError(t, err)
	b, err := New(smallConfig()).Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	require.Len(t, a.Evidence, 40)
	assert.Equal(t, "pay_000001", a.Evidence[0].PaymentID)
	assert.Equal(t, "#1040", a.Evidence[39].ExternalReference)
}

func TestGenerate_RecordsPassValidation(t *testing.T) {
	data, err := New(smallConfig()).Generate(context.Background())
	require.NoError(t, err)

	for _, in := range data.Evidence {
		ev := in.ToDomain()
		assert.NotEmpty(t, ev.IP, in.PaymentID)
		assert.False(t, in.CreatedAt.After(reference), in.PaymentID)
		require.NotNil(t, ev.Intel)
		require.Len(t, ev.Locations, 2)
		assert.Equal(t, domain.GeoBilling, ev.Locations[0].Label)
		assert.Equal(t, domain.GeoShipping, ev.Locations[1].Label)
		require.NotEmpty(t, ev.Sessions)
		for _, s := range ev.Sessions {
			assert.False(t, s.End.Before(*s.Start), s.ID)
			assert.False(t, s.End.After(*in.CreatedAt), s.ID)
		}
	}
}

func TestGenerate_FarShipping(t *testing.T) {
	cfg := smallConfig()
	cfg.FarShippingChance = 1
	data, err := New(cfg).Generate(context.Background())
	require.NoError(t, err)

	for _, in := range data.Evidence {
		assert.NotEqual(t, in.Locations[0].City, in.Locations[1].City)
	}

	cfg.FarShippingChance = 0
	data, err = New(cfg).Generate(context.Background())
	require.NoError(t, err)
	for _, in := range data.Evidence {
		ev := in.ToDomain()
		assert.Less(t, geo.Distance(ev.Locations[0], ev.Locations[1]), 10.0)
	}
}

func TestGenerate_SharedIPs(t *testing.T) {
	cfg := smallConfig()
	cfg.IPShareChance = 1
	data, err := New(cfg).Generate(context.Background())
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, in := range data.Evidence {
		seen[in.IP] = true
	}
	assert.Len(t, seen, 1, "every payment after the first reuses the pooled address")
}

func TestGenerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(smallConfig()).Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteDataset(t *testing.T) {
	data, err := New(smallConfig()).Generate(context.Background())
	require.NoError(t, err)
	dir := t.TempDir()

	path, err := WriteDataset(data, dir, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "evidence.json"), path)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var fromJSON []service.EvidenceInput
	require.NoError(t, json.Unmarshal(raw, &fromJSON))
	assert.Len(t, fromJSON, 40)
	assert.Equal(t, data.Evidence[3].PaymentID, fromJSON[3].PaymentID)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, data, FormatYAML))
	var fromYAML []service.EvidenceInput
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	require.Len(t, fromYAML, 40)
	assert.Equal(t, data.Evidence[7].Locations, fromYAML[7].Locations)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("yaml")
	require.NoError(t, err)
	assert.Equal(t, "evidence.yaml", f.FileName())

	_, err = ParseFormat("csv")
	assert.Error(t, err)
}
