package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vanshika/chargeback/backend/internal/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CATALOG_FILE", "")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParsePoint(t *testing.T) {
	p, err := parsePoint(domain.GeoBilling, " 40.1, -74.05 ")
	require.NoError(t, err)
	assert.Equal(t, domain.GeoPoint{Label: domain.GeoBilling, Latitude: 40.1, Longitude: -74.05}, p)

	for _, raw := range []string{"40.1", "north,-74", "40,east", "91,0", "0,181"} {
		_, err := parsePoint(domain.GeoShipping, raw)
		assert.Error(t, err, raw)
	}
	_, err = parsePoint(domain.GeoNetworkOrigin, "x,y")
	assert.ErrorContains(t, err, "--ip")
}

func TestReadIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.txt")
	require.NoError(t, os.WriteFile(path, []byte("# march disputes\npay_1\n\n  pay_2  \n#pay_3\n"), 0o644))

	ids, err := readIDs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"pay_1", "pay_2"}, ids)

	_, err = readIDs(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestWriteOutput(t *testing.T) {
	v := classification{Reason: "fraud", Category: "fraud", Label: "Fraud"}

	var js bytes.Buffer
	require.NoError(t, writeOutput(&js, "json", v))
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, "Fraud", decoded["label"])

	var ym bytes.Buffer
	require.NoError(t, writeOutput(&ym, "yaml", v))
	assert.Contains(t, ym.String(), "category: fraud\n")
}

func TestClassifyCommand(t *testing.T) {
	out, err := execute(t, "classify", "Product", "Not", "Received")
	require.NoError(t, err)

	var got classification
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Product Not Received", got.Reason)
	assert.Equal(t, "pnr", got.Category)
	assert.Equal(t, "Product Not Received", got.Label)
}

func TestAnalyzeCommand(t *testing.T) {
	out, err := execute(t, "analyze", "--format", "yaml",
		"--ip", "40.0,-74.0",
		"--billing", "40.1,-74.05",
		"--shipping", "34.05,-118.24",
		"--threshold", "100",
	)
	require.NoError(t, err)

	var got analysisView
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"ip", "billing"}, got.Relevant)
	assert.False(t, got.AllClose)
	assert.Equal(t, 100.0, got.ThresholdMiles)
	assert.Len(t, got.Points, 3)
	assert.Contains(t, got.Summary, "IP to Billing")
}

func TestAnalyzeCommand_RequiresAPoint(t *testing.T) {
	_, err := execute(t, "analyze")
	assert.ErrorContains(t, err, "at least one of")

	_, err = execute(t, "analyze", "--ip", "200,0")
	assert.ErrorContains(t, err, "invalid latitude")
}

func TestRootCommand_RejectsUnknownFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "classify", "fraud")
	assert.ErrorContains(t, err, `unsupported --format "xml"`)
}

func TestBatchCommand_NoIDs(t *testing.T) {
	_, err := execute(t, "batch")
	assert.EqualError(t, err, "no payment ids given")
}
