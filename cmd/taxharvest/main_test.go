package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// useTempDatabase points the CLI at an empty config dir and a fresh sqlite file.
func useTempDatabase(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATABASE_DSN", "file:"+filepath.Join(dir, "taxharvest.db"))
	t.Setenv("LOGGER_LEVEL", "error")
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "taxharvest", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)

	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"calculate", "recommend", "reverse", "washsale", "carryforward", "regime", "config", "prices"} {
		assert.Truef(t, names[want], "missing subcommand %q", want)
	}
}

func TestRootCommand_Help(t *testing.T) {
	out, err := execute(t, "--help")

	require.NoError(t, err)
	assert.Contains(t, out, "taxharvest")
	assert.Contains(t, out, "recommend")
}

func TestRegimeEstimate_JSON(t *testing.T) {
	out, err := execute(t, "regime", "estimate", "--income", "1000000", "--deductions", "175000", "-f", "json")
	require.NoError(t, err)

	var got struct {
		Recommendation string `json:"recommendation"`
		Savings        string `json:"savings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "OLD", got.Recommendation)
	assert.Equal(t, "7800", got.Savings)
}

func TestRegimeCompare_Table(t *testing.T) {
	out, err := execute(t, "regime", "compare", "--income", "1000000", "--deductions", "175000", "--lt", "200000", "-f", "table")

	require.NoError(t, err)
	assert.Contains(t, out, "Capital gains tax")
	assert.Contains(t, out, "₹12,500.00")
}

func TestRegimeEstimate_NeedsNoDatabase(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://nobody@127.0.0.1:1/none?connect_timeout=1")
	t.Setenv("LOGGER_LEVEL", "error")

	out, err := execute(t, "regime", "estimate", "--income", "2000000", "--deductions", "0", "-f", "json")

	require.NoError(t, err)
	assert.Contains(t, out, `"recommendation": "NEW"`)
}

func TestRegimeCompare_InvalidAmount(t *testing.T) {
	_, err := execute(t, "regime", "compare", "--income", "lots", "-f", "json")

	assert.Error(t, err)
}

func TestSeedThenCalculate(t *testing.T) {
	useTempDatabase(t)
	configDir := t.TempDir()

	out, err := execute(t, "--config-dir", configDir, "config", "seed", "--file", "../../configs/tax_rates.yml", "-f", "json")
	require.NoError(t, err)
	var seeded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &seeded))
	assert.NotEmpty(t, seeded)

	out, err = execute(t, "--config-dir", configDir, "calculate", "--fy", "2024-25", "-f", "json")
	require.NoError(t, err)
	var summary struct {
		FiscalYear string `json:"fiscal_year"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "2024-25", summary.FiscalYear)
}

func TestRecommendExecute_UnknownID(t *testing.T) {
	useTempDatabase(t)

	_, err := execute(t, "--config-dir", t.TempDir(), "recommend", "execute", "42", "-f", "json")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found or already executed")
}

func TestParsePrices(t *testing.T) {
	got, err := parsePrices([]string{"btc=64000.5", "INFY=1500"})
	require.NoError(t, err)
	assert.Equal(t, "64000.5", got["BTC"].String())
	assert.Equal(t, "1500", got["INFY"].String())

	_, err = parsePrices([]string{"BTC"})
	assert.Error(t, err)
}
