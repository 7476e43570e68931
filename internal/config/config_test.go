package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/githarvest/git-harvest/internal/config"
)

func TestLoadExplicitPathMissing(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))

	// An explicit path that does not exist is an error.
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
harvest:
  workers: 4
  order: author-date
  strict: true
  paths:
    - src/
report:
  format: yaml
  max_rows: 5
checkpoint:
  enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Harvest.Workers)
	assert.Equal(t, "author-date", cfg.Harvest.Order)
	assert.True(t, cfg.Harvest.Strict)
	assert.Equal(t, []string{"src/"}, cfg.Harvest.Paths)
	assert.Equal(t, "yaml", cfg.Report.Format)
	assert.Equal(t, 5, cfg.Report.MaxRows)
	assert.True(t, cfg.Checkpoint.Enabled)
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	require.NoError(t, os.WriteFile(path, []byte("harvest:\n  workers: 2\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultOrder, cfg.Harvest.Order)
	assert.Equal(t, config.DefaultReportFormat, cfg.Report.Format)
	assert.Equal(t, config.DefaultReportMaxRows, cfg.Report.MaxRows)
	assert.False(t, cfg.Checkpoint.Enabled)
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			Harvest: config.HarvestConfig{},
			Report:  config.ReportConfig{Format: "text", MaxRows: 10},
		}
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Harvest.Workers = -1
	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidWorkers)

	cfg = valid()
	cfg.Harvest.Limit = -1
	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidLimit)

	cfg = valid()
	cfg.Report.Format = "csv"
	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidFormat)

	cfg = valid()
	cfg.Report.MaxRows = 0
	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidMaxRows)
}

func TestLoadInvalidConfigFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	require.NoError(t, os.WriteFile(path, []byte("report:\n  format: csv\n"), 0o644))

	_, err := config.Load(path)
	require.ErrorIs(t, err, config.ErrInvalidFormat)
}
