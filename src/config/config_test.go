package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsWhenFilesMissing(t *testing.T) {
	cfg, schema, err := LoadConfig(t.TempDir(), "config.json", "dataconfig.json")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, DefaultSchema(), *schema)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigMergesFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{
		"output_dir": "out",
		"mode": "watch",
		"watch_debounce": "500ms"
	}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dataconfig.json"), []byte(`{
		"app_columns": ["A", "B"],
		"rename": {"Col A": "A"}
	}`), 0o644))

	cfg, schema, err := LoadConfig(dir, "config.json", "dataconfig.json")
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, ModeWatch, cfg.Mode)
	assert.Equal(t, 500*time.Millisecond, time.Duration(cfg.WatchDebounce))
	assert.Equal(t, EngineExcelize, cfg.ReaderEngine)

	assert.Equal(t, []string{"A", "B"}, schema.AppColumns)
	assert.Equal(t, "A", schema.Canonical("Col A"))
	assert.Equal(t, "Genero (F/M/O)", schema.Canonical("Genero (F/M/O)"))
	assert.Equal(t, FieldStatus, schema.StatusField)
}

func TestLoadConfigReportsEveryParseError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dataconfig.json"), []byte(`[]`), 0o644))

	_, _, err := LoadConfig(dir, "config.json", "dataconfig.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
	assert.Contains(t, err.Error(), "parse data config")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Mode = "sometimes"
	cfg.ReaderEngine = "csv"
	cfg.OutputDir = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "unknown reader engine")
	assert.Contains(t, err.Error(), "output_dir")

	cfg = Default()
	cfg.Mode = ModeSchedule
	cfg.Schedule = ""
	assert.Error(t, cfg.Validate())

	cfg.Schedule = "every now and then"
	assert.ErrorContains(t, cfg.Validate(), "schedule")

	cfg.Schedule = "@every 30m"
	assert.NoError(t, cfg.Validate())
}

func TestDurationJSON(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"1m30s"`)))
	assert.Equal(t, 90*time.Second, time.Duration(d))

	out, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(out))

	assert.Error(t, d.UnmarshalJSON([]byte(`"soon"`)))
}

func TestOSLabelIgnoresCase(t *testing.T) {
	s := DefaultSchema()
	assert.Equal(t, "iOS", s.OSLabel("IOS"))
	assert.Equal(t, "iOS", s.OSLabel("ios"))
	assert.Equal(t, "Android", s.OSLabel("Android"))
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SURVEY_OUTPUT_DIR=from-dotenv\nSURVEY_MODE=schedule\n"), 0o644))

	t.Setenv("SURVEY_MODE", "watch")
	t.Setenv("SURVEY_INPUT_PATH", "/data/survey.xlsx")
	t.Cleanup(func() { os.Unsetenv("SURVEY_OUTPUT_DIR") })

	cfg := Default()
	require.NoError(t, ApplyEnv(cfg, envFile, filepath.Join(dir, "missing.env")))

	assert.Equal(t, "from-dotenv", cfg.OutputDir)
	assert.Equal(t, ModeWatch, cfg.Mode)
	assert.Equal(t, "/data/survey.xlsx", cfg.InputPath)
	assert.Equal(t, "info", cfg.LogLevel)
}
