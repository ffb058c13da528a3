package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `
app:
  port: 9000
analysis:
  base_url: http://scorer:8000
  timeout: 3s
redis:
  enabled: true
  host: redis
  port: 6380
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.App.Port)
	assert.Equal(t, "kifu", cfg.App.Name)
	assert.Equal(t, "http://scorer:8000", cfg.Analysis.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Analysis.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Analysis.ImageTimeout)
	assert.Equal(t, 200, cfg.Game.UndoLimit)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr())
	assert.False(t, cfg.Database.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "config.yaml", "app:\n  port: 9000\n")

	t.Setenv("KIFU_PORT", "9100")
	t.Setenv("ANALYSIS_BASE_URL", "http://other:1234")
	t.Setenv("ANALYSIS_TIMEOUT", "750ms")
	t.Setenv("NATS_ENABLED", "true")
	t.Setenv("POSTGRES_PORT", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.App.Port)
	assert.Equal(t, "http://other:1234", cfg.Analysis.BaseURL)
	assert.Equal(t, 750*time.Millisecond, cfg.Analysis.Timeout)
	assert.True(t, cfg.NATS.Enabled)
	assert.Equal(t, 0, cfg.Database.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	c := DatabaseConfig{User: "u", Password: "p", Host: "db", Port: 5432, Name: "kifu"}
	assert.Equal(t, "postgres://u:p@db:5432/kifu?sslmode=disable", c.DSN())
}

func TestParseRulePresets(t *testing.T) {
	presets, err := ParseRulePresets([]byte(`
presets:
  nashi:
    aka: false
  riichi-ankan:
    allow_riichi_ankan: true
`))
	require.NoError(t, err)

	require.Contains(t, presets, "default")
	assert.True(t, presets["default"].Aka)

	nashi := presets["nashi"]
	assert.False(t, nashi.Aka)
	assert.Equal(t, 25000, nashi.StartPoints)
	assert.True(t, nashi.RiichiDiscardRefund)

	assert.True(t, presets["riichi-ankan"].AllowRiichiAnkan)
	assert.True(t, presets["riichi-ankan"].Aka)
}

func TestParseRulePresets_Invalid(t *testing.T) {
	_, err := ParseRulePresets([]byte("presets:\n  bad:\n    start_points: 0\n"))
	assert.Error(t, err)

	_, err = ParseRulePresets([]byte("presets: [1, 2"))
	assert.Error(t, err)
}

func TestLoadRulePresets_ShippedFile(t *testing.T) {
	presets, err := LoadRulePresets(filepath.Join("..", "..", "configs", "rules.yaml"))
	require.NoError(t, err)
	assert.Contains(t, presets, "nashi")
	assert.Equal(t, 30000, presets["short"].StartPoints)
}
