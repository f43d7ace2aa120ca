package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeTempConfig(t, `
iterationRounds: 5
schemaMode: auto
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.IterationRounds)
	assert.Equal(t, SchemaModeAuto, cfg.SchemaMode)
	assert.Equal(t, 30000, cfg.ExecutorDeadlineMs)
}

func TestConfig_ExecutorDeadline(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 30*time.Second, cfg.ExecutorDeadline())

	cfg.ExecutorDeadlineMs = 500
	assert.Equal(t, 500*time.Millisecond, cfg.ExecutorDeadline())

	cfg.ExecutorDeadlineMs = 0
	assert.Equal(t, 30*time.Second, cfg.ExecutorDeadline())
}

func TestLoad_UnknownKeyFails(t *testing.T) {
	path := writeTempConfig(t, `
iterationRounds: 3
bogusKey: true
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_PredefinedRequiresSchema(t *testing.T) {
	path := writeTempConfig(t, `
schemaMode: predefined
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnvOverrides([]string{"PARSEFORGE_LLM_API_KEY=secret", "PARSEFORGE_BATCH_WORKERS=4", "IRRELEVANT=1"})
	assert.Equal(t, "secret", cfg.LLM.APIKey)
	assert.Equal(t, 4, cfg.BatchWorkers)
}

func TestValidate_IterationRoundsBelowOneFails(t *testing.T) {
	cfg := Default()
	cfg.IterationRounds = 0
	require.Error(t, cfg.Validate())
}
