package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeKeepsDefaultsForZeroFields(t *testing.T) {
	t.Parallel()

	raw := []byte(`
logging:
  level: debug
database:
  dsn: postgres://herald@localhost/herald
  queryTimeout: 3s
scheduler:
  weeklyHerald:
    startHour: 8
    endHour: 10
sendfox:
  lists:
    weekly: "101"
intelligence:
  highPriorityThreshold: 5
`)

	override, err := Parse(raw)
	require.NoError(t, err)

	cfg := Merge(override)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "postgres://herald@localhost/herald", cfg.Database.DSN)
	assert.Equal(t, 3*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, 8, cfg.Scheduler.WeeklyHerald.StartHour)
	assert.Equal(t, 10, cfg.Scheduler.WeeklyHerald.EndHour)
	assert.Equal(t, "friday", cfg.Scheduler.WeeklyHerald.Weekday)
	assert.Equal(t, 7, cfg.Scheduler.DailyResearch.StartHour)
	assert.Equal(t, "101", cfg.SendFox.Lists["weekly"])
	assert.Equal(t, 5, cfg.Intelligence.HighPriorityThreshold)
	assert.Equal(t, 48*time.Hour, cfg.Intelligence.UrgentEventWindow)
	assert.Equal(t, 150, cfg.Content.SummaryMaxChars)
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "herald.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  model: file-model\n"), 0o600))

	t.Setenv(configPathEnv, path)
	t.Setenv(llmModelEnv, "env-model")
	t.Setenv(databaseDSNEnv, MemoryDSN)

	cfg := Load()

	assert.Equal(t, "env-model", cfg.LLM.Model)
	assert.Equal(t, MemoryDSN, cfg.Database.DSN)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
}

func TestLoadFallsBackOnUnparsableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging: [unterminated"), 0o600))

	t.Setenv(configPathEnv, path)

	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 14, cfg.Content.EventWindowDays)
}
