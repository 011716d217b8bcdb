package solverconfig_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/procscheduler/goscheduler/pkg/solverconfig"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := solverconfig.DefaultConfig()
	require.Equal(t, 30, cfg.MaxTimeSeconds)
	require.Equal(t, 1, cfg.Parallel)
	require.Equal(t, int64(42), cfg.RandomSeed)
	require.Equal(t, solverconfig.LogicQFLIA, cfg.Logic)
	require.False(t, cfg.Debug)
	require.False(t, cfg.WorkStealing)
}

func TestMaxTime(t *testing.T) {
	cfg := &solverconfig.Config{MaxTimeSeconds: 5}
	require.Equal(t, 5*time.Second, cfg.MaxTime())
}

func TestLoadFillsOmittedFieldsFromDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "solver.toml")
	writeFile(t, path, "max_time_seconds = 5\n")

	cfg, err := solverconfig.Load(path)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.MaxTimeSeconds)
	require.Equal(t, 1, cfg.Parallel)
	require.Equal(t, int64(42), cfg.RandomSeed)
}

func TestLoadOverridesAllFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "solver.toml")
	writeFile(t, path, `
max_time_seconds = 120
parallel = 4
random_seed = 7
logic = "optimize"
debug = true
work_stealing = true
`)

	cfg, err := solverconfig.Load(path)
	require.NoError(t, err)
	require.Equal(t, 120, cfg.MaxTimeSeconds)
	require.Equal(t, 4, cfg.Parallel)
	require.Equal(t, int64(7), cfg.RandomSeed)
	require.Equal(t, solverconfig.LogicOptimize, cfg.Logic)
	require.True(t, cfg.Debug)
	require.True(t, cfg.WorkStealing)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := solverconfig.Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.Error(t, err)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "solver.toml")
	writeFile(t, path, "bogus_key = 1\n")

	_, err := solverconfig.Load(path)
	require.Error(t, err)
}

func TestLoadRejectsNegativeMaxTime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "solver.toml")
	writeFile(t, path, "max_time_seconds = -1\n")

	_, err := solverconfig.Load(path)
	require.Error(t, err)
}

func TestLoadRejectsZeroParallel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "solver.toml")
	writeFile(t, path, "parallel = 0\n")

	_, err := solverconfig.Load(path)
	require.Error(t, err)
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}
