// Package solverconfig loads solver defaults from a TOML file (spec
// SPEC_FULL §5), so deployments can tune search behavior without
// recompiling: time budget, parallelism, the random seed used for
// reproducible portfolio restarts, a logic-selector label, and a debug
// toggle. Mirrors pkg/csp's own Config/DefaultConfig struct pattern.
package solverconfig

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Logic names the theory the assembled model is solved under. It is
// informational only in this backend (there is one finite-domain solver,
// not a choice of decision procedures), but it is carried through so a
// config file written against a richer backend still loads cleanly.
type Logic string

const (
	// LogicQFLIA is quantifier-free linear integer arithmetic: plain
	// satisfiability, no declared objectives.
	LogicQFLIA Logic = "qf_lia"
	// LogicOptimize is QF_LIA plus an optimization search over one or
	// more declared objectives.
	LogicOptimize Logic = "optimize"
)

// Config is the decoded shape of a solver.toml file.
type Config struct {
	MaxTimeSeconds int    `toml:"max_time_seconds"`
	Parallel       int    `toml:"parallel"`
	RandomSeed     int64  `toml:"random_seed"`
	Logic          Logic  `toml:"logic"`
	Debug          bool   `toml:"debug"`
	WorkStealing   bool   `toml:"work_stealing"`
}

// DefaultConfig returns the conservative defaults used when no config file
// is supplied: a single-threaded, deterministic, short-budget search.
func DefaultConfig() *Config {
	return &Config{
		MaxTimeSeconds: 30,
		Parallel:       1,
		RandomSeed:     42,
		Logic:          LogicQFLIA,
		Debug:          false,
	}
}

// Load reads and decodes a solver.toml file at path, filling in
// DefaultConfig's values for any field the file omits.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("solverconfig: decoding %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("solverconfig: %s has unknown keys: %v", path, undecoded)
	}
	if cfg.MaxTimeSeconds < 0 {
		return nil, fmt.Errorf("solverconfig: %s: max_time_seconds must be >= 0", path)
	}
	if cfg.Parallel < 1 {
		return nil, fmt.Errorf("solverconfig: %s: parallel must be >= 1", path)
	}
	return cfg, nil
}

// MaxTime converts the config's second-granularity budget to a
// time.Duration, for direct use against a context deadline or a solver
// option's time-limit parameter.
func (c *Config) MaxTime() time.Duration {
	return time.Duration(c.MaxTimeSeconds) * time.Second
}
