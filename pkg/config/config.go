// Package config loads engine configuration: embedded defaults, an optional
// gonda.toml, then GONDA_ environment variables, each layer overriding the
// previous one.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/gonda/pkg/errors"
	"github.com/arthur-debert/gonda/pkg/logging"
)

// Config is the engine's runtime configuration.
type Config struct {
	// Channels lists the channels to solve against, highest priority first.
	Channels []string `koanf:"channels"`

	Solver SolverConfig `koanf:"solver"`
	Link   LinkConfig   `koanf:"link"`
	Cache  CacheConfig  `koanf:"cache"`
}

// SolverConfig bounds the dependency resolver.
type SolverConfig struct {
	// TimeoutSeconds caps one solve; zero means no limit.
	TimeoutSeconds int `koanf:"timeout_seconds"`
}

// Timeout returns the solve timeout as a duration.
func (c SolverConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LinkConfig bounds the linker.
type LinkConfig struct {
	// Concurrency is the per-package file placement worker limit.
	Concurrency int `koanf:"concurrency"`
}

// CacheConfig locates the local caches.
type CacheConfig struct {
	// Dir is the cache root; defaults to the XDG cache directory.
	Dir string `koanf:"dir"`
}

// RecordDBPath returns the path of the repodata cache database.
func (c CacheConfig) RecordDBPath() string {
	return filepath.Join(c.Dir, "repodata.db")
}

// PackagesDir returns the directory holding extracted package contents.
func (c CacheConfig) PackagesDir() string {
	return filepath.Join(c.Dir, "pkgs")
}

// Load builds the configuration. File layers are searched in order: the XDG
// config file, then .gonda.toml and gonda.toml under dir (usually the
// working directory). Environment variables use the GONDA_ prefix with "__"
// as the section separator, e.g. GONDA_SOLVER__TIMEOUT_SECONDS=300.
func Load(dir string) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "loading built-in defaults")
	}

	for _, path := range configFilePaths(dir) {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "loading %s", path)
		}
		logger.Debug().Str("path", path).Msg("loaded config file")
	}

	if err := k.Load(env.Provider("GONDA_", ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "loading environment overrides")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "decoding configuration")
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func configFilePaths(dir string) []string {
	paths := []string{filepath.Join(xdg.ConfigHome, "gonda", "gonda.toml")}
	if dir != "" {
		paths = append(paths,
			filepath.Join(dir, ".gonda.toml"),
			filepath.Join(dir, "gonda.toml"),
		)
	}
	return paths
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, "GONDA_"))
	return strings.ReplaceAll(key, "__", ".")
}

func applyDefaults(cfg *Config) {
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = filepath.Join(xdg.CacheHome, "gonda")
	}
	if cfg.Link.Concurrency < 1 {
		cfg.Link.Concurrency = 8
	}
	if cfg.Solver.TimeoutSeconds < 0 {
		cfg.Solver.TimeoutSeconds = 0
	}
}
