// Package config loads layered runtime configuration: TOML file defaults,
// environment variable overrides, then command-line flags, in that order
// of increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "DOCSTAGE_"

// Server holds HTTP bind settings.
type Server struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Docs holds documentation source and cache settings.
type Docs struct {
	SourceDir    string `toml:"source_dir"`
	CacheDir     string `toml:"cache_dir"`
	CacheEnabled bool   `toml:"cache_enabled"`
}

// Diagrams holds Kroki and PlantUML preprocessing settings.
type Diagrams struct {
	KrokiURL    string   `toml:"kroki_url"`
	IncludeDirs []string `toml:"include_dirs"`
	ConfigFile  string   `toml:"config_file"`
	DPI         uint32   `toml:"dpi"`
}

// LiveReload holds watcher settings.
type LiveReload struct {
	Enabled       bool     `toml:"enabled"`
	WatchPatterns []string `toml:"watch_patterns"`
}

// Metadata holds sidecar file naming.
type Metadata struct {
	Name string `toml:"name"`
}

// Config is the full layered configuration, decoded from TOML and then
// overridden by environment variables and flags.
type Config struct {
	Server     Server     `toml:"server"`
	Docs       Docs       `toml:"docs"`
	Diagrams   Diagrams   `toml:"diagrams"`
	LiveReload LiveReload `toml:"live_reload"`
	Metadata   Metadata   `toml:"metadata"`

	// ConfigFile is the path this Config was loaded from, if any. Relative
	// paths in Docs/Diagrams are resolved against its directory.
	ConfigFile string `toml:"-"`
	Verbose    bool   `toml:"-"`
}

// Default returns ready-to-use defaults prior to file/env/flag overrides.
func Default() Config {
	return Config{
		Server: Server{Host: "127.0.0.1", Port: 8080},
		Docs:   Docs{SourceDir: "./docs", CacheDir: "./.cache", CacheEnabled: true},
		Diagrams: Diagrams{
			DPI: 192,
		},
		LiveReload: LiveReload{Enabled: true, WatchPatterns: []string{"**/*.md"}},
		Metadata:   Metadata{Name: "meta.yaml"},
	}
}

// Load reads path as TOML into a Default()-seeded Config. A missing file is
// not an error: the defaults are returned unchanged. Load sets ConfigFile
// so Finalize can resolve relative paths against the file's directory.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied, not derived from request input
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ConfigFile = path
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.ConfigFile = path
	return cfg, nil
}

// RegisterFlags attaches configuration flags to fs, each overriding the
// corresponding field in cfg when set.
func RegisterFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Server.Host, "host", cfg.Server.Host, "bind address for the HTTP server")
	fs.IntVarP(&cfg.Server.Port, "port", "p", cfg.Server.Port, "port to bind the HTTP server")
	fs.StringVarP(&cfg.Docs.SourceDir, "source", "s", cfg.Docs.SourceDir, "documentation source directory")
	fs.StringVar(&cfg.Docs.CacheDir, "cache-dir", cfg.Docs.CacheDir, "cache root directory")
	fs.BoolVar(&cfg.Docs.CacheEnabled, "cache", cfg.Docs.CacheEnabled, "enable the persistent page/diagram cache")
	fs.StringVar(&cfg.Diagrams.KrokiURL, "kroki-url", cfg.Diagrams.KrokiURL, "Kroki server base URL (empty disables diagram rendering)")
	fs.StringSliceVar(&cfg.Diagrams.IncludeDirs, "diagram-include-dir", cfg.Diagrams.IncludeDirs, "PlantUML !include search directories")
	fs.StringVar(&cfg.Diagrams.ConfigFile, "diagram-config-file", cfg.Diagrams.ConfigFile, "PlantUML config file to inject into diagrams")
	fs.Uint32Var(&cfg.Diagrams.DPI, "diagram-dpi", cfg.Diagrams.DPI, "diagram rendering DPI")
	fs.BoolVar(&cfg.LiveReload.Enabled, "live-reload", cfg.LiveReload.Enabled, "enable the live-reload watcher")
	fs.StringVar(&cfg.Metadata.Name, "meta-filename", cfg.Metadata.Name, "sidecar metadata filename")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "enable verbose logging")
}

// ApplyEnvOverrides reads DOCSTAGE_-prefixed environment variables and
// overrides cfg in place. Flags, applied afterward by the caller via
// pflag.Parse, take final precedence.
func ApplyEnvOverrides(cfg *Config) {
	applyStringEnv("SERVER_HOST", func(v string) { cfg.Server.Host = v })
	applyIntEnv("SERVER_PORT", func(v int) { cfg.Server.Port = v })
	applyStringEnv("DOCS_SOURCE_DIR", func(v string) { cfg.Docs.SourceDir = v })
	applyStringEnv("DOCS_CACHE_DIR", func(v string) { cfg.Docs.CacheDir = v })
	applyBoolEnv("DOCS_CACHE_ENABLED", func(v bool) { cfg.Docs.CacheEnabled = v })
	applyStringEnv("DIAGRAMS_KROKI_URL", func(v string) { cfg.Diagrams.KrokiURL = v })
	applyStringEnv("DIAGRAMS_CONFIG_FILE", func(v string) { cfg.Diagrams.ConfigFile = v })
	applyBoolEnv("LIVE_RELOAD_ENABLED", func(v bool) { cfg.LiveReload.Enabled = v })
	applyStringEnv("METADATA_NAME", func(v string) { cfg.Metadata.Name = v })
	applyBoolEnv("VERBOSE", func(v bool) { cfg.Verbose = v })
}

func applyStringEnv(key string, apply func(string)) {
	if raw, ok := lookupNonEmpty(key); ok {
		apply(raw)
	}
}

func applyIntEnv(key string, apply func(int)) {
	if raw, ok := lookupNonEmpty(key); ok {
		if value, err := strconv.Atoi(raw); err == nil {
			apply(value)
		}
	}
}

func applyBoolEnv(key string, apply func(bool)) {
	if raw, ok := lookupNonEmpty(key); ok {
		if value, err := strconv.ParseBool(raw); err == nil {
			apply(value)
		}
	}
}

func lookupNonEmpty(key string) (string, bool) {
	raw, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return "", false
	}
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", false
	}
	return value, true
}

// Finalize validates the config and resolves every relative path (source
// dir, cache dir, diagram include dirs) against the
// config file's directory, or the working directory if Config wasn't
// loaded from a file.
func Finalize(cfg *Config) error {
	base := "."
	if cfg.ConfigFile != "" {
		base = filepath.Dir(cfg.ConfigFile)
	}

	resolved, err := resolvePath(base, cfg.Docs.SourceDir)
	if err != nil {
		return fmt.Errorf("resolve docs.source_dir: %w", err)
	}
	cfg.Docs.SourceDir = resolved

	resolved, err = resolvePath(base, cfg.Docs.CacheDir)
	if err != nil {
		return fmt.Errorf("resolve docs.cache_dir: %w", err)
	}
	cfg.Docs.CacheDir = resolved

	for i, dir := range cfg.Diagrams.IncludeDirs {
		resolved, err := resolvePath(base, dir)
		if err != nil {
			return fmt.Errorf("resolve diagrams.include_dirs[%d]: %w", i, err)
		}
		cfg.Diagrams.IncludeDirs[i] = resolved
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", cfg.Server.Port)
	}
	if cfg.Diagrams.DPI == 0 {
		cfg.Diagrams.DPI = 192
	}
	if cfg.Metadata.Name == "" {
		cfg.Metadata.Name = "meta.yaml"
	}

	return nil
}

func resolvePath(base, p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	abs, err := filepath.Abs(filepath.Join(base, p))
	if err != nil {
		return "", err
	}
	return abs, nil
}
