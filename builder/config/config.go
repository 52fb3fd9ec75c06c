// Package config loads aksara.yaml and the flags shared by every
// subcommand.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/Kush-Singh-26/aksara/builder/models"
)

// DefaultConfigFile is read when no -config flag is given.
const DefaultConfigFile = "aksara.yaml"

// Config contains all tunable engine, cache and server parameters
// These can be overridden via aksara.yaml
type Config struct {
	// Sources. An empty Catalog uses the embedded catalog; an empty
	// DictionaryDir uses the embedded word lists.
	Catalog        string         `yaml:"catalog"`
	DictionaryDir  string         `yaml:"dictionaryDir"`
	DefaultVariant models.Variant `yaml:"defaultVariant"`
	StrictStages   bool           `yaml:"strictStages"` // Fail on stage re-entry instead of warning

	// Cache
	CacheDir       string        `yaml:"cacheDir"`
	NoCache        bool          `yaml:"noCache"`
	CacheDBTimeout time.Duration `yaml:"cacheDBTimeout"` // BoltDB timeout (default: 10s)

	// Batch conversion
	Workers     int  `yaml:"workers"`     // Parallel document workers (default: NumCPU)
	MinifyHTML  bool `yaml:"minifyHTML"`  // Minify rendered documents
	MaxFileSize int  `yaml:"maxFileSize"` // Max document size to load in memory (default: 16MB)

	// Server
	Addr             string        `yaml:"addr"`
	MaxRequestBytes  int64         `yaml:"maxRequestBytes"`  // Request body limit (default: 1MB)
	ShutdownTimeout  time.Duration `yaml:"shutdownTimeout"`  // Server shutdown timeout (default: 5s)
	DebounceDuration time.Duration `yaml:"debounceDuration"` // Reload debounce (default: 500ms)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultVariant: models.DefaultVariant,

		CacheDir:       ".aksara-cache",
		CacheDBTimeout: 10 * time.Second,

		Workers:     runtime.NumCPU(),
		MaxFileSize: 16 * 1024 * 1024, // 16MB

		Addr:             "localhost:2604",
		MaxRequestBytes:  1 << 20,
		ShutdownTimeout:  5 * time.Second,
		DebounceDuration: 500 * time.Millisecond,
	}
}

// LoadConfig reads path from fsys over the defaults. A missing file yields
// the defaults. Relative catalog, dictionary and cache paths are resolved
// against the directory of the file.
func LoadConfig(fsys afero.Fs, path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	cfg.Catalog = resolve(dir, cfg.Catalog)
	cfg.DictionaryDir = resolve(dir, cfg.DictionaryDir)
	cfg.CacheDir = resolve(dir, cfg.CacheDir)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) || dir == "." {
		return p
	}
	return filepath.Join(dir, p)
}

// validate rejects unknown variants and clamps values to reasonable bounds
func (c *Config) validate() error {
	v, err := models.ParseVariant(string(c.DefaultVariant))
	if err != nil {
		return err
	}
	c.DefaultVariant = v

	// Workers
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.Workers > 256 {
		c.Workers = 256
	}
	if c.MaxFileSize < 1024 {
		c.MaxFileSize = 1024
	}
	if c.MaxFileSize > 500*1024*1024 {
		c.MaxFileSize = 500 * 1024 * 1024 // Maximum 500MB
	}

	// Server
	if c.Addr == "" {
		c.Addr = "localhost:2604"
	}
	if c.MaxRequestBytes < 1024 {
		c.MaxRequestBytes = 1024
	}

	// Timeouts
	if c.ShutdownTimeout < 1*time.Second {
		c.ShutdownTimeout = 1 * time.Second
	}
	if c.ShutdownTimeout > 60*time.Second {
		c.ShutdownTimeout = 60 * time.Second
	}
	if c.DebounceDuration < 10*time.Millisecond {
		c.DebounceDuration = 10 * time.Millisecond
	}
	if c.DebounceDuration > 5*time.Second {
		c.DebounceDuration = 5 * time.Second
	}
	if c.CacheDBTimeout < 1*time.Second {
		c.CacheDBTimeout = 1 * time.Second
	}
	return nil
}

// Flags are the options every subcommand accepts.
type Flags struct {
	ConfigPath string
	Variant    string
}

// AddFlags registers -config and -variant on fs.
func AddFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.ConfigPath, "config", DefaultConfigFile, "Path to aksara.yaml")
	fs.StringVar(&f.Variant, "variant", "", "Language variant (indonesia, jawa, sunda, madura)")
	return f
}

// Load reads the selected config file and resolves the variant: the
// -variant flag wins over defaultVariant.
func (f *Flags) Load(fsys afero.Fs) (*Config, models.Variant, error) {
	cfg, err := LoadConfig(fsys, f.ConfigPath)
	if err != nil {
		return nil, "", err
	}
	if f.Variant == "" {
		return cfg, cfg.DefaultVariant, nil
	}
	v, err := models.ParseVariant(f.Variant)
	if err != nil {
		return nil, "", err
	}
	return cfg, v, nil
}
