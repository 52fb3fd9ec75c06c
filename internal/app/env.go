// Package app wires the configuration, cache and engine that every
// subcommand starts from.
package app

import (
	"flag"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/aksara/builder/config"
	"github.com/Kush-Singh-26/aksara/builder/metrics"
	"github.com/Kush-Singh-26/aksara/builder/models"
	"github.com/Kush-Singh-26/aksara/builder/services"
)

// Flags extends the config flags with the options shared by the commands
// that load an engine.
type Flags struct {
	*config.Flags
	NoCache bool
	Verbose bool
}

// AddFlags registers -config, -variant, -no-cache and -v on fs.
func AddFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{Flags: config.AddFlags(fs)}
	fs.BoolVar(&f.NoCache, "no-cache", false, "Do not read or write the stem and document cache")
	fs.BoolVar(&f.Verbose, "v", false, "Verbose (debug) logging")
	return f
}

// Env is an opened configuration with its engine.
type Env struct {
	Fs      afero.Fs
	Config  *config.Config
	Variant models.Variant
	Engine  services.Engine
	// Cache is nil when caching is disabled or the cache could not be
	// opened.
	Cache   services.CacheService
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Open loads the config selected by f and builds an engine over it. The
// resolved variant becomes the engine default. A cache that cannot be
// opened is logged and skipped.
func (f *Flags) Open(fsys afero.Fs) (*Env, error) {
	if f.Verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
	cfg, v, err := f.Load(fsys)
	if err != nil {
		return nil, err
	}
	cfg.DefaultVariant = v
	if f.NoCache {
		cfg.NoCache = true
	}

	env := &Env{
		Fs:      fsys,
		Config:  cfg,
		Variant: v,
		Metrics: metrics.New(),
		Logger:  slog.Default(),
	}
	if !cfg.NoCache {
		svc, err := services.OpenCache(cfg, env.Logger)
		if err != nil {
			env.Logger.Warn("Cache disabled", "error", err)
		} else {
			env.Cache = svc
		}
	}

	if env.Engine, err = env.Build(); err != nil {
		env.Close()
		return nil, err
	}
	return env, nil
}

// Build creates a fresh engine over the current config files. Variants are
// loaded on first use.
func (e *Env) Build() (services.Engine, error) {
	opts := services.EngineOptions{Logger: e.Logger, Metrics: e.Metrics}
	if e.Cache != nil {
		opts.Store = e.Cache
	}
	return services.NewEngine(e.Config, e.Fs, opts)
}

// Close flushes and closes the cache.
func (e *Env) Close() {
	if e.Cache == nil {
		return
	}
	if err := e.Cache.Close(); err != nil {
		e.Logger.Warn("Failed to close cache", "error", err)
	}
	e.Cache = nil
}
