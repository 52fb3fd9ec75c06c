package server

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/aksara/builder/config"
	"github.com/Kush-Singh-26/aksara/builder/services"
	"github.com/Kush-Singh-26/aksara/internal/app"
	"github.com/Kush-Singh-26/aksara/internal/watch"
)

// BuildFunc creates a fresh engine; it runs at startup and on every reload.
type BuildFunc func() (services.Engine, error)

// Server answers transliteration requests over HTTP. The engine behind it
// can be swapped while requests are in flight.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	build  BuildFunc

	mu     sync.RWMutex
	engine services.Engine

	clientMu  sync.Mutex
	clients   map[chan string]struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New builds the first engine and fails if it cannot.
func New(cfg *config.Config, build BuildFunc, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	engine, err := build()
	if err != nil {
		return nil, fmt.Errorf("failed to build engine: %w", err)
	}
	return &Server{
		cfg:     cfg,
		logger:  logger,
		build:   build,
		engine:  engine,
		clients: make(map[chan string]struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Engine returns the engine currently serving requests.
func (s *Server) Engine() services.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// Reload builds a new engine and swaps it in. On failure the old engine
// keeps serving.
func (s *Server) Reload() error {
	start := time.Now()
	engine, err := s.build()
	if err != nil {
		s.logger.Error("Reload failed, keeping the current engine", "error", err)
		return fmt.Errorf("failed to rebuild engine: %w", err)
	}

	s.mu.Lock()
	s.engine = engine
	s.mu.Unlock()

	fp := engine.Info().Fingerprint
	s.logger.Info("Engine reloaded", "fingerprint", fp, "duration", time.Since(start))
	s.broadcastReload(fp)
	return nil
}

// Close ends open event streams.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	api := func(h http.HandlerFunc) http.Handler {
		return gzipHandler(h)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /transliterate", api(s.handleTransliterate))
	mux.Handle("POST /stem", api(s.handleStem))
	mux.Handle("POST /ime", api(s.handleIME))
	mux.Handle("GET /healthz", api(s.handleHealth))
	// Event streams are flushed per event and never compressed.
	mux.HandleFunc("GET /events", s.handleEvents)
	return mux
}

// listenAddr applies -host and -port over the configured address.
func listenAddr(configured, host, port string) string {
	h, p, err := net.SplitHostPort(configured)
	if err != nil {
		h, p = "localhost", "2604"
	}
	if host != "" {
		h = host
	}
	if port != "" {
		p = port
	}
	return net.JoinHostPort(h, p)
}

// Run starts the server and blocks until ctx is cancelled.
func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	flags := app.AddFlags(fs)
	host := fs.String("host", "", "The host/IP to bind to (default from config)")
	port := fs.String("port", "", "The port to listen on (default from config)")
	watchFiles := fs.Bool("watch", false, "Reload when the catalog or word lists change")
	if err := fs.Parse(args); err != nil {
		return err
	}

	env, err := flags.Open(afero.NewOsFs())
	if err != nil {
		return err
	}
	defer env.Close()
	cfg, logger := env.Config, env.Logger

	build := func() (services.Engine, error) {
		e, err := env.Build()
		if err != nil {
			return nil, err
		}
		if err := services.Warm(e); err != nil {
			return nil, err
		}
		return e, nil
	}
	srv, err := New(cfg, build, logger)
	if err != nil {
		return err
	}

	if *watchFiles {
		w, err := watch.New([]string{cfg.Catalog, cfg.DictionaryDir}, cfg.DebounceDuration, logger, func(ev watch.Event) {
			logger.Info("Change detected", "path", ev.Name)
			_ = srv.Reload()
		})
		if err != nil {
			logger.Warn("Failed to create file watcher", "error", err)
		} else if len(w.Paths()) == 0 {
			logger.Warn("Nothing to watch: catalog and word lists are embedded")
		} else {
			go w.Run(ctx)
		}
	}

	ln, err := net.Listen("tcp", listenAddr(cfg.Addr, *host, *port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	httpServer := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		fmt.Println("\n🛑 Shutting down HTTP server...")
		srv.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP server shutdown error", "error", err)
		}
	}()

	fmt.Printf("🌐 Serving on http://%s (default variant: %s)\n", ln.Addr(), cfg.DefaultVariant)
	if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-stopped
	fmt.Println("✅ Server stopped.")
	return nil
}
