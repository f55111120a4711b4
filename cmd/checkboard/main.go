package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/checkboard/internal/adapters/http/api"
	"github.com/okian/checkboard/internal/adapters/http/middleware"
	"github.com/okian/checkboard/internal/adapters/http/site"
	"github.com/okian/checkboard/internal/adapters/http/swagger"
	"github.com/okian/checkboard/internal/adapters/remote"
	"github.com/okian/checkboard/internal/adapters/repository"
	app "github.com/okian/checkboard/internal/app"
	"github.com/okian/checkboard/internal/config"
	"github.com/okian/checkboard/pkg/logger"
	"github.com/okian/checkboard/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, nil); err != nil {
		// The logger may not be available yet.
		_, _ = os.Stderr.WriteString("checkboard: " + err.Error() + "\n")
		os.Exit(1)
	}
}

// run loads configuration, wires the backend, service and routes, and serves
// until ctx is cancelled. When ready is non-nil the bound address is sent on
// it once the listener is up.
func run(ctx context.Context, ready chan<- net.Addr) error {
	// Load configuration (dotenv -> defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	client, closeBackend, err := newBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeBackend.Close(); err != nil {
			log.Error(ctx, "closing backend failed", logger.Error(err))
		}
	}()

	svc := app.New(client,
		app.WithLogger(logger.Named("app")),
		app.WithViewCacheSize(cfg.ViewCacheSize),
		app.WithFallbackDisplayName(cfg.FallbackDisplayName),
		app.WithBackendTimeout(cfg.BackendTimeout()),
	)

	handler, err := newHandler(ctx, cfg, svc)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	if ready != nil {
		ready <- ln.Addr()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(gctx, "starting HTTP server",
			logger.String("addr", ln.Addr().String()),
			logger.String("backend", cfg.Backend),
		)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		startSystemMetricsUpdater(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server...")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		log.Info(context.Background(), "server stopped")
		return nil
	})

	return g.Wait()
}

// newBackend builds the remote client selected by cfg. The returned closer
// releases the backend's resources.
func newBackend(ctx context.Context, cfg *config.Config) (remote.Client, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendREST:
		client := remote.NewRESTClient(cfg.RESTURL, cfg.RESTAPIKey, remote.WithTimeout(cfg.BackendTimeout()))
		return client, closerFunc(func() error { return nil }), nil
	default:
		store, err := repository.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("migrate database: %w", err)
		}
		return store, store, nil
	}
}

// sqlSignInHint tells developers how to get past the stub with the SQL backend.
const sqlSignInHint = "Developers: run go run ./cmd/issue-session -name <name> and set the printed cookie in your browser."

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// newHandler registers the site and operational routes and wraps them with
// request logging.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service) (http.Handler, error) {
	mux := http.NewServeMux()

	apiServer := api.NewServer(svc)
	apiServer.Register(ctx, mux)
	swagger.Register(ctx, mux)

	siteOpts := []site.Option{
		site.WithLogger(logger.Named("site")),
		site.WithSessionCookie(cfg.SessionCookie),
		site.WithPostSignInPath(cfg.PostSignInPath),
	}
	if cfg.Backend == config.BackendSQL {
		siteOpts = append(siteOpts, site.WithSignInHint(sqlSignInHint))
	}
	if key := cfg.CSRFKeyBytes(); key != nil {
		siteOpts = append(siteOpts, site.WithCSRF(key, cfg.CSRFSecure))
	}
	pages, err := site.New(svc, siteOpts...)
	if err != nil {
		return nil, fmt.Errorf("build site: %w", err)
	}
	pages.Register(ctx, mux)

	return middleware.Logging(mux, logger.Named("http")), nil
}

// startSystemMetricsUpdater updates system metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		// Average GC pause time
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
