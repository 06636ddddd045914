package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"

	"local-api-proxy/internal/client"
	"local-api-proxy/internal/config"
	"local-api-proxy/internal/handler"
	"local-api-proxy/internal/metrics"
	"local-api-proxy/internal/middleware"
	"local-api-proxy/internal/service"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var cli config.CLI
	kong.Parse(&cli,
		kong.Name("local-api-proxy"),
		kong.Description("Serves a static site and forwards /api/ to a local model server."),
		kong.Vars{"version": fmt.Sprintf("%s (%s, %s)", version, commit, date)},
	)

	fx.New(
		fx.Provide(
			func() *config.CLI { return &cli },
			func() handler.Version { return handler.Version(version) },
			config.Load,
			newLevelVar,
			newLogger,
			newMetrics,
			newEcho,
			client.NewBackendClient,
			service.NewProxyService,
			handler.NewProxyHandler,
			handler.NewIntrospectionHandler,
			handler.NewStaticHandler,
		),
		fx.Invoke(handler.RegisterRoutes, handler.RegisterMetrics, warnConfigPermissions, watchConfig, startServer),
	).Run()
}

func newLevelVar(cfg *config.Config) *slog.LevelVar {
	lv := new(slog.LevelVar)
	lv.Set(cfg.Log.SlogLevel())
	return lv
}

func newLogger(cfg *config.Config, lv *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: lv}

	var h slog.Handler
	switch strings.ToLower(cfg.Log.Format) {
	case "text":
		h = slog.NewTextHandler(os.Stdout, opts)
	default:
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(h)
}

func newMetrics(cfg *config.Config) *metrics.Metrics {
	return metrics.New(cfg.Routes.ProxyPrefix, cfg.Routes.IntrospectionPrefix, cfg.Metrics.Path)
}

func newEcho(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = 30 * time.Second
	// Generations stream for as long as the backend keeps producing tokens.
	e.Server.WriteTimeout = 0
	e.Server.IdleTimeout = 120 * time.Second
	e.Server.ReadHeaderTimeout = 10 * time.Second

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(logger.With("component", "http")))
	e.Use(middleware.MetricsMiddleware(m))
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dB", cfg.Server.BodyMaxBytes)))
	e.Use(middleware.SecurityHeaders())

	if cfg.Server.RateLimit.Enabled {
		e.Use(middleware.RateLimit(cfg.Server.RateLimit.RequestsPerSecond, m))
		logger.Info("rate limiter enabled", "rps", cfg.Server.RateLimit.RequestsPerSecond)
	}
	if cfg.Server.MaxConcurrent > 0 {
		e.Use(middleware.ConcurrencyLimit(cfg.Server.MaxConcurrent, m))
		logger.Info("concurrency limit enabled", "max_concurrent", cfg.Server.MaxConcurrent)
	}

	return e
}

func warnConfigPermissions(cfg *config.Config, logger *slog.Logger) {
	cfg.WarnPermissions(logger)
}

// watchConfig reloads log.level from the config file on change. A level given
// on the command line or in LOG_LEVEL stays pinned.
func watchConfig(lc fx.Lifecycle, cli *config.CLI, cfg *config.Config, lv *slog.LevelVar, logger *slog.Logger) {
	if cfg.FilePath() == "" || cli.LogLevel != "" {
		return
	}

	var (
		w      *config.LevelWatcher
		cancel context.CancelFunc
	)
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			var err error
			w, err = config.NewLevelWatcher(cfg.FilePath(), lv, logger)
			if err != nil {
				logger.Warn("config watcher disabled", "err", err)
				return nil
			}
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())
			go w.Run(ctx)
			return nil
		},
		OnStop: func(_ context.Context) error {
			if w == nil {
				return nil
			}
			cancel()
			return w.Close()
		},
	})
}

func startServer(lc fx.Lifecycle, e *echo.Echo, cfg *config.Config, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			addr := cfg.Server.Addr()
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("bind %s: %w", addr, err)
			}
			logger.Info("starting server",
				"addr", addr,
				"upstream", cfg.Upstream.BaseURL,
				"static_root", cfg.Static.Root,
				"config", cfg.FilePath(),
			)
			go func() {
				if err := e.Server.Serve(ln); err != nil && err != http.ErrServerClosed {
					logger.Error("server error", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down server")
			return e.Shutdown(ctx)
		},
	})
}
