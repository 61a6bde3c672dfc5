package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/bptracker/bptracker/internal/config"
	"github.com/bptracker/bptracker/internal/domain/reading"
	"github.com/bptracker/bptracker/internal/platform/datetime"
	"github.com/bptracker/bptracker/internal/platform/db"
	"github.com/bptracker/bptracker/internal/platform/metrics"
	"github.com/bptracker/bptracker/internal/platform/middleware"
	"github.com/bptracker/bptracker/migrations"
)

const version = "0.1.0"

// store bundles the configured reading repository with its health probe.
type store struct {
	repo   reading.Repository
	health db.Pinger
	close  func()
}

func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		gdb, err := db.OpenSQLite(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		if err := reading.AutoMigrate(gdb); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return &store{
			repo:   reading.NewRepoGorm(gdb),
			health: db.SQLPinger{DB: sqlDB},
			close:  func() { sqlDB.Close() },
		}, nil
	default:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBSchema, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		return &store{
			repo:   reading.NewRepoPG(pool),
			health: pool,
			close:  pool.Close,
		}, nil
	}
}

// applyMigrations runs the embedded SQL migrations on Postgres. SQLite
// schemas are created when the store opens.
func applyMigrations(ctx context.Context, cfg *config.Config, schema string) (int, error) {
	if cfg.DBDriver == config.DriverSQLite {
		st, err := openStore(ctx, cfg)
		if err != nil {
			return 0, err
		}
		st.close()
		return 0, nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBSchema, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return 0, err
	}
	defer pool.Close()
	return db.NewMigrator(pool, migrations.FS).Up(ctx, schema)
}

func newService(cfg *config.Config, repo reading.Repository, logger zerolog.Logger) (*reading.Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	norm := datetime.New(loc, logger)
	svc := reading.NewService(repo, norm, logger)
	svc.SetWindowDays(cfg.DefaultWindowDays)
	return svc, nil
}

// newServer builds the router. It performs no I/O so tests can drive it
// with httptest.
func newServer(cfg *config.Config, logger zerolog.Logger, svc *reading.Service, health db.Pinger, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(m.Middleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:  []string{"Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{"X-Total-Count", "X-Has-More", echo.HeaderContentDisposition},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(health))
	e.GET("/metrics", m.Handler())

	api := e.Group("/api")
	rl := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rl.Enabled() {
		api.Use(middleware.RateLimit(rl))
	}
	api.Use(middleware.BodyLimit(cfg.BodyLimit))
	api.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	svc.SetRecorder(m)
	reading.NewHandler(svc).RegisterRoutes(api)

	if cfg.WebDir != "" {
		e.Static("/", cfg.WebDir)
	}
	return e
}

func runServer(migrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := newLogger(cfg, os.Stdout)

	ctx := context.Background()
	if migrate {
		n, err := applyMigrations(ctx, cfg, cfg.DBSchema)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info().Int("applied", n).Msg("migrations applied")
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.DBDriver, err)
	}
	defer st.close()
	logger.Info().Str("driver", cfg.DBDriver).Msg("connected to database")

	svc, err := newService(cfg, st.repo, logger)
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}
	m, err := metrics.New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	e := newServer(cfg, logger, svc, st.health, m)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("timezone", cfg.Timezone).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
