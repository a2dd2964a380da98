// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 erpweb contributors
// https://github.com/Ahmad-Ali-mohammad/erp-sub001

// Package app wires configuration, logging and every component into a
// running server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/api"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/api/handlers"
	apimiddleware "github.com/Ahmad-Ali-mohammad/erp-sub001/internal/api/middleware"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/backend"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/cache"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/guides"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/observability"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/pkg/logger"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/resource"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/session"
	"github.com/Ahmad-Ali-mohammad/erp-sub001/internal/web"
)

// apiRequestTimeout bounds the JSON auth endpoints.
const apiRequestTimeout = 30 * time.Second

// Application holds all application dependencies
type Application struct {
	Config *Config
	Logger *logger.Logger
	Server *api.Server

	// Closed on shutdown
	redis     *cache.Client
	telemetry *observability.Provider
}

// Run starts the application with the given configuration file and blocks
// until SIGINT or SIGTERM.
func Run(cfgFile string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.NewFromConfig(cfg.Logging.Level, cfg.Logging.Format, logger.OutputConfig{
		Output:   cfg.Logging.Output,
		FilePath: cfg.Logging.File,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting erpweb",
		"version", Version,
		"commit", Commit,
		"backend", cfg.Backend.BaseURL,
		"log_level", log.Level(),
	)

	app, err := New(ctx, cfg, log)
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- app.Server.Start()
	}()

	log.Info("erpweb started successfully",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			log.Error("HTTP server failed", "error", err)
			_ = app.shutdown(context.Background())
			return err
		}
	}

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.shutdown(shutdownCtx); err != nil {
		log.Error("Error during shutdown", "error", err)
		return err
	}

	log.Info("erpweb stopped gracefully")
	return nil
}

// New builds every component and registers all routes. Nothing listens
// until Server.Start.
func New(ctx context.Context, cfg *Config, log *logger.Logger) (*Application, error) {
	app := &Application{Config: cfg, Logger: log}
	levels := logger.NewComponentLevels(cfg.Logging.Levels)
	leveled := func(component string) *logger.Logger {
		return levels.Leveled(log, component)
	}

	// =========================================================================
	// TELEMETRY (before the backend client so its transport joins spans)
	// =========================================================================

	tp, err := observability.NewProvider(ctx, observability.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	app.telemetry = tp
	if tp.Enabled() {
		log.Info("Tracing enabled", "endpoint", cfg.Telemetry.Endpoint)
	}

	// =========================================================================
	// BACKEND, CACHE AND SESSION
	// =========================================================================

	client := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
	}, leveled("backend"))

	options := app.initOptionsCache(ctx, leveled("cache"))

	cookies := session.CookieConfig{
		AccessName:    cfg.Auth.AccessCookie,
		RefreshName:   cfg.Auth.RefreshCookie,
		AccessMaxAge:  cfg.Auth.AccessMaxAge,
		RefreshMaxAge: cfg.Auth.RefreshMaxAge,
		Secure:        cfg.Auth.CookieSecure,
		SameSite:      parseSameSite(cfg.Auth.CookieSameSite),
		Domain:        cfg.Auth.CookieDomain,
	}
	bridge := session.NewBridge(client, cookies, leveled("session"))
	google := session.NewGoogleSignIn(session.GoogleConfig{
		ClientID:     cfg.Auth.Google.ClientID,
		ClientSecret: cfg.Auth.Google.ClientSecret,
		RedirectURL:  cfg.Auth.Google.RedirectURL,
	}, cookies, leveled("oidc"))
	if google.Enabled() {
		log.Info("Google sign-in enabled", "redirect_url", cfg.Auth.Google.RedirectURL)
	}

	// =========================================================================
	// PAGES
	// =========================================================================

	catalog, err := resource.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load resource catalog: %w", err)
	}
	library, err := guides.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load finance guides: %w", err)
	}

	mw := web.NewMiddleware(bridge, web.MiddlewareConfig{
		SecureCookies:  cfg.Auth.CookieSecure,
		LoginRateLimit: cfg.Auth.LoginRateLimit,
	}, leveled("web"))

	pages := web.NewHandler(web.Deps{
		Backend:    client,
		Bridge:     bridge,
		Google:     google,
		Catalog:    catalog,
		Guides:     library,
		Options:    resource.NewOptionResolver(options, leveled("options")),
		Middleware: mw,
		Logger:     leveled("pages"),
	}, web.Config{
		Version:        Version,
		PageSize:       cfg.UI.PageSize,
		Locale:         cfg.UI.Locale,
		Currency:       cfg.UI.Currency,
		PublishableKey: cfg.Payments.PublishableKey,
	})

	// =========================================================================
	// SERVER
	// =========================================================================

	maxBody := parseSize(cfg.Server.MaxRequestSize, 10<<20)
	routerCfg := api.RouterConfig{
		CORSConfig:     apimiddleware.DefaultCORSConfig(apimiddleware.ParseOrigins(cfg.Server.CORSOrigins)),
		LoginRateLimit: cfg.Auth.LoginRateLimit,
		RequestTimeout: apiRequestTimeout,
		Global: []func(http.Handler) http.Handler{
			mw.RequestID,
			tp.TraceMiddleware(),
			mw.RequestLogger,
		},
		Version: Version,
		Started: time.Now(),
	}

	app.Server = api.NewServer(api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		TLSCert:         cfg.Server.TLS.CertFile,
		TLSKey:          cfg.Server.TLS.KeyFile,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RouterConfig:    routerCfg,
		Logger:          log,
	}, &api.Handlers{
		Auth:  handlers.NewAuthHandler(bridge, leveled("api")),
		Proxy: handlers.NewProxyHandler(client, bridge, maxBody, leveled("api")),
	})
	web.RegisterRoutes(app.Server.Router(), pages, mw)

	log.Info("Routes registered",
		"sections", len(catalog.Sections),
		"pages", len(catalog.Pages()),
		"guides", len(library.Topics()),
	)
	return app, nil
}

// initOptionsCache connects Redis when configured. The option cache is an
// optimisation, so a failed connection falls back to fetching every time.
func (app *Application) initOptionsCache(ctx context.Context, log *logger.Logger) cache.OptionsCache {
	cfg := app.Config.Cache
	if cfg.RedisURL == "" {
		log.Info("Option cache disabled (no cache.redis_url)")
		return cache.Noop{}
	}

	log.Info("Connecting to Redis...")
	rdb, err := cache.New(ctx, cfg.RedisURL, cache.Options{
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err != nil {
		log.Warn("Redis unavailable, option cache disabled", "error", err)
		return cache.Noop{}
	}
	app.redis = rdb
	log.Info("Redis connected", "options_ttl", cfg.OptionsTTL)
	return cache.NewOptionsCache(rdb, cfg.OptionsTTL)
}

// Handler returns the root handler.
func (app *Application) Handler() http.Handler {
	return app.Server
}

// shutdown gracefully stops all components
func (app *Application) shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down components...")

	var errs []error
	if app.Server != nil {
		if err := app.Server.Shutdown(ctx); err != nil {
			app.Logger.Error("Error stopping HTTP server", "error", err)
			errs = append(errs, err)
		}
	}

	if err := app.telemetry.Shutdown(ctx); err != nil {
		app.Logger.Error("Error flushing traces", "error", err)
		errs = append(errs, err)
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.Logger.Warn("Error closing Redis", "error", err)
		} else {
			app.Logger.Info("Redis connection closed")
		}
	}
	return errors.Join(errs...)
}
