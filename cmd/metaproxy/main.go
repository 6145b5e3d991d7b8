package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"metaproxy/internal/api"
	"metaproxy/internal/config"
	"metaproxy/internal/gate"
	"metaproxy/internal/logger"
	"metaproxy/internal/metadata"
	"metaproxy/internal/models"
	"metaproxy/internal/observability"
	"metaproxy/internal/ratelimit"
	"metaproxy/internal/token"
	"metaproxy/internal/version"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file")
	envFile     = flag.String("env", "", "Path to env file (default: .env when present)")
	exampleFile = flag.String("write-example", "", "Write an example configuration file and exit")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	buildInfo := version.GetInfo()
	if *showVersion {
		fmt.Println(buildInfo.String())
		return
	}
	if *exampleFile != "" {
		if err := config.SaveExample(*exampleFile); err != nil {
			slog.Error("Failed to write example configuration", "error", err)
			os.Exit(1)
		}
		return
	}

	// Load configuration
	cfg, err := config.Load(*configFile, *envFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logging
	log, closer, err := logger.Setup(cfg.Logging, buildInfo)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	// Initialize observability (OpenTelemetry)
	otelProvider, err := observability.Setup(cfg.Metrics, cfg.Observability, buildInfo)
	if err != nil {
		slog.Error("Failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()
	instrumented := cfg.Metrics.Enabled || cfg.Observability.Tracing.Enabled

	// Catalogs and the shared access token cache
	tokens, err := initializeTokens(cfg, instrumented)
	if err != nil {
		slog.Error("Failed to initialize token cache", "error", err)
		os.Exit(1)
	}
	catalogs, err := initializeCatalogs(cfg, tokens, buildInfo, instrumented)
	if err != nil {
		slog.Error("Failed to initialize catalogs", "error", err)
		os.Exit(1)
	}

	// Rate limiter and version gate
	limiter := ratelimit.NewBanLimiter(ratelimit.Config{
		Window:          cfg.Security.RateLimit.Window,
		MaxRequests:     cfg.Security.RateLimit.MaxRequests,
		BanDuration:     cfg.Security.RateLimit.BanDuration,
		CleanupInterval: cfg.Security.RateLimit.CleanupInterval,
	})
	defer limiter.Close()

	gateOpts := []gate.Option{gate.WithExemptPaths(api.ExemptPaths()...)}
	if instrumented {
		recorder, err := observability.NewGateRecorder()
		if err != nil {
			slog.Error("Failed to create gate recorder", "error", err)
			os.Exit(1)
		}
		if err := recorder.ObserveTrackedClients(limiter.Len); err != nil {
			slog.Error("Failed to observe rate limiter", "error", err)
			os.Exit(1)
		}
		gateOpts = append(gateOpts, gate.WithRecorder(recorder))
	}
	versionGate, err := gate.New(cfg.Security, limiter, gateOpts...)
	if err != nil {
		slog.Error("Failed to initialize version gate", "error", err)
		os.Exit(1)
	}

	handlerOpts := []api.HandlerOption{
		api.WithClientCounter(limiter),
		api.WithBuildInfo(buildInfo),
	}
	if tokens != nil {
		handlerOpts = append(handlerOpts, api.WithTokenStatus(tokens))
	}
	handlers := api.NewHandlers(catalogs, cfg, handlerOpts...)

	// Setup routes with middleware
	routeOpts := []api.RouteOption{}
	if cfg.Observability.Tracing.Enabled {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}
	router := api.SetupRoutes(handlers, versionGate, routeOpts...)

	// Start metrics server if enabled
	var metricsServer *observability.MetricsServer
	if otelProvider.MetricsEnabled() {
		metricsServer = observability.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, otelProvider)
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server",
			"addr", server.Addr,
			"security_mode", cfg.Security.Mode,
			"min_client_version", cfg.Security.MinClientVersion,
			"catalogs", catalogs.Enabled(),
		)

		var err error
		if cfg.Server.TLSEnabled {
			slog.Info("Starting HTTPS server with TLS")
			err = server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			slog.Info("Starting HTTP server")
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("Metrics server forced to shutdown", "error", err)
		}
	}

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server shutdown complete")
}

// initializeTokens builds the Spotify access token cache. It returns nil when
// no client credentials are configured.
func initializeTokens(cfg *models.Config, instrumented bool) (*token.Cache, error) {
	sp := cfg.Upstream.Spotify
	if sp.ClientID == "" || sp.ClientSecret == "" {
		slog.Warn("Spotify credentials not configured, music lookups disabled")
		return nil, nil
	}

	var exchanger token.Exchanger = token.NewClientCredentials(sp.ClientID, sp.ClientSecret, sp.TokenURL,
		&http.Client{Timeout: cfg.Upstream.Timeout})
	if instrumented {
		wrapped, err := observability.NewInstrumentedExchanger(exchanger)
		if err != nil {
			return nil, err
		}
		exchanger = wrapped
	}
	return token.NewCache(exchanger), nil
}

// initializeCatalogs registers a catalog for every media kind that has the
// credentials it needs.
func initializeCatalogs(cfg *models.Config, tokens *token.Cache, buildInfo version.Info, instrumented bool) (*metadata.Gateway, error) {
	up := cfg.Upstream
	opts := metadata.ClientOptions{
		Timeout:           up.Timeout,
		RequestsPerSecond: up.RequestsPerSecond,
		Burst:             up.Burst,
		UserAgent:         buildInfo.UserAgent(),
	}

	gw := metadata.NewGateway()
	register := func(kind metadata.Kind, c metadata.Catalog) error {
		if instrumented {
			wrapped, err := observability.NewInstrumentedCatalog(c)
			if err != nil {
				return fmt.Errorf("instrument %s: %w", c.Name(), err)
			}
			c = wrapped
		}
		gw.Register(kind, c)
		return nil
	}

	if tokens != nil {
		if err := register(metadata.KindMusic, metadata.NewSpotify(up.Spotify.APIBaseURL, tokens, opts)); err != nil {
			return nil, err
		}
	}

	if up.TMDB.APIKey != "" {
		movie, tv := metadata.NewTMDBClients(metadata.TMDBOptions{
			APIKey:       up.TMDB.APIKey,
			APIBaseURL:   up.TMDB.APIBaseURL,
			ImageBaseURL: up.TMDB.ImageBaseURL,
			SiteURL:      up.TMDB.SiteURL,
		}, opts)
		if err := register(metadata.KindMovie, movie); err != nil {
			return nil, err
		}
		if err := register(metadata.KindTV, tv); err != nil {
			return nil, err
		}
	} else {
		slog.Warn("TMDB API key not configured, movie and tv lookups disabled")
	}

	// Google Books answers without a key at a lower quota.
	if err := register(metadata.KindBook, metadata.NewGoogleBooks(up.GoogleBooks.APIBaseURL, up.GoogleBooks.APIKey, opts)); err != nil {
		return nil, err
	}

	return gw, nil
}
