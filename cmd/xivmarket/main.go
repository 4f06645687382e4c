// Command xivmarket is an MCP server exposing FFXIV market-board data from
// Universalis, game data from XIVAPI, and analytics from Saddlebag Exchange.
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

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/tivalu/xivmarket/internal/config"
	"github.com/tivalu/xivmarket/internal/fetch"
	"github.com/tivalu/xivmarket/internal/materia"
	"github.com/tivalu/xivmarket/internal/observe"
	"github.com/tivalu/xivmarket/internal/rank"
	"github.com/tivalu/xivmarket/internal/resolve"
	"github.com/tivalu/xivmarket/internal/saddlebag"
	"github.com/tivalu/xivmarket/internal/tools"
	"github.com/tivalu/xivmarket/internal/universalis"
	"github.com/tivalu/xivmarket/internal/xivapi"
)

const version = "1.0.0"

const defaultConfigPath = "config.yaml"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", defaultConfigPath, "path to the YAML configuration file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "xivmarket: %v\n", err)
		return 1
	}

	// stdout belongs to the stdio transport, so logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Server.LogLevel.SlogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownMeter, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "xivmarket",
		ServiceVersion: version,
	})
	if err != nil {
		logger.Error("failed to initialise metrics provider", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMeter(shutdownCtx); err != nil {
			logger.Warn("meter provider shutdown error", "err", err)
		}
	}()

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		logger.Error("failed to create metrics", "err", err)
		return 1
	}

	if cfg.Server.MetricsAddr != "" {
		go serveMetrics(logger, cfg.Server.MetricsAddr)
	}

	// One limiter per upstream service; the limiters are the only throughput
	// control, shared by every tool call.
	xivapiLimiter := fetch.NewLimiter(cfg.XIVAPI.Limiter.Fetch())
	universalisLimiter := fetch.NewLimiter(cfg.Universalis.Limiter.Fetch())
	saddlebagLimiter := fetch.NewLimiter(cfg.Saddlebag.Limiter.Fetch())
	defer xivapiLimiter.Close()
	defer universalisLimiter.Close()
	defer saddlebagLimiter.Close()

	xivapiClient := xivapi.New(xivapi.Options{
		BaseURL:   cfg.XIVAPI.BaseURL,
		Timeout:   cfg.XIVAPI.Timeout.Std(),
		Limiter:   xivapiLimiter,
		UserAgent: cfg.Server.UserAgent,
		Language:  cfg.XIVAPI.Language,
		Version:   cfg.XIVAPI.Version,
		Metrics:   metrics,
	})
	universalisClient := universalis.New(universalis.Options{
		BaseURL:   cfg.Universalis.BaseURL,
		Timeout:   cfg.Universalis.Timeout.Std(),
		Limiter:   universalisLimiter,
		UserAgent: cfg.Server.UserAgent,
		Metrics:   metrics,
	})
	saddlebagClient := saddlebag.New(saddlebag.Options{
		BaseURL:   cfg.Saddlebag.BaseURL,
		Timeout:   cfg.Saddlebag.Timeout.Std(),
		Limiter:   saddlebagLimiter,
		UserAgent: cfg.Server.UserAgent,
		Metrics:   metrics,
	})

	materiaCache := materia.NewCache(materia.CacheOptions{
		Source:         xivapiClient,
		Store:          materia.NewStore(cfg.Materia.DataPath),
		TTL:            cfg.Materia.TTL.Std(),
		RefreshEnabled: cfg.Materia.Refresh == nil || *cfg.Materia.Refresh,
		Logger:         logger,
		Metrics:        metrics,
	})

	resolver := resolve.NewPipeline(xivapiClient, materiaCache)
	ranker := rank.New(resolver, universalisClient)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "xivmarket",
		Version: version,
	}, &mcp.ServerOptions{
		Instructions: tools.Instructions,
	})
	tools.RegisterAll(server, &tools.Deps{
		Logger:      logger,
		Metrics:     metrics,
		XIVAPI:      xivapiClient,
		Universalis: universalisClient,
		Saddlebag:   saddlebagClient,
		Materia:     materiaCache,
		Resolver:    resolver,
		Ranker:      ranker,
		MinVelocity: cfg.Ranking.MinVelocity,
	})

	logger.Info("xivmarket starting",
		"version", version,
		"transport", cfg.Server.Transport,
		"log_level", cfg.Server.LogLevel,
	)

	switch cfg.Server.Transport {
	case config.TransportHTTP:
		err = serveHTTP(ctx, logger, server, cfg.Server.ListenAddr)
	default:
		err = server.Run(ctx, &mcp.StdioTransport{})
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server error", "err", err)
		return 1
	}

	logger.Info("goodbye")
	return 0
}

// loadConfig reads the configuration. The default path is optional: when the
// file is absent the built-in defaults apply. An explicitly given path must
// exist.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath && !flagWasSet("config") {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

func flagWasSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func serveMetrics(logger *slog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("metrics listener starting", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics listener error", "err", err)
	}
}

// serveHTTP runs the streamable-HTTP transport until ctx is cancelled, then
// drains in-flight sessions.
func serveHTTP(ctx context.Context, logger *slog.Logger, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)

	mux := http.NewServeMux()
	mux.Handle("/mcp", handler)

	httpServer := &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listener starting", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
