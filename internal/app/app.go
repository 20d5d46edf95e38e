package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	server "stackduel/server"
	"stackduel/server/internal/abilities"
	servernet "stackduel/server/internal/net"
	"stackduel/server/internal/telemetry"
	"stackduel/server/logging"
	loggingSinks "stackduel/server/logging/sinks"
)

type Config struct {
	Addr        string
	CatalogPath string
	Logger      telemetry.Logger
}

func Run(ctx context.Context, cfg Config) error {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	if raw := os.Getenv("LISTEN_ADDR"); raw != "" {
		addr = raw
	}

	catalogPath := cfg.CatalogPath
	if catalogPath == "" {
		catalogPath = "config/abilities.json"
	}
	if raw := os.Getenv("ABILITY_CATALOG_PATH"); raw != "" {
		catalogPath = raw
	}
	catalog, err := abilities.Load(catalogPath)
	if err != nil {
		return fmt.Errorf("failed to load ability catalog: %w", err)
	}

	logConfig := logging.DefaultConfig()
	sinks := []logging.NamedSink{
		{Name: "console", Sink: loggingSinks.NewConsole(os.Stdout)},
	}
	if path := os.Getenv("MATCH_LOG_PATH"); path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open match log: %w", err)
		}
		defer file.Close()
		sinks = append(sinks, logging.NamedSink{
			Name: "json",
			Sink: loggingSinks.NewJSON(file, logConfig.JSON.FlushInterval),
		})
	}

	router, err := logging.NewRouter(logging.SystemClock{}, logConfig, sinks)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	roomCfg := server.DefaultConfig()
	roomCfg.Catalog = catalog
	roomCfg.Publisher = router
	roomCfg.Logger = telemetryLogger
	if raw := os.Getenv("BROADCAST_INTERVAL_MS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			roomCfg.BroadcastInterval = time.Duration(value) * time.Millisecond
		} else {
			telemetryLogger.Printf("invalid BROADCAST_INTERVAL_MS=%q", raw)
		}
	}

	registry := server.NewRegistry(roomCfg)
	defer registry.CloseAll()

	handler := servernet.NewHTTPHandler(registry, servernet.HTTPHandlerConfig{
		Logger: telemetryLogger,
	})

	srv := &http.Server{Addr: addr, Handler: handler}
	telemetryLogger.Printf("server listening on %s (catalog %s)", addr, catalog.Hash()[:12])

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}
}
