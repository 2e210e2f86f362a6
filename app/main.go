package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/nse-pulse/app/api"
	"github.com/lysyi3m/nse-pulse/app/cfg"
	"github.com/lysyi3m/nse-pulse/app/feed"
	"github.com/lysyi3m/nse-pulse/app/fetch"
	"github.com/lysyi3m/nse-pulse/app/proxy"
	"github.com/lysyi3m/nse-pulse/app/viewer"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// help was shown
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting NSE Pulse", "version", appCfg.Version, "port", appCfg.Port)

	routes, err := proxy.LoadRoutes(appCfg.RoutesFile)
	if err != nil {
		slog.Error("Failed to load proxy routes", "file", appCfg.RoutesFile, "error", err)
		os.Exit(1)
	}
	routeTable, err := proxy.NewTable(routes)
	if err != nil {
		slog.Error("Invalid proxy routes", "error", err)
		os.Exit(1)
	}

	presets := feed.NewPresetCache(appCfg.FeedsDir)
	if err := presets.Run(); err != nil {
		slog.Error("Failed to load feed presets", "dir", appCfg.FeedsDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Feed presets loaded", "count", presets.GetPresetCount(), "dir", appCfg.FeedsDir)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := presets.Watch(ctx); err != nil {
		slog.Warn("Preset hot reload disabled", "dir", appCfg.FeedsDir, "error", err)
	}

	pipeline := fetch.NewPipeline(fetch.Options{
		Routes:    routeTable,
		LocalBase: appCfg.LocalBaseURL(),
		ProxyURL:  appCfg.ProxyURL,
		UserAgent: appCfg.UserAgent,
		Timeout:   appCfg.FetchTimeout,
	})
	parser := feed.NewParser()
	registry := viewer.NewRegistry(pipeline, parser, 0)

	handler := api.NewHandler(registry, pipeline, parser, feed.NewGenerator(appCfg.Version), presets, appCfg.Version)
	server := api.NewServer(handler, routeTable, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2*appCfg.FetchTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr, "local_base", appCfg.LocalBaseURL())
		if appCfg.APIAccessKey == "" {
			slog.Info("JSON API is open, set API_ACCESS_KEY to protect it")
		}

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("NSE Pulse shutdown complete")
}
