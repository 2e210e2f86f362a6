// Command tui is the terminal viewer: the same session model as the web UI,
// driven from the keyboard.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/nse-pulse/app/cfg"
	"github.com/lysyi3m/nse-pulse/app/feed"
	"github.com/lysyi3m/nse-pulse/app/fetch"
	"github.com/lysyi3m/nse-pulse/app/proxy"
	"github.com/lysyi3m/nse-pulse/app/viewer"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	appCfg, err := cfg.LoadArgs(args)
	if err != nil {
		return err
	}
	if appCfg == nil {
		return nil
	}

	logFile, err := os.OpenFile(appCfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: logLevel})))

	routes, err := proxy.LoadRoutes(appCfg.RoutesFile)
	if err != nil {
		return err
	}
	routeTable, err := proxy.NewTable(routes)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	localBase := appCfg.LocalBase
	if localBase == "" {
		localBase, err = serveProxy(ctx, routeTable)
		if err != nil {
			return err
		}
	}

	presets := feed.NewPresetCache(appCfg.FeedsDir)
	if err := presets.Run(); err != nil {
		slog.Warn("Failed to load feed presets", "dir", appCfg.FeedsDir, "error", err)
	}
	defaultURL := ""
	if preset, ok := presets.Default(); ok {
		defaultURL = preset.URL
	}

	pipeline := fetch.NewPipeline(fetch.Options{
		Routes:    routeTable,
		LocalBase: localBase,
		ProxyURL:  appCfg.ProxyURL,
		UserAgent: appCfg.UserAgent,
		Timeout:   appCfg.FetchTimeout,
	})
	session := viewer.NewSession("tui", pipeline, feed.NewParser())

	slog.Info("Starting terminal viewer", "version", appCfg.Version, "local_base", localBase)

	p := tea.NewProgram(NewModel(ctx, session, defaultURL, appCfg.Version), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal viewer failed: %w", err)
	}
	return nil
}

// serveProxy hosts the reverse proxy routes on a loopback port for the
// lifetime of ctx and returns its origin.
func serveProxy(ctx context.Context, routes *proxy.Table) (string, error) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	routes.Register(r)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to start proxy listener: %w", err)
	}

	server := &http.Server{Handler: r}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Proxy server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		server.Close()
	}()

	return "http://" + ln.Addr().String(), nil
}
