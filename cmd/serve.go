package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/atessier/docport/internal/cache"
	"github.com/atessier/docport/internal/config"
	"github.com/atessier/docport/internal/docs"
	"github.com/atessier/docport/internal/mcp"
	"github.com/atessier/docport/internal/render"
	"github.com/atessier/docport/internal/site"
	"github.com/spf13/cobra"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "docport",
	Short: "Documentation retrieval MCP server",
	Run:   runServe,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(sitesCmd)
	rootCmd.AddCommand(tocCmd)
	rootCmd.AddCommand(pageCmd)
	rootCmd.AddCommand(clearCacheCmd)
}

// app wires the components together the same way for the server and
// the CLI subcommands.
type app struct {
	cfg      *config.Settings
	service  *docs.Service
	renderer *render.ChromeRenderer
	store    cache.Store
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	setupLogging(cfg)

	registry, err := site.NewRegistry(cfg.DocumentationURLs)
	if err != nil {
		return nil, fmt.Errorf("building site registry: %w", err)
	}
	if registry.Len() == 0 {
		slog.Warn("no documentation URLs configured; the server has nothing to serve")
	}

	// A broken cache directory degrades to in-memory caching; it must
	// never prevent serving.
	var store cache.Store
	store, err = cache.OpenLevelStore(cacheDBDir(cfg))
	if err != nil {
		slog.Warn("disk cache unavailable, falling back to in-memory cache", "error", err)
		store = cache.NewMemoryStore()
	}

	renderer := render.NewChromeRenderer()
	service := docs.NewService(
		registry,
		cache.New(store, time.Duration(cfg.CacheTTL)*time.Second),
		renderer,
		cfg.UserAgent,
		time.Duration(cfg.RenderTimeout)*time.Second,
	)

	return &app{cfg: cfg, service: service, renderer: renderer, store: store}, nil
}

func (a *app) close() {
	a.renderer.Close()
	if err := a.store.Close(); err != nil {
		slog.Warn("closing cache store", "error", err)
	}
}

func cacheDBDir(cfg *config.Settings) string {
	return filepath.Join(cfg.CacheDir, "docs")
}

// setupLogging sends slog output to stderr; stdout belongs to the MCP
// stdio transport.
func setupLogging(cfg *config.Settings) {
	level := slog.LevelInfo
	if debug || cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func runServe(cmd *cobra.Command, args []string) {
	a, err := newApp()
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	defer a.close()

	if a.cfg.SkipRendererCheck {
		slog.Info("skipping renderer setup check")
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		err := a.renderer.HealthCheck(ctx)
		cancel()
		if err != nil {
			log.Fatalf("rendering engine unavailable: %v (set DOCPORT_SKIP_RENDERER_CHECK=true to start anyway)", err)
		}
		slog.Debug("renderer setup check passed")
	}

	server := mcp.NewServer(a.service)
	slog.Info("serving MCP on stdio", "sites", len(a.service.ListDocumentation()), "cache_ttl_seconds", a.cfg.CacheTTL)

	errCh := make(chan error)
	go func() { errCh <- server.Run() }()

	if err := waitForSignal(errCh); err != nil {
		log.Fatalf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}

func waitForSignal(errCh chan error) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		slog.Info("received signal", "signal", sig.String())
		return nil
	case err := <-errCh:
		return err
	}
}
