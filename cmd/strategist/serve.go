package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/strategist/internal/brain"
	"github.com/abelbrown/strategist/internal/config"
	"github.com/abelbrown/strategist/internal/logging"
	"github.com/abelbrown/strategist/internal/otel"
	"github.com/abelbrown/strategist/internal/server"
	"github.com/abelbrown/strategist/internal/store"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analysis API",
	Long: `Serve the JSON API used by the TUI: projects, spreadsheet uploads,
analysis and export. Analysis needs ANTHROPIC_API_KEY in the environment
or the .env file.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logging.InitWriter(os.Stderr, cfg.LogLevel)

	addr := cfg.Server.Addr
	if flagAddr != "" {
		addr = flagAddr
	}

	if cfg.Server.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Server.DBPath), 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}
	st, err := store.Open(cfg.Server.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	events, closeEvents := openEvents(config.EventsPath())
	defer closeEvents()
	startupEvent(events, "server")

	provider := brain.NewClaudeProvider(cfg.APIKey, cfg.Server.Model)
	if !provider.Available() {
		logging.Warn("no API key configured, analysis requests will fail")
	}
	analyzer := brain.NewLinkAnalyzer(provider, cfg.Server.MaxTokens, cfg.Server.ContentLimit)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.NewRouter(server.New(st, analyzer, events)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Info("listening", "addr", addr, "db", cfg.Server.DBPath, "model", cfg.Server.Model)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logging.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	events.Info(otel.KindShutdown, "server", "stopped")
	return err
}
