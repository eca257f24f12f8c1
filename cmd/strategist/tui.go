package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/abelbrown/strategist/internal/config"
	"github.com/abelbrown/strategist/internal/logging"
	"github.com/abelbrown/strategist/internal/otel"
	"github.com/abelbrown/strategist/internal/session"
	"github.com/abelbrown/strategist/internal/ui"
)

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file
	if err := logging.Init(config.LogDir(), cfg.LogLevel); err != nil {
		return err
	}
	defer logging.Close()

	events, closeEvents := openEvents(config.EventsPath())
	defer closeEvents()
	ring := otel.NewRingBuffer(otel.DefaultRingSize)
	events.SetRingBuffer(ring)
	startupEvent(events, "ui")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := session.Options{Instruction: cfg.Analysis.Instruction}
	if n := cfg.Analysis.Count; n > 0 {
		opts.Count = &n
	}
	sess := session.New(newClient(cfg, events), session.Config{
		ExportDir: cfg.ResolvedExportDir(),
		Events:    events,
		Options:   opts,
	})

	app := ui.NewAppWithConfig(ui.AppConfig{
		Context: ctx,
		Session: sess,
		Events:  events,
		Ring:    ring,
	})

	logging.Info("starting", "server", cfg.ServerURL, "version", version)
	program := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	events.Info(otel.KindShutdown, "ui", "exit")
	return nil
}
