package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abelbrown/strategist/internal/config"
	"github.com/abelbrown/strategist/internal/gateway"
	"github.com/abelbrown/strategist/internal/otel"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	flagConfig string
	flagEnv    string
	flagServer string
)

var rootCmd = &cobra.Command{
	Use:   "strategist",
	Short: "Internal link placement assistant",
	Long: `strategist walks a project's articles, asks a language model where a link
to the target page fits best, and exports the suggestions to CSV.

Run 'strategist serve' to start the API the TUI talks to.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagEnv, "env", ".env", "optional .env file with API keys")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "API base URL (overrides server_url)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(configCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("strategist %s (commit: %s)\n", version, commit)
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file, then the optional .env file, then
// applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagEnv != "" {
		if _, statErr := os.Stat(flagEnv); statErr == nil {
			if err := cfg.LoadEnvFile(flagEnv); err != nil {
				return nil, err
			}
		}
	}
	if flagServer != "" {
		cfg.ServerURL = flagServer
	}
	return cfg, nil
}

// newClient builds the API client from cfg. events may be nil.
func newClient(cfg *config.Config, events *otel.Logger) *gateway.Client {
	return gateway.NewClient(cfg.ServerURL,
		gateway.WithTimeout(cfg.Timeout()),
		gateway.WithRate(cfg.RequestsPerSecond),
		gateway.WithEvents(events),
	)
}

// openEvents opens the JSONL event log at path for appending. The returned
// logger is a null logger when the file cannot be opened.
func openEvents(path string) (*otel.Logger, func()) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err == nil {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			l := otel.NewLogger(f)
			return l, func() {
				l.Close()
				f.Close()
			}
		}
	}
	l := otel.NewNullLogger()
	return l, l.Close
}

// startupEvent records process start with the given component.
func startupEvent(events *otel.Logger, comp string) {
	events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindStartup, Comp: comp, Msg: version})
}
