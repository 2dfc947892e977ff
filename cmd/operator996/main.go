// Operator-996 Cognitive OS - behavioral journaling and pattern analysis
// service. The serve command wires config, persistence, embedding, and
// the analysis engine into the HTTP/WebSocket API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kubana90/operator-996-cognitive-os/internal/config"
	"github.com/Kubana90/operator-996-cognitive-os/internal/data"
	"github.com/Kubana90/operator-996-cognitive-os/internal/embed"
	"github.com/Kubana90/operator-996-cognitive-os/internal/engine"
	"github.com/Kubana90/operator-996-cognitive-os/internal/importer"
	"github.com/Kubana90/operator-996-cognitive-os/internal/logging"
	"github.com/Kubana90/operator-996-cognitive-os/internal/server"
)

var (
	cfgPath string
	verbose bool
	log     *logging.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "operator996",
		Short: "Operator-996 Cognitive OS - behavioral analysis and pattern recognition",
		Long: `Operator-996 Cognitive OS is a behavioral journaling service that
stores timestamped behavioral events, derives recurring patterns and
behavioral anomalies from them, simulates operator decisions for
hypothetical scenarios, and exposes semantic search over the event log.

Start the server:        operator996 serve
Import sample events:    operator996 import events.json
Configuration:           ~/.operator996/config.yaml`,
		PersistentPreRunE: initLogging,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (default ~/.operator996/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Operator-996 Cognitive OS v%s\n", engine.Version)
		},
	})

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(importCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// LOGGING INITIALIZATION
// ═══════════════════════════════════════════════════════════════════════════════

func initLogging(cmd *cobra.Command, args []string) error {
	cfg := logging.DefaultConfig()
	if verbose {
		cfg.Level = logging.LevelDebug
	}

	log = logging.New(cfg)
	logging.SetGlobal(log)
	return nil
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgPath != "" {
		cfg, err = config.LoadFromPath(cfgPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	if !verbose {
		logging.SetLevel(logging.ParseLevel(cfg.Logging.Level))
	}
	if cfg.Logging.File != "" {
		if err := log.SetFileOutput(cfg.Logging.File); err != nil {
			log.Warn("Failed to open log file %s: %v", cfg.Logging.File, err)
		}
	}

	return cfg, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// SERVE COMMAND
// ═══════════════════════════════════════════════════════════════════════════════

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP/WebSocket API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// Persistence is optional; the engine runs in memory without it
			var store *data.Store
			if cfg.Database.Enabled {
				store, err = data.NewDB(cfg.Database.Path)
				if err != nil {
					log.Warn("Database unavailable, using in-memory storage: %v", err)
				} else {
					defer store.Close()
				}
			}

			var embedder embed.Embedder
			if cfg.Embedding.Enabled {
				embedder = embed.NewOllamaEmbedder(&embed.OllamaConfig{
					Host:    cfg.Embedding.OllamaURL,
					Model:   cfg.Embedding.Model,
					Timeout: cfg.Embedding.Timeout,
				})
			}

			engCfg := &engine.Config{Embedder: embedder}
			if store != nil {
				engCfg.Store = store
			}
			eng := engine.New(engCfg)
			eng.Restore(cmd.Context())

			srvCfg := &server.Config{
				Addr:          fmt.Sprintf(":%d", cfg.Server.Port),
				AllowedOrigin: cfg.Server.AllowedOrigin,
				Engine:        eng,
			}
			if store != nil {
				srvCfg.DB = store
			}
			srv := server.New(srvCfg)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				log.Info("Received %s, shutting down", sig)
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return srv.Stop(shutdownCtx)
		},
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// IMPORT COMMAND
// ═══════════════════════════════════════════════════════════════════════════════

func importCmd() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "import <events.json>",
		Short: "Import behavioral events into a running server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			result, err := importer.New(serverURL).ImportFile(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Imported %d of %d events\n", result.Imported, result.Total)
			if result.Failed > 0 {
				fmt.Printf("Failed to import %d events\n", result.Failed)
			}
			fmt.Println("Next steps:")
			fmt.Println("  Run pattern detection: POST /patterns/detect")
			fmt.Println("  Run anomaly scan:      POST /anomalies/detect")
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8000", "base URL of the running server")
	return cmd
}
