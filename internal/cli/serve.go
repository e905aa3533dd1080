package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fikri/chatstore/internal/config"
	"github.com/fikri/chatstore/internal/logger"
	"github.com/fikri/chatstore/internal/metrics"
	"github.com/fikri/chatstore/pkg/api"
	"github.com/fikri/chatstore/pkg/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chatstore HTTP server",
	Long: `Start the chatstore HTTP server with the configured session store
backend. The server runs until interrupted and drains in-flight requests on
shutdown.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(cfgFile)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: cfg.Logging.Console,
		Pretty:  cfg.Logging.Pretty,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Close()

	st, err := buildStore(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer st.Close()

	server, err := api.NewServer(api.ServerOptions{
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
		ShutdownTimeout:    cfg.Server.ShutdownTimeout,
		Environment:        cfg.Environment,
	}, st, metrics.New(), log.GetZerolog())
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	}

	return server.Stop()
}

// buildStore opens the session store selected by the configuration
func buildStore(cfg *config.Config, log *logger.Logger) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		log.Info().Msg("Using in-memory session store")
		return store.NewMemoryStore(log.GetZerolog()), nil
	case config.BackendSQLite:
		return store.NewSQLiteStore(cfg.Store.SQLitePath, log.GetZerolog())
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
}
