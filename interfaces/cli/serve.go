package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cascade-engine/application/engine"
	"cascade-engine/infrastructure/config"
	"cascade-engine/infrastructure/kernel"
	"cascade-engine/infrastructure/persistence/sqlite"
	"cascade-engine/interfaces/http/rest"
	"cascade-engine/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the engine HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	metrics := observability.NewCollector("cascade")
	kernelClient := kernel.New(cfg.Kernel, metrics, logger)
	eng := engine.New(kernelClient, cfg.ToDomain(), logger)

	projects, err := sqlite.NewProjectStore(cfg.Persistence.DatabasePath)
	if err != nil {
		return fmt.Errorf("open project store: %w", err)
	}
	defer projects.Close()

	watcher, err := config.NewWatcher(cfg, configPath, logger)
	if err != nil {
		logger.Warn("config watcher unavailable", zap.Error(err))
	} else {
		defer watcher.Stop()
	}

	router := rest.NewRouter(eng, projects, metrics, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router.Setup(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("engine listening",
			zap.String("addr", server.Addr),
			zap.String("kernel", cfg.Kernel.BaseURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
