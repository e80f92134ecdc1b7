package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/4chain-ag/go-seal-services/pkg/config"
	"github.com/4chain-ag/go-seal-services/pkg/core/graph"
	"github.com/4chain-ag/go-seal-services/pkg/core/graph/closing"
	"github.com/4chain-ag/go-seal-services/pkg/server"
	"github.com/gofiber/fiber/v2"
	"github.com/gookit/slog"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configFile := flag.String("config", config.DefaultConfigFilePath, "Path to the configuration file")
	flag.StringVar(configFile, "c", config.DefaultConfigFilePath, "Path to the configuration file (shorthand)")
	printConfig := flag.Bool("print-config", false, "Print the loaded configuration and exit")
	flag.Parse()

	cfg, err := config.LoadFromPath(*configFile)
	if err != nil {
		slog.Errorf("failed to load config: %v", err)
		os.Exit(1)
	}
	if err := cfg.Logger.Apply(); err != nil {
		slog.Errorf("failed to configure logger: %v", err)
		os.Exit(1)
	}
	if *printConfig {
		if err := config.PrettyPrintAs(os.Stdout, cfg, "yaml"); err != nil {
			slog.Errorf("failed to print config: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg); err != nil {
		slog.Errorf("seal service stopped: %v", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	store, err := cfg.Storage.Open()
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Errorf("failed to close %s store: %v", cfg.Storage.Driver, err)
		}
	}()

	witnessLedger, err := cfg.Ledger.Open()
	if err != nil {
		return err
	}

	g := graph.New(store, closing.NewValidator(witnessLedger, cfg.Closing))
	srv := server.New(
		server.WithConfig(cfg.Server),
		server.WithGraph(g),
		server.WithMiddleware(loggingMiddleware),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Infof("seal service listening on %s (storage=%s ledger=%s)", srv.SocketAddr(), cfg.Storage.Driver, cfg.Ledger.Driver)
		errCh <- srv.ListenAndServe(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutdown signal received, stopping seal service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// loggingMiddleware logs every request through the process logger.
func loggingMiddleware(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	slog.WithFields(slog.M{
		"category":    "service",
		"method":      c.Method(),
		"remote-addr": c.IP(),
		"request-uri": c.OriginalURL(),
		"status":      c.Response().StatusCode(),
		"duration":    time.Since(start).String(),
	}).Info("log-line")
	return err
}
