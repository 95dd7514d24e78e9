package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mmynk/splitledger/internal/amqp"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/reconcile"
	"github.com/mmynk/splitledger/internal/storage/backend"
	"github.com/mmynk/splitledger/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, "reconciler")

	// Both binaries read the same environment, so the full validation applies.
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting reconciler", "interval", cfg.ReconcileInterval, "batch", cfg.ReconcileBatch)

	store, err := backend.Open(cfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	var consumer reconcile.Consumer
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			slog.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		consumer = amqpClient
	} else {
		slog.Info("AMQP disabled - reconciling on the sweep interval only")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The worker serves no HTTP, so it keeps no metrics.
	r := reconcile.New(store, nil, cfg.ReconcileInterval, cfg.ReconcileBatch)
	if err := r.Run(ctx, consumer); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Reconciler stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("Reconciler stopped")
}
