// Command clipsync is the interactive clipboard-history sync client.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/clipsync/internal/client/cli"
	"github.com/dmitrijs2005/clipsync/internal/client/config"
	"github.com/dmitrijs2005/clipsync/internal/client/services"
	"github.com/dmitrijs2005/clipsync/internal/client/session"
	"github.com/dmitrijs2005/clipsync/internal/client/storage"
	"github.com/dmitrijs2005/clipsync/internal/client/transport"
	"github.com/dmitrijs2005/clipsync/internal/logging"
)

const userAgent = "clipsync"

func main() {
	if err := run(); err != nil {
		log.Fatalf("%v", err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer st.Close()

	printer := cli.NewPrinter(os.Stdout)
	svc, err := services.NewSyncService(ctx, services.Options{
		Storage: st,
		Dialer:  &transport.WSDialer{UserAgent: userAgent},
		Health:  &transport.HealthChecker{Timeout: cfg.HealthCheckTimeout},
		Session: session.Config{
			ConnectTimeout:    cfg.ConnectTimeout,
			HeartbeatInterval: cfg.HeartbeatInterval,
			BaseDelay:         cfg.ReconnectBaseDelay,
			MaxDelay:          cfg.ReconnectMaxDelay,
			MaxAttempts:       cfg.MaxReconnectAttempts,
			UserAgent:         userAgent,
		},
		HistoryLimit: cfg.HistoryLimit,
		Hostname:     cfg.Hostname,
		RelayAddr:    cfg.RelayAddr,
		AutoConnect:  cfg.AutoConnect,
		Observer:     printer,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	svcDone := make(chan error, 1)
	go func() { svcDone <- svc.Run(runCtx) }()

	// The REPL blocks on stdin, so a signal does not wait for it.
	replDone := make(chan struct{})
	go func() {
		cli.NewApp(svc, printer).Run(runCtx, os.Stdin)
		close(replDone)
	}()

	select {
	case <-replDone:
	case <-ctx.Done():
		logger.Info(ctx, "shutting down")
	}
	cancel()
	return <-svcDone
}
