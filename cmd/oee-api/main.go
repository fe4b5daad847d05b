// Command oee-api serves the HTTP KPI query surface over a Postgres-backed
// store.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/flowforge/oee-sim/internal/config"
	"github.com/flowforge/oee-sim/internal/logging"
	"github.com/flowforge/oee-sim/pkg/httpapi"
	"github.com/flowforge/oee-sim/pkg/kpi"
	"github.com/flowforge/oee-sim/pkg/storage/postgres"
)

const (
	ExitOK int = iota
	ExitConfigError
	ExitStoreError
	ExitServerError
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		addr     = flag.String("addr", ":8080", "HTTP listen address")
		logLevel = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: oee-api [flags]\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	log, err := logging.New(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "oee-api: build logger: %v\n", err)
		return ExitConfigError
	}
	defer log.Sync() //nolint:errcheck

	dbConfig, err := config.Load()
	if err != nil {
		log.Error("invalid database configuration", zap.Error(err))
		return ExitConfigError
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := postgres.Open(ctx, dbConfig.DSN())
	if err != nil {
		log.Error("failed to connect to store", zap.Error(err))
		return ExitStoreError
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Error("failed to migrate store", zap.Error(err))
		return ExitStoreError
	}

	server := &httpapi.Server{
		Engine:    kpi.New(store, store, store),
		Reasons:   kpi.NewReasonAggregator(store),
		Equipment: store,
		Sensors:   store,
		Log:       log,
	}

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           httpapi.NewRouter(server),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", *addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			return ExitServerError
		}
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
			return ExitServerError
		}
	}
	return ExitOK
}
