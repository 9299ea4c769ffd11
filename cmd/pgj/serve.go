package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/pgjson/internal/config"
	"github.com/alfredjeanlab/pgjson/internal/events"
	"github.com/alfredjeanlab/pgjson/internal/server"
	"github.com/alfredjeanlab/pgjson/internal/store"
	pgsync "github.com/alfredjeanlab/pgjson/internal/sync"
)

var serveCmd = &cobra.Command{
	Use:               "serve",
	Short:             "Start the document server",
	GroupID:           "system",
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		ctx := context.Background()
		cfg, docStore, err := openStore(ctx)
		if err != nil {
			return err
		}
		fields := docStore.Fields()
		logger.Info("connected to postgres",
			"driver", cfg.Driver,
			"encoder", fields.Data.Codec().EncoderName(),
			"schema_file", cfg.SchemaFile,
		)

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL, fields.Data.Codec())
			if err != nil {
				docStore.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (PGJ_NATS_URL not set)")
		}

		docServer := server.NewDocumentServer(docStore, fields, publisher).WithVersionSource(docStore)
		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: docServer.NewHTTPHandler(cfg.AuthToken),
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		scheduler := startExportScheduler(ctx, cfg, docStore, fields, logger)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("export scheduler stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := docStore.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

// startExportScheduler starts periodic exports when an interval and at
// least one destination are configured. It returns nil otherwise.
func startExportScheduler(ctx context.Context, cfg *config.Config, s store.Store, fields store.Fields, logger *slog.Logger) *pgsync.Scheduler {
	if cfg.ExportInterval <= 0 {
		return nil
	}

	var dests []pgsync.Destination
	if cfg.ExportS3Bucket != "" {
		s3Dest, err := pgsync.NewS3Destination(ctx, cfg.ExportS3Bucket, cfg.ExportS3Key, cfg.ExportS3Region, cfg.ExportS3Endpoint)
		if err != nil {
			logger.Error("failed to create S3 export destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("S3 export enabled", "location", s3Dest.Location())
		}
	}
	if cfg.ExportGitRepo != "" {
		dests = append(dests, pgsync.NewGitDestination(cfg.ExportGitRepo, cfg.ExportGitFile, cfg.ExportGitBranch))
		logger.Info("git export enabled", "repo", cfg.ExportGitRepo, "file", cfg.ExportGitFile)
	}
	if len(dests) == 0 {
		logger.Warn("PGJ_EXPORT_INTERVAL set but no export destination configured")
		return nil
	}

	scheduler := pgsync.NewScheduler(s, fields, dests, cfg.ExportInterval, logger)
	scheduler.Start()
	logger.Info("export scheduler started", "interval", cfg.ExportInterval)
	return scheduler
}
