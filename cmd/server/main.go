package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docpipe/docpipe/internal/api"
	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/detect"
	"github.com/docpipe/docpipe/internal/importer"
	"github.com/docpipe/docpipe/internal/jobs"
	"github.com/docpipe/docpipe/internal/parser"
	"github.com/docpipe/docpipe/internal/pipecfg"
	"github.com/docpipe/docpipe/internal/sink"
	"github.com/docpipe/docpipe/internal/stats"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	streamCfg := cfg.StreamConfig()

	// Handler chains come from the pipeline definition; a missing file
	// means an empty pipeline, which still detects and parses.
	var pre, post []importer.HandlerEntry
	if _, err := os.Stat(cfg.PipelineFile); err == nil {
		p, err := pipecfg.Load(cfg.PipelineFile)
		if err != nil {
			log.Error("invalid pipeline definition", "file", cfg.PipelineFile, "error", err)
			os.Exit(1)
		}
		pre, post, err = p.Build(streamCfg)
		if err != nil {
			log.Error("invalid pipeline handlers", "file", cfg.PipelineFile, "error", err)
			os.Exit(1)
		}
		log.Info("pipeline loaded", "file", cfg.PipelineFile, "pre_parse", len(pre), "post_parse", len(post))
	} else {
		log.Warn("pipeline file not found, running without handlers", "file", cfg.PipelineFile)
	}

	imp := importer.New(importer.Config{
		Stream:    streamCfg,
		PreParse:  pre,
		PostParse: post,
		Detector:  detect.New(),
		Parsers: parser.Resolver(streamCfg, parser.Options{
			PDFFallbackPdftotext: cfg.PDFFallbackPdftotext,
		}),
		Listeners: []importer.Listener{importer.SlogListener(log)},
	}, log)

	st := stats.New(cfg.StatsWindow)

	var sc *sink.Client
	if cfg.SinkURL != "" {
		sc = sink.NewClient(cfg.SinkURL, cfg.SinkAPIKey)
	}

	orch := jobs.NewOrchestrator(jobs.Config{
		WorkerCount:  cfg.WorkerCount,
		MaxQueueSize: cfg.MaxQueueSize,
		JobTTL:       cfg.JobTTL,
	}, imp, sc, st, log)
	orch.Start(ctx)

	srv := api.NewServer(imp, orch, sc, st, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if sc != nil {
			sc.Close()
		}
	}()

	log.Info("starting docpipe", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
