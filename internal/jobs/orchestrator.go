// Package jobs runs asynchronous imports through a bounded worker
// pool and tracks their state until the caller collects the result.
package jobs

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/docpipe/docpipe/internal/importer"
	"github.com/docpipe/docpipe/internal/sink"
	"github.com/docpipe/docpipe/internal/stats"
)

// Config sizes the worker pool and the job registry.
type Config struct {
	WorkerCount  int
	MaxQueueSize int
	JobTTL       time.Duration
}

// Orchestrator manages the asynchronous import queue.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	imp   *importer.Importer
	sink  *sink.Client
	stats *stats.ImportStats
	log   *slog.Logger
	cfg   Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. The sink client may be nil
// when no downstream store is configured.
func NewOrchestrator(cfg Config, imp *importer.Importer, sc *sink.Client, st *stats.ImportStats, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		imp:   imp,
		sink:  sc,
		stats: st,
		log:   log,
		cfg:   cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// process runs one queued import end to end.
func (o *Orchestrator) process(ctx context.Context, job *Job) {
	log := o.log.With("job_id", job.ID, "reference", job.Reference)
	job.SetStatus(StatusProcessing, "importing")

	start := time.Now()
	resp := o.imp.ImportDocument(importer.ImportRequest{
		Reference:   job.Reference,
		Input:       bytes.NewReader(job.FileData()),
		ContentType: job.contentType,
		Metadata:    job.metadata,
	})
	if o.stats != nil {
		o.stats.Record(time.Since(start).Milliseconds())
	}

	rec := BuildRecord(resp, true)
	job.SetResult(&rec)
	job.ReleaseFileData()

	switch resp.Status.Code {
	case importer.StatusSuccess:
		if o.sink != nil {
			if err := o.sink.PutResult(ctx, rec); err != nil {
				log.Error("sink delivery failed", "error", err)
				job.AddError(fmt.Sprintf("sink: %s", err))
			}
		}
		job.SetStatus(StatusCompleted, "done")
		log.Info("import completed", "documents", job.Snapshot().Progress.Documents)
	case importer.StatusRejected:
		job.SetStatus(StatusRejected, "filtered")
		log.Info("import rejected", "filter", resp.Status.Filter, "description", resp.Status.Description)
	default:
		job.AddError(resp.Status.Description)
		job.SetStatus(StatusFailed, "importing")
		log.Error("import failed", "description", resp.Status.Description)
	}

	resp.Dispose()
}
