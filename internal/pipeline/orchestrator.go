package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dgallion1/quotecheck/internal/parser"
	"github.com/dgallion1/quotecheck/internal/report"
)

// ErrQueueFull is returned by Submit when no queue slot is free.
var ErrQueueFull = eris.New("job queue is full")

// ErrStopped is returned by Submit after Stop.
var ErrStopped = eris.New("pipeline stopped")

const defaultCleanupInterval = 5 * time.Minute

// Config sizes the worker pool.
type Config struct {
	WorkerCount     int
	MaxQueueSize    int
	JobTTL          time.Duration
	CleanupInterval time.Duration
}

// Orchestrator runs validation jobs on a fixed pool of workers.
type Orchestrator struct {
	jobs       *JobStore
	queue      chan *Job
	builder    *report.Builder
	parserOpts parser.Options
	logger     *zap.Logger
	cfg        Config

	mu      sync.RWMutex
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg Config, builder *report.Builder, parserOpts parser.Options, logger *zap.Logger) *Orchestrator {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaultCleanupInterval
	}
	return &Orchestrator{
		jobs:       NewJobStore(cfg.JobTTL),
		queue:      make(chan *Job, cfg.MaxQueueSize),
		builder:    builder,
		parserOpts: parserOpts,
		logger:     logger,
		cfg:        cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.builder, o.parserOpts, o.logger.With(zap.Int("worker", i)))
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(o.cfg.CleanupInterval)
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

	o.logger.Info("pipeline started",
		zap.Int("workers", o.cfg.WorkerCount),
		zap.Int("queue_size", o.cfg.MaxQueueSize),
	)
}

// Stop cancels running jobs and waits for the workers to exit. It is safe to
// call more than once.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.stopped {
		return ErrStopped
	}

	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.AddError("queue full")
		job.SetStatus(StatusFailed, "queue_full")
		return eris.Wrapf(ErrQueueFull, "pipeline: %d jobs waiting", o.cfg.MaxQueueSize)
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

// JobCount returns the number of tracked jobs.
func (o *Orchestrator) JobCount() int {
	return o.jobs.Len()
}
