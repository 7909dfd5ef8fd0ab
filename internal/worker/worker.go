package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/tokenvision/inference-be/internal/inference"
	"github.com/tokenvision/inference-be/internal/worker/domain"
	"github.com/tokenvision/inference-be/shared/rabbitmq"
)

// Store is the job/ledger persistence surface the worker needs.
type Store interface {
	ClaimJob(ctx context.Context, jobID, workerID string) (*domain.Job, error)
	CompleteJob(ctx context.Context, jobID string, result []byte) error
	FailJob(ctx context.Context, jobID, errorMsg string) error
	Refund(ctx context.Context, ownerID string, amount float64) error
}

// Retainer applies the completed-job retention cap for an owner.
type Retainer interface {
	OnCompletion(ctx context.Context, ownerID string) error
}

// Runner executes one inference call against the external service.
type Runner interface {
	Run(ctx context.Context, req inference.Request) ([]byte, error)
}

// Config holds worker configuration
type Config struct {
	Logger          *slog.Logger
	Storage         Store
	Retention       Retainer
	Inference       Runner
	RabbitClient    *rabbitmq.Client
	QueueName       string
	Concurrency     int
	PrefetchCount   int
	DispatchTimeout time.Duration
}

// Worker pulls jobs off the queue and dispatches admitted ones against the
// inference service.
type Worker struct {
	logger          *slog.Logger
	storage         Store
	retention       Retainer
	inference       Runner
	rabbitClient    *rabbitmq.Client
	queueName       string
	workerID        string
	concurrency     int
	prefetchCount   int
	dispatchTimeout time.Duration
	jobsChan        chan *domain.JobMessage
	wg              sync.WaitGroup
	stopChan        chan struct{}
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "worker"
	}

	return &Worker{
		logger:          cfg.Logger,
		storage:         cfg.Storage,
		retention:       cfg.Retention,
		inference:       cfg.Inference,
		rabbitClient:    cfg.RabbitClient,
		queueName:       cfg.QueueName,
		workerID:        fmt.Sprintf("%s-%d", hostname, os.Getpid()),
		concurrency:     cfg.Concurrency,
		prefetchCount:   cfg.PrefetchCount,
		dispatchTimeout: cfg.DispatchTimeout,
		jobsChan:        make(chan *domain.JobMessage),
		stopChan:        make(chan struct{}),
	}
}

// Start consumes the queue and processes jobs until ctx is canceled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("dispatch_timeout", w.dispatchTimeout),
	)

	deliveries, err := w.setupConsumer(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)
	w.startMessageDispatcher(ctx, deliveries)

	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
