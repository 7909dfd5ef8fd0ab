// Package admission decides at enqueue time whether a job is financially
// admitted, debits the ledger when it is, and queues the resulting job.
package admission

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tokenvision/inference-be/internal/api/domain"
	"github.com/tokenvision/inference-be/internal/api/model"
	"github.com/tokenvision/inference-be/internal/ledger"
)

// Ledger is the minimal ledger surface admission needs.
type Ledger interface {
	WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	DatasetByNameTx(ctx context.Context, tx *sqlx.Tx, ownerID, name string) (*ledger.Dataset, error)
	AccountForUpdateTx(ctx context.Context, tx *sqlx.Tx, userID string) (*ledger.Account, error)
	DebitTx(ctx context.Context, tx *sqlx.Tx, userID string, amount float64) error
}

// JobStore persists job records.
type JobStore interface {
	CreateJobTx(ctx context.Context, tx *sqlx.Tx, job *model.Job) error
}

// Queue is the enqueue side of the job queue transport.
type Queue interface {
	Publish(ctx context.Context, body []byte, contentType string) error
}

// Params are the caller-supplied inference parameters.
type Params struct {
	Dataset    string
	Model      string
	Detector   string
	Classifier string
}

// Message is the queue payload; workers load the full job row by id.
type Message struct {
	JobID string `json:"job_id"`
}

// Controller performs admission-controlled job submission.
type Controller struct {
	ledger Ledger
	jobs   JobStore
	queue  Queue
	logger *slog.Logger
}

func NewController(l Ledger, jobs JobStore, queue Queue, logger *slog.Logger) *Controller {
	return &Controller{ledger: l, jobs: jobs, queue: queue, logger: logger}
}

// Submit prices the job against the dataset's accumulated cost, debits the
// owner when the balance covers it, records the job, and enqueues it.
//
// A job the balance cannot cover is still created and queued with
// admitted=false: the caller later observes it as ABORTED instead of the
// request disappearing. The debit, the job row, and their commit are one
// transaction; the enqueue happens after commit, and an enqueue failure is
// surfaced as ErrQueueUnavailable with the debit left standing for
// out-of-band reconciliation.
func (c *Controller) Submit(ctx context.Context, requester *ledger.Account, p Params) (*model.Job, error) {
	var job *model.Job

	err := c.ledger.WithinTx(ctx, func(tx *sqlx.Tx) error {
		ds, err := c.ledger.DatasetByNameTx(ctx, tx, requester.ID, p.Dataset)
		if err != nil {
			return err
		}

		acc, err := c.ledger.AccountForUpdateTx(ctx, tx, requester.ID)
		if err != nil {
			return err
		}

		admitted := acc.Balance >= ds.AccumulatedCost
		if admitted {
			if err := c.ledger.DebitTx(ctx, tx, acc.ID, ds.AccumulatedCost); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		job = &model.Job{
			JobID:         uuid.New().String(),
			OwnerID:       acc.ID,
			OwnerUsername: acc.Username,
			DatasetID:     ds.ID,
			DatasetName:   ds.Name,
			Model:         p.Model,
			Detector:      p.Detector,
			Classifier:    p.Classifier,
			Admitted:      admitted,
			Cost:          ds.AccumulatedCost,
			Status:        domain.JobStatusWaiting,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return c.jobs.CreateJobTx(ctx, tx, job)
	})
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(Message{JobID: job.JobID})
	if err != nil {
		return nil, fmt.Errorf("marshal queue message: %w", err)
	}

	if err := c.queue.Publish(ctx, body, "application/json"); err != nil {
		// The debit and job row are already committed. Losing them silently
		// is not an option: surface the inconsistency for reconciliation.
		c.logger.Error("Job committed but enqueue failed, debit needs reconciliation",
			slog.String("job_id", job.JobID),
			slog.String("owner_id", job.OwnerID),
			slog.Float64("cost", job.Cost),
			slog.Bool("admitted", job.Admitted),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: job %s: %v", domain.ErrQueueUnavailable, job.JobID, err)
	}

	c.logger.Info("Job enqueued",
		slog.String("job_id", job.JobID),
		slog.String("owner_id", job.OwnerID),
		slog.String("dataset", job.DatasetName),
		slog.Bool("admitted", job.Admitted),
		slog.Float64("cost", job.Cost),
	)
	return job, nil
}
