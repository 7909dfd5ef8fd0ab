package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tokenvision/inference-be/internal/inference"
	"github.com/tokenvision/inference-be/internal/worker/domain"
)

// processJob claims a job, runs one dispatch attempt, persists the resulting
// transition and executes its side-effect commands.
func (w *Worker) processJob(ctx context.Context, msg *domain.JobMessage) error {
	job, err := w.storage.ClaimJob(ctx, msg.JobID, w.workerID)
	if err != nil {
		if errors.Is(err, domain.ErrJobAlreadyClaimed) {
			// Another worker owns this job or it is already terminal - don't requeue
			w.logger.Warn("Job already claimed, skipping",
				slog.String("job_id", msg.JobID),
			)
			return fmt.Errorf("job already claimed: %w", err)
		}
		// Database error - could be transient
		return domain.NewRetryableError(fmt.Errorf("failed to claim job: %w", err))
	}

	var result []byte
	var execErr error
	if job.Admitted {
		result, execErr = w.dispatch(ctx, job)
	}

	transition := Decide(job, result, execErr)
	if err := w.applyTransition(ctx, job, transition); err != nil {
		return err
	}

	w.logger.Info("Job processed",
		slog.String("job_id", job.JobID),
		slog.String("status", transition.Status),
		slog.Bool("admitted", job.Admitted),
	)
	return nil
}

// dispatch calls the external inference service with a bounded per-call
// timeout so one stalled call cannot hold a worker forever.
func (w *Worker) dispatch(ctx context.Context, job *domain.Job) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, w.dispatchTimeout)
	defer cancel()

	return w.inference.Run(callCtx, inference.Request{
		JobID:      job.JobID,
		User:       job.OwnerUsername,
		Dataset:    job.DatasetName,
		Model:      job.Model,
		Detector:   job.Detector,
		Classifier: job.Classifier,
	})
}

// applyTransition persists the terminal status, then executes the
// transition's commands.
func (w *Worker) applyTransition(ctx context.Context, job *domain.Job, tr Transition) error {
	switch tr.Status {
	case domain.JobStatusCompleted:
		if err := w.storage.CompleteJob(ctx, job.JobID, tr.Result); err != nil {
			return domain.NewRetryableError(fmt.Errorf("failed to complete job %s: %w", job.JobID, err))
		}
	case domain.JobStatusFailed:
		w.logger.Error("Job dispatch failed",
			slog.String("job_id", job.JobID),
			slog.String("error", tr.ErrorMsg),
		)
		if err := w.storage.FailJob(ctx, job.JobID, tr.ErrorMsg); err != nil {
			return domain.NewRetryableError(fmt.Errorf("failed to mark job %s failed: %w", job.JobID, err))
		}
	default:
		return fmt.Errorf("unexpected transition status %q for job %s", tr.Status, job.JobID)
	}

	for _, cmd := range tr.Commands {
		switch cmd {
		case CmdRefundDebit:
			if err := w.storage.Refund(ctx, job.OwnerID, job.Cost); err != nil {
				// A lost refund is lost money. Surface it for out-of-band
				// reconciliation; swallowing it is not an option.
				w.logger.Error("Compensation refund failed, owner must be reconciled",
					slog.String("job_id", job.JobID),
					slog.String("owner_id", job.OwnerID),
					slog.Float64("amount", job.Cost),
					slog.String("error", err.Error()),
				)
				return fmt.Errorf("%w: job %s: %v", domain.ErrCompensationFailed, job.JobID, err)
			}
			w.logger.Info("Refunded admission debit",
				slog.String("job_id", job.JobID),
				slog.String("owner_id", job.OwnerID),
				slog.Float64("amount", job.Cost),
			)
		case CmdEnforceRetention:
			if err := w.retention.OnCompletion(ctx, job.OwnerID); err != nil {
				// The job itself is terminal; retention overflow is corrected
				// on the owner's next completion. Log, don't requeue.
				w.logger.Error("Retention enforcement failed",
					slog.String("job_id", job.JobID),
					slog.String("owner_id", job.OwnerID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	return nil
}
