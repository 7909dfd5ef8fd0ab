package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/tokenvision/inference-be/internal/worker/domain"
)

// Storage handles all database operations for the worker
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// ClaimJob transitions a job WAITING -> ACTIVE. The status guard makes the
// claim exclusive between workers: a second worker racing for the same job
// matches zero rows and gets ErrJobAlreadyClaimed. A worker may reclaim its
// own ACTIVE row, so a redelivered message can finish a transition that died
// between the claim and the terminal status write. Terminal rows never match.
func (s *Storage) ClaimJob(ctx context.Context, jobID, workerID string) (*domain.Job, error) {
	query := `
		UPDATE jobs
		SET status = $1,
		    worker_id = $2,
		    started_at = NOW(),
		    updated_at = NOW()
		WHERE job_id = $3
		  AND (status = $4 OR (status = $1 AND worker_id = $2))
		RETURNING job_id, owner_id, owner_username, dataset_id, dataset_name,
		          model, detector_config, classifier_config, admitted, cost
	`

	var job domain.Job
	err := s.db.QueryRowxContext(ctx, query, domain.JobStatusActive, workerID, jobID, domain.JobStatusWaiting).StructScan(&job)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("Failed to claim job - already claimed or not found",
				slog.String("job_id", jobID),
				slog.String("worker_id", workerID),
			)
			return nil, domain.ErrJobAlreadyClaimed
		}
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	s.logger.Info("Job claimed",
		slog.String("job_id", jobID),
		slog.String("worker_id", workerID),
		slog.Bool("admitted", job.Admitted),
	)

	return &job, nil
}

// CompleteJob marks the job COMPLETED and stores its result. An unadmitted
// job completes with a nil result.
func (s *Storage) CompleteJob(ctx context.Context, jobID string, result []byte) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = $1,
		    result = $2,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE job_id = $3
	`, domain.JobStatusCompleted, result, jobID)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	return nil
}

// FailJob marks the job FAILED with the dispatch error message.
func (s *Storage) FailJob(ctx context.Context, jobID, errorMsg string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = $1,
		    error_message = $2,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE job_id = $3
	`, domain.JobStatusFailed, errorMsg, jobID)
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return nil
}

// Refund credits the debited amount back to the owner in one short
// transaction. Called only for admitted jobs that failed dispatch.
func (s *Storage) Refund(ctx context.Context, ownerID string, amount float64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin refund transaction: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = balance + $1
		WHERE user_id = $2
	`, amount, ownerID)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("refund account: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("refund account: rows affected: %w", err)
	}
	if rows == 0 {
		tx.Rollback()
		return fmt.Errorf("refund account: owner %s not found", ownerID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit refund: %w", err)
	}
	return nil
}

// WithOwnerLock runs fn in a transaction holding a per-owner advisory lock,
// so retention checks for the same owner are linearized.
func (s *Storage) WithOwnerLock(ctx context.Context, ownerID string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin retention transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, ownerID); err != nil {
		tx.Rollback()
		return fmt.Errorf("acquire owner lock: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit retention transaction: %w", err)
	}
	return nil
}

// CountCompletedTx counts the owner's COMPLETED jobs.
func (s *Storage) CountCompletedTx(ctx context.Context, tx *sqlx.Tx, ownerID string) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM jobs
		WHERE owner_id = $1 AND status = $2
	`, ownerID, domain.JobStatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("count completed jobs: %w", err)
	}
	return count, nil
}

// DeleteOldestCompletedTx evicts the owner's oldest COMPLETED job, ordered
// by creation time with job_id breaking ties, and returns its id.
func (s *Storage) DeleteOldestCompletedTx(ctx context.Context, tx *sqlx.Tx, ownerID string) (string, error) {
	var jobID string
	err := tx.GetContext(ctx, &jobID, `
		DELETE FROM jobs
		WHERE job_id = (
			SELECT job_id
			FROM jobs
			WHERE owner_id = $1 AND status = $2
			ORDER BY created_at ASC, job_id ASC
			LIMIT 1
		)
		RETURNING job_id
	`, ownerID, domain.JobStatusCompleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrJobNotFound
		}
		return "", fmt.Errorf("delete oldest completed job: %w", err)
	}
	return jobID, nil
}
