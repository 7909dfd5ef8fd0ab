package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tokenvision/inference-be/internal/api/domain"
	"github.com/tokenvision/inference-be/internal/api/model"
	"github.com/tokenvision/inference-be/shared/postgresql"
)

// Storage handles job reads and writes for the API service.
type Storage struct {
	db *sqlx.DB
}

func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

const jobColumns = `
	job_id, owner_id, owner_username, dataset_id, dataset_name,
	model, detector_config, classifier_config,
	admitted, cost, status, result, error_message, created_at, updated_at
`

// CreateJobTx inserts a job row inside the admission transaction so the
// debit and the job record commit or roll back together.
func (s *Storage) CreateJobTx(ctx context.Context, tx *sqlx.Tx, job *model.Job) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO jobs (
			job_id, owner_id, owner_username, dataset_id, dataset_name,
			model, detector_config, classifier_config,
			admitted, cost, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11, $12, $13
		)
	`,
		job.JobID,
		job.OwnerID,
		job.OwnerUsername,
		job.DatasetID,
		job.DatasetName,
		job.Model,
		job.Detector,
		job.Classifier,
		job.Admitted,
		job.Cost,
		job.Status,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// GetJobByID loads one job row.
func (s *Storage) GetJobByID(ctx context.Context, jobID string) (*model.Job, error) {
	var job model.Job
	err := s.db.GetContext(ctx, &job, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE job_id = $1
	`, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// ListJobsByOwner returns the owner's jobs, newest first.
func (s *Storage) ListJobsByOwner(ctx context.Context, ownerID string, limit int) ([]model.Job, error) {
	var jobs []model.Job
	err := s.db.SelectContext(ctx, &jobs, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE owner_id = $1
		ORDER BY created_at DESC, job_id DESC
		LIMIT $2
	`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}
