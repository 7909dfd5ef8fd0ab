package model

import "time"

// Job is an inference job row. Admitted is fixed at creation and never
// changes; Cost is the amount debited at admission (recorded even when
// Admitted is false, for audit).
type Job struct {
	JobID         string    `db:"job_id"`
	OwnerID       string    `db:"owner_id"`
	OwnerUsername string    `db:"owner_username"`
	DatasetID     string    `db:"dataset_id"`
	DatasetName   string    `db:"dataset_name"`
	Model         string    `db:"model"`
	Detector      string    `db:"detector_config"`
	Classifier    string    `db:"classifier_config"`
	Admitted      bool      `db:"admitted"`
	Cost          float64   `db:"cost"`
	Status        string    `db:"status"`
	Result        []byte    `db:"result"`
	ErrorMessage  string    `db:"error_message"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}
