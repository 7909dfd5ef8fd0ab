package domain

// Job is a claimed job as the worker sees it. The owner username and dataset
// name are denormalized onto the row so dispatch needs no extra lookups.
type Job struct {
	JobID         string  `db:"job_id"`
	OwnerID       string  `db:"owner_id"`
	OwnerUsername string  `db:"owner_username"`
	DatasetID     string  `db:"dataset_id"`
	DatasetName   string  `db:"dataset_name"`
	Model         string  `db:"model"`
	Detector      string  `db:"detector_config"`
	Classifier    string  `db:"classifier_config"`
	Admitted      bool    `db:"admitted"`
	Cost          float64 `db:"cost"`
}

// JobMessage is a job reference delivered over RabbitMQ.
type JobMessage struct {
	JobID       string `json:"job_id"`
	DeliveryTag uint64 `json:"-"`
}
