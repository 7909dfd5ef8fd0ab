// Package dto defines the request and response shapes of the HTTP API.
package dto

// CreateDatasetRequest is the body of POST /api/v1/datasets.
type CreateDatasetRequest struct {
	Name string `json:"name" binding:"required"`
}

// RenameDatasetRequest is the body of PATCH /api/v1/datasets/:name.
type RenameDatasetRequest struct {
	NewName string `json:"new_name" binding:"required"`
}

// DatasetResponse describes one dataset.
type DatasetResponse struct {
	Name            string  `json:"name"`
	AccumulatedCost float64 `json:"accumulated_cost"`
	CreatedAt       string  `json:"created_at"`
}

// ListDatasetsResponse is the body of GET /api/v1/datasets.
type ListDatasetsResponse struct {
	Datasets []DatasetResponse `json:"datasets"`
}

// UploadResponse reports what an upload counted and charged.
type UploadResponse struct {
	Dataset            string  `json:"dataset"`
	Images             int     `json:"images"`
	VideoFrames        int     `json:"video_frames"`
	UploadCost         float64 `json:"upload_cost"`
	InferenceCostAdded float64 `json:"inference_cost_added"`
	Balance            float64 `json:"balance"`
}

// InferenceRequest is the body of POST /api/v1/inference.
type InferenceRequest struct {
	Dataset    string `json:"dataset" binding:"required"`
	Model      string `json:"model" binding:"required"`
	Detector   string `json:"cam_det"`
	Classifier string `json:"cam_cls"`
}

// JobResponse describes one inference job as the owner sees it.
type JobResponse struct {
	JobID     string  `json:"job_id"`
	Dataset   string  `json:"dataset"`
	Model     string  `json:"model"`
	Status    string  `json:"status"`
	Cost      float64 `json:"cost"`
	Error     string  `json:"error,omitempty"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// ListJobsResponse is the body of GET /api/v1/jobs.
type ListJobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

// TokensResponse is the body of GET /api/v1/tokens.
type TokensResponse struct {
	Username string  `json:"username"`
	Balance  float64 `json:"balance"`
}

// RechargeRequest is the body of POST /api/v1/tokens/recharge.
type RechargeRequest struct {
	Username string  `json:"username" binding:"required"`
	Amount   float64 `json:"amount" binding:"required,gt=0"`
}
