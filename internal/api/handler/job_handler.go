package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tokenvision/inference-be/internal/admission"
	"github.com/tokenvision/inference-be/internal/api/domain"
	"github.com/tokenvision/inference-be/internal/api/dto"
	"github.com/tokenvision/inference-be/internal/api/model"
)

// JobHandler handles inference job HTTP requests.
type JobHandler struct {
	logger    *slog.Logger
	ledger    Ledger
	jobs      JobReader
	admission Submitter
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:    deps.Logger,
		ledger:    deps.Ledger,
		jobs:      deps.Jobs,
		admission: deps.Admission,
	}
}

// SubmitInference handles POST /api/v1/inference
//
// A dataset with nothing uploaded cannot be inferred against. Submission
// never fails for lack of tokens: an unaffordable job is created anyway and
// reported as ABORTED.
func (h *JobHandler) SubmitInference(c *gin.Context) {
	acct := accountFromContext(c)

	var req dto.InferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	dataset, err := h.ledger.DatasetByName(c.Request.Context(), acct.ID, req.Dataset)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if dataset.AccumulatedCost <= 0 {
		writeError(c, h.logger, domain.ErrDatasetEmpty)
		return
	}

	job, err := h.admission.Submit(c.Request.Context(), acct, admission.Params{
		Dataset:    req.Dataset,
		Model:      req.Model,
		Detector:   req.Detector,
		Classifier: req.Classifier,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.logger.Info("Inference job submitted",
		slog.String("job_id", job.JobID),
		slog.String("owner", acct.Username),
		slog.String("dataset", job.DatasetName),
		slog.Bool("admitted", job.Admitted),
	)

	c.JSON(http.StatusAccepted, jobToDTO(job))
}

// GetJob handles GET /api/v1/jobs/:job_id
func (h *JobHandler) GetJob(c *gin.Context) {
	job, ok := h.ownedJob(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, jobToDTO(job))
}

// GetResult handles GET /api/v1/jobs/:job_id/result
//
// The raw model output is returned only once the job is COMPLETED from the
// owner's point of view; an ABORTED job never has a result.
func (h *JobHandler) GetResult(c *gin.Context) {
	job, ok := h.ownedJob(c)
	if !ok {
		return
	}

	if domain.UserStatus(job.Admitted, job.Status) != domain.UserStatusCompleted {
		writeError(c, h.logger, domain.ErrJobNotReady)
		return
	}

	c.Data(http.StatusOK, "application/json", job.Result)
}

// ListJobs handles GET /api/v1/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	acct := accountFromContext(c)

	jobs, err := h.jobs.ListJobsByOwner(c.Request.Context(), acct.ID, 100)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	resp := dto.ListJobsResponse{Jobs: make([]dto.JobResponse, len(jobs))}
	for i := range jobs {
		resp.Jobs[i] = jobToDTO(&jobs[i])
	}

	c.JSON(http.StatusOK, resp)
}

// ownedJob loads the path job and enforces that the requester owns it.
// Admins may inspect any job.
func (h *JobHandler) ownedJob(c *gin.Context) (*model.Job, bool) {
	acct := accountFromContext(c)

	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_id must be a valid UUID"})
		return nil, false
	}

	job, err := h.jobs.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		writeError(c, h.logger, err)
		return nil, false
	}

	if job.OwnerID != acct.ID && !acct.IsAdmin() {
		writeError(c, h.logger, domain.ErrNotOwner)
		return nil, false
	}

	return job, true
}

func jobToDTO(job *model.Job) dto.JobResponse {
	return dto.JobResponse{
		JobID:     job.JobID,
		Dataset:   job.DatasetName,
		Model:     job.Model,
		Status:    domain.UserStatus(job.Admitted, job.Status),
		Cost:      job.Cost,
		Error:     job.ErrorMessage,
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
		UpdatedAt: job.UpdatedAt.Format(time.RFC3339),
	}
}
