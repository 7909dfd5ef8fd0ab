package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/tokenvision/inference-be/internal/admission"
	"github.com/tokenvision/inference-be/internal/api/domain"
	"github.com/tokenvision/inference-be/internal/api/model"
	"github.com/tokenvision/inference-be/internal/estimator"
	"github.com/tokenvision/inference-be/internal/ledger"
	"github.com/tokenvision/inference-be/internal/pricing"
)

// AccountKey is the gin context key under which the identity middleware
// stores the resolved *ledger.Account.
const AccountKey = "account"

// Ledger is the account and dataset surface the handlers need.
type Ledger interface {
	WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	AccountByUsername(ctx context.Context, username string) (*ledger.Account, error)
	AccountForUpdateTx(ctx context.Context, tx *sqlx.Tx, userID string) (*ledger.Account, error)
	DebitTx(ctx context.Context, tx *sqlx.Tx, userID string, amount float64) error
	CreditTx(ctx context.Context, tx *sqlx.Tx, userID string, amount float64) error
	DatasetByName(ctx context.Context, ownerID, name string) (*ledger.Dataset, error)
	ListDatasets(ctx context.Context, ownerID string) ([]ledger.Dataset, error)
	CreateDataset(ctx context.Context, ds *ledger.Dataset) error
	RenameDataset(ctx context.Context, ownerID, name, newName string) error
	DeleteDataset(ctx context.Context, ownerID, name string) error
	AddDatasetCostTx(ctx context.Context, tx *sqlx.Tx, datasetID string, delta float64) error
}

// JobReader reads job records.
type JobReader interface {
	GetJobByID(ctx context.Context, jobID string) (*model.Job, error)
	ListJobsByOwner(ctx context.Context, ownerID string, limit int) ([]model.Job, error)
}

// Submitter performs admission-controlled job submission.
type Submitter interface {
	Submit(ctx context.Context, requester *ledger.Account, p admission.Params) (*model.Job, error)
}

// CostEstimator counts billable media units in uploaded files.
type CostEstimator interface {
	Estimate(ctx context.Context, items []estimator.Item) (pricing.Count, error)
}

// MediaStore persists uploaded dataset files.
type MediaStore interface {
	Create(owner, dataset string) error
	Save(owner, dataset, name string, data []byte) error
	Rename(owner, oldName, newName string) error
	Remove(owner, dataset string) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger    *slog.Logger
	Ledger    Ledger
	Jobs      JobReader
	Admission Submitter
	Estimator CostEstimator
	Media     MediaStore
	Tariff    pricing.Tariff
}

// accountFromContext returns the account the identity middleware resolved.
func accountFromContext(c *gin.Context) *ledger.Account {
	v, ok := c.Get(AccountKey)
	if !ok {
		return nil
	}
	acct, _ := v.(*ledger.Account)
	return acct
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrJobNotFound),
		errors.Is(err, ledger.ErrDatasetNotFound),
		errors.Is(err, ledger.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, ledger.ErrDatasetExists),
		errors.Is(err, domain.ErrJobNotReady):
		return http.StatusConflict
	case errors.Is(err, domain.ErrDatasetEmpty),
		errors.Is(err, estimator.ErrInvalidMediaFormat),
		errors.Is(err, estimator.ErrInvalidArchive):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrQueueUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders an error response. Internal errors are logged with
// detail but reported to the client generically.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("error", err.Error()),
		)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
