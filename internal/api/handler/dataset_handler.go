package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tokenvision/inference-be/internal/api/dto"
	"github.com/tokenvision/inference-be/internal/estimator"
	"github.com/tokenvision/inference-be/internal/ledger"
	"github.com/tokenvision/inference-be/internal/pricing"
)

// maxUploadBytes caps a single multipart upload.
const maxUploadBytes = 512 << 20

// DatasetHandler handles dataset lifecycle and media upload requests.
type DatasetHandler struct {
	logger    *slog.Logger
	ledger    Ledger
	estimator CostEstimator
	media     MediaStore
	tariff    pricing.Tariff
}

// NewDatasetHandler creates a new DatasetHandler instance
func NewDatasetHandler(deps *Dependencies) *DatasetHandler {
	return &DatasetHandler{
		logger:    deps.Logger,
		ledger:    deps.Ledger,
		estimator: deps.Estimator,
		media:     deps.Media,
		tariff:    deps.Tariff,
	}
}

// CreateDataset handles POST /api/v1/datasets
func (h *DatasetHandler) CreateDataset(c *gin.Context) {
	acct := accountFromContext(c)

	var req dto.CreateDatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ds := &ledger.Dataset{
		ID:        uuid.New().String(),
		OwnerID:   acct.ID,
		Name:      req.Name,
		CreatedAt: time.Now(),
	}
	if err := h.ledger.CreateDataset(c.Request.Context(), ds); err != nil {
		writeError(c, h.logger, err)
		return
	}

	if err := h.media.Create(acct.Username, ds.Name); err != nil {
		h.logger.Error("Dataset directory creation failed",
			slog.String("owner", acct.Username),
			slog.String("dataset", ds.Name),
			slog.String("error", err.Error()),
		)
	}

	h.logger.Info("Dataset created",
		slog.String("owner", acct.Username),
		slog.String("dataset", ds.Name),
	)

	c.JSON(http.StatusCreated, dto.DatasetResponse{
		Name:            ds.Name,
		AccumulatedCost: ds.AccumulatedCost,
		CreatedAt:       ds.CreatedAt.Format(time.RFC3339),
	})
}

// ListDatasets handles GET /api/v1/datasets
func (h *DatasetHandler) ListDatasets(c *gin.Context) {
	acct := accountFromContext(c)

	datasets, err := h.ledger.ListDatasets(c.Request.Context(), acct.ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	resp := dto.ListDatasetsResponse{Datasets: make([]dto.DatasetResponse, len(datasets))}
	for i, ds := range datasets {
		resp.Datasets[i] = dto.DatasetResponse{
			Name:            ds.Name,
			AccumulatedCost: ds.AccumulatedCost,
			CreatedAt:       ds.CreatedAt.Format(time.RFC3339),
		}
	}

	c.JSON(http.StatusOK, resp)
}

// RenameDataset handles PATCH /api/v1/datasets/:name
func (h *DatasetHandler) RenameDataset(c *gin.Context) {
	acct := accountFromContext(c)
	name := c.Param("name")

	var req dto.RenameDatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.ledger.RenameDataset(c.Request.Context(), acct.ID, name, req.NewName); err != nil {
		writeError(c, h.logger, err)
		return
	}

	if err := h.media.Rename(acct.Username, name, req.NewName); err != nil {
		h.logger.Error("Dataset directory rename failed",
			slog.String("owner", acct.Username),
			slog.String("dataset", name),
			slog.String("error", err.Error()),
		)
	}

	c.JSON(http.StatusOK, gin.H{"name": req.NewName})
}

// DeleteDataset handles DELETE /api/v1/datasets/:name
func (h *DatasetHandler) DeleteDataset(c *gin.Context) {
	acct := accountFromContext(c)
	name := c.Param("name")

	if err := h.ledger.DeleteDataset(c.Request.Context(), acct.ID, name); err != nil {
		writeError(c, h.logger, err)
		return
	}

	if err := h.media.Remove(acct.Username, name); err != nil {
		h.logger.Error("Dataset directory removal failed",
			slog.String("owner", acct.Username),
			slog.String("dataset", name),
			slog.String("error", err.Error()),
		)
	}

	c.Status(http.StatusNoContent)
}

// Upload handles POST /api/v1/datasets/:name/upload
//
// The upload is priced before anything is persisted. The whole batch is
// rejected when any file fails media classification, and rejected with 402
// when the balance cannot cover the upload cost; a rejected upload charges
// nothing and stores nothing. An accepted upload debits the upload cost and
// adds the batch's inference cost to the dataset in one transaction.
func (h *DatasetHandler) Upload(c *gin.Context) {
	acct := accountFromContext(c)
	name := c.Param("name")

	dataset, err := h.ledger.DatasetByName(c.Request.Context(), acct.ID, name)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	items, err := readMultipartItems(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files in upload"})
		return
	}

	count, err := h.estimator.Estimate(c.Request.Context(), items)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	uploadCost := h.tariff.UploadCost(count)
	inferenceCost := h.tariff.InferenceCost(count)

	var balance float64
	err = h.ledger.WithinTx(c.Request.Context(), func(tx *sqlx.Tx) error {
		current, err := h.ledger.AccountForUpdateTx(c.Request.Context(), tx, acct.ID)
		if err != nil {
			return err
		}
		if current.Balance < uploadCost {
			return ledger.ErrInsufficientBalance
		}
		if err := h.ledger.DebitTx(c.Request.Context(), tx, acct.ID, uploadCost); err != nil {
			return err
		}
		balance = current.Balance - uploadCost
		return h.ledger.AddDatasetCostTx(c.Request.Context(), tx, dataset.ID, inferenceCost)
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	for _, item := range items {
		if err := h.media.Save(acct.Username, name, item.Name, item.Data); err != nil {
			h.logger.Error("Media file save failed after charge",
				slog.String("owner", acct.Username),
				slog.String("dataset", name),
				slog.String("file", item.Name),
				slog.String("error", err.Error()),
			)
			writeError(c, h.logger, err)
			return
		}
	}

	h.logger.Info("Upload accepted",
		slog.String("owner", acct.Username),
		slog.String("dataset", name),
		slog.Int("images", count.Images+count.ZipImages),
		slog.Int("video_frames", count.VideoFrames+count.ZipVideoFrames),
		slog.Float64("upload_cost", uploadCost),
	)

	c.JSON(http.StatusOK, dto.UploadResponse{
		Dataset:            name,
		Images:             count.Images + count.ZipImages,
		VideoFrames:        count.VideoFrames + count.ZipVideoFrames,
		UploadCost:         uploadCost,
		InferenceCostAdded: inferenceCost,
		Balance:            balance,
	})
}

func readMultipartItems(c *gin.Context) ([]estimator.Item, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}

	files := form.File["files"]
	items := make([]estimator.Item, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open uploaded file %q: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read uploaded file %q: %w", fh.Filename, err)
		}
		items = append(items, estimator.Item{Name: fh.Filename, Data: data})
	}
	return items, nil
}
