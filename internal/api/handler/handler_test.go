package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenvision/inference-be/internal/admission"
	"github.com/tokenvision/inference-be/internal/api/domain"
	"github.com/tokenvision/inference-be/internal/api/handler"
	"github.com/tokenvision/inference-be/internal/api/model"
	"github.com/tokenvision/inference-be/internal/api/router"
	"github.com/tokenvision/inference-be/internal/estimator"
	"github.com/tokenvision/inference-be/internal/ledger"
	"github.com/tokenvision/inference-be/internal/pricing"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeLedger struct {
	accounts map[string]*ledger.Account // keyed by username
	datasets map[string]*ledger.Dataset // keyed by ownerID/name

	// beforeTx, when set, runs as WithinTx begins; used to interleave a
	// concurrent mutation between a handler's read and its transaction.
	beforeTx func()
}

func (f *fakeLedger) key(ownerID, name string) string { return ownerID + "/" + name }

func (f *fakeLedger) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if f.beforeTx != nil {
		f.beforeTx()
	}
	return fn(nil)
}

func (f *fakeLedger) AccountByUsername(_ context.Context, username string) (*ledger.Account, error) {
	acct, ok := f.accounts[username]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	cp := *acct
	return &cp, nil
}

func (f *fakeLedger) AccountForUpdateTx(_ context.Context, _ *sqlx.Tx, userID string) (*ledger.Account, error) {
	for _, acct := range f.accounts {
		if acct.ID == userID {
			cp := *acct
			return &cp, nil
		}
	}
	return nil, ledger.ErrAccountNotFound
}

func (f *fakeLedger) DebitTx(_ context.Context, _ *sqlx.Tx, userID string, amount float64) error {
	for _, acct := range f.accounts {
		if acct.ID == userID {
			if acct.Balance < amount {
				return ledger.ErrInsufficientBalance
			}
			acct.Balance -= amount
			return nil
		}
	}
	return ledger.ErrAccountNotFound
}

func (f *fakeLedger) CreditTx(_ context.Context, _ *sqlx.Tx, userID string, amount float64) error {
	for _, acct := range f.accounts {
		if acct.ID == userID {
			acct.Balance += amount
			return nil
		}
	}
	return ledger.ErrAccountNotFound
}

func (f *fakeLedger) DatasetByName(_ context.Context, ownerID, name string) (*ledger.Dataset, error) {
	ds, ok := f.datasets[f.key(ownerID, name)]
	if !ok {
		return nil, ledger.ErrDatasetNotFound
	}
	cp := *ds
	return &cp, nil
}

func (f *fakeLedger) ListDatasets(_ context.Context, ownerID string) ([]ledger.Dataset, error) {
	var out []ledger.Dataset
	for _, ds := range f.datasets {
		if ds.OwnerID == ownerID {
			out = append(out, *ds)
		}
	}
	return out, nil
}

func (f *fakeLedger) CreateDataset(_ context.Context, ds *ledger.Dataset) error {
	k := f.key(ds.OwnerID, ds.Name)
	if _, ok := f.datasets[k]; ok {
		return ledger.ErrDatasetExists
	}
	cp := *ds
	f.datasets[k] = &cp
	return nil
}

func (f *fakeLedger) RenameDataset(_ context.Context, ownerID, name, newName string) error {
	k := f.key(ownerID, name)
	ds, ok := f.datasets[k]
	if !ok {
		return ledger.ErrDatasetNotFound
	}
	delete(f.datasets, k)
	ds.Name = newName
	f.datasets[f.key(ownerID, newName)] = ds
	return nil
}

func (f *fakeLedger) DeleteDataset(_ context.Context, ownerID, name string) error {
	k := f.key(ownerID, name)
	if _, ok := f.datasets[k]; !ok {
		return ledger.ErrDatasetNotFound
	}
	delete(f.datasets, k)
	return nil
}

func (f *fakeLedger) AddDatasetCostTx(_ context.Context, _ *sqlx.Tx, datasetID string, delta float64) error {
	for _, ds := range f.datasets {
		if ds.ID == datasetID {
			ds.AccumulatedCost += delta
			return nil
		}
	}
	return ledger.ErrDatasetNotFound
}

type fakeJobReader struct {
	jobs map[string]*model.Job
}

func (f *fakeJobReader) GetJobByID(_ context.Context, jobID string) (*model.Job, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (f *fakeJobReader) ListJobsByOwner(_ context.Context, ownerID string, limit int) ([]model.Job, error) {
	var out []model.Job
	for _, job := range f.jobs {
		if job.OwnerID == ownerID {
			out = append(out, *job)
		}
	}
	return out, nil
}

type fakeSubmitter struct {
	job    *model.Job
	err    error
	params admission.Params
}

func (f *fakeSubmitter) Submit(_ context.Context, requester *ledger.Account, p admission.Params) (*model.Job, error) {
	f.params = p
	if f.err != nil {
		return nil, f.err
	}
	return f.job, nil
}

type fakeEstimator struct {
	count pricing.Count
	err   error
}

func (f *fakeEstimator) Estimate(_ context.Context, items []estimator.Item) (pricing.Count, error) {
	return f.count, f.err
}

type fakeMedia struct {
	saved map[string][]byte
}

func (f *fakeMedia) Save(owner, dataset, name string, data []byte) error {
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	f.saved[owner+"/"+dataset+"/"+name] = data
	return nil
}

func (f *fakeMedia) Create(owner, dataset string) error { return nil }
func (f *fakeMedia) Rename(owner, oldName, newName string) error { return nil }
func (f *fakeMedia) Remove(owner, dataset string) error { return nil }

type env struct {
	router    *gin.Engine
	ledger    *fakeLedger
	jobs      *fakeJobReader
	submitter *fakeSubmitter
	estimator *fakeEstimator
	media     *fakeMedia
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		ledger: &fakeLedger{
			accounts: map[string]*ledger.Account{
				"alice": {ID: "u1", Username: "alice", Role: ledger.RoleUser, Balance: 10},
				"bob":   {ID: "u2", Username: "bob", Role: ledger.RoleUser, Balance: 10},
				"root":  {ID: "u0", Username: "root", Role: ledger.RoleAdmin, Balance: 100},
			},
			datasets: map[string]*ledger.Dataset{},
		},
		jobs:      &fakeJobReader{jobs: map[string]*model.Job{}},
		submitter: &fakeSubmitter{},
		estimator: &fakeEstimator{},
		media:     &fakeMedia{},
	}

	e.router = router.SetupRouter(&handler.Dependencies{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Ledger:    e.ledger,
		Jobs:      e.jobs,
		Admission: e.submitter,
		Estimator: e.estimator,
		Media:     e.media,
		Tariff:    pricing.DefaultTariff(),
	})
	return e
}

func (e *env) do(t *testing.T, method, path, user string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if user != "" {
		req.Header.Set("X-User", user)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(data)
}

const jobID = "3f1b2a04-9c1d-4f6e-8a7b-2d5c1e0f9a33"

func seedJob(e *env, admitted bool, status string) {
	e.jobs.jobs[jobID] = &model.Job{
		JobID:       jobID,
		OwnerID:     "u1",
		DatasetName: "traffic",
		Model:       "yolov5",
		Admitted:    admitted,
		Cost:        4.25,
		Status:      status,
		Result:      []byte(`{"detections":[]}`),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

func TestIdentityMiddleware(t *testing.T) {
	e := newEnv(t)

	t.Run("missing header", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/v1/jobs", "", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown account", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/v1/jobs", "mallory", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("health needs no identity", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/health", "", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetJob_StatusProjection(t *testing.T) {
	tests := []struct {
		name       string
		admitted   bool
		status     string
		wantStatus string
	}{
		{"unadmitted waiting is aborted", false, domain.JobStatusWaiting, domain.UserStatusAborted},
		{"unadmitted completed is aborted", false, domain.JobStatusCompleted, domain.UserStatusAborted},
		{"admitted waiting is pending", true, domain.JobStatusWaiting, domain.UserStatusPending},
		{"admitted active is running", true, domain.JobStatusActive, domain.UserStatusRunning},
		{"admitted completed is completed", true, domain.JobStatusCompleted, domain.UserStatusCompleted},
		{"admitted failed is failed", true, domain.JobStatusFailed, domain.UserStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			seedJob(e, tt.admitted, tt.status)

			w := e.do(t, http.MethodGet, "/api/v1/jobs/"+jobID, "alice", nil, "")
			require.Equal(t, http.StatusOK, w.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp["status"])
		})
	}
}

func TestGetJob_Ownership(t *testing.T) {
	e := newEnv(t)
	seedJob(e, true, domain.JobStatusCompleted)

	t.Run("stranger is forbidden", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/v1/jobs/"+jobID, "bob", nil, "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin may inspect", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/v1/jobs/"+jobID, "root", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown job is 404", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/v1/jobs/8e7d6c5b-4a39-4281-9170-06f5e4d3c2b1", "alice", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/v1/jobs/not-a-uuid", "alice", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetResult(t *testing.T) {
	t.Run("completed returns raw result", func(t *testing.T) {
		e := newEnv(t)
		seedJob(e, true, domain.JobStatusCompleted)

		w := e.do(t, http.MethodGet, "/api/v1/jobs/"+jobID+"/result", "alice", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"detections":[]}`, w.Body.String())
	})

	t.Run("running job has no result", func(t *testing.T) {
		e := newEnv(t)
		seedJob(e, true, domain.JobStatusActive)

		w := e.do(t, http.MethodGet, "/api/v1/jobs/"+jobID+"/result", "alice", nil, "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("aborted job has no result", func(t *testing.T) {
		e := newEnv(t)
		seedJob(e, false, domain.JobStatusCompleted)

		w := e.do(t, http.MethodGet, "/api/v1/jobs/"+jobID+"/result", "alice", nil, "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestSubmitInference(t *testing.T) {
	t.Run("empty dataset rejected", func(t *testing.T) {
		e := newEnv(t)
		e.ledger.datasets["u1/traffic"] = &ledger.Dataset{ID: "d1", OwnerID: "u1", Name: "traffic"}

		w := e.do(t, http.MethodPost, "/api/v1/inference", "alice",
			jsonBody(t, map[string]string{"dataset": "traffic", "model": "yolov5"}), "application/json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown dataset is 404", func(t *testing.T) {
		e := newEnv(t)

		w := e.do(t, http.MethodPost, "/api/v1/inference", "alice",
			jsonBody(t, map[string]string{"dataset": "missing", "model": "yolov5"}), "application/json")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("accepted job reports pending", func(t *testing.T) {
		e := newEnv(t)
		e.ledger.datasets["u1/traffic"] = &ledger.Dataset{ID: "d1", OwnerID: "u1", Name: "traffic", AccumulatedCost: 5.5}
		e.submitter.job = &model.Job{
			JobID:       jobID,
			OwnerID:     "u1",
			DatasetName: "traffic",
			Model:       "yolov5",
			Admitted:    true,
			Cost:        5.5,
			Status:      domain.JobStatusWaiting,
		}

		w := e.do(t, http.MethodPost, "/api/v1/inference", "alice",
			jsonBody(t, map[string]string{"dataset": "traffic", "model": "yolov5", "cam_det": "det.cfg"}), "application/json")
		require.Equal(t, http.StatusAccepted, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, domain.UserStatusPending, resp["status"])
		assert.Equal(t, "det.cfg", e.submitter.params.Detector)
	})

	t.Run("unaffordable job reports aborted", func(t *testing.T) {
		e := newEnv(t)
		e.ledger.datasets["u1/traffic"] = &ledger.Dataset{ID: "d1", OwnerID: "u1", Name: "traffic", AccumulatedCost: 99}
		e.submitter.job = &model.Job{
			JobID:       jobID,
			OwnerID:     "u1",
			DatasetName: "traffic",
			Model:       "yolov5",
			Admitted:    false,
			Cost:        99,
			Status:      domain.JobStatusWaiting,
		}

		w := e.do(t, http.MethodPost, "/api/v1/inference", "alice",
			jsonBody(t, map[string]string{"dataset": "traffic", "model": "yolov5"}), "application/json")
		require.Equal(t, http.StatusAccepted, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, domain.UserStatusAborted, resp["status"])
	})

	t.Run("queue outage is 503", func(t *testing.T) {
		e := newEnv(t)
		e.ledger.datasets["u1/traffic"] = &ledger.Dataset{ID: "d1", OwnerID: "u1", Name: "traffic", AccumulatedCost: 5.5}
		e.submitter.err = domain.ErrQueueUnavailable

		w := e.do(t, http.MethodPost, "/api/v1/inference", "alice",
			jsonBody(t, map[string]string{"dataset": "traffic", "model": "yolov5"}), "application/json")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func multipartBody(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for name, data := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestUpload(t *testing.T) {
	t.Run("charges upload cost and accrues inference cost", func(t *testing.T) {
		e := newEnv(t)
		e.ledger.datasets["u1/traffic"] = &ledger.Dataset{ID: "d1", OwnerID: "u1", Name: "traffic"}
		e.estimator.count = pricing.Count{Images: 2}

		body, contentType := multipartBody(t, map[string][]byte{"a.png": []byte("x"), "b.png": []byte("y")})
		w := e.do(t, http.MethodPost, "/api/v1/datasets/traffic/upload", "alice", body, contentType)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		// 2 images: upload 2*0.65, inference 2*2.75
		assert.InDelta(t, 10-1.3, e.ledger.accounts["alice"].Balance, 1e-9)
		assert.InDelta(t, 5.5, e.ledger.datasets["u1/traffic"].AccumulatedCost, 1e-9)
		assert.Len(t, e.media.saved, 2)
		assert.Contains(t, e.media.saved, "alice/traffic/a.png")
	})

	t.Run("insufficient balance stores nothing", func(t *testing.T) {
		e := newEnv(t)
		e.ledger.accounts["alice"].Balance = 1
		e.ledger.datasets["u1/traffic"] = &ledger.Dataset{ID: "d1", OwnerID: "u1", Name: "traffic"}
		e.estimator.count = pricing.Count{Images: 2}

		body, contentType := multipartBody(t, map[string][]byte{"a.png": []byte("x"), "b.png": []byte("y")})
		w := e.do(t, http.MethodPost, "/api/v1/datasets/traffic/upload", "alice", body, contentType)
		assert.Equal(t, http.StatusPaymentRequired, w.Code)

		assert.InDelta(t, 1, e.ledger.accounts["alice"].Balance, 1e-9)
		assert.InDelta(t, 0, e.ledger.datasets["u1/traffic"].AccumulatedCost, 1e-9)
		assert.Empty(t, e.media.saved)
	})

	t.Run("invalid media rejects whole batch", func(t *testing.T) {
		e := newEnv(t)
		e.ledger.datasets["u1/traffic"] = &ledger.Dataset{ID: "d1", OwnerID: "u1", Name: "traffic"}
		e.estimator.err = fmt.Errorf("%w: file %q", estimator.ErrInvalidMediaFormat, "a.bin")

		body, contentType := multipartBody(t, map[string][]byte{"a.bin": []byte("x")})
		w := e.do(t, http.MethodPost, "/api/v1/datasets/traffic/upload", "alice", body, contentType)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, e.media.saved)
		assert.InDelta(t, 10, e.ledger.accounts["alice"].Balance, 1e-9)
	})

	t.Run("unknown dataset is 404", func(t *testing.T) {
		e := newEnv(t)

		body, contentType := multipartBody(t, map[string][]byte{"a.png": []byte("x")})
		w := e.do(t, http.MethodPost, "/api/v1/datasets/missing/upload", "alice", body, contentType)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDatasetCRUD(t *testing.T) {
	e := newEnv(t)

	t.Run("create", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/datasets", "alice",
			jsonBody(t, map[string]string{"name": "traffic"}), "application/json")
		require.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("duplicate create conflicts", func(t *testing.T) {
		w := e.do(t, http.MethodPost, "/api/v1/datasets", "alice",
			jsonBody(t, map[string]string{"name": "traffic"}), "application/json")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("list", func(t *testing.T) {
		w := e.do(t, http.MethodGet, "/api/v1/datasets", "alice", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, strings.Contains(w.Body.String(), "traffic"))
	})

	t.Run("rename", func(t *testing.T) {
		w := e.do(t, http.MethodPatch, "/api/v1/datasets/traffic", "alice",
			jsonBody(t, map[string]string{"new_name": "roads"}), "application/json")
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := e.do(t, http.MethodDelete, "/api/v1/datasets/roads", "alice", nil, "")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("delete unknown is 404", func(t *testing.T) {
		w := e.do(t, http.MethodDelete, "/api/v1/datasets/roads", "alice", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTokens(t *testing.T) {
	t.Run("own balance", func(t *testing.T) {
		e := newEnv(t)
		w := e.do(t, http.MethodGet, "/api/v1/tokens", "alice", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "alice", resp["username"])
		assert.InDelta(t, 10, resp["balance"].(float64), 1e-9)
	})

	t.Run("non-admin cannot inspect others", func(t *testing.T) {
		e := newEnv(t)
		w := e.do(t, http.MethodGet, "/api/v1/tokens?username=bob", "alice", nil, "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin inspects others", func(t *testing.T) {
		e := newEnv(t)
		w := e.do(t, http.MethodGet, "/api/v1/tokens?username=bob", "root", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "bob", resp["username"])
	})

	t.Run("recharge requires admin", func(t *testing.T) {
		e := newEnv(t)
		w := e.do(t, http.MethodPost, "/api/v1/tokens/recharge", "alice",
			jsonBody(t, map[string]any{"username": "alice", "amount": 100.0}), "application/json")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.InDelta(t, 10, e.ledger.accounts["alice"].Balance, 1e-9)
	})

	t.Run("admin recharge credits account", func(t *testing.T) {
		e := newEnv(t)
		w := e.do(t, http.MethodPost, "/api/v1/tokens/recharge", "root",
			jsonBody(t, map[string]any{"username": "alice", "amount": 25.0}), "application/json")
		require.Equal(t, http.StatusOK, w.Code)
		assert.InDelta(t, 35, e.ledger.accounts["alice"].Balance, 1e-9)
	})

	t.Run("recharge reports balance as of the credit", func(t *testing.T) {
		e := newEnv(t)
		// A debit lands between the handler's account lookup and the
		// credit transaction.
		e.ledger.beforeTx = func() {
			e.ledger.accounts["alice"].Balance -= 5
		}

		w := e.do(t, http.MethodPost, "/api/v1/tokens/recharge", "root",
			jsonBody(t, map[string]any{"username": "alice", "amount": 25.0}), "application/json")
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.InDelta(t, 30, resp["balance"].(float64), 1e-9)
		assert.InDelta(t, 30, e.ledger.accounts["alice"].Balance, 1e-9)
	})

	t.Run("recharge unknown account is 404", func(t *testing.T) {
		e := newEnv(t)
		w := e.do(t, http.MethodPost, "/api/v1/tokens/recharge", "root",
			jsonBody(t, map[string]any{"username": "mallory", "amount": 25.0}), "application/json")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
