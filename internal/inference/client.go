// Package inference is the HTTP client for the external machine-vision
// service. The service is treated as opaque and unreliable; every failure
// mode collapses into ErrDispatchFailed for the caller.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrDispatchFailed is returned for transport errors, non-success responses,
// and malformed response bodies.
var ErrDispatchFailed = errors.New("inference dispatch failed")

// DefaultTimeout bounds a single inference call so one stalled dispatch
// cannot starve a worker indefinitely.
const DefaultTimeout = 120 * time.Second

// Request carries the parameters of one admitted job.
type Request struct {
	JobID      string `json:"job_id"`
	User       string `json:"user"`
	Dataset    string `json:"dataset"`
	Model      string `json:"model"`
	Detector   string `json:"cam_det"`
	Classifier string `json:"cam_cls"`
}

// Client posts inference requests to the service endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with a per-call timeout. A non-positive timeout
// falls back to DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Run executes one inference call and returns the raw JSON result.
func (c *Client) Run(ctx context.Context, req Request) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrDispatchFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/inference", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrDispatchFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: service returned status %d", ErrDispatchFailed, resp.StatusCode)
	}

	result, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrDispatchFailed, err)
	}
	if !json.Valid(result) {
		return nil, fmt.Errorf("%w: malformed response body", ErrDispatchFailed)
	}

	return result, nil
}
