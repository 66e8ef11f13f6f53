package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"
	"time"

	"reelsmith/internal/daemon"
	"reelsmith/internal/ledger"
	"reelsmith/internal/runstate"
)

// apiClient talks to the daemon's HTTP API.
type apiClient struct {
	base  string
	token string
	http  *http.Client
}

func newAPIClient(addr, token string) (*apiClient, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("daemon API address is not configured; set paths.api_bind or pass --addr")
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return &apiClient{
		base:  strings.TrimRight(addr, "/"),
		token: strings.TrimSpace(token),
		http:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *apiClient) do(method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapDialError(err, c.base)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("daemon returned %d", resp.StatusCode)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func wrapDialError(err error, base string) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("connect to daemon at %s: connection refused; start the daemon with `reelsmith daemon`", base)
	}
	return fmt.Errorf("connect to daemon at %s: %w", base, err)
}

func (c *apiClient) Status() (daemon.Status, error) {
	var status daemon.Status
	err := c.do(http.MethodGet, "/api/status", nil, &status)
	return status, err
}

func (c *apiClient) StartRun(projectID string, photos []string) (string, error) {
	var resp struct {
		ProjectID string `json:"project_id"`
		RunID     string `json:"run_id"`
	}
	err := c.do(http.MethodPost, "/api/runs", map[string]any{
		"project_id": projectID,
		"photos":     photos,
	}, &resp)
	return resp.RunID, err
}

func (c *apiClient) Run(projectID, runID string) (*runstate.RunRecord, error) {
	var record runstate.RunRecord
	if err := c.do(http.MethodGet, fmt.Sprintf("/api/runs/%s/%s", projectID, runID), nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *apiClient) Progress(projectID, runID string) ([]runstate.ProgressEvent, error) {
	var feed struct {
		Events []runstate.ProgressEvent `json:"events"`
	}
	if err := c.do(http.MethodGet, fmt.Sprintf("/api/runs/%s/%s/progress", projectID, runID), nil, &feed); err != nil {
		return nil, err
	}
	return feed.Events, nil
}

func (c *apiClient) Cost(projectID, runID string) (ledger.CostBreakdown, error) {
	var cost ledger.CostBreakdown
	err := c.do(http.MethodGet, fmt.Sprintf("/api/runs/%s/%s/cost", projectID, runID), nil, &cost)
	return cost, err
}
