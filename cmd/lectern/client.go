package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"lectern/internal/api"
)

// apiClient talks to the daemon HTTP API.
type apiClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

func (c *apiClient) Submit(ctx context.Context, audioPath, referenceTranscript string) (api.SubmitResponse, error) {
	var resp api.SubmitResponse

	file, err := os.Open(audioPath)
	if err != nil {
		return resp, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	reader, writer := io.Pipe()
	form := multipart.NewWriter(writer)
	go func() {
		part, err := form.CreateFormFile("file", filepath.Base(audioPath))
		if err != nil {
			writer.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			writer.CloseWithError(err)
			return
		}
		if referenceTranscript != "" {
			if err := form.WriteField("reference_transcript", referenceTranscript); err != nil {
				writer.CloseWithError(err)
				return
			}
		}
		writer.CloseWithError(form.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/jobs", reader)
	if err != nil {
		return resp, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	err = c.do(req, http.StatusAccepted, &resp)
	return resp, err
}

func (c *apiClient) Status(ctx context.Context, jobID string) (api.JobStatus, error) {
	var status api.JobStatus
	err := c.get(ctx, "/api/jobs/"+jobID+"/status", &status)
	return status, err
}

func (c *apiClient) Results(ctx context.Context, jobID string) (api.JobResults, error) {
	var results api.JobResults
	err := c.get(ctx, "/api/jobs/"+jobID+"/results", &results)
	return results, err
}

func (c *apiClient) List(ctx context.Context, statuses ...string) (api.JobListResponse, error) {
	var list api.JobListResponse
	path := "/api/jobs"
	if len(statuses) > 0 {
		query := url.Values{}
		for _, status := range statuses {
			query.Add("status", status)
		}
		path += "?" + query.Encode()
	}
	err := c.get(ctx, path, &list)
	return list, err
}

func (c *apiClient) DaemonStatus(ctx context.Context) (api.DaemonStatus, error) {
	var status api.DaemonStatus
	err := c.get(ctx, "/api/status", &status)
	return status, err
}

func (c *apiClient) Remove(ctx context.Context, jobID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/jobs/"+jobID, nil)
	if err != nil {
		return err
	}
	return c.do(req, http.StatusOK, nil)
}

func (c *apiClient) Clear(ctx context.Context) (api.ClearResponse, error) {
	var resp api.ClearResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/jobs/clear", nil)
	if err != nil {
		return resp, err
	}
	err = c.do(req, http.StatusOK, &resp)
	return resp, err
}

func (c *apiClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, http.StatusOK, out)
}

func (c *apiClient) do(req *http.Request, wantStatus int, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("contact daemon at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode daemon response: %w", err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return fmt.Errorf("daemon: %s (HTTP %d)", payload.Error, resp.StatusCode)
	}
	return fmt.Errorf("daemon returned HTTP %d", resp.StatusCode)
}
