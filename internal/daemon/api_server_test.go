package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"lectern/internal/api"
	"lectern/internal/jobs"
	"lectern/internal/testsupport"
)

type schedulerStub struct {
	submitted []string
}

func (s *schedulerStub) Submit(jobID string) error {
	s.submitted = append(s.submitted, jobID)
	return nil
}

func newTestServer(t *testing.T) (*apiServer, *jobs.Store, *schedulerStub) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	sched := &schedulerStub{}
	srv := &apiServer{
		uploadDir: cfg.Paths.UploadDir,
		svc:       api.NewJobService(store, sched),
	}
	return srv, store, sched
}

func TestAPIServerListJobs(t *testing.T) {
	srv, store, _ := newTestServer(t)
	testsupport.NewJob(t, store, "lecture.mp3")

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	w := httptest.NewRecorder()
	srv.handleJobs(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.JobListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(resp.Jobs))
	}
	if resp.Jobs[0].FileName != "lecture.mp3" {
		t.Fatalf("unexpected file name: %q", resp.Jobs[0].FileName)
	}
}

func TestAPIServerListRejectsUnknownStatusFilter(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs?status=bogus", nil)
	w := httptest.NewRecorder()
	srv.handleJobs(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", w.Code)
	}
}

func multipartUpload(t *testing.T, fileName string, contents []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(contents); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestAPIServerSubmitAcceptsUpload(t *testing.T) {
	srv, store, sched := newTestServer(t)

	body, contentType := multipartUpload(t, "lecture.mp3", []byte("fake audio"), map[string]string{
		"reference_transcript": "hello world",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.handleJobs(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202 Accepted, got %d: %s", w.Code, w.Body.String())
	}
	var resp api.SubmitResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.JobID == "" || resp.Status != string(jobs.StatusQueued) {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(sched.submitted) != 1 || sched.submitted[0] != resp.JobID {
		t.Fatalf("job not scheduled: %v", sched.submitted)
	}

	job, err := store.Get(context.Background(), resp.JobID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Input.FileName != "lecture.mp3" {
		t.Fatalf("unexpected file name: %q", job.Input.FileName)
	}
	if job.Input.ReferenceTranscript != "hello world" {
		t.Fatalf("reference transcript not recorded: %q", job.Input.ReferenceTranscript)
	}
	if job.Input.SizeBytes != int64(len("fake audio")) {
		t.Fatalf("unexpected size: %d", job.Input.SizeBytes)
	}
}

func TestAPIServerSubmitRejectsUnsupportedExtension(t *testing.T) {
	srv, _, sched := newTestServer(t)

	body, contentType := multipartUpload(t, "notes.txt", []byte("text"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.handleJobs(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(sched.submitted) != 0 {
		t.Fatal("rejected upload must not be scheduled")
	}
}

func TestAPIServerResultsConflictUntilTerminal(t *testing.T) {
	srv, store, _ := newTestServer(t)
	job := testsupport.NewJob(t, store, "lecture.mp3")

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/"+job.ID+"/results", nil)
	w := httptest.NewRecorder()
	srv.handleJob(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 before completion, got %d", w.Code)
	}

	ctx := context.Background()
	if _, err := store.Update(ctx, job.ID, func(j *jobs.Job) error {
		j.Status = jobs.StatusProcessing
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := store.Update(ctx, job.ID, func(j *jobs.Job) error {
		j.Status = jobs.StatusDone
		j.CurrentStep = jobs.StepComplete
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	w = httptest.NewRecorder()
	srv.handleJob(w, httptest.NewRequest(http.MethodGet, "/api/jobs/"+job.ID+"/results", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 once terminal, got %d", w.Code)
	}
	var results api.JobResults
	if err := json.Unmarshal(w.Body.Bytes(), &results); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if results.ID != job.ID || results.CurrentStep != jobs.StepComplete {
		t.Fatalf("unexpected results: %+v", results.JobStatus)
	}
}

func TestAPIServerJobRoutes(t *testing.T) {
	srv, store, _ := newTestServer(t)
	job := testsupport.NewJob(t, store, "lecture.mp3")

	w := httptest.NewRecorder()
	srv.handleJob(w, httptest.NewRequest(http.MethodGet, "/api/jobs/"+job.ID+"/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status route: expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	srv.handleJob(w, httptest.NewRequest(http.MethodGet, "/api/jobs/missing/status", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown job: expected 404, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	srv.handleJob(w, httptest.NewRequest(http.MethodGet, "/api/jobs/"+job.ID+"/bogus", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown action: expected 404, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	srv.handleJob(w, httptest.NewRequest(http.MethodDelete, "/api/jobs/"+job.ID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("delete route: expected 200, got %d", w.Code)
	}
	if _, err := store.Get(context.Background(), job.ID); err == nil {
		t.Fatal("job should be removed")
	}
}

func TestRequireAuth(t *testing.T) {
	srv, _, _ := newTestServer(t)
	handler := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

	w := httptest.NewRecorder()
	srv.requireAuth("", handler)(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("no token configured: expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	srv.requireAuth("secret", handler)(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing header: expected 401, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON error body, got content type %q", ct)
	}
	var payload map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if payload["error"] != "unauthorized" {
		t.Fatalf("unexpected error body: %v", payload)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	srv.requireAuth("secret", handler)(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: expected 401, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	srv.requireAuth("secret", handler)(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("valid token: expected 200, got %d", w.Code)
	}
}
