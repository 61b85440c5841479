package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"lectern/internal/api"
	"lectern/internal/config"
	"lectern/internal/jobs"
	"lectern/internal/logging"
)

const maxUploadBytes = 2 << 30

var uploadExtensions = map[string]struct{}{
	".mp3":  {},
	".wav":  {},
	".m4a":  {},
	".flac": {},
	".ogg":  {},
	".mp4":  {},
	".webm": {},
}

type apiServer struct {
	bind      string
	uploadDir string
	logger    *slog.Logger
	daemon    *Daemon
	svc       *api.JobService

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:      strings.TrimSpace(cfg.Paths.APIBind),
		uploadDir: cfg.Paths.UploadDir,
		logger:    logger,
		daemon:    d,
		svc:       d.svc,
	}

	token := strings.TrimSpace(cfg.Paths.APIToken)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.requireAuth(token, srv.handleStatus))
	mux.HandleFunc("/api/jobs", srv.requireAuth(token, srv.handleJobs))
	mux.HandleFunc("/api/jobs/clear", srv.requireAuth(token, srv.handleClear))
	mux.HandleFunc("/api/jobs/", srv.requireAuth(token, srv.handleJob))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", slog.String("error", err.Error()))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", slog.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr reports the bound listener address, falling back to the configured
// bind before start.
func (s *apiServer) Addr() string {
	if s == nil {
		return ""
	}
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:     status.Running,
		PID:         status.PID,
		JobDBPath:   status.JobDBPath,
		QueueDepth:  status.QueueDepth,
		ActiveJobs:  status.ActiveJobs,
		Stats:       api.FromStats(status.Stats),
		StageLabels: s.daemon.StageLabels(),
		Health:      api.FromHealth(s.daemon.Health(r.Context())),
	})
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var statuses []jobs.Status
		for _, value := range r.URL.Query()["status"] {
			if strings.TrimSpace(value) == "" {
				continue
			}
			status, ok := jobs.ParseStatus(value)
			if !ok {
				s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", value))
				return
			}
			statuses = append(statuses, status)
		}
		list, err := s.svc.List(r.Context(), statuses...)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		s.handleSubmit(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, `multipart field "file" is required`)
		return
	}
	defer file.Close()

	fileName := filepath.Base(strings.TrimSpace(header.Filename))
	if fileName == "" || fileName == "." || fileName == string(filepath.Separator) {
		s.writeError(w, http.StatusBadRequest, "upload file name is required")
		return
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if _, ok := uploadExtensions[ext]; !ok {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported file extension %q", ext))
		return
	}

	storedPath := filepath.Join(s.uploadDir, uuid.NewString()+"_"+fileName)
	size, err := s.saveUpload(file, storedPath)
	if err != nil {
		s.log().Error("store upload", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	input := jobs.Input{
		FileName:            fileName,
		AudioPath:           storedPath,
		ContentType:         header.Header.Get("Content-Type"),
		SizeBytes:           size,
		ReferenceTranscript: r.FormValue("reference_transcript"),
	}
	resp, err := s.svc.Submit(r.Context(), input)
	if err != nil {
		_ = os.Remove(storedPath)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, resp)
}

func (s *apiServer) saveUpload(src io.Reader, dest string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("create upload dir: %w", err)
	}
	out, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create upload file: %w", err)
	}
	size, err := io.Copy(out, src)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dest)
		return 0, fmt.Errorf("write upload file: %w", err)
	}
	return size, nil
}

func (s *apiServer) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	resp, err := s.svc.Clear(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleJob(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodDelete:
		s.handleRemove(w, r, id)
	case action == "status" && r.Method == http.MethodGet:
		s.handleJobStatus(w, r, id)
	case action == "results" && r.Method == http.MethodGet:
		s.handleJobResults(w, r, id)
	case action == "" || action == "status" || action == "results":
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	default:
		s.writeError(w, http.StatusNotFound, "job not found")
	}
}

func (s *apiServer) handleJobStatus(w http.ResponseWriter, r *http.Request, id string) {
	status, err := s.svc.Describe(r.Context(), id)
	if err != nil {
		s.writeJobError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *apiServer) handleJobResults(w http.ResponseWriter, r *http.Request, id string) {
	results, err := s.svc.Results(r.Context(), id)
	if err != nil {
		if errors.Is(err, api.ErrNotReady) {
			s.writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.writeJobError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, results)
}

func (s *apiServer) handleRemove(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.svc.Remove(r.Context(), id); err != nil {
		if errors.Is(err, api.ErrJobRunning) {
			s.writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.writeJobError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"removed": id})
}

func (s *apiServer) writeJobError(w http.ResponseWriter, err error) {
	if errors.Is(err, jobs.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String("component", "api-server"))
	}
	return logging.NewNop()
}
