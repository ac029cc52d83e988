package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/domain"
)

type ingestRequest struct {
	UserID string `json:"userId"`
	ConvID string `json:"convId"`
	Source string `json:"source"`
}

type ingestResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		writeError(w, http.StatusBadRequest, "source must be a non-empty string")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	s.accept(w, r, req.UserID, req.ConvID, source, nil)
}

func (s *Server) handleIngestPDF(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	userID := strings.TrimSpace(r.FormValue("userId"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if header.Header.Get("Content-Type") != "application/pdf" {
		writeError(w, http.StatusBadRequest, "only PDF files are allowed")
		return
	}

	pdfBytes, err := io.ReadAll(io.LimitReader(file, s.maxUpload+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if int64(len(pdfBytes)) > s.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
		return
	}

	s.accept(w, r, userID, r.FormValue("convId"), "", pdfBytes)
}

// accept creates the job and hands the task off. The conversation scope
// defaults to the job id when the caller did not send one, so each ingestion
// gets its own namespace.
func (s *Server) accept(w http.ResponseWriter, r *http.Request, userID, convID, sourceURL string, pdf []byte) {
	job, err := s.jobs.Create(r.Context(), userID)
	if err != nil {
		slog.Error("Job creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	if strings.TrimSpace(convID) == "" {
		convID = job.JobID
	}

	task := domain.IngestTask{
		JobID:  job.JobID,
		UserID: userID,
		ConvID: convID,
		URL:    sourceURL,
		PDF:    pdf,
	}
	if err := s.dispatcher.Dispatch(r.Context(), task); err != nil {
		slog.Error("Task dispatch failed", "job_id", job.JobID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to dispatch job")
		return
	}

	writeJSON(w, http.StatusAccepted, ingestResponse{JobID: job.JobID, Status: string(domain.StatusQueued)})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job id is required")
		return
	}

	job, err := s.jobs.Get(r.Context(), jobID)
	if err != nil {
		slog.Error("Job lookup failed", "job_id", jobID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to look up job")
		return
	}
	if job.Status == domain.StatusNotFound {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "pinecone-store-api"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
