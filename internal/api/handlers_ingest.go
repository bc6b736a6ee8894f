package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/bookplay/internal/parser"
	"github.com/dgallion1/bookplay/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

type uploadResult struct {
	Filename string             `json:"filename,omitempty"`
	JobID    string             `json:"job_id,omitempty"`
	DocID    string             `json:"doc_id,omitempty"`
	Status   pipeline.JobStatus `json:"status,omitempty"`
	PollURL  string             `json:"poll_url,omitempty"`
	Error    string             `json:"error,omitempty"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	res, code := s.submitUpload(files[0], title)
	if res.Error != "" {
		jsonError(w, res.Error, code)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

func (s *Server) handleBatchUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	results := make([]uploadResult, 0, len(files))
	for _, fh := range files {
		res, _ := s.submitUpload(fh, "")
		results = append(results, res)
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}

// submitUpload reads one uploaded file and queues it. On failure the
// result carries the error and the suggested status code.
func (s *Server) submitUpload(fh *multipart.FileHeader, title string) (uploadResult, int) {
	filename := sanitizeFilename(fh.Filename)
	res := uploadResult{Filename: filename}

	if !parser.IsSupportedExtension(filename) {
		res.Error = fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename))
		return res, http.StatusBadRequest
	}

	f, err := fh.Open()
	if err != nil {
		res.Error = "failed to open file"
		return res, http.StatusBadRequest
	}
	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	f.Close()
	if err != nil {
		res.Error = "failed to read file"
		return res, http.StatusInternalServerError
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		res.Error = fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
		return res, http.StatusRequestEntityTooLarge
	}

	job := pipeline.NewJob(filename, title, data)
	if err := s.orchestrator.Submit(job); err != nil {
		res.Error = err.Error()
		return res, http.StatusServiceUnavailable
	}
	s.log.Info("upload queued", "job_id", job.ID, "doc_id", job.DocID, "filename", filename, "bytes", len(data))

	res.JobID = job.ID
	res.DocID = job.DocID
	res.Status = pipeline.StatusQueued
	res.PollURL = fmt.Sprintf("/api/ingest/%s/status", job.ID)
	return res, http.StatusAccepted
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func sanitizeFilename(name string) string {
	// Browsers on Windows may send the full client path.
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
