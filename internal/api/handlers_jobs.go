package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dgallion1/quotecheck/internal/claims"
	"github.com/dgallion1/quotecheck/internal/parser"
	"github.com/dgallion1/quotecheck/internal/pipeline"
)

// maxClaimsBytes caps the claims part of a job upload.
const maxClaimsBytes = 4 << 20

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+maxClaimsBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	raw, err := claimsPart(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	list, err := claims.Parse(raw)
	if err != nil {
		jsonError(w, "invalid claims: "+err.Error(), http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(filename, r.FormValue("title"), data, list)
	if err := s.orchestrator.Submit(job); err != nil {
		s.logger.Warn("job rejected", zap.String("job_id", job.ID), zap.Error(err))
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"claims":   len(list),
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

// claimsPart reads the claims either from an uploaded file or from a plain
// form field.
func claimsPart(r *http.Request) ([]byte, error) {
	f, _, err := r.FormFile("claims")
	if err == nil {
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxClaimsBytes+1))
		if err != nil {
			return nil, eris.New("failed to read claims")
		}
		if len(data) > maxClaimsBytes {
			return nil, eris.Errorf("claims exceed max size (%d bytes)", maxClaimsBytes)
		}
		return data, nil
	}
	v := r.FormValue("claims")
	if v == "" {
		return nil, eris.New("claims are required")
	}
	return []byte(v), nil
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}
