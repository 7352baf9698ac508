package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/docpipe/docpipe/internal/detect"
	"github.com/docpipe/docpipe/internal/document"
	"github.com/docpipe/docpipe/internal/importer"
	"github.com/docpipe/docpipe/internal/jobs"
)

// metaFieldPrefix marks form values that become document metadata.
const metaFieldPrefix = "meta."

type upload struct {
	reference   string
	filename    string
	contentType string
	data        []byte
	metadata    *document.Metadata
}

// handleImport runs one document through the pipeline synchronously
// and returns the full result tree.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	up, ok := s.parseUpload(w, r)
	if !ok {
		return
	}

	start := time.Now()
	resp := s.importer.ImportDocument(importer.ImportRequest{
		Reference:   up.reference,
		Input:       bytes.NewReader(up.data),
		ContentType: up.contentType,
		Metadata:    up.metadata,
	})
	if s.stats != nil {
		s.stats.Record(time.Since(start).Milliseconds())
	}

	rec := jobs.BuildRecord(resp, true)
	ok = resp.Success()
	resp.Dispose()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	json.NewEncoder(w).Encode(rec)
}

// handleIngest queues one document for asynchronous processing.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	up, ok := s.parseUpload(w, r)
	if !ok {
		return
	}

	job := jobs.NewJob(up.reference, up.filename, up.contentType, up.data, up.metadata)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":    job.ID,
		"reference": job.Reference,
		"status":    job.Status,
		"poll_url":  fmt.Sprintf("/api/ingest/%s/status", job.ID),
	})
}

// handleBatchIngest queues several documents in one request.
func (s *Server) handleBatchIngest(w http.ResponseWriter, r *http.Request) {
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

	metadata := formMetadata(r)

	var results []map[string]any
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)

		f, err := fh.Open()
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    "failed to open file",
			})
			continue
		}

		data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
		f.Close()
		if err != nil || int64(len(data)) > s.cfg.MaxUploadBytes {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    "file too large or read error",
			})
			continue
		}

		job := jobs.NewJob(filename, filename, partContentType(fh, filename), data, metadata)
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}

		results = append(results, map[string]any{
			"filename":  filename,
			"job_id":    job.ID,
			"reference": job.Reference,
			"status":    job.Status,
			"poll_url":  fmt.Sprintf("/api/ingest/%s/status", job.ID),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"jobs": results})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

// parseUpload extracts the file and its accompanying fields from a
// multipart request. On failure the error response is already written.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) (upload, bool) {
	// Limit total request size, with extra room for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return upload{}, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return upload{}, false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return upload{}, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return upload{}, false
	}

	reference := r.FormValue("reference")
	if reference == "" {
		reference = filename
	}
	if reference == "" || reference == "unnamed" {
		reference = uuid.NewString() + filepath.Ext(header.Filename)
	}

	contentType := r.FormValue("content_type")
	if contentType == "" {
		contentType = partContentType(header, filename)
	}

	return upload{
		reference:   reference,
		filename:    filename,
		contentType: contentType,
		data:        data,
		metadata:    formMetadata(r),
	}, true
}

// formMetadata collects meta.* form values into document metadata.
func formMetadata(r *http.Request) *document.Metadata {
	var meta *document.Metadata
	for key, values := range r.MultipartForm.Value {
		field, ok := strings.CutPrefix(key, metaFieldPrefix)
		if !ok || field == "" {
			continue
		}
		if meta == nil {
			meta = document.NewMetadata()
		}
		meta.Add(field, values...)
	}
	return meta
}

// partContentType returns the uploaded part's declared media type.
// The generic default browsers send is ignored; the filename extension
// decides instead, leaving content sniffing to the importer when the
// extension is unknown too.
func partContentType(fh *multipart.FileHeader, filename string) string {
	ct := fh.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		return detect.ByExtension(filename)
	}
	return ct
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
