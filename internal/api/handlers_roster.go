package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/roomroster/internal/pipeline"
	"github.com/dgallion1/roomroster/internal/report"
	"github.com/dgallion1/roomroster/internal/roster"
	"github.com/dgallion1/roomroster/internal/upload"
)

const formOverhead = 1 << 20

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.validator.Policy().MaxBytes+formOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.formError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	var fh *multipart.FileHeader
	if files := r.MultipartForm.File["file"]; len(files) > 0 {
		fh = files[0]
	}

	job, err := s.accept(fh)
	if err != nil {
		s.writeRejection(w, err)
		return
	}
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(acceptedBody(job))
}

func (s *Server) handleBatchUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.validator.Policy().MaxBytes*10+10*formOverhead)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		s.formError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		s.writeRejection(w, s.validator.Validate(nil))
		return
	}

	results := make([]map[string]any, 0, len(files))
	for _, fh := range files {
		job, err := s.accept(fh)
		if err != nil {
			result := map[string]any{
				"filename": fh.Filename,
				"error":    err.Error(),
			}
			if reason, ok := upload.ReasonOf(err); ok {
				result["reason"] = reason
			}
			results = append(results, result)
			continue
		}
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"filename": job.Filename,
				"error":    err.Error(),
			})
			continue
		}
		result := acceptedBody(job)
		result["filename"] = job.Filename
		results = append(results, result)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"jobs": results})
}

// accept validates one multipart file and turns it into a queued job.
func (s *Server) accept(fh *multipart.FileHeader) (*pipeline.Job, error) {
	if fh == nil {
		return nil, s.validator.Validate(nil)
	}
	u := &upload.Upload{
		Filename:     fh.Filename,
		DeclaredType: fh.Header.Get("Content-Type"),
		Size:         fh.Size,
	}
	// Content is read only when the declared size is within the limit.
	if fh.Size > 0 && fh.Size <= s.validator.Policy().MaxBytes {
		data, err := readPart(fh, s.validator.Policy().MaxBytes)
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		u.Data = data
	}
	if err := s.validator.Validate(u); err != nil {
		s.log.Info("upload rejected", "filename", fh.Filename, "error", err)
		return nil, err
	}
	return pipeline.NewJob(sanitizeFilename(fh.Filename), u.DeclaredType, u.Data), nil
}

func readPart(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, limit+1))
}

func acceptedBody(job *pipeline.Job) map[string]any {
	return map[string]any{
		"job_id":    job.ID,
		"status":    job.Snapshot().Status,
		"poll_url":  fmt.Sprintf("/api/rosters/%s/status", job.ID),
		"rooms_url": fmt.Sprintf("/api/rosters/%s/rooms", job.ID),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job := s.lookupJob(w, r)
	if job == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	job, rooms := s.readyRooms(w, r)
	if job == nil {
		return
	}

	body := map[string]any{
		"job_id":  job.ID,
		"status":  job.Snapshot().Status,
		"summary": roster.Summary(rooms),
	}
	if house := r.URL.Query().Get("house"); house != "" {
		records := rooms.Rooms(house)
		if len(records) == 0 {
			jsonError(w, "house not found", http.StatusNotFound)
			return
		}
		body["house"] = house
		body["rooms"] = records
	} else {
		body["rooms"] = rooms
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	job, rooms := s.readyRooms(w, r)
	if job == nil {
		return
	}

	title := "Room roster: " + job.Filename
	switch format := r.URL.Query().Get("format"); format {
	case "", "md", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write(report.Markdown(title, rooms))
	case "html":
		out, err := report.HTML(title, rooms)
		if err != nil {
			s.log.Error("render report", "job_id", job.ID, "error", err)
			jsonError(w, "failed to render report", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(out)
	default:
		jsonError(w, fmt.Sprintf("unsupported report format %q", format), http.StatusBadRequest)
	}
}

func (s *Server) lookupJob(w http.ResponseWriter, r *http.Request) *pipeline.Job {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
	}
	return job
}

// readyRooms writes 404 or 409 and returns a nil job unless the import has
// finished parsing.
func (s *Server) readyRooms(w http.ResponseWriter, r *http.Request) (*pipeline.Job, roster.RoomMap) {
	job := s.lookupJob(w, r)
	if job == nil {
		return nil, nil
	}
	snap := job.Snapshot()
	if !snap.Status.HasRooms() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"error":  "roster is not ready",
			"status": snap.Status,
			"phase":  snap.Phase,
		})
		return nil, nil
	}
	return job, job.Rooms()
}

func (s *Server) formError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeReason(w, upload.ReasonFileTooLarge, fmt.Sprintf("request exceeds %d bytes", tooLarge.Limit))
		return
	}
	jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
}

func (s *Server) writeRejection(w http.ResponseWriter, err error) {
	var rej *upload.RejectionError
	if errors.As(err, &rej) {
		writeReason(w, rej.Reason, rej.Error())
		return
	}
	s.log.Error("upload failed", "error", err)
	jsonError(w, "failed to read file", http.StatusInternalServerError)
}

func writeReason(w http.ResponseWriter, reason upload.Reason, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reason.HTTPStatus())
	json.NewEncoder(w).Encode(map[string]string{"error": msg, "reason": string(reason)})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
