package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/ingest"
)

// handleUpload receives one multipart file, spools it to the upload
// directory, feeds the bytes to the ingestion pipeline and removes the
// spooled file regardless of the outcome.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		slog.WarnContext(r.Context(), "Upload form rejected", "error", err)
		writeJSONError(w, http.StatusBadRequest, "No file uploaded.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "No file uploaded.")
		return
	}
	defer file.Close()

	tempPath, err := s.spoolUpload(file, header.Filename)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to spool upload", "error", err, "file", header.Filename)
		writeJSONError(w, http.StatusInternalServerError, "Error reading file.")
		return
	}
	// The temporary artifact goes away whatever ingestion decides.
	defer func() {
		if err := os.Remove(tempPath); err != nil {
			slog.ErrorContext(r.Context(), "Failed to delete temp file", "error", err, "path", tempPath)
		}
	}()

	raw, err := os.ReadFile(tempPath)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to read uploaded file", "error", err, "path", tempPath)
		writeJSONError(w, http.StatusInternalServerError, "Error reading file.")
		return
	}

	res, err := s.pipeline.Ingest(r.Context(), raw, header.Filename)
	if err != nil {
		var verr *ingest.ValidationError
		switch {
		case errors.As(err, &verr):
			slog.WarnContext(r.Context(), "Upload rejected",
				"file", header.Filename, "row_errors", len(verr.RowErrors))
			writeJSON(w, http.StatusBadRequest, map[string]any{"errors": verr.RowErrors})
		case errors.Is(err, ingest.ErrInvalidEncoding):
			slog.ErrorContext(r.Context(), "Upload not decodable", "error", err, "file", header.Filename)
			writeJSONError(w, http.StatusInternalServerError, "Error reading file.")
		default:
			slog.ErrorContext(r.Context(), "Upload ingestion failed", "error", err, "file", header.Filename)
			writeJSONError(w, http.StatusInternalServerError, "Error saving processed data.")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"imported": res.Imported})
}

// spoolUpload copies the incoming file into the upload directory under a
// timestamped name, matching the layout of the transport this replaces.
func (s *Server) spoolUpload(file io.Reader, originalName string) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	name := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), filepath.Base(originalName))
	path := filepath.Join(s.uploadDir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(path)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return path, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	records, err := s.queries.ListTransactions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Error fetching transactions.")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	snapshot, err := s.queries.GetInsights(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Compute insights failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Error fetching insights.")
		return
	}

	status := http.StatusOK
	if snapshot.Message == core.MsgNoData {
		// Nothing was ever uploaded; the body still carries the zeroed
		// snapshot so clients can render it directly.
		status = http.StatusNotFound
	}
	writeJSON(w, status, snapshot)
}
