package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/zombor/receipt-vault/internal/auth"
)

// maxUploadBytes bounds the whole upload request body. Enforced before
// any buffering via http.MaxBytesReader.
const maxUploadBytes = 5 << 20 // 5MB

// maxReceiptBody bounds the JSON body of a create request.
const maxReceiptBody = 64 << 10

// corsError writes a plain-text error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// jsonError writes a JSON error body with the given status
func jsonError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

// handleCreateReceipt appends a receipt to the caller's namespace
func (s *Server) handleCreateReceipt(w http.ResponseWriter, r *http.Request) {
	uid := auth.UIDFrom(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxReceiptBody))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "Error reading request body")
		return
	}

	input, err := DecodeReceipt(body)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	receipt, err := s.service.CreateReceipt(r.Context(), uid, input)
	if err != nil {
		slog.Error("Error saving receipt", "uid", uid, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, receipt)
}

// handleListReceipts returns all of the caller's receipts
func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	uid := auth.UIDFrom(r.Context())

	receipts, err := s.service.ListReceipts(r.Context(), uid)
	if err != nil {
		slog.Error("Error listing receipts", "uid", uid, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Always return an array, not null
	if receipts == nil {
		receipts = []*Receipt{}
	}

	writeJSON(w, http.StatusOK, receipts)
}

// handleGetReceipt returns a single receipt from the caller's namespace
func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	uid := auth.UIDFrom(r.Context())
	id := r.PathValue("id")

	receipt, err := s.service.GetReceipt(r.Context(), uid, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"errorCode":    http.StatusNotFound,
				"errorMessage": "receipt '" + id + "' not found",
			})
			return
		}
		slog.Error("Error getting receipt", "uid", uid, "id", id, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Cache details in the browser for 5 minutes
	w.Header().Set("Cache-Control", "private, max-age=300")
	writeJSON(w, http.StatusOK, receipt)
}

// handleDeleteReceipt removes a receipt unconditionally
func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	uid := auth.UIDFrom(r.Context())
	id := r.PathValue("id")

	if err := s.service.DeleteReceipt(r.Context(), uid, id); err != nil {
		slog.Error("Error deleting receipt", "uid", uid, "id", id, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"status": true})
}

// handleUpload runs the upload pipeline for one multipart image
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	uid := auth.UIDFrom(r.Context())

	// Reject oversized bodies before buffering anything
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			jsonError(w, http.StatusBadRequest, "File is too large. Maximum size is 5MB.")
			return
		}
		slog.Error("Error parsing multipart form", "uid", uid, "error", err)
		jsonError(w, http.StatusBadRequest, "Error parsing form")
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "No file was selected. Please choose a file to upload.")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "uid", uid, "filename", header.Filename, "error", err)
		jsonError(w, http.StatusBadRequest, "Error reading file. Please try again.")
		return
	}
	uploadBytes.Observe(float64(len(data)))

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeForExt(header.Filename)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	result, err := s.service.ProcessUpload(r.Context(), data, contentType)
	if err != nil {
		slog.Error("Error processing upload", "uid", uid, "filename", header.Filename, "error", err)
		if errors.Is(err, ErrUpstream) {
			// Transient cloud-storage failure; the client may retry
			jsonError(w, http.StatusBadGateway, "Error storing file. Please try again.")
			return
		}
		jsonError(w, http.StatusInternalServerError, "Error processing upload")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetFile serves a locally stored image at its public URL
func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	data, contentType, err := s.fileStore.Get(r.Context(), name)
	if err != nil {
		corsError(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// contentTypeForExt guesses a content type from the filename extension
// when the part carries none
func contentTypeForExt(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}
