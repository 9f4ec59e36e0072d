package invoice

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
)

// maxUploadSize fits high-resolution phone photos and multi-page PDFs
const maxUploadSize = int64(50 << 20)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// statusFor maps an extraction error to an HTTP status
func statusFor(err error) int {
	var ocrErr *OCRFailure
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNoImage):
		return http.StatusBadRequest
	case errors.Is(err, ErrImageLoad):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrOCRTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &ocrErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// contentTypeFor guesses a MIME type from the file extension when the client sent none
func contentTypeFor(filename string) string {
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
	case ".tif", ".tiff":
		return "image/tiff"
	case ".bmp":
		return "image/bmp"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// handleExtract runs the extraction on an uploaded image
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	err := r.ParseMultipartForm(maxUploadSize)
	switch {
	case errors.Is(err, http.ErrNotMultipart):
		// Nothing was attached; the service answers with the no-image line
		report, perr := s.service.ProcessImage(r.Context(), "", nil, "")
		setCORSHeaders(w)
		writeJSON(w, statusFor(perr), report)
		return
	case err != nil:
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		setCORSHeaders(w)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errorMsg})
		return
	}

	var (
		filename    string
		data        []byte
		contentType string
	)
	f, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// falls through to the service, which reports the missing image
	case err != nil:
		slog.Error("Error getting file from form", "error", err)
		corsError(w, "Error reading form file", http.StatusBadRequest)
		return
	default:
		defer f.Close()
		data, err = io.ReadAll(f)
		if err != nil {
			slog.Error("Error reading file data", "error", err, "filename", header.Filename)
			corsError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
			return
		}
		filename = header.Filename
		contentType = strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = contentTypeFor(filename)
		}
	}

	report, err := s.service.ProcessImage(r.Context(), filename, data, contentType)
	if report == nil {
		// The client went away; nobody is left to read a response
		return
	}
	setCORSHeaders(w)
	writeJSON(w, statusFor(err), report)
}

// handleExtractText runs a single pass over already recognized text
func (s *Server) handleExtractText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadSize)).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	setCORSHeaders(w)
	writeJSON(w, http.StatusOK, s.service.ProcessText(req.Text))
}

// handleHealth reports that the process is serving
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
