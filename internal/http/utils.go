package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net"
	"net/http"
	"strings"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/pkg/logger"
)

const maxJSONBody = 2 << 20

// WriteJSONError writes {"message": message} with the given status code
func WriteJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{"message": message})
}

// writeJSON writes a JSON response with the given status code and data
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps service errors to their status code. Unexpected
// errors are logged and answered with a generic message.
func writeServiceError(w http.ResponseWriter, log logger.Logger, err error) {
	var (
		validationErr domain.ValidationError
		permissionErr *domain.PermissionError
		notFoundErr   *domain.ErrNotFound
		conflictErr   *domain.ConflictError
		tooLargeErr   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &validationErr):
		WriteJSONError(w, validationErr.Message, http.StatusBadRequest)
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthorized):
		WriteJSONError(w, err.Error(), http.StatusUnauthorized)
	case errors.As(err, &permissionErr):
		WriteJSONError(w, permissionErr.Message, http.StatusForbidden)
	case errors.As(err, &notFoundErr):
		WriteJSONError(w, fmt.Sprintf("%s not found", notFoundErr.Entity), http.StatusNotFound)
	case errors.As(err, &conflictErr):
		WriteJSONError(w, conflictErr.Message, http.StatusConflict)
	case errors.Is(err, domain.ErrRateLimited):
		WriteJSONError(w, err.Error(), http.StatusTooManyRequests)
	case errors.As(err, &tooLargeErr):
		WriteJSONError(w, "Request body too large", http.StatusRequestEntityTooLarge)
	default:
		log.WithField("error", err.Error()).Error("Request failed")
		WriteJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// decodeJSON reads a bounded JSON body into v, answering 400 itself on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// clientIP returns the first forwarded address, or the peer address
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// parseMultipart bounds the request to limit and parses its form
func parseMultipart(w http.ResponseWriter, r *http.Request, limit int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteJSONError(w, "File too large", http.StatusRequestEntityTooLarge)
			return false
		}
		WriteJSONError(w, "Invalid multipart form", http.StatusBadRequest)
		return false
	}
	return true
}

// uploadFromHeader opens a multipart file as a domain upload. The caller closes it.
func uploadFromHeader(fh *multipart.FileHeader) (domain.Upload, multipart.File, error) {
	if fh.Size > domain.MaxUploadSize {
		return domain.Upload{}, nil, domain.NewValidationError(fmt.Sprintf("%s exceeds the %d MB limit", fh.Filename, domain.MaxUploadSize>>20))
	}
	f, err := fh.Open()
	if err != nil {
		return domain.Upload{}, nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return domain.Upload{
		Filename:    fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
		Body:        f,
	}, f, nil
}

// writeDownload sends content as an attachment
func writeDownload(w http.ResponseWriter, filename, contentType string, content []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, strings.ReplaceAll(filename, `"`, "")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
