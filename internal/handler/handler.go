// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dandi-ai-notebooks/notebook-review-api/internal/handler/dto"
	"github.com/dandi-ai-notebooks/notebook-review-api/internal/model"
)

// Handler serves the service banner and the fallback routes.
type Handler struct {
	version string
}

// New creates a new Handler instance.
func New(version string) *Handler {
	return &Handler{version: version}
}

// Info identifies the service.
// GET /
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"service": "notebook-review-api",
		"version": h.version,
	}
	writeJSON(w, http.StatusOK, response)
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeErrorJSON(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeErrorJSON(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeErrorJSON writes a JSON error response.
func writeErrorJSON(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message, Code: code})
}

// errInvalidBody marks a request body that could not be decoded.
var errInvalidBody = errors.New("invalid request body")

// decodeRequest decodes a JSON body into dst and validates it. Decoding
// failures caused by a bad response value keep their model error so the
// caller can report INVALID_RESPONSE.
func decodeRequest(r *http.Request, dst any) error {
	if r.Body == nil {
		return errInvalidBody
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, model.ErrResponseMissing) || errors.Is(err, model.ErrResponseInvalid) {
			return err
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return dto.Validate(dst)
}

// writeDecodeError answers a failed decodeRequest.
func writeDecodeError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		writeErrorJSON(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
	case errors.Is(err, model.ErrResponseMissing), errors.Is(err, model.ErrResponseInvalid):
		writeErrorJSON(w, http.StatusBadRequest, "INVALID_RESPONSE", err.Error())
	case errors.Is(err, errInvalidBody):
		writeErrorJSON(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
	default:
		writeErrorJSON(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	}
}
