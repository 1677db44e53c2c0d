package remotetest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// successResponse is the body of every accepted request.
type successResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// errorResponse is the body of every rejected request.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		}
	}
}

// success writes a successful envelope.
func success(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: data})
}

// created writes a 201 Created envelope.
func created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, successResponse{Success: true, Data: data})
}

// fail writes a rejected envelope.
func fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: message})
}

func badRequest(w http.ResponseWriter, message string) {
	fail(w, http.StatusBadRequest, message)
}

func notFound(w http.ResponseWriter, message string) {
	fail(w, http.StatusNotFound, message)
}

// decodeBody decodes a JSON request body. An empty body decodes to the zero
// value.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
