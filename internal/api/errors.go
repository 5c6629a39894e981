package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Error kinds of the response envelope. Request-scoped failures never escape
// as raw errors; every failure path below maps to one of these.
const (
	errMalformedRequest  = "malformed_request"
	errFeatureType       = "feature_type"
	errMissingFeature    = "missing_feature"
	errDimensionMismatch = "dimension_mismatch"
	errInternal          = "internal"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorResponse{Error: kind, Message: message})
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) error {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid json body")
	}
	return nil
}
