// Package httpjson carries the JSON envelope shared by every API handler.
package httpjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// errorBody is the uniform error envelope: {"error": "..."} plus optional
// field-level details and rate-limit hints.
type errorBody struct {
	Error   string              `json:"error"`
	Fields  map[string][]string `json:"fields,omitempty"`
	ResetIn *int                `json:"resetIn,omitempty"`
}

// Respond writes v as JSON with the given status. A nil v writes no body.
func Respond(w http.ResponseWriter, status int, v any) {
	if v == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes the error envelope with the given status and message.
func Error(w http.ResponseWriter, status int, msg string) {
	Respond(w, status, errorBody{Error: msg})
}

// ValidationError writes a 400 with per-field messages.
func ValidationError(w http.ResponseWriter, fields map[string][]string) {
	Respond(w, http.StatusBadRequest, errorBody{Error: "validation failed", Fields: fields})
}

// Unauthorized writes the uniform 401 body. The message never distinguishes
// which part of authentication failed.
func Unauthorized(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, "unauthorized")
}

// NotFound writes the uniform 404 body. Cross-tenant rows are reported
// through this same path so their existence is not confirmed.
func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "not found")
}

// RateLimited writes a 429 with the seconds remaining until the window rolls over.
func RateLimited(w http.ResponseWriter, resetIn time.Duration) {
	secs := int(resetIn.Round(time.Second).Seconds())
	if secs < 1 {
		secs = 1
	}
	Respond(w, http.StatusTooManyRequests, errorBody{Error: "too many requests", ResetIn: &secs})
}

const maxBodyBytes = 1 << 20

// Decode reads the request body into dst, rejecting oversized or malformed payloads.
func Decode(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)

	if err := dec.Decode(dst); err != nil {
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("request body is required")
		default:
			return fmt.Errorf("invalid request body: %w", err)
		}
	}

	return nil
}
