// internal/app/system/httpjson/httpjson.go

// Package httpjson holds the JSON request/response helpers used by every
// feature handler. Responses share one envelope: {"success": bool, ...data}
// on success, {"success": false, "error": reason, "message": …} on failure.
package httpjson

import (
	"encoding/json"
	"net/http"

	"github.com/codesync-app/codesync/internal/app/system/apierrors"
)

// errorBody is the failure envelope.
type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Write encodes v as JSON with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already out; nothing useful left to do.
		return
	}
}

// OK writes v with status 200.
func OK(w http.ResponseWriter, v any) {
	Write(w, http.StatusOK, v)
}

// Created writes v with status 201.
func Created(w http.ResponseWriter, v any) {
	Write(w, http.StatusCreated, v)
}

// Error writes the failure envelope for a taxonomy reason. The status comes
// from the reason, keeping handler call sites to a single line.
func Error(w http.ResponseWriter, reason, message string) {
	Write(w, apierrors.Status(reason), errorBody{Success: false, Error: reason, Message: message})
}

// Decode reads the request body into v. Unknown fields are rejected so typos
// in client payloads surface as 400s instead of silently-ignored fields.
func Decode(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
