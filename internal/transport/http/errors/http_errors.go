package errors

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeNotFound      = "NOT_FOUND"
	CodeForbidden     = "FORBIDDEN"
	CodeMatchInactive = "MATCH_INACTIVE"
	CodeConflict      = "CONFLICT"
	CodeTooFast       = "TOO_FAST"
	CodeInternal      = "INTERNAL_ERROR"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RateLimitError tells the client when the limited action can be retried.
type RateLimitError struct {
	Code          string     `json:"code"`
	Message       string     `json:"message"`
	RetryAfterSec int64      `json:"retry_after_sec"`
	CooldownUntil *time.Time `json:"cooldown_until,omitempty"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteTooFast answers 429 with both the Retry-After header and the JSON retry hint.
func WriteTooFast(w http.ResponseWriter, message string, retryAfterSec int64, now time.Time) {
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}
	until := now.UTC().Add(time.Duration(retryAfterSec) * time.Second)
	w.Header().Set("Retry-After", strconv.FormatInt(retryAfterSec, 10))
	Write(w, http.StatusTooManyRequests, RateLimitError{
		Code:          CodeTooFast,
		Message:       message,
		RetryAfterSec: retryAfterSec,
		CooldownUntil: &until,
	})
}
