package problem

import (
	"encoding/json"
	"net/http"
)

const contentType = "application/problem+json"
const baseTypeURL = "https://errors.transfer-saga.dev/"

// Problem type slugs served by the API.
const (
	InvalidRequest        = "request/invalid"
	RequestTimeout        = "request/timeout"
	AccountAlreadyExists  = "account/already-exists"
	AccountNotFound       = "account/not-found"
	TransferAlreadyExists = "transfer/already-exists"
	TransferBeingCreated  = "transfer/being-created"
	TransferNotFound      = "transfer/not-found"
	Unavailable           = "health/unavailable"
	RateLimited           = "rate-limit-exceeded"
	Internal              = "internal-server-error"
)

// Details represents RFC 7807 Problem Details.
type Details struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail"`
	Instance  string `json:"instance"`
	RequestID string `json:"request_id"`
}

func Type(slug string) string {
	return baseTypeURL + slug
}

// Write sends RFC 7807-compliant errors. The request id is the trace id set by the trace middleware.
func Write(w http.ResponseWriter, r *http.Request, status int, problemType, title, detail string) {
	if title == "" {
		title = http.StatusText(status)
	}
	if problemType == "" {
		problemType = "about:blank"
	}
	d := Details{
		Type:      problemType,
		Title:     title,
		Status:    status,
		Detail:    detail,
		RequestID: w.Header().Get("X-Trace-ID"),
	}
	if r != nil {
		d.Instance = r.URL.Path
		if d.RequestID == "" {
			d.RequestID = r.Header.Get("X-Trace-ID")
		}
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(d)
}
