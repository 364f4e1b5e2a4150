// Package httpx renders the API's JSON responses. Errors go out as RFC 7807
// problem documents so clients get a uniform shape for every failure.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ProblemDetail is the RFC 7807 error body.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func write(w http.ResponseWriter, status int, contentType string, body any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// JSON writes a success payload.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, "application/json; charset=utf-8", data)
}

// Problem writes an error as a problem document.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	write(w, status, "application/problem+json", ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// DecodeJSON fills target from the request body.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
