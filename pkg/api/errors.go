package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnauthorized marks a rejected credential. The client has already
// cleared the session and fired the unauthorized hook by the time a caller
// sees it; no further display handling is expected.
var ErrUnauthorized = errors.New("session expired")

// ErrNotFound marks a missing or inaccessible resource; callers treat it
// as a navigation failure back to a safe view.
var ErrNotFound = errors.New("not found")

// errorBody is the error envelope the API returns.
type errorBody struct {
	Detail string `json:"detail"`
}

// serverDetail extracts the server-supplied message from an error response
// body, or "" when the body carries none.
func serverDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	return eb.Detail
}

// opError builds the human-readable failure for one operation, preferring
// the server's detail message over the per-operation fallback.
func opError(fallback string, status int, body []byte) error {
	if detail := serverDetail(body); detail != "" {
		return fmt.Errorf("%s: %s", fallback, detail)
	}
	return fmt.Errorf("%s (http %d)", fallback, status)
}
