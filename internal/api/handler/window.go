package handler

import (
	"net/http"
	"time"
)

// defaultWindow bounds how far back time-series lists load when the request
// names no since parameter.
const defaultWindow = 365 * 24 * time.Hour

// since reads the RFC 3339 "since" parameter. Missing or malformed values
// fall back to defaultWindow before now.
func since(r *http.Request, now time.Time) time.Time {
	if v := r.URL.Query().Get("since"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return now.Add(-defaultWindow)
}
