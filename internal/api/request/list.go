package request

import (
	"net/http"
	"strconv"
	"time"

	"github.com/edvin/saasadmin/internal/listfilter"
)

// Page sizes for list endpoints.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Pagination is the requested page: at most Limit items following the
// item whose ID is Cursor.
type Pagination struct {
	Limit  int
	Cursor string
}

// ListParams is a parsed list request: what to keep, in what order, and
// which page of the result to return.
type ListParams struct {
	Query listfilter.Query
	Pagination
}

// ParseList reads search, filter and sort parameters known to schema plus
// limit and cursor. Relative date buckets are anchored at now.
func ParseList[T any](r *http.Request, schema listfilter.Schema[T], now time.Time) ListParams {
	v := r.URL.Query()
	q := listfilter.FromValues(v, schema)
	q.Now = now
	return ListParams{
		Query:      q,
		Pagination: Pagination{Limit: pageLimit(v.Get("limit")), Cursor: v.Get("cursor")},
	}
}

// pageLimit clamps the limit parameter. Garbage and non-positive values
// fall back to the default.
func pageLimit(raw string) int {
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil, n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	}
	return n
}
