package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/edvin/saasadmin/internal/api/request"
	"github.com/edvin/saasadmin/internal/api/response"
	"github.com/edvin/saasadmin/internal/csvexport"
	"github.com/edvin/saasadmin/internal/listfilter"
)

// listing binds a resource's loader, query schema and CSV columns so the
// list and export endpoints of every resource behave the same way.
type listing[T any] struct {
	resource string
	schema   listfilter.Schema[T]
	load     func(ctx context.Context, r *http.Request) ([]T, error)
	columns  []csvexport.Column[T]
	// summary aggregates the filtered list before pagination. Optional.
	summary func(items []T) any
	now     func() time.Time
}

func (l *listing[T]) clock() time.Time {
	if l.now != nil {
		return l.now()
	}
	return time.Now()
}

func (l *listing[T]) filtered(r *http.Request) ([]T, request.ListParams, error) {
	params := request.ParseList(r, l.schema, l.clock())
	items, err := l.load(r.Context(), r)
	if err != nil {
		return nil, params, err
	}
	return listfilter.Apply(items, l.schema, params.Query), params, nil
}

// List writes one page of the filtered, sorted list.
func (l *listing[T]) List(w http.ResponseWriter, r *http.Request) {
	items, params, err := l.filtered(r)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}

	page, next, hasMore := listfilter.Page(items, l.schema.ID, params.Limit, params.Cursor)
	if page == nil {
		page = []T{}
	}
	resp := response.ListResponse{
		Items:      page,
		NextCursor: next,
		HasMore:    hasMore,
		Total:      len(items),
	}
	if l.summary != nil {
		resp.Summary = l.summary(items)
	}
	response.WriteList(w, resp)
}

// Export streams the whole filtered list as CSV.
func (l *listing[T]) Export(w http.ResponseWriter, r *http.Request) {
	items, _, err := l.filtered(r)
	if err != nil {
		response.WriteServiceError(w, r, err)
		return
	}
	if err := csvexport.Serve(w, l.resource, l.columns, items); err != nil {
		// Headers are already sent.
		logFor(r).Error().Err(err).Str("resource", l.resource).Msg("csv export failed")
	}
}
