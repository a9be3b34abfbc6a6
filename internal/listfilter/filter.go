package listfilter

import (
	"slices"
	"strings"
)

// Matches reports whether item satisfies every term and filter of q.
// Filters on fields the schema does not know are ignored.
func Matches[T any](s Schema[T], q Query, item T) bool {
	for _, term := range q.Terms {
		if !matchesTerm(s, term, item) {
			return false
		}
	}
	now := q.now()
	for _, f := range q.Filters {
		if !f.Active() {
			continue
		}
		if get, ok := s.Categories[f.Field]; ok {
			if !matchesAny(get(item), f.Value) {
				return false
			}
			continue
		}
		if get, ok := s.Dates[f.Field]; ok {
			at := now
			if !f.Now.IsZero() {
				at = f.Now
			}
			if !inBucket(strings.ToLower(strings.TrimSpace(f.Value)), get(item), at) {
				return false
			}
		}
	}
	return true
}

func matchesTerm[T any](s Schema[T], term string, item T) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range s.Search {
		if strings.Contains(strings.ToLower(field(item)), term) {
			return true
		}
	}
	return false
}

func matchesAny(actual, want string) bool {
	for _, alt := range strings.Split(want, ",") {
		if strings.EqualFold(strings.TrimSpace(alt), actual) {
			return true
		}
	}
	return false
}

// Filter returns the items matching q, keeping their input order.
func Filter[T any](items []T, s Schema[T], q Query) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if Matches(s, q, item) {
			out = append(out, item)
		}
	}
	return out
}

// Sort returns a stably sorted copy of items. The query's sort key falls back
// to the schema default; an unknown key leaves the order unchanged.
func Sort[T any](items []T, s Schema[T], q Query) []T {
	out := slices.Clone(items)
	key := q.Sort
	if _, ok := s.Sorts[key]; !ok {
		key = s.DefaultSort
	}
	cmp, ok := s.Sorts[key]
	if !ok {
		return out
	}
	order := q.Order
	if order == "" {
		order = s.DefaultOrder
	}
	if order == OrderAsc {
		slices.SortStableFunc(out, cmp)
	} else {
		slices.SortStableFunc(out, func(a, b T) int { return cmp(b, a) })
	}
	return out
}

// Apply filters then sorts.
func Apply[T any](items []T, s Schema[T], q Query) []T {
	return Sort(Filter(items, s, q), s, q)
}
