// Package listfilter narrows, orders and summarises in-memory resource lists.
//
// Every list endpoint loads its resources and runs them through one Schema:
// free-text terms and categorical filters are combined conjunctively, the
// result is stably sorted, paginated with an opaque cursor and optionally
// aggregated with CountBy or SumBy. All functions are pure and never modify
// their input slice.
package listfilter
