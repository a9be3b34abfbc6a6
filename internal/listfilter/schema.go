package listfilter

import (
	"sort"
	"time"
)

// Date bucket names accepted by date filters.
const (
	BucketToday = "today"
	Bucket7d    = "7d"
	Bucket30d   = "30d"
	Bucket90d   = "90d"
	BucketYear  = "year"
)

// Schema describes how a resource type is searched, filtered and sorted.
type Schema[T any] struct {
	ID func(T) string
	// Search lists the text fields free-text terms are matched against.
	Search []func(T) string
	// Categories maps a filter name to the field it compares by equality.
	Categories map[string]func(T) string
	// Dates maps a filter name to a timestamp matched against date buckets.
	Dates map[string]func(T) time.Time
	// Sorts maps a sort key to an ascending comparator.
	Sorts       map[string]func(a, b T) int
	DefaultSort string
	// DefaultOrder applies when a query names no order. Empty means descending.
	DefaultOrder string
}

// Fields returns the filterable field names in a stable order.
func (s Schema[T]) Fields() []string {
	fields := make([]string, 0, len(s.Categories)+len(s.Dates))
	for f := range s.Categories {
		fields = append(fields, f)
	}
	for f := range s.Dates {
		if _, dup := s.Categories[f]; !dup {
			fields = append(fields, f)
		}
	}
	sort.Strings(fields)
	return fields
}

// SortKeys returns the accepted sort keys in a stable order.
func (s Schema[T]) SortKeys() []string {
	keys := make([]string, 0, len(s.Sorts))
	for k := range s.Sorts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// inBucket reports whether t falls into the named bucket relative to now.
// Unknown buckets match nothing.
func inBucket(bucket string, t, now time.Time) bool {
	if t.IsZero() {
		return false
	}
	switch bucket {
	case BucketToday:
		y1, m1, d1 := t.In(now.Location()).Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case Bucket7d:
		return within(t, now, 7)
	case Bucket30d:
		return within(t, now, 30)
	case Bucket90d:
		return within(t, now, 90)
	case BucketYear:
		return t.In(now.Location()).Year() == now.Year()
	default:
		return false
	}
}

func within(t, now time.Time, days int) bool {
	return !t.After(now) && now.Sub(t) <= time.Duration(days)*24*time.Hour
}
