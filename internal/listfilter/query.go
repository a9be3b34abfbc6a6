package listfilter

import (
	"net/url"
	"strings"
	"time"
)

// Sort orders.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// All is the filter value meaning "no restriction".
const All = "all"

// Condition restricts one named field to a value. A value may list several
// alternatives separated by commas. Now, when set, anchors a date bucket
// instead of the enclosing query's Now.
type Condition struct {
	Field string
	Value string
	Now   time.Time
}

// Active reports whether the condition restricts anything.
func (f Condition) Active() bool {
	v := strings.TrimSpace(f.Value)
	return v != "" && !strings.EqualFold(v, All)
}

// Query describes how to narrow and order a list. The zero Query keeps every
// item in its original order.
type Query struct {
	// Terms must each appear, case-insensitively, in at least one search field.
	Terms   []string
	Filters []Condition
	Sort    string
	Order   string
	// Now anchors relative date buckets. Zero means time.Now().
	Now time.Time
}

// And returns a query matching items accepted by both q and other. Each
// operand's conditions keep the date anchor of the query they came from.
// Sort and Now come from other when set.
func (q Query) And(other Query) Query {
	out := Query{
		Terms:   append(append([]string{}, q.Terms...), other.Terms...),
		Filters: append(anchored(q), anchored(other)...),
		Sort:    q.Sort,
		Order:   q.Order,
		Now:     q.Now,
	}
	if other.Sort != "" {
		out.Sort = other.Sort
		out.Order = other.Order
	}
	if !other.Now.IsZero() {
		out.Now = other.Now
	}
	return out
}

func anchored(q Query) []Condition {
	out := make([]Condition, len(q.Filters))
	for i, c := range q.Filters {
		if c.Now.IsZero() {
			c.Now = q.Now
		}
		out[i] = c
	}
	return out
}

// Where adds a condition to a copy of q.
func (q Query) Where(field, value string) Query {
	return q.And(Query{Filters: []Condition{{Field: field, Value: value}}})
}

// Search adds whitespace-separated terms to a copy of q.
func (q Query) Search(text string) Query {
	return q.And(Query{Terms: strings.Fields(text)})
}

// Value returns the value of the first active filter on field, or "".
func (q Query) Value(field string) string {
	for _, f := range q.Filters {
		if f.Field == field && f.Active() {
			return f.Value
		}
	}
	return ""
}

func (q Query) now() time.Time {
	if q.Now.IsZero() {
		return time.Now()
	}
	return q.Now
}

// FromValues builds a query from URL parameters: "search" supplies terms,
// "sort" and "order" the ordering, and every categorical or date field the
// schema knows is read as a filter.
func FromValues[T any](v url.Values, s Schema[T]) Query {
	q := Query{
		Terms: strings.Fields(v.Get("search")),
		Sort:  v.Get("sort"),
		Order: strings.ToLower(v.Get("order")),
	}
	if q.Order != OrderAsc && q.Order != OrderDesc {
		q.Order = ""
	}
	for _, field := range s.Fields() {
		if val := v.Get(field); val != "" {
			q.Filters = append(q.Filters, Condition{Field: field, Value: val})
		}
	}
	return q
}
