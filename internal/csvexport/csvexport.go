// Package csvexport writes resource lists as RFC 4180 CSV.
package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Column maps one CSV column to a value extracted from a row.
type Column[T any] struct {
	Header string
	Value  func(T) string
}

// Col is shorthand for building a Column.
func Col[T any](header string, value func(T) string) Column[T] {
	return Column[T]{Header: header, Value: value}
}

// Write emits a header row followed by one row per item.
func Write[T any](w io.Writer, columns []Column[T], items []T) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Header
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(columns))
	for _, item := range items {
		for i, c := range columns {
			record[i] = c.Value(item)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// Filename returns "<resource>-YYYYMMDD.csv".
func Filename(resource string, now time.Time) string {
	return fmt.Sprintf("%s-%s.csv", resource, now.Format("20060102"))
}

// Serve writes items as a CSV attachment.
func Serve[T any](w http.ResponseWriter, resource string, columns []Column[T], items []T) error {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+Filename(resource, time.Now())+`"`)
	w.Header().Set("X-Total-Count", strconv.Itoa(len(items)))
	w.WriteHeader(http.StatusOK)
	return Write(w, columns, items)
}

// Time formats t as RFC 3339 in UTC, or "" for the zero time.
func Time(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// TimePtr formats an optional timestamp.
func TimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return Time(*t)
}

// Cents formats an amount in minor units as a decimal string.
func Cents(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// Str dereferences an optional string.
func Str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
