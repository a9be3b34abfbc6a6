package csvexport

import (
	"bytes"
	"encoding/csv"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Name  string
	Notes string
	Cents int64
}

var columns = []Column[row]{
	Col("name", func(r row) string { return r.Name }),
	Col("notes", func(r row) string { return r.Notes }),
	Col("amount", func(r row) string { return Cents(r.Cents) }),
}

func TestWrite_RowCountMatchesItems(t *testing.T) {
	for _, n := range []int{0, 1, 7} {
		items := make([]row, n)
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, columns, items))

		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		assert.Len(t, records, n+1)
		assert.Equal(t, []string{"name", "notes", "amount"}, records[0])
	}
}

func TestWrite_EscapesSpecialCharacters(t *testing.T) {
	items := []row{
		{Name: `Acme, "Inc"`, Notes: "line one\nline two", Cents: 1999},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, columns, items))

	assert.Contains(t, buf.String(), `"Acme, ""Inc"""`)

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{`Acme, "Inc"`, "line one\nline two", "19.99"}, records[1])
}

func TestCents(t *testing.T) {
	assert.Equal(t, "0.00", Cents(0))
	assert.Equal(t, "0.05", Cents(5))
	assert.Equal(t, "120.00", Cents(12000))
	assert.Equal(t, "-3.50", Cents(-350))
}

func TestTimeHelpers(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "2026-01-02T03:04:05Z", Time(ts))
	assert.Equal(t, "", Time(time.Time{}))
	assert.Equal(t, "", TimePtr(nil))
	assert.Equal(t, "2026-01-02T03:04:05Z", TimePtr(&ts))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "invoices-20260314.csv", Filename("invoices", time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)))
}

func TestServe(t *testing.T) {
	rec := httptest.NewRecorder()
	err := Serve(rec, "tenants", columns, []row{{Name: "a"}, {Name: "b"}})
	require.NoError(t, err)

	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="tenants-`)
	assert.Equal(t, "2", rec.Header().Get("X-Total-Count"))
	assert.Equal(t, 3, strings.Count(rec.Body.String(), "\n"))
}
