package core

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// mockDB is a testify mock of DB. Expectations receive the variadic
// query arguments as one []any (nil when the query takes none).
type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	ret := m.Called(ctx, sql, arguments)
	return ret.Get(0).(pgconn.CommandTag), ret.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	ret := m.Called(ctx, sql, arguments)
	rows, _ := ret.Get(0).(pgx.Rows)
	return rows, ret.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	return m.Called(ctx, sql, arguments).Get(0).(pgx.Row)
}

type scanFn func(dest ...any) error

// mockRow is a single pgx.Row backed by a scan function.
type mockRow struct {
	scanFunc scanFn
}

func (r *mockRow) Scan(dest ...any) error { return r.scanFunc(dest...) }

// mockRows yields one row per scan function, then reports err.
type mockRows struct {
	pos  int
	rows []scanFn
	err  error
}

func newMockRows(rows ...func(dest ...any) error) *mockRows {
	r := &mockRows{}
	for _, fn := range rows {
		r.rows = append(r.rows, fn)
	}
	return r
}

func newEmptyMockRows() *mockRows { return &mockRows{} }

func (r *mockRows) Next() bool { return r.pos < len(r.rows) }

func (r *mockRows) Scan(dest ...any) error {
	if r.pos >= len(r.rows) {
		return pgx.ErrNoRows
	}
	fn := r.rows[r.pos]
	r.pos++
	return fn(dest...)
}

func (r *mockRows) Err() error                                   { return r.err }
func (r *mockRows) Close()                                       {}
func (r *mockRows) CommandTag() pgconn.CommandTag                { return tag("SELECT " + strconv.Itoa(len(r.rows))) }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Values() ([]any, error)                       { return nil, nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }

func tag(s string) pgconn.CommandTag { return pgconn.NewCommandTag(s) }
