package handler

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// handlerMockDB stands in for the pool behind the core services.
// Expectations match (ctx, sql, []any args).
type handlerMockDB struct {
	mock.Mock
}

func (m *handlerMockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	ret := m.Called(ctx, sql, arguments)
	return ret.Get(0).(pgconn.CommandTag), ret.Error(1)
}

func (m *handlerMockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	ret := m.Called(ctx, sql, arguments)
	rows, _ := ret.Get(0).(pgx.Rows)
	return rows, ret.Error(1)
}

func (m *handlerMockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	return m.Called(ctx, sql, arguments).Get(0).(pgx.Row)
}

type mockRow struct {
	scanFunc func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error { return r.scanFunc(dest...) }

func noRows(...any) error { return pgx.ErrNoRows }

// mockRows replays scan functions in order, one per row.
type mockRows struct {
	pending []func(dest ...any) error
	current func(dest ...any) error
}

func newMockRows(rows ...func(dest ...any) error) *mockRows {
	return &mockRows{pending: rows}
}

func (r *mockRows) Next() bool {
	if len(r.pending) == 0 {
		return false
	}
	r.current, r.pending = r.pending[0], r.pending[1:]
	return true
}

func (r *mockRows) Scan(dest ...any) error { return r.current(dest...) }

func (r *mockRows) Err() error                                   { return nil }
func (r *mockRows) Close()                                       {}
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Values() ([]any, error)                       { return nil, nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }
