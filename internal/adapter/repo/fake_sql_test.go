package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bhos1242/seva-samarpan-sub001/internal/infra"
)

type simpleRow struct {
	scan func(dest ...any) error
}

func (r simpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

type testRowsBase struct{}

func (testRowsBase) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (testRowsBase) Conn() *pgx.Conn { return nil }

func (testRowsBase) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (testRowsBase) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

func (testRowsBase) RawValues() [][]byte { return nil }

type sliceRows struct {
	testRowsBase
	rows [][]any
	idx  int
	// width limits scanning to the leading destinations; zero means all.
	width int
}

func (r *sliceRows) Close()     {}
func (r *sliceRows) Err() error { return nil }

func (r *sliceRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *sliceRows) Scan(dest ...any) error {
	if r.width > 0 {
		dest = dest[:r.width]
	}
	return assign(r.rows[r.idx-1], dest)
}

// assign copies vals into the scan destinations by pointer type.
func assign(vals []any, dest []any) error {
	if len(vals) != len(dest) {
		return fmt.Errorf("scan: %d values for %d destinations", len(vals), len(dest))
	}
	for i, v := range vals {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case **string:
			if v == nil {
				*d = nil
			} else {
				s := v.(string)
				*d = &s
			}
		case *int:
			*d = v.(int)
		case *int64:
			*d = v.(int64)
		case *bool:
			*d = v.(bool)
		default:
			return fmt.Errorf("scan: unsupported destination %T", dest[i])
		}
	}
	return nil
}

// fakeSQL dispatches on the marker line of each statement.
type fakeSQL struct {
	rows     map[string]func(args []any) pgx.Row
	queries  map[string]func(args []any) (pgx.Rows, error)
	execs    map[string]func(args []any) (pgconn.CommandTag, error)
	calls    []string
	commits  int
	rollback int
}

func newFakeSQL() *fakeSQL {
	return &fakeSQL{
		rows:    map[string]func([]any) pgx.Row{},
		queries: map[string]func([]any) (pgx.Rows, error){},
		execs:   map[string]func([]any) (pgconn.CommandTag, error){},
	}
}

func marker(query string) string {
	line, _, _ := strings.Cut(query, "\n")
	return line
}

func (f *fakeSQL) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, marker(query))
	if fn, ok := f.execs[marker(query)]; ok {
		return fn(args)
	}
	return pgconn.NewCommandTag("DELETE 0"), nil
}

func (f *fakeSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	f.calls = append(f.calls, marker(query))
	if fn, ok := f.rows[marker(query)]; ok {
		return fn(args)
	}
	return simpleRow{}
}

func (f *fakeSQL) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	f.calls = append(f.calls, marker(query))
	if fn, ok := f.queries[marker(query)]; ok {
		return fn(args)
	}
	return &sliceRows{}, nil
}

func (f *fakeSQL) InTx(_ context.Context, fn func(q infra.SQLExecutor) error) error {
	if err := fn(f); err != nil {
		f.rollback++
		return err
	}
	f.commits++
	return nil
}

var _ infra.TxExecutor = (*fakeSQL)(nil)
