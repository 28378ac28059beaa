// Package driver defines the capability contract every engine back-end
// (MySQL, PostgreSQL, SQLite, MSSQL) implements, plus the shared Row,
// ColumnSet and ConnectionManager types the pool and callers depend on.
// Execute/Query/GetValues/Ping/Begin/Commit/Rollback/Close are the only
// operations a caller needs to know about regardless of which engine is
// underneath.
package driver

import (
	"context"

	"github.com/sqlbridge/sqlbridge/value"
)

// Driver is a back-end factory that turns a URL into live Connections for
// one engine.
type Driver interface {
	// Connect parses url, establishes transport, performs the handshake
	// and yields a live Connection, or fails with dberr.Connect.
	Connect(ctx context.Context, url string) (Connection, error)
	// DefaultPort reports the engine's conventional TCP port.
	DefaultPort() int
	// URLScheme reports the expected scheme prefix, e.g. "mysql".
	URLScheme() string
}

// ExecResult is the outcome of a non-query statement.
type ExecResult struct {
	RowsAffected int64
	LastInsertID int64
	HasInsertID  bool
}

// Column describes one result-set column by name and the engine's own
// declared type name (e.g. "VARCHAR", "DATETIME", "int4").
type Column struct {
	Name       string
	EngineType string
}

// ColumnSet describes the columns of a Row by position.
type ColumnSet []Column

// IndexOf returns the zero-based index of name, or -1.
func (cs ColumnSet) IndexOf(name string) int {
	for i, c := range cs {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Row is an ordered sequence of (column index -> Value), paired with the
// ColumnSet that describes it. Each Row owns its decoded Values.
type Row struct {
	Columns ColumnSet
	Cells   []value.Value
}

// Get returns the cell at index, or Null if out of range.
func (r Row) Get(index int) value.Value {
	if index < 0 || index >= len(r.Cells) {
		return value.Null()
	}
	return r.Cells[index]
}

// GetByName returns the cell for the named column, or Null if absent.
func (r Row) GetByName(name string) value.Value {
	i := r.Columns.IndexOf(name)
	return r.Get(i)
}

// RowStream yields Rows lazily; it is single-shot and non-restartable.
// Errors may appear mid-stream (Next returning a non-nil error after
// having previously succeeded).
type RowStream interface {
	// Columns returns the result set's ColumnSet. It is available before
	// the first Next call.
	Columns() ColumnSet
	// Next advances to the next row. It returns (nil, nil) once exhausted.
	Next(ctx context.Context) (*Row, error)
	// Close releases resources associated with the stream. Idempotent.
	Close() error
}

// Connection is a live transport to one database. It is not safe to
// share: at most one in-flight operation per Connection.
type Connection interface {
	Execute(ctx context.Context, sql string, params []value.Value) (ExecResult, error)
	Query(ctx context.Context, sql string, params []value.Value) (RowStream, error)
	// GetValues is a convenience for a single materialized result set:
	// the returned Value is an Array of Arrays (rows of cells).
	GetValues(ctx context.Context, sql string, params []value.Value) (value.Value, error)
	Ping(ctx context.Context) error
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	// Close is idempotent; subsequent calls return nil.
	Close() error
	// Broken reports whether a prior operation produced a transport-level
	// error that makes this Connection unsafe to keep using. The pool
	// consults this on release to decide whether to recycle the
	// Connection or discard it.
	Broken() bool
}

// GetValuesFromStream drains a RowStream into the Array-of-Arrays shape
// Connection.GetValues returns; engine packages share this rather than
// reimplementing the loop.
func GetValuesFromStream(ctx context.Context, stream RowStream) (value.Value, error) {
	defer stream.Close()
	var rows []value.Value
	for {
		row, err := stream.Next(ctx)
		if err != nil {
			return value.Value{}, err
		}
		if row == nil {
			break
		}
		cells := make([]value.Value, len(row.Cells))
		copy(cells, row.Cells)
		rows = append(rows, value.Array(cells))
	}
	return value.Array(rows), nil
}
