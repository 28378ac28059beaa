package pgconn

import (
	"context"
	"database/sql"
	"sync"

	"github.com/lib/pq"

	"github.com/sqlbridge/sqlbridge/dberr"
	"github.com/sqlbridge/sqlbridge/driver"
	"github.com/sqlbridge/sqlbridge/value"
)

// Connection wraps a single-connection *sql.DB (or, in tests, any
// *sql.DB backed by a fake driver) behind driver.Connection. Only one
// operation is ever in flight, enforced by a mutex, matching the
// contract every engine back-end honors.
type Connection struct {
	mu     sync.Mutex
	db     *sql.DB
	tx     *sql.Tx
	broken bool
}

var _ driver.Connection = (*Connection)(nil)

// NewConnection wraps an already-open *sql.DB; exported so tests can
// inject github.com/DATA-DOG/go-sqlmock without going through a real
// TCP handshake.
func NewConnection(db *sql.DB) *Connection {
	return &Connection{db: db}
}

func (c *Connection) Broken() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.broken
}

func (c *Connection) markBroken(err error) error {
	c.broken = true
	return err
}

func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func (c *Connection) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.db.PingContext(ctx); err != nil {
		return c.markBroken(dberr.IO("ping postgres connection", err))
	}
	return nil
}

func (c *Connection) Begin(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return translateError(err)
	}
	c.tx = tx
	return nil
}

func (c *Connection) Commit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tx == nil {
		return dberr.Other("commit called outside a transaction")
	}
	err := c.tx.Commit()
	c.tx = nil
	if err != nil {
		return translateError(err)
	}
	return nil
}

func (c *Connection) Rollback(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tx == nil {
		return dberr.Other("rollback called outside a transaction")
	}
	err := c.tx.Rollback()
	c.tx = nil
	if err != nil {
		return translateError(err)
	}
	return nil
}

func (c *Connection) Execute(ctx context.Context, sqlText string, params []value.Value) (driver.ExecResult, error) {
	args, err := toArgs(params)
	if err != nil {
		return driver.ExecResult{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	res, err := c.execer().ExecContext(ctx, sqlText, args...)
	if err != nil {
		return driver.ExecResult{}, c.markBroken(translateError(err))
	}
	affected, _ := res.RowsAffected()
	insertID, idErr := res.LastInsertId()
	return driver.ExecResult{
		RowsAffected: affected,
		LastInsertID: insertID,
		HasInsertID:  idErr == nil,
	}, nil
}

// execer abstracts over whether a transaction is open so Execute/Query
// run against it when one is (transactional statements
// execute in submission order on the same Connection).
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (c *Connection) execer() execer {
	if c.tx != nil {
		return c.tx
	}
	return c.db
}

func (c *Connection) Query(ctx context.Context, sqlText string, params []value.Value) (driver.RowStream, error) {
	args, err := toArgs(params)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	rows, err := c.execer().QueryContext(ctx, sqlText, args...)
	c.mu.Unlock()
	if err != nil {
		return nil, c.markBroken(translateError(err))
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, dberr.Protocol("read postgres result columns: %v", err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		rows.Close()
		return nil, dberr.Protocol("read postgres column types: %v", err)
	}
	columns := make(driver.ColumnSet, len(cols))
	for i, name := range cols {
		columns[i] = driver.Column{Name: name, EngineType: types[i].DatabaseTypeName()}
	}
	return &RowStream{conn: c, rows: rows, types: types, columns: columns}, nil
}

func (c *Connection) GetValues(ctx context.Context, sqlText string, params []value.Value) (value.Value, error) {
	stream, err := c.Query(ctx, sqlText, params)
	if err != nil {
		return value.Value{}, err
	}
	return driver.GetValuesFromStream(ctx, stream)
}

// RowStream adapts *sql.Rows to driver.RowStream.
type RowStream struct {
	conn    *Connection
	rows    *sql.Rows
	types   []*sql.ColumnType
	columns driver.ColumnSet
	done    bool
}

func (s *RowStream) Columns() driver.ColumnSet { return s.columns }

func (s *RowStream) Next(ctx context.Context) (*driver.Row, error) {
	if s.done {
		return nil, nil
	}
	if !s.rows.Next() {
		s.done = true
		if err := s.rows.Err(); err != nil {
			return nil, s.conn.markBroken(translateError(err))
		}
		return nil, nil
	}
	cells, err := scanRow(s.rows, s.types)
	if err != nil {
		s.done = true
		return nil, s.conn.markBroken(err)
	}
	return &driver.Row{Columns: s.columns, Cells: cells}, nil
}

func (s *RowStream) Close() error {
	s.done = true
	return s.rows.Close()
}

// translateError recognizes *pq.Error to surface a structured
// dberr.Database with the server's SQLSTATE, falling back to dberr.IO.
func translateError(err error) error {
	if pqErr, ok := err.(*pq.Error); ok {
		return dberr.Database(0, string(pqErr.Code), pqErr.Message)
	}
	return dberr.IO("postgres operation", err)
}
