package sqliteconn

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sqlbridge/sqlbridge/dberr"
	sbdriver "github.com/sqlbridge/sqlbridge/driver"
	"github.com/sqlbridge/sqlbridge/value"
)

// Connection is a live SQLite session backed by a dedicated worker
// goroutine (see worker.go). It satisfies driver.Connection the same
// way every other engine back-end does, even though underneath it is a
// command-channel RPC to a goroutine rather than a network round trip.
type Connection struct {
	mu             sync.Mutex
	w              *worker
	rowChannelSize int
	broken         int32
	closed         int32
}

var _ sbdriver.Connection = (*Connection)(nil)

// Options lists per-Connection configuration options. Nothing in this
// package takes an Options value: Driver.Connect reads the cache
// capacity and row channel size from the URL's query parameters.
type Options struct {
	StatementCacheCapacity int
	RowChannelSize         int
	CommandBufferSize      int
}

func (c *Connection) markBroken(err error) error {
	atomic.StoreInt32(&c.broken, 1)
	return err
}

func (c *Connection) Broken() bool { return atomic.LoadInt32(&c.broken) != 0 }

func (c *Connection) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	reply := make(chan commandReply, 1)
	if err := c.w.send(&command{kind: cmdShutdown, reply: reply}); err != nil {
		if dberr.IsKind(err, dberr.KindWorkerCrashed) {
			return nil
		}
		return err
	}
	r := <-reply
	return r.err
}

func (c *Connection) Ping(ctx context.Context) error {
	reply := make(chan commandReply, 1)
	if err := c.w.send(&command{kind: cmdPing, reply: reply}); err != nil {
		return c.markBroken(err)
	}
	select {
	case r := <-reply:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Connection) Begin(ctx context.Context) error {
	_, err := c.Execute(ctx, "BEGIN", nil)
	return err
}

func (c *Connection) Commit(ctx context.Context) error {
	_, err := c.Execute(ctx, "COMMIT", nil)
	return err
}

func (c *Connection) Rollback(ctx context.Context) error {
	_, err := c.Execute(ctx, "ROLLBACK", nil)
	return err
}

func (c *Connection) Execute(ctx context.Context, sqlText string, params []value.Value) (sbdriver.ExecResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	reply := make(chan commandReply, 1)
	cmd := &command{kind: cmdExecute, sqlText: sqlText, params: params, persistent: true, reply: reply}
	if err := c.w.send(cmd); err != nil {
		return sbdriver.ExecResult{}, c.markBroken(err)
	}
	select {
	case r := <-reply:
		if r.err != nil {
			return sbdriver.ExecResult{}, r.err
		}
		return r.execResult, nil
	case <-ctx.Done():
		// The statement executes to completion on the worker regardless
		// (there is no protocol-level mid-statement cancellation);
		// abandoning it here just means this Connection is no longer
		// safe to hand back to the pool.
		return sbdriver.ExecResult{}, c.markBroken(ctx.Err())
	}
}

// Query sends a Query command and returns once the worker has replied
// with the ColumnSet; the mutex stays held until the returned RowStream
// is closed, since only one operation may be in flight on a Connection.
func (c *Connection) Query(ctx context.Context, sqlText string, params []value.Value) (sbdriver.RowStream, error) {
	c.mu.Lock()
	rowChSize := c.rowChannelSize
	if rowChSize <= 0 {
		rowChSize = 1
	}
	rowCh := make(chan rowMsg, rowChSize)
	reply := make(chan commandReply, 1)
	cmd := &command{kind: cmdQuery, sqlText: sqlText, params: params, persistent: true, rowCh: rowCh, reply: reply}
	if err := c.w.send(cmd); err != nil {
		c.mu.Unlock()
		return nil, c.markBroken(err)
	}
	select {
	case r := <-reply:
		if r.err != nil {
			c.mu.Unlock()
			return nil, r.err
		}
		return &RowStream{conn: c, rowCh: rowCh, columns: r.columns}, nil
	case <-ctx.Done():
		c.mu.Unlock()
		return nil, c.markBroken(ctx.Err())
	}
}

func (c *Connection) GetValues(ctx context.Context, sqlText string, params []value.Value) (value.Value, error) {
	stream, err := c.Query(ctx, sqlText, params)
	if err != nil {
		return value.Value{}, err
	}
	return sbdriver.GetValuesFromStream(ctx, stream)
}

// Prepare pre-warms the statement cache (or the scratch slot, if
// persistent is false), exposing the worker's Prepare command
// directly for callers that want to pay that cost up front.
func (c *Connection) Prepare(ctx context.Context, sqlText string, persistent bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	reply := make(chan commandReply, 1)
	cmd := &command{kind: cmdPrepare, sqlText: sqlText, persistent: persistent, reply: reply}
	if err := c.w.send(cmd); err != nil {
		return c.markBroken(err)
	}
	r := <-reply
	return r.err
}

// CreateCollation registers a user-defined collation, one of the
// collation(name, cmp) configuration option; it runs on the worker
// goroutine and CreateCollation waits for its reply.
func (c *Connection) CreateCollation(ctx context.Context, name string, cmp func(a, b string) int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	reply := make(chan commandReply, 1)
	cmd := &command{kind: cmdCreateCollation, collationName: name, comparator: cmp, reply: reply}
	if err := c.w.send(cmd); err != nil {
		return c.markBroken(err)
	}
	r := <-reply
	return r.err
}

// ClearCache evicts every cached prepared statement and the scratch slot.
func (c *Connection) ClearCache(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	reply := make(chan commandReply, 1)
	if err := c.w.send(&command{kind: cmdClearCache, reply: reply}); err != nil {
		return c.markBroken(err)
	}
	r := <-reply
	return r.err
}

// UnlockDB is the only sanctioned path to the raw *sqlite3.SQLiteConn
// it suspends the worker until the returned UnlockGuard
// is released.
func (c *Connection) UnlockDB(ctx context.Context) (*UnlockGuard, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	reply := make(chan commandReply, 1)
	if err := c.w.send(&command{kind: cmdUnlockDB, reply: reply}); err != nil {
		return nil, c.markBroken(err)
	}
	r := <-reply
	if r.err != nil {
		return nil, r.err
	}
	return r.unlock, nil
}

// RowStream adapts the worker's per-query row channel to driver.RowStream.
type RowStream struct {
	conn    *Connection
	rowCh   chan rowMsg
	columns sbdriver.ColumnSet
	done    bool
	closed  int32
}

func (s *RowStream) Columns() sbdriver.ColumnSet { return s.columns }

func (s *RowStream) Next(ctx context.Context) (*sbdriver.Row, error) {
	if s.done {
		return nil, nil
	}
	select {
	case msg, ok := <-s.rowCh:
		if !ok {
			s.done = true
			return nil, nil
		}
		if msg.err != nil {
			s.done = true
			return nil, s.conn.markBroken(msg.err)
		}
		return msg.row, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close drains any remaining rows so the worker is never left blocked
// trying to send into a channel nobody will read, then releases the
// Connection's mutex so the next operation can proceed.
func (s *RowStream) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	if !s.done {
		for range s.rowCh {
		}
	}
	s.conn.mu.Unlock()
	return nil
}
