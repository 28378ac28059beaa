// Package sqliteconn implements the SQLite Driver/Connection contract
// by fronting github.com/mattn/go-sqlite3's synchronous, non-reentrant
// C API with a dedicated worker goroutine and command channel, the
// pattern used for any non-thread-safe native
// client library: one goroutine owns the handle exclusively, every
// operation round-trips through a channel instead of touching the
// handle directly. Grounded on the retrieved rbdc-sqlite
// connection/mod.rs worker pattern (ConnectionWorker, UnlockDb,
// Statements cache with a persistent LRU plus one scratch slot).
package sqliteconn

import (
	"database/sql/driver"
	"io"
	"sync/atomic"

	"github.com/mattn/go-sqlite3"

	"github.com/sqlbridge/sqlbridge/dberr"
	"github.com/sqlbridge/sqlbridge/dblog"
	sbdriver "github.com/sqlbridge/sqlbridge/driver"
	"github.com/sqlbridge/sqlbridge/stmtcache"
	"github.com/sqlbridge/sqlbridge/value"
)

// workerState has four states: Ready, Executing,
// ShuttingDown, Terminated.
type workerState int32

const (
	stateReady workerState = iota
	stateExecuting
	stateShuttingDown
	stateTerminated
)

type commandKind int

const (
	cmdPrepare commandKind = iota
	cmdExecute
	cmdQuery
	cmdCreateCollation
	cmdClearCache
	cmdUnlockDB
	cmdPing
	cmdShutdown
)

// command is what the async side sends down the worker's command
// channel: one variant per supported command, plus a one-shot
// reply channel the worker fulfills before returning to Ready.
type command struct {
	kind       commandKind
	sqlText    string
	params     []value.Value
	persistent bool

	collationName string
	comparator    func(a, b string) int

	rowCh chan rowMsg
	reply chan commandReply
}

type commandReply struct {
	execResult sbdriver.ExecResult
	columns    sbdriver.ColumnSet
	unlock     *UnlockGuard
	err        error
}

type rowMsg struct {
	row *sbdriver.Row
	err error
}

// worker is the dedicated goroutine owning one *sqlite3.SQLiteConn.
// Nothing outside this file ever calls a method on sqliteConn directly;
// every access happens inside run(), on the worker's own goroutine.
type worker struct {
	state      int32 // atomic workerState
	commands   chan *command
	done       chan struct{}
	log        dblog.Logger
	rawConn    driver.Conn
	sqliteConn *sqlite3.SQLiteConn
	cache      *stmtcache.Cache[driver.Stmt]
	scratch    driver.Stmt
}

// newWorker opens dsn via mattn/go-sqlite3's driver directly (bypassing
// database/sql entirely, since Go's own connection pool would duplicate
// what this module's pool package already provides) and starts the
// worker goroutine.
func newWorker(dsnStr string, cacheCapacity, commandBuffer int, log dblog.Logger) (*worker, error) {
	if log == nil {
		log = dblog.Nop()
	}
	sqliteDriver := &sqlite3.SQLiteDriver{}
	rawConn, err := sqliteDriver.Open(dsnStr)
	if err != nil {
		return nil, dberr.Connect("open sqlite database", err)
	}
	sc, ok := rawConn.(*sqlite3.SQLiteConn)
	if !ok {
		rawConn.Close()
		return nil, dberr.Connect("unexpected sqlite connection type", nil)
	}
	if commandBuffer <= 0 {
		commandBuffer = 16
	}
	w := &worker{
		commands:   make(chan *command, commandBuffer),
		done:       make(chan struct{}),
		log:        log,
		rawConn:    rawConn,
		sqliteConn: sc,
	}
	w.cache = stmtcache.New[driver.Stmt](cacheCapacity, func(_ string, stmt driver.Stmt) {
		stmt.Close()
	})
	go w.run()
	return w, nil
}

// send enqueues cmd, applying the command channel's natural
// back-pressure (the caller blocks when the buffered channel is full,
// on a full channel) unless the worker has already terminated.
func (w *worker) send(cmd *command) error {
	if workerState(atomic.LoadInt32(&w.state)) == stateTerminated {
		return dberr.WorkerCrashed(nil)
	}
	select {
	case w.commands <- cmd:
		return nil
	case <-w.done:
		return dberr.WorkerCrashed(nil)
	}
}

func (w *worker) run() {
	defer func() {
		atomic.StoreInt32(&w.state, int32(stateTerminated))
		close(w.done)
	}()
	for cmd := range w.commands {
		atomic.StoreInt32(&w.state, int32(stateExecuting))
		w.handle(cmd)
		if workerState(atomic.LoadInt32(&w.state)) == stateShuttingDown {
			return
		}
		atomic.StoreInt32(&w.state, int32(stateReady))
	}
}

func (w *worker) handle(cmd *command) {
	switch cmd.kind {
	case cmdPrepare:
		_, err := w.prepare(cmd.sqlText, cmd.persistent)
		cmd.reply <- commandReply{err: err}
	case cmdExecute:
		res, err := w.execute(cmd.sqlText, cmd.params, cmd.persistent)
		cmd.reply <- commandReply{execResult: res, err: err}
	case cmdQuery:
		w.query(cmd)
	case cmdCreateCollation:
		err := w.sqliteConn.RegisterCollation(cmd.collationName, cmd.comparator)
		cmd.reply <- commandReply{err: translateError(err)}
	case cmdClearCache:
		w.cache.Clear()
		if w.scratch != nil {
			w.scratch.Close()
			w.scratch = nil
		}
		cmd.reply <- commandReply{}
	case cmdUnlockDB:
		release := make(chan struct{})
		cmd.reply <- commandReply{unlock: &UnlockGuard{conn: w.sqliteConn, release: release}}
		<-release
	case cmdPing:
		cmd.reply <- commandReply{}
	case cmdShutdown:
		atomic.StoreInt32(&w.state, int32(stateShuttingDown))
		w.cache.Clear()
		if w.scratch != nil {
			w.scratch.Close()
			w.scratch = nil
		}
		err := w.rawConn.Close()
		cmd.reply <- commandReply{err: err}
	}
}

// prepare resolves cmd's statement through the cache (persistent=true)
// or the single scratch slot (persistent=false / cache disabled),
// the previous scratch statement is
// dropped on every non-persistent prepare.
func (w *worker) prepare(sqlText string, persistent bool) (driver.Stmt, error) {
	if persistent && w.cache.Enabled() {
		if stmt, ok := w.cache.Get(sqlText); ok {
			// go-sqlite3 resets a statement's bindings internally on
			// every Exec/Query call, so no explicit reset is needed here.
			return stmt, nil
		}
		stmt, err := w.sqliteConn.Prepare(sqlText)
		if err != nil {
			return nil, err
		}
		w.cache.Insert(sqlText, stmt)
		return stmt, nil
	}
	if w.scratch != nil {
		w.scratch.Close()
		w.scratch = nil
	}
	stmt, err := w.sqliteConn.Prepare(sqlText)
	if err != nil {
		return nil, err
	}
	w.scratch = stmt
	return stmt, nil
}

func (w *worker) execute(sqlText string, params []value.Value, persistent bool) (sbdriver.ExecResult, error) {
	stmt, err := w.prepare(sqlText, persistent)
	if err != nil {
		return sbdriver.ExecResult{}, translateError(err)
	}
	args, err := toDriverValues(params)
	if err != nil {
		return sbdriver.ExecResult{}, err
	}
	res, err := stmt.Exec(args)
	if err != nil {
		return sbdriver.ExecResult{}, translateError(err)
	}
	affected, _ := res.RowsAffected()
	insertID, idErr := res.LastInsertId()
	return sbdriver.ExecResult{
		RowsAffected: affected,
		LastInsertID: insertID,
		HasInsertID:  idErr == nil,
	}, nil
}

// query streams rows into cmd.rowCh as they are decoded, so a stalled
// consumer naturally stalls this goroutine (and therefore the whole
// Connection, which is correct: at most one in-flight operation at a
// time).
func (w *worker) query(cmd *command) {
	stmt, err := w.prepare(cmd.sqlText, cmd.persistent)
	if err != nil {
		cmd.reply <- commandReply{err: translateError(err)}
		close(cmd.rowCh)
		return
	}
	args, err := toDriverValues(cmd.params)
	if err != nil {
		cmd.reply <- commandReply{err: err}
		close(cmd.rowCh)
		return
	}
	rows, err := stmt.Query(args)
	if err != nil {
		cmd.reply <- commandReply{err: translateError(err)}
		close(cmd.rowCh)
		return
	}
	defer rows.Close()

	names := rows.Columns()
	columns := make(sbdriver.ColumnSet, len(names))
	typer, hasTypes := rows.(interface{ ColumnTypeDatabaseTypeName(int) string })
	for i, name := range names {
		engineType := "TEXT"
		if hasTypes {
			engineType = typer.ColumnTypeDatabaseTypeName(i)
		}
		columns[i] = sbdriver.Column{Name: name, EngineType: engineType}
	}
	cmd.reply <- commandReply{columns: columns}

	dest := make([]driver.Value, len(names))
	for {
		err := rows.Next(dest)
		if err == io.EOF {
			close(cmd.rowCh)
			return
		}
		if err != nil {
			cmd.rowCh <- rowMsg{err: translateError(err)}
			close(cmd.rowCh)
			return
		}
		cells := make([]value.Value, len(dest))
		for i, d := range dest {
			cells[i] = driverValueToValue(d, columns[i].EngineType)
		}
		cmd.rowCh <- rowMsg{row: &sbdriver.Row{Columns: columns, Cells: cells}}
	}
}

// UnlockGuard is the only sanctioned path to the raw *sqlite3.SQLiteConn
// (mirroring rbdc-sqlite's UnlockDb): the worker is suspended until Release is
// called, so no concurrent FFI call can race the caller's direct use.
type UnlockGuard struct {
	conn    *sqlite3.SQLiteConn
	release chan struct{}
	done    bool
}

// Raw returns the underlying *sqlite3.SQLiteConn for direct use. Valid
// only until Release is called.
func (g *UnlockGuard) Raw() *sqlite3.SQLiteConn { return g.conn }

// Release resumes the worker thread. Idempotent.
func (g *UnlockGuard) Release() {
	if g.done {
		return
	}
	g.done = true
	close(g.release)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if sqliteErr, ok := err.(sqlite3.Error); ok {
		return dberr.Database(int(sqliteErr.Code), "", sqliteErr.Error())
	}
	return dberr.IO("sqlite operation", err)
}
