// Package pool implements the non-blocking connection pool: a bounded
// set of live driver.Connections shared by callers under FIFO-fair
// acquire semantics, generalized from vitess's pools.ResourcePool: a
// container/list queue of waiters woken in arrival order, a LIFO idle
// stack that hands out the most recently released connection first, and
// a live map of every open entry swept for idle/max_lifetime eviction.
package pool

import (
	"container/list"
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sqlbridge/sqlbridge/dberr"
	"github.com/sqlbridge/sqlbridge/dblog"
	"github.com/sqlbridge/sqlbridge/driver"
)

// Factory dials a fresh Connection. It is the pool's only source of new
// live connections; bounding it by Config.ConnectTimeout is the pool's
// job, not the Factory's.
type Factory func(ctx context.Context) (driver.Connection, error)

// Config holds the pool's tunables: every optional parameter
// the connection pool accepts.
type Config struct {
	MaxOpen              int
	MinIdle              int
	ConnectTimeout       time.Duration
	AcquireTimeout       time.Duration
	MaxLifetime          time.Duration
	IdleTimeout          time.Duration
	HealthCheckOnAcquire bool
	// AutoCloseOnRelease bounds how long a broken/stale connection's
	// Close() is allowed to run before the pool abandons it; zero means
	// Close() runs synchronously with no bound.
	AutoCloseOnRelease time.Duration
}

type entry struct {
	id        uint64
	conn      driver.Connection
	createdAt time.Time
	lastUsed  time.Time
}

type acquireResult struct {
	entry *entry
	err   error
}

// Pool manages driver.Connections for one engine/DSN pair.
type Pool struct {
	cfg     Config
	factory Factory
	log     dblog.Logger

	mu      sync.Mutex
	closed  bool
	idle    []*entry // LIFO: most recently released at the tail
	live    map[uint64]*entry
	nextID  uint64
	waiters *list.List // FIFO queue of chan acquireResult

	liveCount  int64
	waitCount  int64
	waitTimeNs int64
	idleClosed int64
	exhausted  int64

	stopReaper chan struct{}
	reaperDone chan struct{}
}

// New builds a Pool. The idle reaper goroutine starts immediately if
// cfg.IdleTimeout is set; call Close to stop it.
func New(cfg Config, factory Factory, logger dblog.Logger) *Pool {
	if logger == nil {
		logger = dblog.Nop()
	}
	p := &Pool{
		cfg:        cfg,
		factory:    factory,
		log:        logger,
		live:       make(map[uint64]*entry),
		waiters:    list.New(),
		stopReaper: make(chan struct{}),
		reaperDone: make(chan struct{}),
	}
	if cfg.IdleTimeout > 0 {
		go p.reapIdleLoop()
	} else {
		close(p.reaperDone)
	}
	return p
}

// Guard wraps an acquired Connection; Release must be called exactly
// once to return it (or discard it) to the pool.
type Guard struct {
	pool     *Pool
	entry    *entry
	released int32
}

// Conn returns the underlying Connection. It is only valid until
// Release is called.
func (g *Guard) Conn() driver.Connection { return g.entry.conn }

// Release returns the Connection to the pool, or discards it (freeing
// its slot) if it is broken or has exceeded max_lifetime.
func (g *Guard) Release() {
	if !atomic.CompareAndSwapInt32(&g.released, 0, 1) {
		return
	}
	g.pool.release(g.entry)
}

// Acquire follows a three-step protocol: reuse a healthy idle
// connection, else open a new one under max_open, else wait FIFO for
// acquire_timeout.
func (p *Pool) Acquire(ctx context.Context) (*Guard, error) {
	if p.cfg.MaxOpen <= 0 {
		return nil, dberr.PoolClosed()
	}
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, dberr.PoolClosed()
		}
		if n := len(p.idle); n > 0 {
			e := p.idle[n-1]
			p.idle = p.idle[:n-1]
			p.mu.Unlock()

			if p.isStale(e) {
				p.destroy(e)
				continue
			}
			if p.cfg.HealthCheckOnAcquire {
				if err := e.conn.Ping(ctx); err != nil {
					p.destroy(e)
					continue
				}
			}
			e.lastUsed = time.Now()
			return &Guard{pool: p, entry: e}, nil
		}

		if int(p.liveCount) < p.cfg.MaxOpen {
			p.liveCount++
			p.mu.Unlock()
			conn, err := p.dial(ctx)
			if err != nil {
				p.mu.Lock()
				p.liveCount--
				p.mu.Unlock()
				return nil, err
			}
			return &Guard{pool: p, entry: p.register(conn)}, nil
		}

		atomic.AddInt64(&p.exhausted, 1)
		ch := make(chan acquireResult, 1)
		elem := p.waiters.PushBack(ch)
		p.mu.Unlock()

		res, err := p.waitForSlot(ctx, ch, elem)
		if err != nil {
			return nil, err
		}
		return &Guard{pool: p, entry: res.entry}, nil
	}
}

func (p *Pool) waitForSlot(ctx context.Context, ch chan acquireResult, elem *list.Element) (acquireResult, error) {
	start := time.Now()
	var timeoutC <-chan time.Time
	if p.cfg.AcquireTimeout > 0 {
		timer := time.NewTimer(p.cfg.AcquireTimeout)
		defer timer.Stop()
		timeoutC = timer.C
	}
	select {
	case res := <-ch:
		atomic.AddInt64(&p.waitCount, 1)
		atomic.AddInt64(&p.waitTimeNs, int64(time.Since(start)))
		if res.err != nil {
			return acquireResult{}, res.err
		}
		res.entry.lastUsed = time.Now()
		return res, nil
	case <-timeoutC:
		p.removeWaiter(elem)
		return acquireResult{}, dberr.AcquireTimeout()
	case <-ctx.Done():
		p.removeWaiter(elem)
		return acquireResult{}, dberr.AcquireTimeout()
	}
}

func (p *Pool) removeWaiter(elem *list.Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	// Guard against a concurrent release already having popped elem.
	for e := p.waiters.Front(); e != nil; e = e.Next() {
		if e == elem {
			p.waiters.Remove(elem)
			return
		}
	}
}

func (p *Pool) dial(ctx context.Context) (driver.Connection, error) {
	if p.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.ConnectTimeout)
		defer cancel()
	}
	return p.factory(ctx)
}

func (p *Pool) register(conn driver.Connection) *entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	e := &entry{id: p.nextID, conn: conn, createdAt: time.Now(), lastUsed: time.Now()}
	p.live[e.id] = e
	return e
}

func (p *Pool) isStale(e *entry) bool {
	return p.cfg.MaxLifetime > 0 && time.Since(e.createdAt) > p.cfg.MaxLifetime
}

// release implements the guard-drop protocol: broken or stale
// connections are discarded (freeing their slot); healthy ones are
// either handed directly to a waiting acquirer or pushed onto the idle
// stack.
func (p *Pool) release(e *entry) {
	if e.conn.Broken() || p.isStale(e) {
		p.discard(e)
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.discard(e)
		return
	}
	if elem := p.waiters.Front(); elem != nil {
		ch := elem.Value.(chan acquireResult)
		p.waiters.Remove(elem)
		p.mu.Unlock()
		ch <- acquireResult{entry: e}
		return
	}
	p.idle = append(p.idle, e)
	p.mu.Unlock()
}

// discard frees e's slot and closes its Connection, bounded by
// AutoCloseOnRelease if configured; it then wakes one waiter (if any)
// to attempt a fresh connect into the freed slot.
func (p *Pool) discard(e *entry) {
	p.mu.Lock()
	delete(p.live, e.id)
	p.liveCount--
	p.mu.Unlock()

	p.closeBounded(e)
	p.wakeWaiterForCreation()
}

func (p *Pool) destroy(e *entry) {
	p.discard(e)
}

func (p *Pool) closeBounded(e *entry) {
	if p.cfg.AutoCloseOnRelease <= 0 {
		e.conn.Close()
		return
	}
	done := make(chan struct{})
	go func() {
		e.conn.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(p.cfg.AutoCloseOnRelease):
		p.log.Sugar().Warnw("connection close exceeded auto_close_on_release bound; abandoning", "connection_id", e.id)
	}
}

// wakeWaiterForCreation hands the next waiter a fresh slot to dial into,
// since the entry that freed it was destroyed rather than handed off.
func (p *Pool) wakeWaiterForCreation() {
	p.mu.Lock()
	elem := p.waiters.Front()
	if elem == nil {
		p.mu.Unlock()
		return
	}
	p.waiters.Remove(elem)
	p.liveCount++
	p.mu.Unlock()

	ch := elem.Value.(chan acquireResult)
	go func() {
		conn, err := p.dial(context.Background())
		if err != nil {
			p.mu.Lock()
			p.liveCount--
			p.mu.Unlock()
			ch <- acquireResult{err: err}
			return
		}
		ch <- acquireResult{entry: p.register(conn)}
	}()
}

// Close empties the pool, closing every idle connection and stopping
// the idle reaper. In-flight Guards are closed as they are released.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	for _, e := range idle {
		p.mu.Lock()
		delete(p.live, e.id)
		p.liveCount--
		p.mu.Unlock()
		e.conn.Close()
	}
	if p.cfg.IdleTimeout > 0 {
		close(p.stopReaper)
		<-p.reaperDone
	}
}

func (p *Pool) reapIdleLoop() {
	defer close(p.reaperDone)
	interval := p.cfg.IdleTimeout / 10
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.reapIdleOnce()
		case <-p.stopReaper:
			return
		}
	}
}

// reapIdleOnce evicts idle entries older than IdleTimeout, always
// preserving the MinIdle most-recently-used idle entries.
func (p *Pool) reapIdleOnce() {
	p.mu.Lock()
	n := len(p.idle)
	cutoff := n - p.cfg.MinIdle
	var toClose []*entry
	if cutoff > 0 {
		keepSet := make(map[uint64]bool, n)
		for i := 0; i < cutoff; i++ {
			e := p.idle[i]
			if time.Since(e.lastUsed) > p.cfg.IdleTimeout {
				toClose = append(toClose, e)
				delete(p.live, e.id)
				p.liveCount--
			} else {
				keepSet[e.id] = true
			}
		}
		if len(toClose) > 0 {
			kept := p.idle[:0]
			for i, e := range p.idle {
				if i >= cutoff || keepSet[e.id] {
					kept = append(kept, e)
				}
			}
			p.idle = kept
		}
	}
	p.mu.Unlock()

	for _, e := range toClose {
		e.conn.Close()
		atomic.AddInt64(&p.idleClosed, 1)
	}
}

// Stats is a point-in-time snapshot of the pool's counters.
type Stats struct {
	LiveCount  int64
	IdleCount  int64
	WaitCount  int64
	WaitTimeNs int64
	IdleClosed int64
	Exhausted  int64
	MaxOpen    int
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	idleCount := int64(len(p.idle))
	p.mu.Unlock()
	return Stats{
		LiveCount:  atomic.LoadInt64(&p.liveCount),
		IdleCount:  idleCount,
		WaitCount:  atomic.LoadInt64(&p.waitCount),
		WaitTimeNs: atomic.LoadInt64(&p.waitTimeNs),
		IdleClosed: atomic.LoadInt64(&p.idleClosed),
		Exhausted:  atomic.LoadInt64(&p.exhausted),
		MaxOpen:    p.cfg.MaxOpen,
	}
}

// StatsJSON renders Stats as JSON, mirroring vitess's pool
// StatsJSON for operational dashboards.
func (p *Pool) StatsJSON() string {
	b, err := json.Marshal(p.Stats())
	if err != nil {
		return "{}"
	}
	return string(b)
}
