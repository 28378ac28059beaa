package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sqlbridge/sqlbridge/dberr"
	"github.com/sqlbridge/sqlbridge/driver"
	"github.com/sqlbridge/sqlbridge/value"
)

type fakeConn struct {
	id     int64
	broken int32
	closed int32
}

func (f *fakeConn) Execute(ctx context.Context, sql string, params []value.Value) (driver.ExecResult, error) {
	return driver.ExecResult{}, nil
}
func (f *fakeConn) Query(ctx context.Context, sql string, params []value.Value) (driver.RowStream, error) {
	return nil, nil
}
func (f *fakeConn) GetValues(ctx context.Context, sql string, params []value.Value) (value.Value, error) {
	return value.Null(), nil
}
func (f *fakeConn) Ping(ctx context.Context) error    { return nil }
func (f *fakeConn) Begin(ctx context.Context) error   { return nil }
func (f *fakeConn) Commit(ctx context.Context) error  { return nil }
func (f *fakeConn) Rollback(ctx context.Context) error { return nil }
func (f *fakeConn) Close() error {
	atomic.StoreInt32(&f.closed, 1)
	return nil
}
func (f *fakeConn) Broken() bool { return atomic.LoadInt32(&f.broken) != 0 }

func newFactory() (Factory, *int64) {
	var counter int64
	return func(ctx context.Context) (driver.Connection, error) {
		id := atomic.AddInt64(&counter, 1)
		return &fakeConn{id: id}, nil
	}, &counter
}

func TestAcquireReleaseReusesIdle(t *testing.T) {
	factory, counter := newFactory()
	p := New(Config{MaxOpen: 1}, factory, nil)
	defer p.Close()

	g1, err := p.Acquire(context.Background())
	require.NoError(t, err)
	g1.Release()

	g2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	g2.Release()

	require.EqualValues(t, 1, *counter, "expected one dial")
}

func TestMaxOpenZeroFailsImmediately(t *testing.T) {
	factory, _ := newFactory()
	p := New(Config{MaxOpen: 0}, factory, nil)
	defer p.Close()

	_, err := p.Acquire(context.Background())
	require.Truef(t, dberr.IsKind(err, dberr.KindPoolClosed), "expected PoolClosed, got %v", err)
}

func TestFairnessFIFO(t *testing.T) {
	factory, _ := newFactory()
	p := New(Config{MaxOpen: 1, AcquireTimeout: time.Second}, factory, nil)
	defer p.Close()

	g, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	const n = 5
	order := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Stagger enqueue so arrival order is deterministic.
			time.Sleep(time.Duration(i) * 5 * time.Millisecond)
			waiter, err := p.Acquire(context.Background())
			if err != nil {
				t.Error(err)
				return
			}
			order <- i
			waiter.Release()
		}(i)
	}
	time.Sleep(30 * time.Millisecond) // let all 5 enqueue before releasing
	g.Release()
	wg.Wait()
	close(order)

	var got []int
	for v := range order {
		got = append(got, v)
	}
	for i, v := range got {
		require.Equalf(t, i, v, "wake order not FIFO: got %v", got)
	}
}

func TestAutoCloseOnReleaseBroken(t *testing.T) {
	factory, _ := newFactory()
	p := New(Config{MaxOpen: 1, AutoCloseOnRelease: 50 * time.Millisecond}, factory, nil)
	defer p.Close()

	g, err := p.Acquire(context.Background())
	require.NoError(t, err)
	fc := g.Conn().(*fakeConn)
	atomic.StoreInt32(&fc.broken, 1)
	g.Release()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(&fc.closed) != 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	require.NotZero(t, atomic.LoadInt32(&fc.closed), "expected broken connection to be closed within bound")
	require.Zero(t, p.Stats().LiveCount, "expected live_count 0 after discarding broken connection")
}
