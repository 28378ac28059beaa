package registry

import (
	"context"
	"testing"

	"github.com/sqlbridge/sqlbridge/driver"
	"github.com/sqlbridge/sqlbridge/value"
)

type fakeConn struct{}

func (fakeConn) Execute(ctx context.Context, sql string, params []value.Value) (driver.ExecResult, error) {
	return driver.ExecResult{}, nil
}
func (fakeConn) Query(ctx context.Context, sql string, params []value.Value) (driver.RowStream, error) {
	return nil, nil
}
func (fakeConn) GetValues(ctx context.Context, sql string, params []value.Value) (value.Value, error) {
	return value.Null(), nil
}
func (fakeConn) Ping(ctx context.Context) error     { return nil }
func (fakeConn) Begin(ctx context.Context) error    { return nil }
func (fakeConn) Commit(ctx context.Context) error   { return nil }
func (fakeConn) Rollback(ctx context.Context) error { return nil }
func (fakeConn) Close() error                       { return nil }
func (fakeConn) Broken() bool                       { return false }

type fakeDriver struct {
	connectCalls int
}

func (d *fakeDriver) Connect(ctx context.Context, url string) (driver.Connection, error) {
	d.connectCalls++
	return fakeConn{}, nil
}
func (*fakeDriver) DefaultPort() int  { return 9999 }
func (*fakeDriver) URLScheme() string { return "faketest" }

func TestRegisterAndLookup(t *testing.T) {
	d := &fakeDriver{}
	Register("faketest-lookup", d)

	got, ok := Lookup("FAKETEST-LOOKUP")
	if !ok {
		t.Fatal("expected scheme to be found case-insensitively")
	}
	if got != driver.Driver(d) {
		t.Fatal("expected the registered driver back")
	}
}

func TestRegisterTwicePanics(t *testing.T) {
	Register("faketest-dup", &fakeDriver{})
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic on duplicate registration")
		}
	}()
	Register("faketest-dup", &fakeDriver{})
}

func TestOpenResolvesSchemeAndDials(t *testing.T) {
	d := &fakeDriver{}
	Register("faketest-open", d)

	p, err := Open("faketest-open://localhost/db", nil, WithMaxOpen(2))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer p.Close()

	g, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	g.Release()
	if d.connectCalls != 1 {
		t.Fatalf("expected one dial, got %d", d.connectCalls)
	}
}

func TestOpenUnknownSchemeFails(t *testing.T) {
	if _, err := Open("faketest-never-registered://host/db", nil); err == nil {
		t.Fatal("expected an error for an unregistered scheme")
	}
}
