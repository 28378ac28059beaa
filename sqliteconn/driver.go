package sqliteconn

import (
	"context"
	"strconv"

	"github.com/sqlbridge/sqlbridge/dberr"
	sbdriver "github.com/sqlbridge/sqlbridge/driver"
	"github.com/sqlbridge/sqlbridge/dsn"
	"github.com/sqlbridge/sqlbridge/registry"
)

// Driver instantiates SQLite Connections, each backed by its own
// worker goroutine (see worker.go).
type Driver struct{}

var _ sbdriver.Driver = Driver{}

func init() {
	registry.Register("sqlite", Driver{})
}

// DefaultPort returns 0: SQLite is an in-process file format, not a
// network service.
func (Driver) DefaultPort() int { return 0 }

func (Driver) URLScheme() string { return "sqlite" }

func (Driver) Connect(ctx context.Context, rawURL string) (sbdriver.Connection, error) {
	info, err := dsn.ParseSQLite(rawURL)
	if err != nil {
		return nil, err
	}
	nativeDSN := ":memory:"
	if !info.InMemory {
		nativeDSN = info.Path
	}

	cacheCapacity := 100
	if v, ok := info.Params["statement_cache_capacity"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cacheCapacity = n
		}
	}
	rowChannelSize := 16
	if v, ok := info.Params["row_channel_size"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			rowChannelSize = n
		}
	}

	w, err := newWorker(nativeDSN, cacheCapacity, 0, nil)
	if err != nil {
		return nil, err
	}
	return &Connection{w: w, rowChannelSize: rowChannelSize}, nil
}

// connectForTest is a test-only escape hatch letting tests build a
// Connection from a bare database path without going through a URL or
// dsn.Info.
func connectForTest(path string, capacity, rowChSize int) (*Connection, error) {
	w, err := newWorker(path, capacity, 0, nil)
	if err != nil {
		return nil, dberr.Connect("open sqlite database", err)
	}
	return &Connection{w: w, rowChannelSize: rowChSize}, nil
}
