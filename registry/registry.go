// Package registry lets each engine package register its driver.Driver
// under a URL scheme and offers Open as the single convenience
// entrypoint that resolves a URL to a running pool.Pool. The
// register-by-name idea mirrors database/sql.Register; the separate
// hook-style registration mirrors vitess's servenv.OnInit, trimmed down
// to the bare registration list a library needs (no flags, signals, or
// process lifecycle, since those have no analog here).
package registry

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sqlbridge/sqlbridge/dberr"
	"github.com/sqlbridge/sqlbridge/dblog"
	"github.com/sqlbridge/sqlbridge/driver"
	"github.com/sqlbridge/sqlbridge/pool"
)

var (
	mu      sync.RWMutex
	drivers = make(map[string]driver.Driver)
)

// Register associates scheme with d. Engine packages call this from an
// init() so that importing a package (even with a blank import) is
// enough to make its scheme available to Open. Registering the same
// scheme twice panics, the way database/sql.Register does, since it
// can only be a programming error.
func Register(scheme string, d driver.Driver) {
	mu.Lock()
	defer mu.Unlock()
	scheme = strings.ToLower(scheme)
	if _, dup := drivers[scheme]; dup {
		panic(fmt.Sprintf("registry: Register called twice for scheme %q", scheme))
	}
	drivers[scheme] = d
}

// Lookup returns the Driver registered for scheme, if any.
func Lookup(scheme string) (driver.Driver, bool) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := drivers[strings.ToLower(scheme)]
	return d, ok
}

// Schemes returns every currently registered scheme, for diagnostics.
func Schemes() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(drivers))
	for s := range drivers {
		out = append(out, s)
	}
	return out
}

// Option configures the pool.Config Open builds its Pool from.
type Option func(*pool.Config)

func WithMaxOpen(n int) Option            { return func(c *pool.Config) { c.MaxOpen = n } }
func WithMinIdle(n int) Option            { return func(c *pool.Config) { c.MinIdle = n } }
func WithConnectTimeout(d time.Duration) Option {
	return func(c *pool.Config) { c.ConnectTimeout = d }
}
func WithAcquireTimeout(d time.Duration) Option {
	return func(c *pool.Config) { c.AcquireTimeout = d }
}
func WithMaxLifetime(d time.Duration) Option { return func(c *pool.Config) { c.MaxLifetime = d } }
func WithIdleTimeout(d time.Duration) Option { return func(c *pool.Config) { c.IdleTimeout = d } }
func WithHealthCheckOnAcquire(on bool) Option {
	return func(c *pool.Config) { c.HealthCheckOnAcquire = on }
}
func WithAutoCloseOnRelease(d time.Duration) Option {
	return func(c *pool.Config) { c.AutoCloseOnRelease = d }
}

// Open parses rawURL's scheme, looks up the registered Driver, and
// constructs a pool.Pool whose Factory dials fresh Connections against
// rawURL. It is the single convenience entrypoint; engine packages and
// pool.New remain usable directly for callers who want to build a
// pool.Config by hand instead of composing Options.
func Open(rawURL string, log dblog.Logger, opts ...Option) (*pool.Pool, error) {
	scheme, err := schemeOf(rawURL)
	if err != nil {
		return nil, err
	}
	d, ok := Lookup(scheme)
	if !ok {
		return nil, dberr.Connect(fmt.Sprintf("registry: no driver registered for scheme %q (registered: %v)", scheme, Schemes()), nil)
	}
	var cfg pool.Config
	for _, opt := range opts {
		opt(&cfg)
	}
	factory := func(ctx context.Context) (driver.Connection, error) {
		return d.Connect(ctx, rawURL)
	}
	return pool.New(cfg, factory, log), nil
}

func schemeOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return "", dberr.Connect(fmt.Sprintf("registry: cannot determine scheme from URL %q", rawURL), err)
	}
	return u.Scheme, nil
}
