// Package pgconn instantiates the driver.Driver/driver.Connection
// contract for PostgreSQL by wrapping github.com/lib/pq behind
// database/sql rather than hand-rolling the Postgres wire protocol,
// giving the engine a home so the pool can manage it uniformly with
// MySQL and SQLite. Grounded on sqldef's database/postgres.
package pgconn

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/lib/pq"

	"github.com/sqlbridge/sqlbridge/dberr"
	"github.com/sqlbridge/sqlbridge/driver"
	"github.com/sqlbridge/sqlbridge/dsn"
	"github.com/sqlbridge/sqlbridge/registry"
)

// Driver instantiates PostgreSQL Connections via database/sql + lib/pq.
type Driver struct{}

var _ driver.Driver = Driver{}

func init() {
	registry.Register("postgres", Driver{})
	registry.Register("postgresql", Driver{})
}

func (Driver) DefaultPort() int { return 5432 }

func (Driver) URLScheme() string { return "postgres" }

// Connect parses url, builds lib/pq's native connection string (mapping
// the engine-neutral tls_mode vocabulary onto libpq's sslmode), opens a
// single-connection *sql.DB and confirms the handshake with a Ping.
func (Driver) Connect(ctx context.Context, url string) (driver.Connection, error) {
	info, err := dsn.ParsePostgres(url)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", buildDSN(info))
	if err != nil {
		return nil, dberr.Connect("open postgres connection", err)
	}
	// One native connection per framework Connection: database/sql's own
	// pool would otherwise duplicate the pool.Pool this module already
	// provides, and Connection is documented as not safe to share.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, dberr.Connect("ping postgres server", err)
	}
	return &Connection{db: db}, nil
}

func buildDSN(info dsn.Info) string {
	q := url.Values{}
	q.Set("sslmode", sslMode(info.Params["tls_mode"]))
	for k, v := range info.Params {
		if k == "tls_mode" {
			continue
		}
		q.Set(k, v)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(info.User, info.Password),
		Host:     fmt.Sprintf("%s:%d", info.Host, info.Port),
		Path:     "/" + info.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// sslMode maps the engine-neutral tls_mode option onto libpq's
// sslmode vocabulary; unset/"off" disables TLS entirely.
func sslMode(mode string) string {
	switch mode {
	case "preferred":
		return "prefer"
	case "required":
		return "require"
	case "verifyca":
		return "verify-ca"
	case "verifyfull":
		return "verify-full"
	default:
		return "disable"
	}
}

