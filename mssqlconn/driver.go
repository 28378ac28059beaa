// Package mssqlconn instantiates the driver.Driver/driver.Connection
// contract for Microsoft SQL Server by wrapping
// github.com/denisenkom/go-mssqldb behind database/sql, mirroring
// pgconn's shape. The three accepted URL forms
// (mssql://, jdbc:sqlserver://, and the semicolon
// key=value form with {brace-quoted} passwords) are already handled by
// dsn.ParseMSSQL; this package only turns the parsed dsn.Info into
// go-mssqldb's native connection string.
package mssqlconn

import (
	"context"
	"database/sql"
	"net/url"
	"strconv"

	_ "github.com/denisenkom/go-mssqldb"

	"github.com/sqlbridge/sqlbridge/dberr"
	"github.com/sqlbridge/sqlbridge/driver"
	"github.com/sqlbridge/sqlbridge/dsn"
	"github.com/sqlbridge/sqlbridge/registry"
)

// Driver instantiates MSSQL Connections via database/sql + go-mssqldb.
type Driver struct{}

var _ driver.Driver = Driver{}

func init() {
	registry.Register("mssql", Driver{})
	registry.Register("sqlserver", Driver{})
}

func (Driver) DefaultPort() int { return 1433 }

func (Driver) URLScheme() string { return "mssql" }

func (Driver) Connect(ctx context.Context, rawURL string) (driver.Connection, error) {
	info, err := dsn.ParseMSSQL(rawURL)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlserver", buildDSN(info))
	if err != nil {
		return nil, dberr.Connect("open mssql connection", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, dberr.Connect("ping mssql server", err)
	}
	return &Connection{db: db}, nil
}

// buildDSN renders go-mssqldb's sqlserver:// connection URL, mapping
// the engine-neutral tls_mode vocabulary onto the driver's "encrypt" option.
func buildDSN(info dsn.Info) string {
	q := url.Values{}
	q.Set("database", info.Database)
	q.Set("encrypt", encryptMode(info.Params["tls_mode"]))
	for k, v := range info.Params {
		switch k {
		case "tls_mode", "server":
			continue
		}
		q.Set(k, v)
	}
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(info.User, info.Password),
		Host:     hostPort(info),
		RawQuery: q.Encode(),
	}
	return u.String()
}

func hostPort(info dsn.Info) string {
	if info.Port == 0 {
		return info.Host
	}
	return info.Host + ":" + strconv.Itoa(info.Port)
}

func encryptMode(mode string) string {
	switch mode {
	case "required", "verifyca", "verifyfull":
		return "true"
	case "preferred":
		return "disable"
	default:
		return "disable"
	}
}
