package mysqlconn

import (
	"context"

	"github.com/sqlbridge/sqlbridge/driver"
	"github.com/sqlbridge/sqlbridge/dsn"
	"github.com/sqlbridge/sqlbridge/registry"
)

// Driver instantiates MySQL Connections by dialing and handshaking
// directly over net.Conn (see Connect in conn.go).
type Driver struct{}

var _ driver.Driver = Driver{}

func init() {
	registry.Register("mysql", Driver{})
}

func (Driver) Connect(ctx context.Context, url string) (driver.Connection, error) {
	info, err := dsn.ParseMySQL(url)
	if err != nil {
		return nil, err
	}
	return Connect(ctx, info)
}

func (Driver) DefaultPort() int { return 3306 }

func (Driver) URLScheme() string { return "mysql" }
