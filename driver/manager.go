package driver

import (
	"context"
	"fmt"

	"github.com/sqlbridge/sqlbridge/dberr"
)

// ConnectionManager pairs a Driver with a connection URL and calls
// Driver.Connect when a fresh Connection is needed, grounded on the
// source's pool::manager::ConnectionManager. registry.Open does not use
// it: the pool Factory it builds calls Driver.Connect directly.
type ConnectionManager struct {
	driver Driver
	url    string
}

// NewConnectionManager returns a manager for d and url. It does not
// check url's scheme against d's URLScheme; a mismatched URL surfaces
// only as an error from Connect.
func NewConnectionManager(d Driver, url string) *ConnectionManager {
	return &ConnectionManager{driver: d, url: url}
}

// Connect establishes a new Connection via the underlying Driver.
func (m *ConnectionManager) Connect(ctx context.Context) (Connection, error) {
	conn, err := m.driver.Connect(ctx, m.url)
	if err != nil {
		return nil, dberr.Connect(fmt.Sprintf("connect to %s", m.driver.URLScheme()), err)
	}
	return conn, nil
}

// Driver returns the underlying Driver.
func (m *ConnectionManager) Driver() Driver { return m.driver }

// URL returns the connection URL this manager connects with.
func (m *ConnectionManager) URL() string { return m.url }
