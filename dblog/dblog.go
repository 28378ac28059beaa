// Package dblog centralizes the structured logger every engine back-end
// and the pool accept, matching the preference shown by sqldef's
// mysql/database.go uses log/slog; the broader example pack's
// testcontainers/pingcap stack pulls in go.uber.org/zap transitively) for
// structured, leveled logging over fmt.Println/log.Println.
package dblog

import "go.uber.org/zap"

// Logger is a type alias of *zap.Logger, so call sites don't need to
// import zap directly.
type Logger = *zap.Logger

// Nop returns a logger that discards everything, the default when a
// caller does not configure one.
func Nop() Logger { return zap.NewNop() }

// NewDevelopment builds a human-readable logger suitable for local
// debugging; production callers are expected to supply their own
// *zap.Logger instead.
func NewDevelopment() Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		return Nop()
	}
	return l
}
