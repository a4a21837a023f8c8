//go:build !cgo_sqlite

package store

import (
	_ "modernc.org/sqlite" // default: pure Go SQLite
)

const driverName = "sqlite"

func dsn(path string) string {
	return path + "?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)"
}
