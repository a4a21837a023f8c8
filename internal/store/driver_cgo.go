//go:build cgo_sqlite

package store

import (
	_ "github.com/mattn/go-sqlite3" // optional: CGO SQLite (build with -tags cgo_sqlite)
)

const driverName = "sqlite3"

func dsn(path string) string {
	return path + "?_journal_mode=WAL&_foreign_keys=on"
}
