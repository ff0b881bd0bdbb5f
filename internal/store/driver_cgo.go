//go:build cgo_sqlite

package store

import (
	_ "github.com/mattn/go-sqlite3" // cgo sqlite driver
)

const sqliteDriver = "sqlite3"
