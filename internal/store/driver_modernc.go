//go:build !cgo_sqlite

package store

import (
	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

const sqliteDriver = "sqlite"
