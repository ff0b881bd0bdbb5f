// Package store persists projected ontology facts in SQLite so unchanged
// files can rehydrate the reasoning engine without re-parsing RDF.
//
// The default build uses the pure-Go driver (modernc.org/sqlite); build with
// -tags cgo_sqlite to switch to github.com/mattn/go-sqlite3.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"unireg/internal/kernel"
	"unireg/internal/logging"
)

// Store is the on-disk fact cache. One row in ontology_files per loaded
// ontology, one row in ontology_facts per projected fact.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

var _ kernel.Persistence = (*Store)(nil)

// Open initializes the SQLite database at the given path, creating the
// directory and schema as needed.
func Open(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	logging.Store("Opening fact cache at %s", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to create directory %s: %v", dir, err)
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open(sqliteDriver, path)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to open database at %s: %v", path, err)
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to initialize cache schema: %v", err)
		db.Close()
		return nil, err
	}

	logging.StoreDebug("Fact cache ready at %s", path)
	return s, nil
}

// initialize creates the required tables.
func (s *Store) initialize() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS ontology_files (
			path TEXT PRIMARY KEY,
			format TEXT,
			size INTEGER,
			modtime INTEGER,
			hash TEXT,
			triple_count INTEGER,
			fact_count INTEGER,
			loaded_at INTEGER,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS ontology_facts (
			path TEXT NOT NULL,
			predicate TEXT NOT NULL,
			args TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY(path, predicate, args)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ontology_facts_path ON ontology_facts(path)`,
		`CREATE INDEX IF NOT EXISTS idx_ontology_facts_predicate ON ontology_facts(predicate)`,
	}
	for _, table := range tables {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// ReplaceFactsForFile atomically swaps the cached fact set for a file and
// records its load-time metadata.
func (s *Store) ReplaceFactsForFile(ctx context.Context, state kernel.FileState, facts []kernel.Fact) error {
	timer := logging.StartTimer(logging.CategoryStore, "ReplaceFactsForFile")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM ontology_facts WHERE path = ?", state.Path); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO ontology_facts (path, predicate, args, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range facts {
		argsJSON, err := json.Marshal(f.Args)
		if err != nil {
			return fmt.Errorf("failed to encode args of %s: %w", f.Predicate, err)
		}
		if _, err := stmt.ExecContext(ctx, state.Path, f.Predicate, string(argsJSON)); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ontology_files (path, format, size, modtime, hash, triple_count, fact_count, loaded_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(path) DO UPDATE SET
		   format = excluded.format,
		   size = excluded.size,
		   modtime = excluded.modtime,
		   hash = excluded.hash,
		   triple_count = excluded.triple_count,
		   fact_count = excluded.fact_count,
		   loaded_at = excluded.loaded_at,
		   updated_at = CURRENT_TIMESTAMP`,
		state.Path, state.Format, state.Size, state.ModTime, state.Hash, state.Triples, state.FactCount, state.LoadedAt,
	); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	logging.Store("Cached %d facts for %s (hash %s)", len(facts), state.Path, shortHash(state.Hash))
	return nil
}

// LoadFacts returns the cached fact set for a file.
func (s *Store) LoadFacts(ctx context.Context, path string) ([]kernel.Fact, error) {
	timer := logging.StartTimer(logging.CategoryStore, "LoadFacts")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT predicate, args FROM ontology_facts WHERE path = ? ORDER BY predicate, args",
		path,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []kernel.Fact
	for rows.Next() {
		var pred, argsJSON string
		if err := rows.Scan(&pred, &argsJSON); err != nil {
			continue
		}
		out = append(out, kernel.Fact{Predicate: pred, Args: decodeArgs(argsJSON)})
	}
	return out, rows.Err()
}

// FileState returns the recorded metadata for a file, or nil when the file
// has never been cached.
func (s *Store) FileState(ctx context.Context, path string) (*kernel.FileState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT path, format, size, modtime, hash, triple_count, fact_count, loaded_at
		 FROM ontology_files WHERE path = ?`,
		path,
	)

	var state kernel.FileState
	err := row.Scan(&state.Path, &state.Format, &state.Size, &state.ModTime, &state.Hash, &state.Triples, &state.FactCount, &state.LoadedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// DeleteFile removes a file's metadata and cached facts.
func (s *Store) DeleteFile(ctx context.Context, path string) error {
	timer := logging.StartTimer(logging.CategoryStore, "DeleteFile")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM ontology_facts WHERE path = ?", path); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM ontology_files WHERE path = ?", path); err != nil {
		return err
	}
	return tx.Commit()
}

// Stats summarizes cache contents for status reporting.
type Stats struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	Files     int    `json:"files"`
	Facts     int    `json:"facts"`
}

// Stats counts cached files and facts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Path: s.dbPath}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ontology_files").Scan(&stats.Files); err != nil {
		return stats, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ontology_facts").Scan(&stats.Facts); err != nil {
		return stats, err
	}
	if info, err := os.Stat(s.dbPath); err == nil {
		stats.SizeBytes = info.Size()
	}
	return stats, nil
}

// decodeArgs restores fact arguments from their JSON encoding. Numbers
// decode through json.Number so integer arguments come back as int64, not
// float64.
func decodeArgs(argsJSON string) []interface{} {
	dec := json.NewDecoder(strings.NewReader(argsJSON))
	dec.UseNumber()
	var args []interface{}
	if err := dec.Decode(&args); err != nil {
		logging.StoreDebug("Failed to decode cached args %q: %v", argsJSON, err)
		return nil
	}
	for i, a := range args {
		if n, ok := a.(json.Number); ok {
			if v, err := n.Int64(); err == nil {
				args[i] = v
			} else if f, err := n.Float64(); err == nil {
				args[i] = f
			}
		}
	}
	return args
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
