// Package history records pipeline invocations in a local SQLite ledger.
//
// Every generate, route, compare, or render run can be appended with its
// parameters and outcome, and the CLI history command reads the ledger back.
// The database lives next to the saved parameter file so a user's whole
// local state sits in one directory.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/cityscale/hypertransit/pkg/errors"
	_ "modernc.org/sqlite"
)

// RunRecord is one pipeline invocation in the ledger.
type RunRecord struct {
	ID         int64           `json:"id"`
	Timestamp  string          `json:"timestamp"`
	Op         string          `json:"op"`
	Network    string          `json:"network"`
	Nodes      int             `json:"nodes"`
	Edges      int             `json:"edges"`
	Mode       string          `json:"mode,omitempty"`
	Cost       float64         `json:"cost,omitempty"`
	DurationMs int64           `json:"duration_ms"`
	CacheHit   bool            `json:"cache_hit"`
	Params     json.RawMessage `json:"params"`
}

// DB wraps a SQLite ledger connection.
type DB struct {
	sql  *sql.DB
	path string
}

// DefaultPath returns the ledger location under the user config directory.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "hypertransit", "history.db"), nil
}

// Open opens (or creates) the ledger at path and runs migrations.
// An empty path uses DefaultPath.
func Open(path string) (*DB, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping ledger: %w", err)
	}
	d := &DB{sql: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}
	return d, nil
}

// Path returns the ledger file location.
func (d *DB) Path() string {
	return d.path
}

// Close closes the ledger connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	version := 0
	// Try to read current version
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS run_history (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				timestamp   TEXT NOT NULL,
				op          TEXT NOT NULL,
				network     TEXT NOT NULL DEFAULT '',
				nodes       INTEGER NOT NULL DEFAULT 0,
				edges       INTEGER NOT NULL DEFAULT 0,
				mode        TEXT NOT NULL DEFAULT '',
				cost        REAL NOT NULL DEFAULT 0,
				duration_ms INTEGER NOT NULL DEFAULT 0,
				cache_hit   INTEGER NOT NULL DEFAULT 0,
				params_json TEXT NOT NULL DEFAULT '{}'
			);
			CREATE INDEX IF NOT EXISTS idx_run_history_ts ON run_history(timestamp);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}

// Insert appends a run to the ledger and returns its row ID. A missing
// timestamp is filled with the current time and nil params become {}.
func (d *DB) Insert(rec *RunRecord) (int64, error) {
	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().Format(time.RFC3339)
	}
	params := string(rec.Params)
	if params == "" {
		params = "{}"
	}
	cacheHit := 0
	if rec.CacheHit {
		cacheHit = 1
	}

	result, err := d.sql.Exec(
		`INSERT INTO run_history (timestamp, op, network, nodes, edges, mode, cost, duration_ms, cache_hit, params_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Timestamp, rec.Op, rec.Network, rec.Nodes, rec.Edges, rec.Mode, rec.Cost, rec.DurationMs, cacheHit, params,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, _ := result.LastInsertId()
	rec.ID = id
	return id, nil
}

// Recent returns the last N runs, newest first.
func (d *DB) Recent(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.Query(
		`SELECT id, timestamp, op, network, nodes, edges, mode, cost, duration_ms, cache_hit, params_json
		 FROM run_history ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// ByID returns a single run.
func (d *DB) ByID(id int64) (*RunRecord, error) {
	row := d.sql.QueryRow(
		`SELECT id, timestamp, op, network, nodes, edges, mode, cost, duration_ms, cache_hit, params_json
		 FROM run_history WHERE id = ?`,
		id,
	)
	rec, err := scanRun(row.Scan)
	if err == sql.ErrNoRows {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "run %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %d: %w", id, err)
	}
	return rec, nil
}

// Clear deletes runs older than the given number of days and returns the
// number removed. A non-positive value clears the whole ledger.
func (d *DB) Clear(olderThanDays int) (int64, error) {
	var result sql.Result
	var err error
	if olderThanDays <= 0 {
		result, err = d.sql.Exec("DELETE FROM run_history")
	} else {
		cutoff := time.Now().AddDate(0, 0, -olderThanDays).Format(time.RFC3339)
		result, err = d.sql.Exec("DELETE FROM run_history WHERE timestamp < ?", cutoff)
	}
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	count, _ := result.RowsAffected()
	return count, nil
}

// scanRun reads one run_history row via the given Scan function.
func scanRun(scan func(...interface{}) error) (*RunRecord, error) {
	var rec RunRecord
	var cacheHit int
	var params string
	if err := scan(&rec.ID, &rec.Timestamp, &rec.Op, &rec.Network, &rec.Nodes, &rec.Edges,
		&rec.Mode, &rec.Cost, &rec.DurationMs, &cacheHit, &params); err != nil {
		return nil, err
	}
	rec.CacheHit = cacheHit != 0
	rec.Params = json.RawMessage(params)
	return &rec, nil
}
