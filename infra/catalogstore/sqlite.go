// Package catalogstore persists catalog definitions in SQLite so that a
// season can be maintained without rebuilding the binary.
package catalogstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/lineup/core/catalog"
)

// ErrNotFound is returned when the requested season is not stored.
var ErrNotFound = errors.New("catalog not found")

const schema = `
CREATE TABLE IF NOT EXISTS seasons (
    season TEXT PRIMARY KEY,
    turbo_threshold REAL NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS drivers (
    season TEXT NOT NULL REFERENCES seasons(season) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    cost REAL NOT NULL,
    PRIMARY KEY (season, name)
);
CREATE TABLE IF NOT EXISTS constructors (
    season TEXT NOT NULL REFERENCES seasons(season) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    cost REAL NOT NULL,
    first_driver TEXT NOT NULL,
    second_driver TEXT NOT NULL,
    PRIMARY KEY (season, name)
);`

// SQLiteStore reads and writes catalog definitions.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures schema.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Save validates def and replaces any stored season of the same name.
func (s *SQLiteStore) Save(ctx context.Context, def catalog.Definition) error {
	if def.Season == "" {
		return fmt.Errorf("catalog season is required")
	}
	if _, err := catalog.New(def); err != nil {
		return fmt.Errorf("invalid catalog %s: %w", def.Season, err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"constructors", "drivers", "seasons"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE season = ?`, def.Season); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO seasons (season, turbo_threshold, updated_at) VALUES (?, ?, ?)`,
		def.Season, def.TurboThreshold, time.Now().UnixNano()); err != nil {
		return err
	}
	for i, d := range def.Drivers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO drivers (season, position, name, cost) VALUES (?, ?, ?, ?)`,
			def.Season, i, d.Name, d.Cost); err != nil {
			return fmt.Errorf("insert driver %s: %w", d.Name, err)
		}
	}
	for i, c := range def.Constructors {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO constructors (season, position, name, cost, first_driver, second_driver) VALUES (?, ?, ?, ?, ?, ?)`,
			def.Season, i, c.Name, c.Cost, c.Drivers[0], c.Drivers[1]); err != nil {
			return fmt.Errorf("insert constructor %s: %w", c.Name, err)
		}
	}
	return tx.Commit()
}

// Load returns the named season, or the most recently saved one when season
// is empty.
func (s *SQLiteStore) Load(ctx context.Context, season string) (*catalog.Catalog, error) {
	def, err := s.Definition(ctx, season)
	if err != nil {
		return nil, err
	}
	return catalog.New(def)
}

// Definition reads the raw definition of a season. See Load for the meaning
// of an empty season.
func (s *SQLiteStore) Definition(ctx context.Context, season string) (catalog.Definition, error) {
	var def catalog.Definition
	row := s.db.QueryRowContext(ctx,
		`SELECT season, turbo_threshold FROM seasons WHERE season = ? OR ? = '' ORDER BY updated_at DESC LIMIT 1`,
		season, season)
	if err := row.Scan(&def.Season, &def.TurboThreshold); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if season == "" {
				return def, ErrNotFound
			}
			return def, fmt.Errorf("season %s: %w", season, ErrNotFound)
		}
		return def, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, cost FROM drivers WHERE season = ? ORDER BY position`, def.Season)
	if err != nil {
		return def, err
	}
	for rows.Next() {
		var d catalog.DriverDef
		if err := rows.Scan(&d.Name, &d.Cost); err != nil {
			_ = rows.Close()
			return def, err
		}
		def.Drivers = append(def.Drivers, d)
	}
	if err := closeRows(rows); err != nil {
		return def, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT name, cost, first_driver, second_driver FROM constructors WHERE season = ? ORDER BY position`, def.Season)
	if err != nil {
		return def, err
	}
	for rows.Next() {
		var c catalog.ConstructorDef
		var first, second string
		if err := rows.Scan(&c.Name, &c.Cost, &first, &second); err != nil {
			_ = rows.Close()
			return def, err
		}
		c.Drivers = []string{first, second}
		def.Constructors = append(def.Constructors, c)
	}
	return def, closeRows(rows)
}

// Seasons lists the stored seasons, most recently saved first.
func (s *SQLiteStore) Seasons(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT season FROM seasons ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return nil, err
		}
		out = append(out, name)
	}
	return out, closeRows(rows)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	return rows.Close()
}
