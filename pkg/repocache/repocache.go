// Package repocache caches channel repodata in a local SQLite database and
// serves it as a RecordSource. Repodata snapshots are ingested as JSON; the
// cache survives restarts so repeated solves do not re-parse multi-megabyte
// repodata files.
package repocache

import (
	"database/sql"
	"encoding/json"

	_ "modernc.org/sqlite"

	"github.com/arthur-debert/gonda/pkg/errors"
	"github.com/arthur-debert/gonda/pkg/logging"
	"github.com/arthur-debert/gonda/pkg/types"
)

// Cache is a sqlite-backed RecordSource. Safe for concurrent readers; writes
// happen only during ingestion.
type Cache struct {
	db *sql.DB
}

// Open opens (or creates) the cache database at path. Use ":memory:" for an
// ephemeral cache in tests.
func Open(path string) (*Cache, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(60000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrRecordSource, "opening record cache %s", path)
	}
	db.SetMaxOpenConns(4)

	c := &Cache{db: db}
	if err := c.migrate(); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, errors.ErrRecordSource, "initializing record cache %s", path)
	}
	return c, nil
}

// Close closes the database connection.
func (c *Cache) Close() error { return c.db.Close() }

func (c *Cache) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		channel  TEXT NOT NULL,
		subdir   TEXT NOT NULL,
		filename TEXT NOT NULL,
		name     TEXT NOT NULL,
		record   TEXT NOT NULL,
		PRIMARY KEY (channel, subdir, filename)
	);

	CREATE INDEX IF NOT EXISTS idx_records_name ON records(name);
	`
	_, err := c.db.Exec(schema)
	return err
}

// repodata is the on-the-wire repodata.json shape. Both the legacy .tar.bz2
// and the .conda package maps carry the same record fields.
type repodata struct {
	Info struct {
		Subdir string `json:"subdir"`
	} `json:"info"`
	Packages      map[string]*types.PackageRecord `json:"packages"`
	CondaPackages map[string]*types.PackageRecord `json:"packages.conda"`
}

// LoadRepodata ingests one repodata.json snapshot for a channel. Records
// already cached under the same channel/subdir/filename are replaced, so
// re-ingesting an updated snapshot refreshes the cache in place.
func (c *Cache) LoadRepodata(channel string, data []byte) error {
	logger := logging.GetLogger("repocache")

	var rd repodata
	if err := json.Unmarshal(data, &rd); err != nil {
		return errors.Wrapf(err, errors.ErrRecordSource, "parsing repodata for channel %s", channel)
	}

	tx, err := c.db.Begin()
	if err != nil {
		return errors.Wrap(err, errors.ErrRecordSource, "starting cache transaction")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO records (channel, subdir, filename, name, record)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, errors.ErrRecordSource, "preparing cache insert")
	}
	defer func() { _ = stmt.Close() }()

	count := 0
	for _, packages := range []map[string]*types.PackageRecord{rd.Packages, rd.CondaPackages} {
		for filename, rec := range packages {
			if rec.Name == "" {
				return errors.Newf(errors.ErrRecordSource,
					"repodata entry %s has no package name", filename)
			}
			rec.Channel = channel
			rec.Subdir = rd.Info.Subdir
			encoded, err := json.Marshal(rec)
			if err != nil {
				return errors.Wrapf(err, errors.ErrRecordSource, "encoding record %s", filename)
			}
			if _, err := stmt.Exec(channel, rd.Info.Subdir, filename, rec.Name, string(encoded)); err != nil {
				return errors.Wrapf(err, errors.ErrRecordSource, "caching record %s", filename)
			}
			count++
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrRecordSource, "committing cache transaction")
	}

	logger.Info().
		Str("channel", channel).
		Str("subdir", rd.Info.Subdir).
		Int("records", count).
		Msg("repodata cached")
	return nil
}

// RecordsByName returns every cached record for the given package name.
func (c *Cache) RecordsByName(name string) ([]*types.PackageRecord, error) {
	return c.queryRecords(`SELECT record FROM records WHERE name = ?`, name)
}

// AllRecords returns every cached record.
func (c *Cache) AllRecords() ([]*types.PackageRecord, error) {
	return c.queryRecords(`SELECT record FROM records`)
}

// Count returns the number of cached records.
func (c *Cache) Count() (int, error) {
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, errors.ErrRecordSource, "counting cached records")
	}
	return n, nil
}

func (c *Cache) queryRecords(query string, args ...any) ([]*types.PackageRecord, error) {
	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrRecordSource, "querying record cache")
	}
	defer func() { _ = rows.Close() }()

	var out []*types.PackageRecord
	for rows.Next() {
		var encoded string
		if err := rows.Scan(&encoded); err != nil {
			return nil, errors.Wrap(err, errors.ErrRecordSource, "scanning cached record")
		}
		var rec types.PackageRecord
		if err := json.Unmarshal([]byte(encoded), &rec); err != nil {
			return nil, errors.Wrap(err, errors.ErrRecordSource, "decoding cached record")
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrRecordSource, "iterating cached records")
	}
	return out, nil
}
