package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "records and series",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS records (
    id TEXT PRIMARY KEY,
    publish_date TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL DEFAULT '',
    location TEXT NOT NULL DEFAULT '',
    events TEXT NOT NULL DEFAULT '',
    actions TEXT NOT NULL DEFAULT '',
    assistance TEXT NOT NULL DEFAULT '',
    other TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    country TEXT NOT NULL DEFAULT '',
    date TEXT NOT NULL DEFAULT '',
    protest INTEGER CHECK(protest IN (0, 1)),
    suppression INTEGER CHECK(suppression IN (0, 1)),
    anticipated INTEGER CHECK(anticipated IN (0, 1)),
    imported_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS daily_series (
    country TEXT NOT NULL,
    day TEXT NOT NULL,
    protest INTEGER NOT NULL DEFAULT 0,
    suppression INTEGER NOT NULL DEFAULT 0,
    anticipated INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (country, day)
);

CREATE TABLE IF NOT EXISTS monthly_series (
    country TEXT NOT NULL,
    month TEXT NOT NULL,
    protest INTEGER NOT NULL DEFAULT 0,
    suppression INTEGER NOT NULL DEFAULT 0,
    anticipated INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (country, month)
);

CREATE INDEX IF NOT EXISTS idx_records_country ON records(country);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "run reports",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS run_reports (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    imported INTEGER NOT NULL DEFAULT 0,
    enriched INTEGER NOT NULL DEFAULT 0,
    daily_points INTEGER NOT NULL DEFAULT 0,
    monthly_points INTEGER NOT NULL DEFAULT 0,
    libraries TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL CHECK(status IN ('ok', 'failed', 'cancelled'))
);

CREATE INDEX IF NOT EXISTS idx_run_reports_started ON run_reports(started_at);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
