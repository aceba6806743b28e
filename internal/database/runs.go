package database

import (
	"database/sql"
	"fmt"
	"time"
)

// InsertRunReport records one pipeline run.
func (db *DB) InsertRunReport(r RunReport) error {
	_, err := db.conn.Exec(
		`INSERT INTO run_reports
		(id, started_at, finished_at, imported, enriched, daily_points, monthly_points, libraries, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UTC().Format(time.RFC3339Nano), r.FinishedAt.UTC().Format(time.RFC3339Nano),
		r.Imported, r.Enriched, r.DailyPoints, r.MonthlyPoints, r.Libraries, r.Status,
	)
	if err != nil {
		return fmt.Errorf("inserting run report: %w", err)
	}
	return nil
}

// GetLastRun returns the most recently started run, or nil if none exist.
func (db *DB) GetLastRun() (*RunReport, error) {
	row := db.conn.QueryRow(
		`SELECT id, started_at, finished_at, imported, enriched, daily_points, monthly_points, libraries, status
		FROM run_reports ORDER BY started_at DESC LIMIT 1`,
	)

	var (
		r                 RunReport
		started, finished string
	)
	if err := row.Scan(&r.ID, &started, &finished, &r.Imported, &r.Enriched,
		&r.DailyPoints, &r.MonthlyPoints, &r.Libraries, &r.Status); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	var err error
	if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return nil, fmt.Errorf("parsing finished_at: %w", err)
	}
	return &r, nil
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM records", &s.Records},
		{`SELECT COUNT(*) FROM records WHERE country = '' OR date = ''
			OR protest IS NULL OR suppression IS NULL OR anticipated IS NULL`, &s.Incomplete},
		{"SELECT COUNT(*) FROM records WHERE country = ''", &s.Unresolved},
		{"SELECT COUNT(*) FROM records WHERE date = ''", &s.Undated},
		{"SELECT COUNT(*) FROM records WHERE protest = 1", &s.Protests},
		{"SELECT COUNT(*) FROM records WHERE suppression = 1", &s.Suppressions},
		{"SELECT COUNT(*) FROM records WHERE anticipated = 1", &s.Anticipated},
		{"SELECT COUNT(DISTINCT country) FROM daily_series", &s.Countries},
		{"SELECT COUNT(*) FROM daily_series", &s.DailyPoints},
		{"SELECT COUNT(*) FROM monthly_series", &s.MonthlyPoints},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	var first, last sql.NullString
	if err := db.conn.QueryRow("SELECT MIN(day), MAX(day) FROM daily_series").Scan(&first, &last); err != nil {
		return nil, err
	}
	s.FirstDay, s.LastDay = first.String, last.String

	return s, nil
}
