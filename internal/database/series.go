package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/TobiSchelling/unrestwatch/internal/record"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// ReplaceDailySeries swaps the whole daily table for points in one
// transaction. The series is always rebuilt, never patched.
func (db *DB) ReplaceDailySeries(points []record.DailyPoint) error {
	return db.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM daily_series"); err != nil {
			return fmt.Errorf("clearing daily series: %w", err)
		}
		stmt, err := tx.Prepare(`INSERT INTO daily_series (country, day, protest, suppression, anticipated)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, p := range points {
			if _, err := stmt.Exec(p.Country, p.Date.Format(dayLayout), p.Protest, p.Suppression, p.Anticipated); err != nil {
				return fmt.Errorf("inserting daily point %s %s: %w", p.Country, p.Date.Format(dayLayout), err)
			}
		}
		return nil
	})
}

// ReplaceMonthlySeries swaps the whole monthly table for points.
func (db *DB) ReplaceMonthlySeries(points []record.MonthlyPoint) error {
	return db.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM monthly_series"); err != nil {
			return fmt.Errorf("clearing monthly series: %w", err)
		}
		stmt, err := tx.Prepare(`INSERT INTO monthly_series (country, month, protest, suppression, anticipated)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, p := range points {
			if _, err := stmt.Exec(p.Country, p.Month.Format(monthLayout), p.Protest, p.Suppression, p.Anticipated); err != nil {
				return fmt.Errorf("inserting monthly point %s %s: %w", p.Country, p.Month.Format(monthLayout), err)
			}
		}
		return nil
	})
}

// GetDailySeries returns the points for country between from and to
// inclusive, oldest first. Zero bounds are open.
func (db *DB) GetDailySeries(country string, from, to time.Time) ([]record.DailyPoint, error) {
	query := `SELECT country, day, protest, suppression, anticipated FROM daily_series WHERE country = ?`
	args := []any{country}
	if !from.IsZero() {
		query += " AND day >= ?"
		args = append(args, from.Format(dayLayout))
	}
	if !to.IsZero() {
		query += " AND day <= ?"
		args = append(args, to.Format(dayLayout))
	}
	query += " ORDER BY day"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []record.DailyPoint
	for rows.Next() {
		var (
			p   record.DailyPoint
			day string
		)
		if err := rows.Scan(&p.Country, &day, &p.Protest, &p.Suppression, &p.Anticipated); err != nil {
			return nil, err
		}
		if p.Date, err = time.Parse(dayLayout, day); err != nil {
			return nil, fmt.Errorf("parsing stored day %q: %w", day, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetMonthlySeries returns every month for country, oldest first.
func (db *DB) GetMonthlySeries(country string) ([]record.MonthlyPoint, error) {
	rows, err := db.conn.Query(`SELECT country, month, protest, suppression, anticipated
		FROM monthly_series WHERE country = ? ORDER BY month`, country)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []record.MonthlyPoint
	for rows.Next() {
		var (
			p     record.MonthlyPoint
			month string
		)
		if err := rows.Scan(&p.Country, &month, &p.Protest, &p.Suppression, &p.Anticipated); err != nil {
			return nil, err
		}
		if p.Month, err = time.Parse(monthLayout, month); err != nil {
			return nil, fmt.Errorf("parsing stored month %q: %w", month, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetCountries returns the countries present in the daily series.
func (db *DB) GetCountries() ([]string, error) {
	rows, err := db.conn.Query("SELECT DISTINCT country FROM daily_series ORDER BY country")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// LastDay returns the latest day in the daily series, or the zero time
// when the series is empty.
func (db *DB) LastDay() (time.Time, error) {
	var day sql.NullString
	if err := db.conn.QueryRow("SELECT MAX(day) FROM daily_series").Scan(&day); err != nil {
		return time.Time{}, err
	}
	if !day.Valid {
		return time.Time{}, nil
	}
	return time.Parse(dayLayout, day.String)
}
