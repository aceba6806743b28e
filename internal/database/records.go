package database

import (
	"database/sql"
	"fmt"

	"github.com/TobiSchelling/unrestwatch/internal/record"
)

const recordColumns = `id, publish_date, title, location, events, actions, assistance, other, url,
	country, date, protest, suppression, anticipated`

// upsertRecord inserts a new row, or fills only the derived fields that are
// still missing on an existing one. Populated fields are never overwritten.
const upsertRecord = `INSERT INTO records (` + recordColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		country = CASE WHEN records.country = '' THEN excluded.country ELSE records.country END,
		date = CASE WHEN records.date = '' THEN excluded.date ELSE records.date END,
		protest = COALESCE(records.protest, excluded.protest),
		suppression = COALESCE(records.suppression, excluded.suppression),
		anticipated = COALESCE(records.anticipated, excluded.anticipated)`

// UpsertRaw stores scraper rows. New ids are inserted; existing rows keep
// their enrichment. Returns the number of new rows.
func (db *DB) UpsertRaw(raws []record.RawRecord) (int, error) {
	recs := make([]record.EnrichedRecord, len(raws))
	for i, r := range raws {
		recs[i] = record.EnrichedRecord{RawRecord: r}
	}
	return db.UpsertRecords(recs)
}

// UpsertRecords stores rows of either schema with upsert semantics and
// returns the number of ids that were new.
func (db *DB) UpsertRecords(recs []record.EnrichedRecord) (int, error) {
	before, err := db.CountRecords()
	if err != nil {
		return 0, err
	}
	err = db.withTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(upsertRecord)
		if err != nil {
			return fmt.Errorf("preparing upsert: %w", err)
		}
		defer stmt.Close()
		for _, r := range recs {
			if r.ID == "" {
				continue
			}
			if _, err := stmt.Exec(recordArgs(r)...); err != nil {
				return fmt.Errorf("upserting record %s: %w", r.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	after, err := db.CountRecords()
	if err != nil {
		return 0, err
	}
	return after - before, nil
}

// UpdateEnrichment writes derived fields back for rows that already exist.
// Like UpsertRecords it only fills fields that are still missing.
func (db *DB) UpdateEnrichment(recs []record.EnrichedRecord) error {
	return db.withTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`UPDATE records SET
			country = CASE WHEN country = '' THEN ? ELSE country END,
			date = CASE WHEN date = '' THEN ? ELSE date END,
			protest = COALESCE(protest, ?),
			suppression = COALESCE(suppression, ?),
			anticipated = COALESCE(anticipated, ?)
			WHERE id = ?`)
		if err != nil {
			return fmt.Errorf("preparing update: %w", err)
		}
		defer stmt.Close()
		for _, r := range recs {
			if _, err := stmt.Exec(r.Country, r.Date,
				flagArg(r.Protest), flagArg(r.Suppression), flagArg(r.Anticipated), r.ID); err != nil {
				return fmt.Errorf("updating record %s: %w", r.ID, err)
			}
		}
		return nil
	})
}

// GetRecords returns every stored row in import order.
func (db *DB) GetRecords() ([]record.EnrichedRecord, error) {
	rows, err := db.conn.Query(`SELECT ` + recordColumns + ` FROM records ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// GetRecordsNeedingEnrichment returns rows with at least one missing field.
func (db *DB) GetRecordsNeedingEnrichment() ([]record.EnrichedRecord, error) {
	rows, err := db.conn.Query(`SELECT ` + recordColumns + ` FROM records
		WHERE country = '' OR date = ''
			OR protest IS NULL OR suppression IS NULL OR anticipated IS NULL
		ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// GetRecord returns a single row by id, or nil if it does not exist.
func (db *DB) GetRecord(id string) (*record.EnrichedRecord, error) {
	rows, err := db.conn.Query(`SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	recs, err := scanRecords(rows)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return &recs[0], nil
}

// CountRecords returns the number of stored rows.
func (db *DB) CountRecords() (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM records").Scan(&n)
	return n, err
}

func recordArgs(r record.EnrichedRecord) []any {
	return []any{
		r.ID, r.PublishDate, r.Title, r.Location, r.Events, r.Actions, r.Assistance, r.Other, r.URL,
		r.Country, r.Date, flagArg(r.Protest), flagArg(r.Suppression), flagArg(r.Anticipated),
	}
}

// flagArg stores Unset as NULL.
func flagArg(f record.Flag) any {
	if f == record.Unset {
		return nil
	}
	return f.Int()
}

func flagFrom(v sql.NullInt64) record.Flag {
	if !v.Valid {
		return record.Unset
	}
	return record.FlagOf(v.Int64 == 1)
}

func scanRecords(rows *sql.Rows) ([]record.EnrichedRecord, error) {
	var recs []record.EnrichedRecord
	for rows.Next() {
		var (
			r       record.EnrichedRecord
			p, s, a sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.PublishDate, &r.Title, &r.Location, &r.Events, &r.Actions,
			&r.Assistance, &r.Other, &r.URL, &r.Country, &r.Date, &p, &s, &a); err != nil {
			return nil, err
		}
		r.Protest, r.Suppression, r.Anticipated = flagFrom(p), flagFrom(s), flagFrom(a)
		recs = append(recs, r)
	}
	return recs, rows.Err()
}
