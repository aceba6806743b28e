// Package dataset implements the file boundary of the pipeline: the scraper's
// raw CSV on the way in, and the enriched/daily/monthly CSVs on the way out.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/TobiSchelling/unrestwatch/internal/record"
)

// Column names of the raw and enriched schemas.
var (
	RawColumns      = []string{"id", "publish_date", "title", "location", "events", "actions", "assistance", "other", "url"}
	EnrichedColumns = append(append([]string{}, RawColumns...), "country", "date", "protest", "suppression", "anticipated")
	DailyColumns    = []string{"country", "date", "protest", "suppression", "anticipated"}
	MonthlyColumns  = []string{"country", "month", "protest", "suppression", "anticipated"}
)

// aliases maps legacy scraper headers onto the canonical column names.
var aliases = map[string]string{
	"osac_id":         "id",
	"osac_date":       "publish_date",
	"osac_title":      "title",
	"osac_location":   "location",
	"osac_events":     "events",
	"osac_actions":    "actions",
	"osac_assistance": "assistance",
	"osac_other":      "other",
	"osac_url":        "url",
	"link":            "url",
}

// ErrNoHeader is returned when a CSV file has no header row.
var ErrNoHeader = errors.New("csv file has no header row")

// ReadRawFile reads scraper output from path.
func ReadRawFile(path string) ([]record.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening raw csv: %w", err)
	}
	defer f.Close()

	recs, err := ReadEnriched(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	raw := make([]record.RawRecord, len(recs))
	for i, r := range recs {
		raw[i] = r.RawRecord
	}
	return raw, nil
}

// ReadEnrichedFile reads an enriched CSV from path.
func ReadEnrichedFile(path string) ([]record.EnrichedRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening enriched csv: %w", err)
	}
	defer f.Close()
	return ReadEnriched(f)
}

// ReadEnriched reads rows of either schema. Missing columns and null-like
// cells become empty strings; derived fields that are absent stay unset.
func ReadEnriched(r io.Reader) ([]record.EnrichedRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if canon, ok := aliases[name]; ok {
			name = canon
		}
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var out []record.EnrichedRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(out)+2, err)
		}
		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return ""
			}
			return record.Clean(row[i])
		}

		rec := record.EnrichedRecord{
			RawRecord: record.RawRecord{
				ID:          get("id"),
				PublishDate: get("publish_date"),
				Title:       get("title"),
				Location:    get("location"),
				Events:      get("events"),
				Actions:     get("actions"),
				Assistance:  get("assistance"),
				Other:       get("other"),
				URL:         get("url"),
			},
			Country:     get("country"),
			Date:        get("date"),
			Protest:     record.ParseFlag(get("protest")),
			Suppression: record.ParseFlag(get("suppression")),
			Anticipated: record.ParseFlag(get("anticipated")),
		}
		if rec.ID == "" {
			rec.ID = syntheticID(rec.RawRecord, len(out))
		}
		out = append(out, rec)
	}
	return out, nil
}

// syntheticID keys rows the scraper left without an identifier.
func syntheticID(r record.RawRecord, row int) string {
	if r.URL != "" {
		return r.URL
	}
	return "row-" + strconv.Itoa(row+1)
}

// WriteEnrichedFile writes the enriched dataset to path.
func WriteEnrichedFile(path string, recs []record.EnrichedRecord) error {
	return writeFile(path, EnrichedColumns, len(recs), func(i int) []string {
		r := recs[i]
		return []string{
			r.ID, r.PublishDate, r.Title, r.Location, r.Events, r.Actions, r.Assistance, r.Other, r.URL,
			r.Country, r.Date, r.Protest.String(), r.Suppression.String(), r.Anticipated.String(),
		}
	})
}

// WriteDailyFile writes the dense daily series to path.
func WriteDailyFile(path string, points []record.DailyPoint) error {
	return writeFile(path, DailyColumns, len(points), func(i int) []string {
		p := points[i]
		return append([]string{p.Country, p.Date.Format("2006-01-02")}, signalCells(p.Signals)...)
	})
}

// WriteMonthlyFile writes the monthly series to path.
func WriteMonthlyFile(path string, points []record.MonthlyPoint) error {
	return writeFile(path, MonthlyColumns, len(points), func(i int) []string {
		p := points[i]
		return append([]string{p.Country, p.Month.Format("2006-01")}, signalCells(p.Signals)...)
	})
}

func signalCells(s record.Signals) []string {
	return []string{strconv.Itoa(s.Protest), strconv.Itoa(s.Suppression), strconv.Itoa(s.Anticipated)}
}

// writeFile writes to a temp file in the target directory and renames it
// into place so readers never observe a half-written series.
func writeFile(path string, header []string, n int, row func(int) []string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("writing header: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			tmp.Close()
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}
