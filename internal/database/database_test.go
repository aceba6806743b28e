package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/TobiSchelling/unrestwatch/internal/record"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestUpsertRaw(t *testing.T) {
	db := openTestDB(t)
	n, err := db.UpsertRaw([]record.RawRecord{
		{ID: "1", Title: "Demonstration Alert: Nairobi, Kenya", PublishDate: "05/01/2024"},
		{ID: "2", Title: "Health Alert"},
		{Title: "no id, skipped"},
	})
	if err != nil {
		t.Fatalf("UpsertRaw: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 new rows, got %d", n)
	}

	n, err = db.UpsertRaw([]record.RawRecord{{ID: "1", Title: "Demonstration Alert: Nairobi, Kenya"}})
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected 0 new rows on re-import, got %d", n)
	}
}

func TestUpsertKeepsEnrichment(t *testing.T) {
	db := openTestDB(t)
	enriched := record.EnrichedRecord{
		RawRecord:   record.RawRecord{ID: "1", Title: "Demonstration Alert"},
		Country:     "Kenya",
		Date:        "10/05/2024",
		Protest:     record.Yes,
		Suppression: record.No,
		Anticipated: record.Yes,
	}
	if _, err := db.UpsertRecords([]record.EnrichedRecord{enriched}); err != nil {
		t.Fatal(err)
	}

	// Re-importing the raw row must not clear anything.
	if _, err := db.UpsertRaw([]record.RawRecord{enriched.RawRecord}); err != nil {
		t.Fatal(err)
	}
	// A conflicting value must not overwrite a populated field.
	other := enriched
	other.Country = "Chile"
	other.Protest = record.No
	if _, err := db.UpsertRecords([]record.EnrichedRecord{other}); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetRecord("1")
	if err != nil || got == nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if *got != enriched {
		t.Errorf("record changed:\n%+v\nwant\n%+v", *got, enriched)
	}
}

func TestEnrichmentLifecycle(t *testing.T) {
	db := openTestDB(t)
	db.UpsertRaw([]record.RawRecord{{ID: "a"}, {ID: "b"}})

	needing, err := db.GetRecordsNeedingEnrichment()
	if err != nil {
		t.Fatal(err)
	}
	if len(needing) != 2 {
		t.Fatalf("expected 2 rows needing enrichment, got %d", len(needing))
	}
	if needing[0].Protest != record.Unset {
		t.Errorf("new row should have unset flags, got %v", needing[0].Protest)
	}

	a := needing[0]
	a.Country, a.Date = "Kenya", "01/01/2024"
	a.Protest, a.Suppression, a.Anticipated = record.Yes, record.No, record.No
	b := needing[1]
	b.Protest, b.Suppression, b.Anticipated = record.No, record.No, record.No
	if err := db.UpdateEnrichment([]record.EnrichedRecord{a, b}); err != nil {
		t.Fatalf("UpdateEnrichment: %v", err)
	}

	needing, _ = db.GetRecordsNeedingEnrichment()
	if len(needing) != 1 || needing[0].ID != "b" {
		t.Fatalf("expected only b (no country) to remain, got %+v", needing)
	}
	if needing[0].Protest != record.No {
		t.Errorf("b.protest = %v, want No", needing[0].Protest)
	}

	all, err := db.GetRecords()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0] != a {
		t.Errorf("GetRecords = %+v", all)
	}
}

func TestReplaceDailySeries(t *testing.T) {
	db := openTestDB(t)
	points := []record.DailyPoint{
		{Country: "Kenya", Date: day(2024, 1, 1), Signals: record.Signals{Protest: 1}},
		{Country: "Kenya", Date: day(2024, 1, 2)},
		{Country: "Kenya", Date: day(2024, 1, 3), Signals: record.Signals{Protest: 1, Suppression: 1}},
		{Country: "Chile", Date: day(2024, 1, 1)},
	}
	if err := db.ReplaceDailySeries(points); err != nil {
		t.Fatalf("ReplaceDailySeries: %v", err)
	}

	got, err := db.GetDailySeries("Kenya", day(2024, 1, 2), time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || !got[0].Date.Equal(day(2024, 1, 2)) || got[1].Suppression != 1 {
		t.Errorf("GetDailySeries = %+v", got)
	}

	countries, err := db.GetCountries()
	if err != nil {
		t.Fatal(err)
	}
	if len(countries) != 2 || countries[0] != "Chile" {
		t.Errorf("GetCountries = %v", countries)
	}

	last, err := db.LastDay()
	if err != nil || !last.Equal(day(2024, 1, 3)) {
		t.Errorf("LastDay = %v, %v", last, err)
	}

	// Rebuild replaces, never merges.
	if err := db.ReplaceDailySeries(points[3:]); err != nil {
		t.Fatal(err)
	}
	got, _ = db.GetDailySeries("Kenya", time.Time{}, time.Time{})
	if len(got) != 0 {
		t.Errorf("expected Kenya gone after rebuild, got %d points", len(got))
	}
}

func TestReplaceMonthlySeries(t *testing.T) {
	db := openTestDB(t)
	points := []record.MonthlyPoint{
		{Country: "Kenya", Month: day(2024, 2, 1), Signals: record.Signals{Anticipated: 1}},
		{Country: "Kenya", Month: day(2024, 1, 1), Signals: record.Signals{Protest: 1}},
	}
	if err := db.ReplaceMonthlySeries(points); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetMonthlySeries("Kenya")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Month.Month() != time.January || got[1].Anticipated != 1 {
		t.Errorf("GetMonthlySeries = %+v", got)
	}
}

func TestRunReports(t *testing.T) {
	db := openTestDB(t)
	last, err := db.GetLastRun()
	if err != nil || last != nil {
		t.Fatalf("expected no runs, got %v, %v", last, err)
	}

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second"} {
		r := RunReport{
			ID:         id,
			StartedAt:  start.Add(time.Duration(i) * time.Hour),
			FinishedAt: start.Add(time.Duration(i)*time.Hour + time.Minute),
			Imported:   10 * (i + 1),
			Status:     RunOK,
			Libraries:  "protest@1.0.0",
		}
		if err := db.InsertRunReport(r); err != nil {
			t.Fatalf("InsertRunReport: %v", err)
		}
	}

	last, err = db.GetLastRun()
	if err != nil {
		t.Fatal(err)
	}
	if last.ID != "second" || last.Imported != 20 || !last.StartedAt.Equal(start.Add(time.Hour)) {
		t.Errorf("GetLastRun = %+v", last)
	}

	if err := db.InsertRunReport(RunReport{ID: "bad", Status: "exploded"}); err == nil {
		t.Error("expected status constraint violation")
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Records != 0 || stats.FirstDay != "" {
		t.Errorf("expected empty stats, got %+v", stats)
	}

	db.UpsertRecords([]record.EnrichedRecord{
		{RawRecord: record.RawRecord{ID: "1"}, Country: "Kenya", Date: "01/01/2024", Protest: record.Yes, Suppression: record.Yes, Anticipated: record.No},
		{RawRecord: record.RawRecord{ID: "2"}},
	})
	db.ReplaceDailySeries([]record.DailyPoint{
		{Country: "Kenya", Date: day(2024, 1, 1), Signals: record.Signals{Protest: 1}},
		{Country: "Kenya", Date: day(2024, 1, 2)},
	})

	stats, _ = db.GetStats()
	if stats.Records != 2 || stats.Incomplete != 1 || stats.Unresolved != 1 {
		t.Errorf("record stats = %+v", stats)
	}
	if stats.Protests != 1 || stats.Suppressions != 1 || stats.Anticipated != 0 {
		t.Errorf("flag stats = %+v", stats)
	}
	if stats.Countries != 1 || stats.DailyPoints != 2 || stats.FirstDay != "2024-01-01" || stats.LastDay != "2024-01-02" {
		t.Errorf("series stats = %+v", stats)
	}
}
