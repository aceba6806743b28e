package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/TobiSchelling/unrestwatch/internal/record"
)

func TestReadEnrichedLegacyHeaders(t *testing.T) {
	in := "\ufeffOSAC_ID,OSAC_Date,OSAC_Title,OSAC_Location,OSAC_Events,Link\n" +
		"42,05/01/2024,\"Demonstration Alert: Nairobi, Kenya\",Nairobi,nan,https://example.com/42\n"
	recs, err := ReadEnriched(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadEnriched: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records", len(recs))
	}
	r := recs[0]
	if r.ID != "42" || r.PublishDate != "05/01/2024" || r.Title != "Demonstration Alert: Nairobi, Kenya" {
		t.Errorf("unexpected record %+v", r)
	}
	if r.Events != "" {
		t.Errorf("null-like cell should be empty, got %q", r.Events)
	}
	if r.URL != "https://example.com/42" {
		t.Errorf("link alias not applied: %q", r.URL)
	}
	if r.Protest != record.Unset || r.Country != "" {
		t.Errorf("derived fields should be missing: %+v", r)
	}
}

func TestReadEnrichedDerivedFields(t *testing.T) {
	in := "id,title,country,date,protest,suppression,anticipated\n" +
		"1,A,Kenya,10/05/2024,1.0,0,\n" +
		",B,,,,,\n"
	recs, err := ReadEnriched(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if recs[0].Protest != record.Yes || recs[0].Suppression != record.No || recs[0].Anticipated != record.Unset {
		t.Errorf("flags = %v %v %v", recs[0].Protest, recs[0].Suppression, recs[0].Anticipated)
	}
	if recs[1].ID != "row-2" {
		t.Errorf("synthetic id = %q", recs[1].ID)
	}
}

func TestReadEnrichedEmpty(t *testing.T) {
	if _, err := ReadEnriched(strings.NewReader("")); !errors.Is(err, ErrNoHeader) {
		t.Errorf("expected ErrNoHeader, got %v", err)
	}
}

func TestEnrichedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "parsed.csv")
	recs := []record.EnrichedRecord{{
		RawRecord:   record.RawRecord{ID: "1", Title: "Rally, \"large\"", Events: "line one\nline two"},
		Country:     "Kenya",
		Date:        "10/05/2024, 11/05/2024",
		Protest:     record.Yes,
		Suppression: record.No,
	}}
	if err := WriteEnrichedFile(path, recs); err != nil {
		t.Fatalf("WriteEnrichedFile: %v", err)
	}
	got, err := ReadEnrichedFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != recs[0] {
		t.Errorf("round trip mismatch:\n%+v\n%+v", got, recs)
	}

	raw, err := ReadRawFile(path)
	if err != nil || len(raw) != 1 || raw[0] != recs[0].RawRecord {
		t.Errorf("ReadRawFile = %+v, %v", raw, err)
	}
}

func TestWriteSeriesFiles(t *testing.T) {
	dir := t.TempDir()
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	daily := filepath.Join(dir, "daily.csv")
	if err := WriteDailyFile(daily, []record.DailyPoint{
		{Country: "Kenya", Date: jan1, Signals: record.Signals{Protest: 1, Anticipated: 1}},
	}); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(daily)
	want := "country,date,protest,suppression,anticipated\nKenya,2024-01-01,1,0,1\n"
	if string(data) != want {
		t.Errorf("daily file = %q, want %q", data, want)
	}

	monthly := filepath.Join(dir, "monthly.csv")
	if err := WriteMonthlyFile(monthly, []record.MonthlyPoint{{Country: "Kenya", Month: jan1}}); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(monthly)
	want = "country,month,protest,suppression,anticipated\nKenya,2024-01,0,0,0\n"
	if string(data) != want {
		t.Errorf("monthly file = %q, want %q", data, want)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestReadRawFileMissing(t *testing.T) {
	if _, err := ReadRawFile(filepath.Join(t.TempDir(), "nope.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
