package record

import (
	"testing"
	"time"
)

func TestParseFlag(t *testing.T) {
	cases := map[string]Flag{
		"1":    Yes,
		"0":    No,
		" 1 ":  Yes,
		"1.0":  Yes,
		"":     Unset,
		"nan":  Unset,
		"2":    Unset,
		"true": Yes,
	}
	for in, want := range cases {
		if got := ParseFlag(in); got != want {
			t.Errorf("ParseFlag(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFlagStringRoundTrip(t *testing.T) {
	for _, f := range []Flag{Unset, No, Yes} {
		if got := ParseFlag(f.String()); got != f {
			t.Errorf("round trip of %v gave %v", f, got)
		}
	}
	if Yes.Int() != 1 || No.Int() != 0 || Unset.Int() != 0 {
		t.Error("unexpected Int values")
	}
}

func TestClean(t *testing.T) {
	for _, in := range []string{"nan", "NaN", "None", " null ", ""} {
		if got := Clean(in); got != "" {
			t.Errorf("Clean(%q) = %q, want empty", in, got)
		}
	}
	if got := Clean("  Kenya "); got != "Kenya" {
		t.Errorf("Clean trimmed wrong: %q", got)
	}
}

func TestEventDates(t *testing.T) {
	r := EnrichedRecord{Date: "04/08/2024, garbage, 10/08/2024"}
	dates := r.EventDates()
	if len(dates) != 2 {
		t.Fatalf("expected 2 dates, got %d", len(dates))
	}
	want := time.Date(2024, time.August, 4, 0, 0, 0, 0, time.UTC)
	if !dates[0].Equal(want) {
		t.Errorf("first date = %v, want %v", dates[0], want)
	}
	first, ok := r.FirstEventDate()
	if !ok || !first.Equal(want) {
		t.Errorf("FirstEventDate = %v, %v", first, ok)
	}

	if _, ok := (EnrichedRecord{}).FirstEventDate(); ok {
		t.Error("expected no first date for empty field")
	}
}

func TestSignalsMax(t *testing.T) {
	a := Signals{Protest: 1}
	b := Signals{Suppression: 1}
	got := a.Max(b)
	if got != (Signals{Protest: 1, Suppression: 1}) {
		t.Errorf("unexpected max: %+v", got)
	}
}

func TestComplete(t *testing.T) {
	r := EnrichedRecord{Country: "Kenya", Date: "01/01/2024", Protest: No, Suppression: No, Anticipated: Yes}
	if !r.Complete() {
		t.Error("expected complete record")
	}
	r.Suppression = Unset
	if r.Complete() {
		t.Error("expected incomplete record")
	}
}
