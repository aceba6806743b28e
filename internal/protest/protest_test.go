package protest

import (
	"testing"

	"github.com/TobiSchelling/unrestwatch/internal/record"
)

func TestClassify(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		text string
		want bool
	}{
		{"Police used tear gas and arrested 15 protesters during the rally", true},
		{"Demonstration Alert: Nairobi, Kenya", true},
		{"Labor strike planned at the port", true},
		{"Students staged a sit-in outside the ministry", true},
		{"Workers will picket the factory gates", true},
		{"Opposition supporters plan to march on parliament", true},
		{"Grève générale à Paris", true},
		{"Convocan huelga nacional", true},
		{"крупный митинг в центре города", true},
		{"Health Alert: Dengue outbreak in the capital", false},
		{"Weather Alert: flooding expected on 5 March", false},
		{"The embassy will be closed on March 12", false},
		{"Security Alert: airstrike reported near the border", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := c.Classify(tt.text); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestClassifyRecord(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r := record.RawRecord{Title: "Security Alert", Other: "A rally is expected downtown."}
	if got := c.ClassifyRecord(r); got != record.Yes {
		t.Errorf("ClassifyRecord = %v, want Yes", got)
	}
	if got := c.ClassifyRecord(record.RawRecord{Title: "Health Alert"}); got != record.No {
		t.Errorf("ClassifyRecord = %v, want No", got)
	}
}

func TestVersion(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Version() != "protest@"+LibraryVersion {
		t.Errorf("unexpected version %q", c.Version())
	}
}
