package anticipation

import (
	"testing"
	"time"

	"github.com/TobiSchelling/unrestwatch/internal/record"
)

func TestCompute(t *testing.T) {
	published := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		event time.Time
		want  record.Flag
	}{
		{"future event", time.Date(2024, time.May, 10, 0, 0, 0, 0, time.UTC), record.Yes},
		{"past event", time.Date(2024, time.April, 20, 0, 0, 0, 0, time.UTC), record.No},
		{"same day", published, record.No},
		{"missing event", time.Time{}, record.No},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compute(tt.event, published); got != tt.want {
				t.Errorf("Compute = %v, want %v", got, tt.want)
			}
		})
	}
	if got := Compute(published, time.Time{}); got != record.No {
		t.Errorf("missing publish date = %v, want No", got)
	}
}

func TestComputeRecord(t *testing.T) {
	tests := []struct {
		name    string
		publish string
		date    string
		want    record.Flag
	}{
		{"future", "05/01/2024", "10/05/2024", record.Yes},
		{"past", "05/01/2024", "20/04/2024", record.No},
		{"first date decides", "05/01/2024", "20/04/2024, 10/05/2024", record.No},
		{"missing event date", "05/01/2024", "", record.No},
		{"unparseable publish date", "soon", "10/05/2024", record.No},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := record.EnrichedRecord{RawRecord: record.RawRecord{PublishDate: tt.publish}, Date: tt.date}
			if got := ComputeRecord(r); got != tt.want {
				t.Errorf("ComputeRecord = %v, want %v", got, tt.want)
			}
		})
	}
}
