// Package anticipation flags advisories that announced an event before it
// happened.
package anticipation

import (
	"time"

	"github.com/TobiSchelling/unrestwatch/internal/dates"
	"github.com/TobiSchelling/unrestwatch/internal/record"
)

// Compute returns Yes when event is strictly after published. A zero time
// on either side compares false.
func Compute(event, published time.Time) record.Flag {
	if event.IsZero() || published.IsZero() {
		return record.No
	}
	return record.FlagOf(event.After(published))
}

// ComputeRecord compares the first extracted event date of r with its
// publish date.
func ComputeRecord(r record.EnrichedRecord) record.Flag {
	event, ok := r.FirstEventDate()
	if !ok {
		return record.No
	}
	published, ok := dates.ParsePublishDate(r.PublishDate)
	if !ok {
		return record.No
	}
	return Compute(event, published)
}
