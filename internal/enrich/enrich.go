// Package enrich fills the derived fields of advisory records.
//
// Enrich is an upsert: a field is computed only when it is missing, so a
// record that is already complete passes through unchanged.
package enrich

import (
	"context"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/unrestwatch/internal/anticipation"
	"github.com/TobiSchelling/unrestwatch/internal/country"
	"github.com/TobiSchelling/unrestwatch/internal/dates"
	"github.com/TobiSchelling/unrestwatch/internal/protest"
	"github.com/TobiSchelling/unrestwatch/internal/record"
	"github.com/TobiSchelling/unrestwatch/internal/suppression"
)

// Enricher bundles the per-row classifiers. All of them are read-only after
// construction, so one Enricher serves any number of goroutines.
type Enricher struct {
	countries   *country.Resolver
	protest     *protest.Classifier
	suppression *suppression.Classifier
	logger      *log.Logger
}

// New wires the classifiers together. A nil logger uses the default.
func New(countries *country.Resolver, p *protest.Classifier, s *suppression.Classifier, logger *log.Logger) *Enricher {
	if logger == nil {
		logger = log.Default()
	}
	return &Enricher{countries: countries, protest: p, suppression: s, logger: logger}
}

// Stats summarizes one EnrichAll call.
type Stats struct {
	Rows       int
	Updated    int
	Unresolved int
	Undated    int
	Protests   int
}

// Enrich returns rec with its missing fields computed. Anticipation runs
// last because it reads the date filled in just before it.
func (e *Enricher) Enrich(rec record.EnrichedRecord) record.EnrichedRecord {
	raw := clean(rec.RawRecord)
	if rec.Country == "" {
		rec.Country = e.countries.ResolveRecord(raw)
	}
	if rec.Date == "" {
		rec.Date = dates.ExtractRecord(raw)
	}
	if rec.Protest == record.Unset {
		rec.Protest = e.protest.ClassifyRecord(raw)
	}
	if rec.Suppression == record.Unset {
		rec.Suppression = e.suppression.ClassifyRecord(raw)
	}
	if rec.Anticipated == record.Unset {
		rec.Anticipated = anticipation.ComputeRecord(rec)
	}
	return rec
}

// EnrichAll enriches recs in parallel and returns a new slice in the same
// order. workers <= 0 uses one worker per CPU. The only error is context
// cancellation.
func (e *Enricher) EnrichAll(ctx context.Context, recs []record.EnrichedRecord, workers int) ([]record.EnrichedRecord, Stats, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	out := make([]record.EnrichedRecord, len(recs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, c := range chunks(len(recs), workers) {
		c := c
		g.Go(func() error {
			for i := c.lo; i < c.hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				out[i] = e.Enrich(recs[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	stats := Stats{Rows: len(out)}
	for i, r := range out {
		if r != recs[i] {
			stats.Updated++
		}
		if r.Country == "" {
			stats.Unresolved++
			e.logger.Debug("country unresolved", "id", r.ID, "title", r.Title)
		}
		if r.Date == "" {
			stats.Undated++
		}
		if r.Protest == record.Yes {
			stats.Protests++
		}
	}
	return out, stats, nil
}

type span struct{ lo, hi int }

// chunks splits n rows into contiguous spans, a few per worker so a slow
// span does not hold up the rest.
func chunks(n, workers int) []span {
	if n == 0 {
		return nil
	}
	size := max(1, n/(workers*4))
	var out []span
	for lo := 0; lo < n; lo += size {
		out = append(out, span{lo: lo, hi: min(lo+size, n)})
	}
	return out
}

func clean(r record.RawRecord) record.RawRecord {
	r.PublishDate = record.Clean(r.PublishDate)
	r.Title = record.Clean(r.Title)
	r.Location = record.Clean(r.Location)
	r.Events = record.Clean(r.Events)
	r.Actions = record.Clean(r.Actions)
	r.Assistance = record.Clean(r.Assistance)
	r.Other = record.Clean(r.Other)
	return r
}
