// Package aggregate turns enriched advisory rows into dense per-country
// calendars.
//
// Signals are "did it happen" booleans, so every reduction is a max: any
// report flagging a day flags the whole day, and any flagged day flags its
// month.
package aggregate

import (
	"sort"
	"time"

	"github.com/TobiSchelling/unrestwatch/internal/record"
)

// Series is the output of one Build: both granularities over the same
// countries and range.
type Series struct {
	Countries []string
	From, To  time.Time
	Daily     []record.DailyPoint
	Monthly   []record.MonthlyPoint
	// Beyond counts row dates dropped for falling after the horizon.
	Beyond int
}

type dayKey struct {
	country string
	day     time.Time
}

// Build runs the daily reduction, densifies it from epoch through the
// latest observed date and rolls the result up by month.
func Build(recs []record.EnrichedRecord, epoch time.Time) Series {
	return BuildUntil(recs, epoch, time.Time{})
}

// BuildUntil is Build with the calendar capped at horizon. Dates after it
// are dropped and counted in Series.Beyond. A zero horizon is unbounded.
func BuildUntil(recs []record.EnrichedRecord, epoch, horizon time.Time) Series {
	if !horizon.IsZero() {
		horizon = truncate(horizon)
	}
	sparse, countries, last, beyond := reduce(recs, horizon)
	epoch = truncate(epoch)
	s := Series{Countries: countries, Beyond: beyond}
	if last.IsZero() || last.Before(epoch) {
		return s
	}
	s.From, s.To = epoch, last
	s.Daily = densify(sparse, countries, epoch, last)
	s.Monthly = Monthly(s.Daily)
	return s
}

// reduce groups rows by (country, day) with max-reduction. Every listed
// date of a row counts. Rows without a country or a parseable date are
// skipped, but a resolved country still joins the country set.
func reduce(recs []record.EnrichedRecord, horizon time.Time) (map[dayKey]record.Signals, []string, time.Time, int) {
	sparse := make(map[dayKey]record.Signals)
	seen := make(map[string]bool)
	var (
		countries []string
		last      time.Time
		beyond    int
	)
	for _, r := range recs {
		if r.Country == "" {
			continue
		}
		if !seen[r.Country] {
			seen[r.Country] = true
			countries = append(countries, r.Country)
		}
		sig := record.Signals{Protest: r.Protest.Int(), Suppression: r.Suppression.Int(), Anticipated: r.Anticipated.Int()}
		for _, d := range r.EventDates() {
			d = truncate(d)
			if !horizon.IsZero() && d.After(horizon) {
				beyond++
				continue
			}
			k := dayKey{r.Country, d}
			sparse[k] = sparse[k].Max(sig)
			if d.After(last) {
				last = d
			}
		}
	}
	sort.Strings(countries)
	return sparse, countries, last, beyond
}

// densify emits exactly one point per (country, day) in [from, to],
// zero-filled where sparse has no entry. Output is ordered by country, then
// day.
func densify(sparse map[dayKey]record.Signals, countries []string, from, to time.Time) []record.DailyPoint {
	days := int(to.Sub(from).Hours()/24) + 1
	if days <= 0 {
		return nil
	}
	out := make([]record.DailyPoint, 0, days*len(countries))
	for _, c := range countries {
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			out = append(out, record.DailyPoint{Country: c, Date: d, Signals: sparse[dayKey{c, d}]})
		}
	}
	return out
}

// Monthly max-reduces daily points by (country, calendar month). Months are
// keyed by their first day. Output keeps country order, then month order.
func Monthly(daily []record.DailyPoint) []record.MonthlyPoint {
	type monthKey struct {
		country string
		month   time.Time
	}
	idx := make(map[monthKey]int)
	var out []record.MonthlyPoint
	for _, p := range daily {
		k := monthKey{p.Country, FirstOfMonth(p.Date)}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, record.MonthlyPoint{Country: k.country, Month: k.month})
		}
		out[i].Signals = out[i].Signals.Max(p.Signals)
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Country != out[b].Country {
			return out[a].Country < out[b].Country
		}
		return out[a].Month.Before(out[b].Month)
	})
	return out
}

// FirstOfMonth returns midnight UTC on the first day of t's month.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
