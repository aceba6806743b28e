package record

import (
	"strings"
	"time"
)

// DateLayout is the serialized form of an extracted event date.
const DateLayout = "02/01/2006"

// DateListSep joins multiple extracted dates in the date field.
const DateListSep = ", "

// Flag is a tri-state boolean signal. The zero value means "not computed yet".
type Flag uint8

const (
	Unset Flag = iota
	No
	Yes
)

// FlagOf converts a boolean classifier outcome into a Flag.
func FlagOf(b bool) Flag {
	if b {
		return Yes
	}
	return No
}

// ParseFlag reads the serialized form ("0", "1", or empty). Anything else is Unset.
func ParseFlag(s string) Flag {
	switch strings.TrimSpace(s) {
	case "1", "1.0", "true", "True":
		return Yes
	case "0", "0.0", "false", "False":
		return No
	}
	return Unset
}

// Int returns 1 for Yes and 0 otherwise.
func (f Flag) Int() int {
	if f == Yes {
		return 1
	}
	return 0
}

// String returns "1", "0" or "" for Unset.
func (f Flag) String() string {
	switch f {
	case Yes:
		return "1"
	case No:
		return "0"
	}
	return ""
}

// RawRecord is one advisory row as produced by the scraper. Never mutated.
type RawRecord struct {
	ID          string
	PublishDate string
	Title       string
	Location    string
	Events      string
	Actions     string
	Assistance  string
	Other       string
	URL         string
}

// Text joins every free-text field in the order the classifiers expect.
func (r RawRecord) Text() string {
	return strings.Join([]string{r.Title, r.Location, r.Events, r.Actions, r.Assistance, r.Other}, " ")
}

// EnrichedRecord is a RawRecord plus the derived fields. Empty Country/Date
// and Unset flags are "missing" and eligible for enrichment.
type EnrichedRecord struct {
	RawRecord
	Country     string
	Date        string
	Protest     Flag
	Suppression Flag
	Anticipated Flag
}

// Complete reports whether every derived field has been computed.
func (r EnrichedRecord) Complete() bool {
	return r.Country != "" && r.Date != "" &&
		r.Protest != Unset && r.Suppression != Unset && r.Anticipated != Unset
}

// EventDates parses every date in the Date field, skipping malformed entries.
func (r EnrichedRecord) EventDates() []time.Time {
	if strings.TrimSpace(r.Date) == "" {
		return nil
	}
	var out []time.Time
	for _, part := range strings.Split(r.Date, ",") {
		d, err := time.Parse(DateLayout, strings.TrimSpace(part))
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	return out
}

// FirstEventDate returns the first parseable event date.
func (r EnrichedRecord) FirstEventDate() (time.Time, bool) {
	dates := r.EventDates()
	if len(dates) == 0 {
		return time.Time{}, false
	}
	return dates[0], true
}

// Signals is the triple of boolean signals carried by every series point.
type Signals struct {
	Protest     int
	Suppression int
	Anticipated int
}

// Max merges two signal triples column-wise (logical OR on 0/1 values).
func (s Signals) Max(o Signals) Signals {
	return Signals{
		Protest:     max(s.Protest, o.Protest),
		Suppression: max(s.Suppression, o.Suppression),
		Anticipated: max(s.Anticipated, o.Anticipated),
	}
}

// DailyPoint is one (country, day) cell of the dense calendar.
type DailyPoint struct {
	Country string
	Date    time.Time
	Signals
}

// MonthlyPoint is one (country, month) cell, derived from DailyPoints.
// Month is the first day of the month in UTC.
type MonthlyPoint struct {
	Country string
	Month   time.Time
	Signals
}

// Clean coerces null-like spreadsheet values to the empty string.
func Clean(s string) string {
	t := strings.TrimSpace(s)
	switch strings.ToLower(t) {
	case "nan", "none", "null", "nat", "<na>":
		return ""
	}
	return t
}
