// Package dates extracts event dates from advisory narrative text, anchored
// to the advisory's own publish date.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/TobiSchelling/unrestwatch/internal/record"
)

const (
	weekday = `monday|tuesday|wednesday|thursday|friday|saturday|sunday`
	month   = `january|february|march|april|may|june|july|august|september|october|november|december|` +
		`jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec`
	ordinal = `(?:st|nd|rd|th)?`
	year    = `(?:19|20)\d{2}`
	prefix  = `(?:(?:` + weekday + `),?\s+(?:the\s+)?)?`
)

// A range or list keeps only its first element. Lists ("4 and 5") only
// swallow a bare day; ranges may repeat the month ("June 3 to June 5",
// "3 June to 5 June").
const (
	rangeSep = `-|–|—|to|through|until`
	listSep  = rangeSep + `|and|&`
	dayTail  = `(?:\s*(?:` + listSep + `)\s*\d{1,2}` + ordinal + `)?`
	dmTail   = `(?:\s*(?:` + rangeSep + `)\s*\d{1,2}` + ordinal + `\s+(?:of\s+)?(?:` + month + `)\b\.?)?`
	mdTail   = `(?:\s*(?:` + listSep + `)\s*\d{1,2}` + ordinal +
		`|\s*(?:` + rangeSep + `)\s*(?:` + month + `)\.?\s+\d{1,2}` + ordinal + `)?`
)

// spanPattern finds date-like spans. Alternatives are ordered so a weekday
// prefixed date wins over the bare weekday at the same position. Trailing
// words after the date core are never part of a span.
var spanPattern = regexp.MustCompile(`(?i)` +
	`\b` + prefix + `(?P<mdMonth>` + month + `)\.?\s+(?P<mdDay>\d{1,2})` + ordinal + `\b` + mdTail + `(?:,?\s+(?P<mdYear>` + year + `))?\b` +
	`|\b` + prefix + `(?P<dmDay>\d{1,2})` + ordinal + dayTail + `\s+(?:of\s+)?(?P<dmMonth>` + month + `)\b\.?` + dmTail + `(?:,?\s+(?P<dmYear>` + year + `))?\b` +
	`|\b(?P<myMonth>` + month + `)\.?\s+(?P<myYear>` + year + `)\b` +
	`|\b(?P<isoYear>` + year + `)-(?P<isoMonth>\d{2})-(?P<isoDay>\d{2})\b` +
	`|\b(?P<relative>today|tomorrow|yesterday)\b` +
	`|\b(?P<weekday>` + weekday + `)\b`)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
}

// Anchor is the reference date narrative dates are resolved against.
// The zero Anchor has no date; relative and year-less spans are skipped.
type Anchor struct {
	Date  time.Time
	Valid bool
}

// ParsePublishDate parses a scraper publish date. Ambiguous numeric forms
// are read month first, which is how the scraper writes them.
func ParsePublishDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return day(t.Year(), t.Month(), t.Day()), true
}

// AnchorFrom parses the publish date into an Anchor.
func AnchorFrom(publishDate string) Anchor {
	t, ok := ParsePublishDate(publishDate)
	return Anchor{Date: t, Valid: ok}
}

// Extract returns every distinct date found in text in first-seen order.
// Individual spans that cannot be resolved are skipped.
func Extract(text string, anchor Anchor) []time.Time {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	names := spanPattern.SubexpNames()
	var (
		out  []time.Time
		seen = make(map[time.Time]bool)
	)
	for _, m := range spanPattern.FindAllStringSubmatch(text, -1) {
		groups := make(map[string]string, len(names))
		for i, name := range names {
			if name != "" && m[i] != "" {
				groups[name] = strings.ToLower(m[i])
			}
		}
		d, ok := resolve(groups, anchor)
		if !ok || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

func resolve(g map[string]string, anchor Anchor) (time.Time, bool) {
	switch {
	case g["mdMonth"] != "":
		return calendar(g["mdMonth"], g["mdDay"], g["mdYear"], anchor)
	case g["dmMonth"] != "":
		return calendar(g["dmMonth"], g["dmDay"], g["dmYear"], anchor)
	case g["myMonth"] != "":
		return calendar(g["myMonth"], "1", g["myYear"], anchor)
	case g["isoYear"] != "":
		y, _ := strconv.Atoi(g["isoYear"])
		m, _ := strconv.Atoi(g["isoMonth"])
		d, _ := strconv.Atoi(g["isoDay"])
		return valid(y, time.Month(m), d)
	case g["relative"] != "":
		if !anchor.Valid {
			return time.Time{}, false
		}
		switch g["relative"] {
		case "tomorrow":
			return anchor.Date.AddDate(0, 0, 1), true
		case "yesterday":
			return anchor.Date.AddDate(0, 0, -1), true
		}
		return anchor.Date, true
	case g["weekday"] != "":
		if !anchor.Valid {
			return time.Time{}, false
		}
		return NextWeekday(anchor.Date, weekdays[g["weekday"]]), true
	}
	return time.Time{}, false
}

// calendar builds a date from a month name, day and optional year. Without
// a year the anchor year is used, rolling into the next year when the month
// precedes the anchor month.
func calendar(monthName, dayStr, yearStr string, anchor Anchor) (time.Time, bool) {
	m, ok := months[strings.TrimSuffix(monthName, ".")[:3]]
	if !ok {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(dayStr)
	if err != nil {
		return time.Time{}, false
	}
	if yearStr != "" {
		y, _ := strconv.Atoi(yearStr)
		return valid(y, m, d)
	}
	if !anchor.Valid {
		return time.Time{}, false
	}
	y := anchor.Date.Year()
	if m < anchor.Date.Month() {
		y++
	}
	return valid(y, m, d)
}

// NextWeekday returns the next wd strictly after from.
func NextWeekday(from time.Time, wd time.Weekday) time.Time {
	offset := (int(wd) - int(from.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return from.AddDate(0, 0, offset)
}

func valid(y int, m time.Month, d int) (time.Time, bool) {
	if m < time.January || m > time.December || d < 1 {
		return time.Time{}, false
	}
	t := day(y, m, d)
	if t.Month() != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Format serializes dates in the enriched dataset's date field form.
func Format(dates []time.Time) string {
	parts := make([]string, len(dates))
	for i, d := range dates {
		parts[i] = d.Format(record.DateLayout)
	}
	return strings.Join(parts, record.DateListSep)
}

// ExtractRecord reads dates from the title, falling back to the events
// section when the title has none. Returns "" when nothing resolves.
func ExtractRecord(r record.RawRecord) string {
	anchor := AnchorFrom(r.PublishDate)
	found := Extract(r.Title, anchor)
	if len(found) == 0 {
		found = Extract(r.Events, anchor)
	}
	return Format(found)
}
