// Package report renders per-country markdown summaries of the series.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/TobiSchelling/unrestwatch/internal/record"
)

// Column headings used by the dashboard.
const (
	colProtest        = "Any Protest"
	colAnticipated    = "Any Anticipated Protest"
	colSuppressed     = "Any Suppressed Protest"
	colPreventiveness = "Index of Preventiveness"
)

// Row is one period of a country report.
type Row struct {
	Period time.Time
	record.Signals
	Preventiveness int
}

// Preventiveness scores a month 0 when a protest was anticipated and the
// state did not answer it with suppression alone. An anticipated month
// with suppression but no protest counts as prevented (1), as does every
// month nothing was anticipated for.
func Preventiveness(p, a, s int) int {
	if a == 1 && !(p == 0 && s == 1) {
		return 0
	}
	return 1
}

// MonthlyRows selects country's points, oldest first, keeping the last
// months entries. months <= 0 keeps all of them.
func MonthlyRows(country string, monthly []record.MonthlyPoint, months int) []Row {
	var rows []Row
	for _, p := range monthly {
		if p.Country != country {
			continue
		}
		rows = append(rows, newRow(p.Month, p.Signals))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Period.Before(rows[j].Period) })
	if months > 0 && len(rows) > months {
		rows = rows[len(rows)-months:]
	}
	return rows
}

// BinDaily max-reduces consecutive daily points of one country into bins of
// size days, each dated by its last day. Points must be in day order.
func BinDaily(daily []record.DailyPoint, size int) []Row {
	if size <= 0 {
		size = 1
	}
	var rows []Row
	for lo := 0; lo < len(daily); lo += size {
		hi := min(lo+size, len(daily))
		var sig record.Signals
		for _, p := range daily[lo:hi] {
			sig = sig.Max(p.Signals)
		}
		rows = append(rows, newRow(daily[hi-1].Date, sig))
	}
	return rows
}

func newRow(period time.Time, s record.Signals) Row {
	return Row{Period: period, Signals: s, Preventiveness: Preventiveness(s.Protest, s.Anticipated, s.Suppression)}
}

// Country renders the last months of country's monthly series as markdown.
func Country(country string, monthly []record.MonthlyPoint, months int) string {
	rows := MonthlyRows(country, monthly, months)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", country)
	if len(rows) == 0 {
		b.WriteString("No monthly data available for this country.\n")
		return b.String()
	}

	var protests, anticipated, suppressed, prevented int
	for _, r := range rows {
		protests += r.Protest
		anticipated += r.Anticipated
		suppressed += r.Suppression
		prevented += r.Preventiveness
	}
	fmt.Fprintf(&b, "%s to %s.\n\n", rows[0].Period.Format("Jan 2006"), rows[len(rows)-1].Period.Format("Jan 2006"))
	fmt.Fprintf(&b, "- Months with a protest: %d of %d\n", protests, len(rows))
	fmt.Fprintf(&b, "- Months with an anticipated protest: %d\n", anticipated)
	fmt.Fprintf(&b, "- Months with a suppressed protest: %d\n", suppressed)
	fmt.Fprintf(&b, "- Preventive months: %d\n\n", prevented)

	fmt.Fprintf(&b, "| Month | %s | %s | %s | %s |\n", colProtest, colAnticipated, colSuppressed, colPreventiveness)
	b.WriteString("|---|---|---|---|---|\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %d |\n",
			r.Period.Format("Jan 2006"), r.Protest, r.Anticipated, r.Suppression, r.Preventiveness)
	}
	return b.String()
}
