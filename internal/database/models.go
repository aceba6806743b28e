package database

import "time"

// Run statuses stored in run_reports.
const (
	RunOK        = "ok"
	RunFailed    = "failed"
	RunCancelled = "cancelled"
)

// RunReport holds metadata about a pipeline run.
type RunReport struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	Imported      int
	Enriched      int
	DailyPoints   int
	MonthlyPoints int
	// Libraries records the pattern library versions the run classified with.
	Libraries string
	Status    string
}

// Stats contains aggregate database statistics.
type Stats struct {
	Records       int
	Incomplete    int
	Unresolved    int
	Undated       int
	Protests      int
	Suppressions  int
	Anticipated   int
	Countries     int
	DailyPoints   int
	MonthlyPoints int
	FirstDay      string
	LastDay       string
}
