package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/TobiSchelling/unrestwatch/internal/aggregate"
	"github.com/TobiSchelling/unrestwatch/internal/config"
	"github.com/TobiSchelling/unrestwatch/internal/database"
	"github.com/TobiSchelling/unrestwatch/internal/dataset"
	"github.com/TobiSchelling/unrestwatch/internal/record"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	RunID string
	Steps []StepResult
}

// Failed reports whether any step returned an error.
func (r *Result) Failed() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// Pipeline orchestrates Import, Enrich, Aggregate and Export. Not safe for
// concurrent Run calls.
type Pipeline struct {
	cfg      *config.Config
	db       *database.DB
	engine   *Engine
	logger   *log.Logger
	now      func() time.Time
	imported int
	enriched int
	daily    int
	monthly  int
}

// New creates a new pipeline. A nil logger uses the default.
func New(cfg *config.Config, db *database.DB, engine *Engine, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{cfg: cfg, db: db, engine: engine, logger: logger, now: time.Now}
}

// Run executes every step and records a run report. Import or Enrich
// failures stop the run; later steps would only republish stale data.
func (p *Pipeline) Run(ctx context.Context) *Result {
	r := &Result{RunID: uuid.NewString()}
	started := p.now()
	p.imported, p.enriched, p.daily, p.monthly = 0, 0, 0, 0

	steps := []struct {
		run   func(context.Context) StepResult
		fatal bool
	}{
		{p.runImport, true},
		{p.runEnrich, true},
		{p.runAggregate, true},
		{p.runExport, false},
	}
	for i, s := range steps {
		step := s.run(ctx)
		r.Steps = append(r.Steps, step)
		if step.Err != nil {
			p.logger.Error("step failed", "step", step.Name, "n", i+1, "err", step.Err)
			if s.fatal {
				break
			}
			continue
		}
		p.logger.Info(step.Summary, "step", step.Name)
	}

	status := database.RunOK
	switch {
	case ctx.Err() != nil:
		status = database.RunCancelled
	case r.Failed():
		status = database.RunFailed
	}
	report := database.RunReport{
		ID:            r.RunID,
		StartedAt:     started,
		FinishedAt:    p.now(),
		Imported:      p.imported,
		Enriched:      p.enriched,
		DailyPoints:   p.daily,
		MonthlyPoints: p.monthly,
		Libraries:     p.engine.Versions(),
		Status:        status,
	}
	if err := p.db.InsertRunReport(report); err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Report", Err: err})
	}
	return r
}

// DryRun shows what would be done without executing.
func (p *Pipeline) DryRun() *Result {
	r := &Result{}

	input := p.cfg.Input.RawCSV
	if recs, err := dataset.ReadEnrichedFile(input); err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Import", Err: err})
	} else {
		r.Steps = append(r.Steps, StepResult{
			Name:    "Import",
			Summary: fmt.Sprintf("[dry-run] %d rows in %s", len(recs), input),
		})
	}

	needing, _ := p.db.GetRecordsNeedingEnrichment()
	r.Steps = append(r.Steps, StepResult{
		Name:    "Enrich",
		Summary: fmt.Sprintf("[dry-run] %d stored records have missing fields", len(needing)),
	})

	total, _ := p.db.CountRecords()
	r.Steps = append(r.Steps, StepResult{
		Name:    "Aggregate",
		Summary: fmt.Sprintf("[dry-run] Would rebuild series from %d records starting %s", total, p.cfg.Aggregate.EpochStart),
	})

	r.Steps = append(r.Steps, StepResult{
		Name:    "Export",
		Summary: fmt.Sprintf("[dry-run] Would write CSVs to %s", p.cfg.GetDataDir()),
	})

	return r
}

func (p *Pipeline) runImport(ctx context.Context) StepResult {
	p.logger.Info("Step 1/4: Importing advisories...")
	input := p.cfg.Input.RawCSV
	if input == "" {
		return StepResult{Name: "Import", Summary: "No input configured, using stored records"}
	}
	read, n, err := ImportFile(p.db, input, p.cfg.Input.RawOnly)
	if errors.Is(err, os.ErrNotExist) {
		return StepResult{Name: "Import", Err: fmt.Errorf("input %s: %w", input, err)}
	}
	if err != nil {
		return StepResult{Name: "Import", Err: err}
	}
	p.imported = n
	return StepResult{
		Name:    "Import",
		Summary: fmt.Sprintf("Imported %d new records (%d read)", n, read),
	}
}

// ImportFile upserts the rows of a CSV at path into db and returns how many
// rows were read and how many ids were new. With rawOnly, derived columns
// in the file are ignored and left for enrichment to fill.
func ImportFile(db *database.DB, path string, rawOnly bool) (read, added int, err error) {
	if rawOnly {
		raws, err := dataset.ReadRawFile(path)
		if err != nil {
			return 0, 0, err
		}
		added, err = db.UpsertRaw(raws)
		return len(raws), added, err
	}
	recs, err := dataset.ReadEnrichedFile(path)
	if err != nil {
		return 0, 0, err
	}
	added, err = db.UpsertRecords(recs)
	return len(recs), added, err
}

func (p *Pipeline) runEnrich(ctx context.Context) StepResult {
	p.logger.Info("Step 2/4: Enriching records...")
	needing, err := p.db.GetRecordsNeedingEnrichment()
	if err != nil {
		return StepResult{Name: "Enrich", Err: err}
	}
	if len(needing) == 0 {
		return StepResult{Name: "Enrich", Summary: "All records already enriched"}
	}

	start := p.now()
	out, stats, err := p.engine.Enricher.EnrichAll(ctx, needing, p.cfg.Enrich.Workers)
	if err != nil {
		return StepResult{Name: "Enrich", Err: err}
	}
	if err := p.db.UpdateEnrichment(out); err != nil {
		return StepResult{Name: "Enrich", Err: err}
	}
	p.enriched = stats.Updated
	p.logger.Debug("enrichment done", "rows", stats.Rows, "elapsed", p.now().Sub(start))
	return StepResult{
		Name: "Enrich",
		Summary: fmt.Sprintf("Enriched %d records: %d protests, %d unresolved countries, %d undated",
			stats.Updated, stats.Protests, stats.Unresolved, stats.Undated),
	}
}

func (p *Pipeline) runAggregate(ctx context.Context) StepResult {
	p.logger.Info("Step 3/4: Aggregating series...")
	epoch, err := p.cfg.Epoch()
	if err != nil {
		return StepResult{Name: "Aggregate", Err: err}
	}
	recs, err := p.db.GetRecords()
	if err != nil {
		return StepResult{Name: "Aggregate", Err: err}
	}
	series := aggregate.BuildUntil(recs, epoch, p.cfg.Horizon(p.now()))
	if err := ctx.Err(); err != nil {
		return StepResult{Name: "Aggregate", Err: err}
	}
	if series.Beyond > 0 {
		p.logger.Warn("dates past the horizon dropped", "dates", series.Beyond, "horizon_days", p.cfg.Aggregate.HorizonDays)
	}
	if !series.To.IsZero() {
		p.logger.Debug("calendar span", "from", series.From.Format("2006-01-02"), "to", series.To.Format("2006-01-02"),
			"days", int(series.To.Sub(series.From).Hours()/24)+1, "countries", len(series.Countries))
	}
	if err := p.db.ReplaceDailySeries(series.Daily); err != nil {
		return StepResult{Name: "Aggregate", Err: err}
	}
	if err := p.db.ReplaceMonthlySeries(series.Monthly); err != nil {
		return StepResult{Name: "Aggregate", Err: err}
	}
	p.daily, p.monthly = len(series.Daily), len(series.Monthly)
	if len(series.Daily) == 0 {
		return StepResult{Name: "Aggregate", Summary: "No dated records on or after the epoch"}
	}
	return StepResult{
		Name: "Aggregate",
		Summary: fmt.Sprintf("Built %d daily and %d monthly points for %d countries (%s to %s)",
			len(series.Daily), len(series.Monthly), len(series.Countries),
			series.From.Format("2006-01-02"), series.To.Format("2006-01-02")),
	}
}

func (p *Pipeline) runExport(ctx context.Context) StepResult {
	p.logger.Info("Step 4/4: Exporting datasets...")
	n, err := Export(p.cfg, p.db)
	if err != nil {
		return StepResult{Name: "Export", Err: err}
	}
	return StepResult{
		Name:    "Export",
		Summary: fmt.Sprintf("Wrote %d files to %s", n, p.cfg.GetDataDir()),
	}
}

// Export writes the enriched dataset and both series from the database to
// the configured CSV files. Returns the number of files written.
func Export(cfg *config.Config, db *database.DB) (int, error) {
	recs, err := db.GetRecords()
	if err != nil {
		return 0, err
	}
	if err := dataset.WriteEnrichedFile(cfg.DataPath(cfg.Output.EnrichedCSV), recs); err != nil {
		return 0, fmt.Errorf("enriched csv: %w", err)
	}

	countries, err := db.GetCountries()
	if err != nil {
		return 1, err
	}
	var (
		daily   []record.DailyPoint
		monthly []record.MonthlyPoint
	)
	for _, c := range countries {
		d, err := db.GetDailySeries(c, time.Time{}, time.Time{})
		if err != nil {
			return 1, err
		}
		daily = append(daily, d...)
		m, err := db.GetMonthlySeries(c)
		if err != nil {
			return 1, err
		}
		monthly = append(monthly, m...)
	}
	if err := dataset.WriteDailyFile(cfg.DataPath(cfg.Output.DailyCSV), daily); err != nil {
		return 1, fmt.Errorf("daily csv: %w", err)
	}
	if err := dataset.WriteMonthlyFile(cfg.DataPath(cfg.Output.MonthlyCSV), monthly); err != nil {
		return 2, fmt.Errorf("monthly csv: %w", err)
	}
	return 3, nil
}
