package pipeline

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/TobiSchelling/unrestwatch/internal/config"
	"github.com/TobiSchelling/unrestwatch/internal/country"
	"github.com/TobiSchelling/unrestwatch/internal/enrich"
	"github.com/TobiSchelling/unrestwatch/internal/protest"
	"github.com/TobiSchelling/unrestwatch/internal/suppression"
)

// Engine holds the compiled classifiers a run needs. Building it loads
// every static asset, so a missing country list or a broken pattern
// library fails here rather than mid-run.
type Engine struct {
	Countries   *country.Resolver
	Protest     *protest.Classifier
	Suppression *suppression.Classifier
	Enricher    *enrich.Enricher
}

// NewEngine builds the classifiers from configuration. A nil logger uses
// the default.
func NewEngine(cfg *config.Config, logger *log.Logger) (*Engine, error) {
	if logger == nil {
		logger = log.Default()
	}
	idx, err := country.LoadIndex(cfg.Input.CountryList)
	if err != nil {
		return nil, fmt.Errorf("loading country list: %w", err)
	}
	logger.Debug("country index loaded", "countries", len(idx.Countries()), "variants", len(idx.Variants()))
	resolver, err := country.NewResolver(idx, country.Options{
		Fuzzy:          cfg.Country.Fuzzy,
		FuzzyThreshold: cfg.Country.FuzzyThreshold,
		FuzzyMaxInput:  cfg.Country.FuzzyMaxInput,
		CacheSize:      cfg.Enrich.CacheSize,
	})
	if err != nil {
		return nil, err
	}
	p, err := protest.New()
	if err != nil {
		return nil, fmt.Errorf("compiling protest library: %w", err)
	}
	s, err := suppression.New()
	if err != nil {
		return nil, fmt.Errorf("compiling suppression libraries: %w", err)
	}
	return &Engine{
		Countries:   resolver,
		Protest:     p,
		Suppression: s,
		Enricher:    enrich.New(resolver, p, s, logger),
	}, nil
}

// Versions lists the pattern library revisions in use.
func (e *Engine) Versions() string {
	return e.Protest.Version() + " " + e.Suppression.Versions()
}
