// Package protest flags advisories that describe protest-type activity.
//
// The detector is an OR over a fixed pattern library and deliberately
// favours recall: the suppression and anticipation signals are only
// meaningful once a protest has been flagged.
package protest

import (
	"strings"

	"github.com/TobiSchelling/unrestwatch/internal/record"
	"github.com/TobiSchelling/unrestwatch/internal/rules"
)

// LibraryVersion identifies the revision of Indicators.
const LibraryVersion = "1.0.0"

// Indicators lists English protest terms followed by a curated multilingual
// set. "march" excludes the calendar month when a day number is adjacent.
var Indicators = rules.Library{
	Name:    "protest",
	Version: LibraryVersion,
	Fragments: []rules.Fragment{
		{Name: "protest", Pattern: `\bprotest(s|ed|ing|ers?|ors?)?\b`},
		{Name: "demonstration", Pattern: `\bdemonstrat(ion|ions|ors?|ed|ing|e)\b`},
		{Name: "rally", Pattern: `\brall(y|ies|ied|ying)\b`},
		{Name: "strike", Pattern: `\b(general |labou?r |hunger )?strik(e|es|ing|ers?)\b`},
		{Name: "march", Pattern: `(?<!\d\s)\bmarch(es|ed|ing|ers)?\b(?!\s+\d)`},
		{Name: "walkout", Pattern: `\bwalk-?outs?\b`},
		{Name: "sit_in", Pattern: `\bsit-?ins?\b`},
		{Name: "picket", Pattern: `\bpicket(s|ed|ing|ers?)?\b`},
		{Name: "unrest", Pattern: `\b(civil unrest|riots?|rioting)\b`},
		{Name: "vigil", Pattern: `\b(candlelight )?vigils?\b`},
		{Name: "blockade", Pattern: `\b(road ?blocks?|blockades?)\b`},
		// Spanish / Portuguese
		{Name: "es_pt", Pattern: `\b(protestas?|manifestaci[oó]n(es)?|manifesta[cç](ão|ões)|huelgas?|greves?|marchas?|paros? nacional|cacerolazos?|passeatas?|piquetes?)\b`},
		// French
		{Name: "fr", Pattern: `\b(manifestations?|manifestants?|grèves?|rassemblements?|gilets jaunes)\b`},
		// German / Dutch
		{Name: "de_nl", Pattern: `\b(kundgebung(en)?|streiks?|demonstrationen|betoging(en)?)\b`},
		// Italian
		{Name: "it", Pattern: `\b(sciopero|scioperi|corteo|cortei)\b`},
		// Russian / Ukrainian
		{Name: "ru_uk", Pattern: `(протест|митинг|забастовк|демонстрац|страйк)`},
		// Arabic
		{Name: "ar", Pattern: `(مظاهر|احتجاج|اعتصام|إضراب)`},
		// Turkish
		{Name: "tr", Pattern: `\b(eylem(ler)?|grev(ler)?|protesto)\b`},
		// Indonesian / Malay
		{Name: "id_ms", Pattern: `\b(unjuk rasa|demo(nstrasi)?|mogok)\b`},
	},
}

// Classifier detects protest activity. Safe for concurrent use.
type Classifier struct {
	m *rules.Matcher
}

// New compiles the default library.
func New() (*Classifier, error) {
	return NewWith(Indicators)
}

// NewWith compiles a caller-supplied library.
func NewWith(lib rules.Library) (*Classifier, error) {
	m, err := lib.Compile()
	if err != nil {
		return nil, err
	}
	return &Classifier{m: m}, nil
}

// Version identifies the library revision in use.
func (c *Classifier) Version() string {
	return c.m.Version()
}

// Classify reports whether text mentions protest-type activity.
func (c *Classifier) Classify(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	return c.m.Match(text)
}

// ClassifyRecord classifies the joined free-text fields of r.
func (c *Classifier) ClassifyRecord(r record.RawRecord) record.Flag {
	return record.FlagOf(c.Classify(r.Text()))
}
