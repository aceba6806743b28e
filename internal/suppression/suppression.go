// Package suppression detects whether an advisory reports a protest being
// met with suppression or violence.
//
// Detection runs in two passes over the concatenated advisory text. The
// confound pass deletes every span describing absent, speculative,
// historical or likely violence; the violence pass then looks for an actor
// or action co-occurring with a suppression indicator in what remains.
package suppression

import (
	"fmt"
	"strings"

	"github.com/TobiSchelling/unrestwatch/internal/record"
	"github.com/TobiSchelling/unrestwatch/internal/rules"
)

// Classifier holds both compiled libraries. Safe for concurrent use.
type Classifier struct {
	confounds *rules.Matcher
	violence  *rules.Matcher
}

// New compiles the default libraries.
func New() (*Classifier, error) {
	return NewWith(Confounds, Violence)
}

// NewWith compiles caller-supplied libraries.
func NewWith(confounds, violence rules.Library) (*Classifier, error) {
	c, err := confounds.Compile()
	if err != nil {
		return nil, fmt.Errorf("confound library: %w", err)
	}
	v, err := violence.Compile()
	if err != nil {
		return nil, fmt.Errorf("violence library: %w", err)
	}
	return &Classifier{confounds: c, violence: v}, nil
}

// Versions identifies the library revisions in use.
func (c *Classifier) Versions() string {
	return c.confounds.Version() + " " + c.violence.Version()
}

// StripConfounds runs the first pass only. ok is false when the confound
// pass timed out.
func (c *Classifier) StripConfounds(text string) (string, bool) {
	return c.confounds.Strip(text)
}

// Classify reports whether text describes actual suppression. Text whose
// confound pass timed out classifies as false, since unstripped confounds
// would otherwise reach the violence pass.
func (c *Classifier) Classify(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	stripped, ok := c.confounds.Strip(text)
	return ok && c.violence.Match(stripped)
}

// Evidence returns the indicator span that triggered a positive result,
// or "" when Classify would return false.
func (c *Classifier) Evidence(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	stripped, ok := c.confounds.Strip(text)
	if !ok {
		return ""
	}
	return c.violence.Find(stripped)
}

// ClassifyRecord classifies the joined free-text fields of r.
func (c *Classifier) ClassifyRecord(r record.RawRecord) record.Flag {
	return record.FlagOf(c.Classify(r.Text()))
}
