// Package rules models regex pattern libraries as ordered, versioned data:
// a table of named fragments that compile into a single alternation.
//
// Fragments use the .NET-style syntax of regexp2 because several of them
// need lookaround assertions, which RE2 does not provide.
package rules

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// ErrEmptyLibrary is returned when a library has no fragments to compile.
var ErrEmptyLibrary = errors.New("pattern library has no fragments")

// DefaultTimeout bounds a single evaluation. Fragments are bounded by
// explicit gap widths so this only trips on pathological input.
const DefaultTimeout = 2 * time.Second

// Fragment is one named piece of a pattern library.
type Fragment struct {
	Name    string
	Pattern string
}

// Library is an ordered set of fragments. Order matters: the compiled
// alternation tries fragments left to right at each position.
type Library struct {
	Name      string
	Version   string
	Fragments []Fragment
	// Timeout overrides DefaultTimeout when positive.
	Timeout time.Duration
}

// Alternation joins every fragment pattern with "|".
func (l Library) Alternation() string {
	parts := make([]string, len(l.Fragments))
	for i, f := range l.Fragments {
		parts[i] = f.Pattern
	}
	return strings.Join(parts, "|")
}

// Lookup returns the fragment with the given name.
func (l Library) Lookup(name string) (Fragment, bool) {
	for _, f := range l.Fragments {
		if f.Name == name {
			return f, true
		}
	}
	return Fragment{}, false
}

// Compile builds the matcher for the whole library.
func (l Library) Compile() (*Matcher, error) {
	if len(l.Fragments) == 0 {
		return nil, fmt.Errorf("%s: %w", l.Name, ErrEmptyLibrary)
	}
	re, err := l.compile(l.Alternation())
	if err != nil {
		return nil, fmt.Errorf("compiling library %s %s: %w", l.Name, l.Version, err)
	}
	return &Matcher{lib: l, re: re}, nil
}

// CompileFragment builds a matcher for a single fragment, which is how
// fragments are unit tested in isolation.
func (l Library) CompileFragment(name string) (*Matcher, error) {
	f, ok := l.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("library %s has no fragment %q", l.Name, name)
	}
	re, err := l.compile(f.Pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling fragment %s: %w", name, err)
	}
	return &Matcher{lib: Library{Name: l.Name, Version: l.Version, Fragments: []Fragment{f}, Timeout: l.Timeout}, re: re}, nil
}

func (l Library) compile(pattern string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(pattern, regexp2.IgnoreCase)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = DefaultTimeout
	if l.Timeout > 0 {
		re.MatchTimeout = l.Timeout
	}
	return re, nil
}

// Matcher is a compiled library. Safe for concurrent use.
type Matcher struct {
	lib Library
	re  *regexp2.Regexp
}

// Version identifies the library revision the matcher was built from.
func (m *Matcher) Version() string {
	return m.lib.Name + "@" + m.lib.Version
}

// Match reports whether any fragment matches text. Engine errors
// (timeouts) count as no match.
func (m *Matcher) Match(text string) bool {
	ok, err := m.re.MatchString(text)
	return err == nil && ok
}

// Strip deletes every span matched by any fragment. ok is false when the
// engine gave up (timeout); out is then the unchanged input and must not
// be trusted as stripped.
func (m *Matcher) Strip(text string) (out string, ok bool) {
	out, err := m.re.Replace(text, "", -1, -1)
	if err != nil {
		return text, false
	}
	return out, true
}

// Find returns the first matched span, or "" when nothing matches.
func (m *Matcher) Find(text string) string {
	match, err := m.re.FindStringMatch(text)
	if err != nil || match == nil {
		return ""
	}
	return match.String()
}
