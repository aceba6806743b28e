package country

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrMissingCountryList is returned when the reference list is absent or
// contains no entries. The pipeline cannot run without it.
var ErrMissingCountryList = errors.New("country reference list missing or empty")

//go:embed countries.txt
var embeddedList string

// abbreviations are added on top of the reference list when the canonical
// name is present. "us" is left out on purpose: it collides with the pronoun.
var abbreviations = []struct{ abbr, canonical string }{
	{"usa", "United States of America"},
	{"uk", "United Kingdom"},
	{"uae", "United Arab Emirates"},
	{"drc", "Democratic Republic of the Congo"},
}

// Variant is one normalized name form pointing at its canonical country.
type Variant struct {
	Name      string
	Canonical string
	Words     int
}

// Index maps normalized name variants to canonical country names. Built once
// and read-only afterwards.
type Index struct {
	variants  []Variant
	byName    map[string]string
	phrases   []Variant
	canonical []string
}

// DefaultIndex parses the embedded reference list.
func DefaultIndex() (*Index, error) {
	return ParseIndex(strings.NewReader(embeddedList))
}

// LoadIndex reads a reference list from path. An empty path selects the
// embedded list.
func LoadIndex(path string) (*Index, error) {
	if path == "" {
		return DefaultIndex()
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingCountryList, path)
		}
		return nil, fmt.Errorf("opening country list: %w", err)
	}
	defer f.Close()
	return ParseIndex(f)
}

// ParseIndex reads one country per line. Variants are separated by "," or
// "|" and the first one is the canonical name. Blank lines and lines
// starting with "#" are ignored.
func ParseIndex(r io.Reader) (*Index, error) {
	idx := &Index{byName: make(map[string]string)}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == '|' })
		if len(parts) == 0 {
			continue
		}
		canonical := strings.TrimSpace(parts[0])
		if canonical == "" {
			continue
		}
		idx.canonical = append(idx.canonical, canonical)
		for _, p := range parts {
			idx.add(Normalize(p), canonical)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading country list: %w", err)
	}
	if len(idx.canonical) == 0 {
		return nil, ErrMissingCountryList
	}
	for _, a := range abbreviations {
		if idx.hasCanonical(a.canonical) {
			idx.add(a.abbr, a.canonical)
		}
	}
	return idx, nil
}

// add keeps the first canonical name seen for a variant.
func (idx *Index) add(name, canonical string) {
	if name == "" {
		return
	}
	if _, dup := idx.byName[name]; dup {
		return
	}
	v := Variant{Name: name, Canonical: canonical, Words: len(strings.Fields(name))}
	idx.byName[name] = canonical
	idx.variants = append(idx.variants, v)
	if v.Words > 1 {
		idx.phrases = append(idx.phrases, v)
	}
}

func (idx *Index) hasCanonical(name string) bool {
	for _, c := range idx.canonical {
		if c == name {
			return true
		}
	}
	return false
}

// Lookup returns the canonical name for an already normalized variant.
func (idx *Index) Lookup(variant string) (string, bool) {
	c, ok := idx.byName[variant]
	return c, ok
}

// Countries returns the canonical names in list order.
func (idx *Index) Countries() []string {
	return append([]string(nil), idx.canonical...)
}

// Variants returns every indexed variant in insertion order.
func (idx *Index) Variants() []Variant {
	return append([]Variant(nil), idx.variants...)
}

// foldAccents builds a fresh chain per call; chained transformers carry state.
func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Normalize lowercases s, folds accents, drops apostrophes and periods and
// turns any other punctuation into a word break.
func Normalize(s string) string {
	folded, _, err := transform.String(foldAccents(), s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '\'' || r == '’' || r == '.':
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
