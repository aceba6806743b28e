// Package country resolves noisy advisory text to a canonical country name.
//
// Resolution tries, in order: an exact single-word variant, a multi-word
// variant occurring in the text, and optionally a fuzzy match. The first
// stage to succeed wins. Results are memoized per input string.
package country

import (
	"fmt"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/TobiSchelling/unrestwatch/internal/record"
)

// Options tunes a Resolver.
type Options struct {
	Fuzzy          bool
	FuzzyThreshold int
	// FuzzyMaxInput skips the fuzzy stage for normalized inputs longer than
	// this many runes; the stage scans every variant.
	FuzzyMaxInput int
	CacheSize     int
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{Fuzzy: true, FuzzyThreshold: 75, FuzzyMaxInput: 64, CacheSize: 10000}
}

// Resolver answers resolve queries against a fixed Index. Safe for
// concurrent use; concurrent misses on the same key just duplicate work.
type Resolver struct {
	idx   *Index
	opts  Options
	cache *lru.Cache[string, string]
}

// NewResolver builds a resolver that owns its memo cache.
func NewResolver(idx *Index, opts Options) (*Resolver, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultOptions().CacheSize
	}
	if opts.FuzzyThreshold <= 0 || opts.FuzzyThreshold > 100 {
		return nil, fmt.Errorf("fuzzy threshold %d out of range 1..100", opts.FuzzyThreshold)
	}
	cache, err := lru.New[string, string](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating resolver cache: %w", err)
	}
	return &Resolver{idx: idx, opts: opts, cache: cache}, nil
}

// Index returns the variant index the resolver was built with.
func (r *Resolver) Index() *Index {
	return r.idx
}

// Resolve returns the canonical country named in text, or "" when no
// stage matches.
func (r *Resolver) Resolve(text string) string {
	if c, ok := r.cache.Get(text); ok {
		return c
	}
	c := r.resolve(text)
	r.cache.Add(text, c)
	return c
}

// ResolveRecord tries the title first and falls back to the location field.
func (r *Resolver) ResolveRecord(rec record.RawRecord) string {
	if c := r.Resolve(rec.Title); c != "" {
		return c
	}
	return r.Resolve(rec.Location)
}

func (r *Resolver) resolve(text string) string {
	norm := Normalize(text)
	if norm == "" {
		return ""
	}
	padded := " " + norm + " "

	if c, ok := r.matchToken(norm, padded); ok {
		return c
	}
	if v, ok := r.matchPhrase(padded, ""); ok {
		return v.Canonical
	}
	if r.opts.Fuzzy && utf8.RuneCountInString(norm) <= r.opts.FuzzyMaxInput {
		return r.matchFuzzy(norm)
	}
	return ""
}

// matchToken returns the canonical name of the first word, in text order,
// that is an indexed variant. The hit widens to a longer variant containing
// that word when one also occurs, so "equatorial guinea" is not read as
// "guinea".
func (r *Resolver) matchToken(norm, padded string) (string, bool) {
	for _, w := range strings.Fields(norm) {
		c, ok := r.idx.Lookup(w)
		if !ok {
			continue
		}
		if v, ok := r.matchPhrase(padded, w); ok {
			return v.Canonical, true
		}
		return c, true
	}
	return "", false
}

// matchPhrase finds the longest multi-word variant occurring in padded as
// whole words. A non-empty word restricts the search to variants containing
// it. Ties keep index order.
func (r *Resolver) matchPhrase(padded, word string) (Variant, bool) {
	var (
		best  Variant
		found bool
	)
	for _, v := range r.idx.phrases {
		if word != "" && !strings.Contains(" "+v.Name+" ", " "+word+" ") {
			continue
		}
		if !strings.Contains(padded, " "+v.Name+" ") {
			continue
		}
		if !found || len(v.Name) > len(best.Name) {
			best, found = v, true
		}
	}
	return best, found
}

// matchFuzzy scores the whole input first, then each word longer than
// three runes on its own.
func (r *Resolver) matchFuzzy(norm string) string {
	threshold := float64(r.opts.FuzzyThreshold)
	if v, ok := bestMatch(norm, r.idx.variants, threshold, weightedRatio); ok {
		return v.Canonical
	}
	for _, w := range strings.Fields(norm) {
		if utf8.RuneCountInString(w) <= 3 {
			continue
		}
		if v, ok := bestMatch(w, r.idx.variants, threshold, ratio); ok {
			return v.Canonical
		}
	}
	return ""
}
