package country

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ratio is the normalized edit similarity of a and b on a 0..100 scale.
func ratio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := max(la, lb)
	if longest == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(d)/float64(longest))
}

// partialRatio slides the shorter string across the longer one and keeps
// the best window score.
func partialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}
	s := string(short)
	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		if r := ratio(s, string(long[i:i+len(short)])); r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

func tokenSortRatio(a, b string) float64 {
	return ratio(sortedTokens(a), sortedTokens(b))
}

func sortedTokens(s string) string {
	f := strings.Fields(s)
	sort.Strings(f)
	return strings.Join(f, " ")
}

// weightedRatio combines the scorers the way a weighted ratio does: plain
// ratio for strings of similar length, scaled partial scores once one side
// is much longer than the other.
func weightedRatio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}
	lenRatio := float64(max(la, lb)) / float64(min(la, lb))
	best := ratio(a, b)
	if lenRatio < 1.5 {
		return max(best, tokenSortRatio(a, b)*0.95)
	}
	scale := 0.9
	if lenRatio >= 8 {
		scale = 0.6
	}
	return max(best, partialRatio(a, b)*scale, tokenSortRatio(a, b)*0.95*scale)
}

// bestMatch scores query against every variant and returns the highest
// scoring one at or above threshold. Ties keep the earliest variant in
// index order.
func bestMatch(query string, variants []Variant, threshold float64, scorer func(a, b string) float64) (Variant, bool) {
	var (
		best  Variant
		score = -1.0
	)
	for _, v := range variants {
		if s := scorer(query, v.Name); s > score {
			best, score = v, s
		}
	}
	return best, score >= threshold
}
