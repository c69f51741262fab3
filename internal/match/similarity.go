package match

import "strings"

var fillerTokens = map[string]struct{}{
	"case":   {},
	"matter": {},
	"vs":     {},
	"v.":     {},
	"the":    {},
}

// Similarity scores how closely two name-like strings refer to the same
// case or client, in [0, 1]. It is token-overlap based rather than edit
// distance: case and client names differ mainly by word substitution or
// addition, not typos. The containment boost makes the score asymmetric;
// Similarity(a, b) and Similarity(b, a) can differ.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1.0
	}

	na := normalizeName(a)
	nb := normalizeName(b)
	if na == nb {
		return 0.95
	}
	if na != "" && nb != "" && (strings.Contains(na, nb) || strings.Contains(nb, na)) {
		return 0.85
	}

	wa := significantWords(na)
	wb := significantWords(nb)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	setB := make(map[string]struct{}, len(wb))
	for _, w := range wb {
		setB[w] = struct{}{}
	}
	common := 0
	for _, w := range wa {
		if _, ok := setB[w]; ok {
			common++
		}
	}

	avg := (float64(common)/float64(len(wa)) + float64(common)/float64(len(wb))) / 2
	if common == len(wa) && len(wa) >= 2 {
		avg += 0.2
		if avg > 0.9 {
			avg = 0.9
		}
	}
	return avg
}

func normalizeName(s string) string {
	var kept []string
	for _, w := range strings.Fields(s) {
		if _, filler := fillerTokens[w]; filler {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// significantWords splits into words longer than one character.
func significantWords(s string) []string {
	var out []string
	for _, w := range strings.Fields(s) {
		if len(w) > 1 {
			out = append(out, w)
		}
	}
	return out
}
