package match

import (
	"context"
	"sort"
	"strings"

	"github.com/casescribe/casescribe/internal/docket"
)

// Searcher is the store-side lookup: case-insensitive substring match over
// case name, case number, and client name.
type Searcher interface {
	Search(ctx context.Context, query string) ([]docket.CaseSummary, error)
}

type Outcome string

const (
	OutcomeMatched   Outcome = "MATCHED"
	OutcomeAmbiguous Outcome = "AMBIGUOUS"
	OutcomeNotFound  Outcome = "NOT_FOUND"
)

// Candidate is one scored search hit, surfaced to the caller when the match
// is ambiguous.
type Candidate struct {
	ID         string  `json:"id"`
	CaseName   string  `json:"case_name"`
	CaseNumber string  `json:"case_number"`
	Score      float64 `json:"score"`
}

type Result struct {
	Outcome    Outcome
	LookupKey  string
	Case       *docket.CaseSummary
	Candidates []Candidate
}

// Auto-selection thresholds: a clearly dominant candidate is taken without
// asking; ambiguous ties are deferred to a human rather than silently
// misrouting a legal case update.
const (
	autoSelectScore    = 0.9
	autoSelectFloor    = 0.7
	autoSelectMinGap   = 0.2
	caseNumberMinChars = 5
)

// FindCase resolves a lookup key (case number or client name) against the
// store. It returns exactly one case, an ambiguous candidate list, or a
// not-found result. Search failures are returned to the caller.
func FindCase(ctx context.Context, s Searcher, lookupKey string) (Result, error) {
	lookupKey = strings.TrimSpace(lookupKey)
	res := Result{LookupKey: lookupKey}

	candidates, err := searchCandidates(ctx, s, lookupKey)
	if err != nil {
		return res, err
	}

	switch len(candidates) {
	case 0:
		res.Outcome = OutcomeNotFound
		return res, nil
	case 1:
		c := candidates[0]
		if validateSingleCandidate(lookupKey, c) {
			res.Outcome = OutcomeMatched
			res.Case = &c
			return res, nil
		}
		res.Outcome = OutcomeNotFound
		return res, nil
	}

	scored := make([]Candidate, 0, len(candidates))
	byID := make(map[string]docket.CaseSummary, len(candidates))
	for _, c := range candidates {
		scored = append(scored, Candidate{
			ID:         c.ID,
			CaseName:   c.CaseName,
			CaseNumber: c.CaseNumber,
			Score:      scoreCandidate(lookupKey, c),
		})
		byID[c.ID] = c
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	top := scored[0]
	gap := top.Score - scored[1].Score
	if top.Score >= autoSelectScore || (top.Score >= autoSelectFloor && gap >= autoSelectMinGap) {
		c := byID[top.ID]
		res.Outcome = OutcomeMatched
		res.Case = &c
		return res, nil
	}

	res.Outcome = OutcomeAmbiguous
	res.Candidates = scored
	return res, nil
}

// searchCandidates runs the store search plus a keyword fallback on the first
// significant token, then deduplicates by case ID. The fallback is
// best-effort; only the primary search failure is fatal.
func searchCandidates(ctx context.Context, s Searcher, lookupKey string) ([]docket.CaseSummary, error) {
	primary, err := s.Search(ctx, lookupKey)
	if err != nil {
		return nil, err
	}

	merged := primary
	if tok := firstSignificantToken(lookupKey); tok != "" && !strings.EqualFold(tok, lookupKey) {
		if extra, ferr := s.Search(ctx, tok); ferr == nil {
			merged = append(merged, extra...)
		}
	}

	seen := make(map[string]struct{}, len(merged))
	out := merged[:0]
	for _, c := range merged {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

func firstSignificantToken(s string) string {
	words := significantWords(strings.ToLower(s))
	if len(words) == 0 {
		return ""
	}
	return words[0]
}

// validateSingleCandidate guards the solo-hit path: an exact case-number
// match passes unconditionally, while multi-word lookups must account for
// every significant word. This keeps "Priya Sharma" from resolving to a
// lone "Priya Patel" hit.
func validateSingleCandidate(lookupKey string, c docket.CaseSummary) bool {
	if hasExactCaseNumber(lookupKey, c) {
		return true
	}
	words := significantWords(strings.ToLower(lookupKey))
	if len(words) < 2 {
		return true
	}
	targets := targetTokens(c)
	for _, w := range words {
		if !wordMatchesAny(w, targets) {
			return false
		}
	}
	return true
}

func scoreCandidate(lookupKey string, c docket.CaseSummary) float64 {
	if hasExactCaseNumber(lookupKey, c) {
		return 1.0
	}
	words := significantWords(strings.ToLower(lookupKey))
	if len(words) == 0 {
		return 0
	}
	targets := targetTokens(c)
	matched := 0
	for _, w := range words {
		if wordMatchesAny(w, targets) {
			matched++
		}
	}
	if matched == len(words) {
		return 0.95
	}
	return float64(matched) / float64(len(words)) * 0.7
}

func hasExactCaseNumber(lookupKey string, c docket.CaseSummary) bool {
	num := strings.ToUpper(strings.TrimSpace(c.CaseNumber))
	if num == "" || len(num) <= caseNumberMinChars {
		return false
	}
	return strings.Contains(strings.ToUpper(lookupKey), num)
}

func targetTokens(c docket.CaseSummary) []string {
	return strings.Fields(strings.ToLower(c.CaseName + " " + c.ClientName))
}

// wordMatchesAny accepts substring containment in either direction.
func wordMatchesAny(word string, targets []string) bool {
	for _, t := range targets {
		if strings.Contains(t, word) || strings.Contains(word, t) {
			return true
		}
	}
	return false
}
