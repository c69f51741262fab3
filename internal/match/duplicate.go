package match

import (
	"context"
	"strings"

	"github.com/casescribe/casescribe/internal/docket"
)

const duplicateSimilarityThreshold = 0.85

// Proposed carries the identifying fields of a case about to be created.
type Proposed struct {
	CaseName   string
	ClientName string
}

// CheckDuplicate reports an existing case that the proposed one would
// duplicate, or nil. Search failures are swallowed: duplicate checking must
// never block legitimate case creation.
func CheckDuplicate(ctx context.Context, s Searcher, p Proposed) *docket.CaseSummary {
	caseName := strings.TrimSpace(p.CaseName)
	clientName := strings.TrimSpace(p.ClientName)
	if caseName == "" && clientName == "" {
		return nil
	}

	key := clientName
	if key == "" {
		words := significantWords(strings.ToLower(caseName))
		if len(words) > 2 {
			words = words[:2]
		}
		key = strings.Join(words, " ")
	}
	if len(key) < 3 {
		return nil
	}

	candidates, err := searchCandidates(ctx, s, key)
	if err != nil {
		return nil
	}

	for i := range candidates {
		existing := candidates[i]
		if strings.HasPrefix(existing.CaseName, docket.PlaceholderPrefix) {
			continue
		}
		if isDuplicateOf(caseName, clientName, existing) {
			return &existing
		}
	}
	return nil
}

func isDuplicateOf(caseName, clientName string, existing docket.CaseSummary) bool {
	if clientName != "" {
		if strings.EqualFold(clientName, strings.TrimSpace(existing.ClientName)) {
			return true
		}
		if strings.Contains(strings.ToLower(existing.CaseName), strings.ToLower(clientName)) {
			return true
		}
	}
	if caseName != "" {
		if strings.EqualFold(caseName, strings.TrimSpace(existing.CaseName)) {
			return true
		}
		if Similarity(caseName, existing.CaseName) >= duplicateSimilarityThreshold {
			return true
		}
	}
	return false
}
