package services

import (
	"github.com/localpulse/localpulse-engine/pkg/models"
)

// classificationRank orders candidates for representative election within a
// fingerprint group: lower rank wins, ties broken by lowest keyword id. The
// table is the whole policy — keep it explicit rather than burying the order
// in comparisons.
var classificationRank = map[models.KeywordType]int{
	models.KeywordTypeModifier: 0,
	models.KeywordTypeAdjacent: 1,
	models.KeywordTypeMainTerm: 2,
	models.KeywordTypeSynonym:  3,
}

// defaultClassificationRank applies to any type value missing from the table.
const defaultClassificationRank = 9

func rankOf(t models.KeywordType) int {
	if r, ok := classificationRank[t]; ok {
		return r
	}
	return defaultClassificationRank
}

// ResolveClassification computes the desired type and canonical link for
// every keyword in one (category, location) scope and returns only the
// deltas, in input order. It is a pure convergence pass: running it on an
// already-converged scope returns nothing.
//
// Rules, in precedence order:
//   - The current MainTerm (at most one by invariant) is pinned: it stays
//     MainTerm with no canonical link, whatever its fingerprint.
//   - Keywords sharing a fingerprint (NoData keywords and keywords without a
//     fingerprint never participate) fold into their group's representative:
//     the MainTerm if it is a member, otherwise the best-ranked member. All
//     other members become Synonyms pointing at the representative.
//   - Everyone else keeps Adjacent if already Adjacent, and becomes Modifier
//     otherwise, with the canonical link cleared. Adjacent is sticky: only an
//     explicit retype or synonym grouping moves a keyword off it.
func ResolveClassification(keywords []*models.Keyword) []models.KeywordChange {
	groups := make(map[string][]*models.Keyword)
	for _, k := range keywords {
		if k.NoData || k.Fingerprint == nil || *k.Fingerprint == "" {
			continue
		}
		groups[*k.Fingerprint] = append(groups[*k.Fingerprint], k)
	}

	// Member id -> representative id, for multi-member groups only.
	synonymOf := make(map[int64]int64)
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		rep := electRepresentative(group)
		for _, k := range group {
			if k.ID != rep.ID {
				synonymOf[k.ID] = rep.ID
			}
		}
	}

	var changes []models.KeywordChange
	for _, k := range keywords {
		var desiredType models.KeywordType
		var desiredCanonical *int64

		if k.IsMainTerm() {
			desiredType = models.KeywordTypeMainTerm
		} else if repID, ok := synonymOf[k.ID]; ok {
			desiredType = models.KeywordTypeSynonym
			desiredCanonical = &repID
		} else if k.Type == models.KeywordTypeAdjacent {
			desiredType = models.KeywordTypeAdjacent
		} else {
			desiredType = models.KeywordTypeModifier
		}

		if desiredType == k.Type && canonicalIDsEqual(desiredCanonical, k.CanonicalKeywordID) {
			continue
		}
		changes = append(changes, models.KeywordChange{
			KeywordID:          k.ID,
			Type:               desiredType,
			CanonicalKeywordID: desiredCanonical,
		})
	}
	return changes
}

// electRepresentative picks the keyword a fingerprint group folds into. The
// MainTerm always wins; otherwise the classificationRank table decides, with
// the lowest id as tie-break.
func electRepresentative(group []*models.Keyword) *models.Keyword {
	best := group[0]
	for _, k := range group[1:] {
		if outranks(k, best) {
			best = k
		}
	}
	return best
}

func outranks(a, b *models.Keyword) bool {
	if a.IsMainTerm() != b.IsMainTerm() {
		return a.IsMainTerm()
	}
	if rankOf(a.Type) != rankOf(b.Type) {
		return rankOf(a.Type) < rankOf(b.Type)
	}
	return a.ID < b.ID
}

func canonicalIDsEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
