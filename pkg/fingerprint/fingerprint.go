// Package fingerprint computes the content hash that identifies "this keyword
// behaves identically to that keyword": two keywords returning byte-identical
// monthly series from the same geographic/language/partner context are almost
// certainly the same search intent. The hash is the equivalence key the
// classification resolver groups synonyms by.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/localpulse/localpulse-engine/pkg/models"
)

// Compute hashes the targeting context and monthly series into a lower-case
// hex SHA-256. Keys are lower-cased and trimmed, and points are sorted
// ascending by (Year, Month) first, so neither input casing nor point order
// affects the result. The input slice is never mutated.
func Compute(locationKey, languageKey string, searchPartners bool, points []models.MonthlyVolumePoint) string {
	sorted := make([]models.MonthlyVolumePoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Year != sorted[j].Year {
			return sorted[i].Year < sorted[j].Year
		}
		return sorted[i].Month < sorted[j].Month
	})

	var b strings.Builder
	b.WriteString(strings.ToLower(strings.TrimSpace(locationKey)))
	b.WriteByte('|')
	b.WriteString(strings.ToLower(strings.TrimSpace(languageKey)))
	b.WriteByte('|')
	b.WriteString(strconv.FormatBool(searchPartners))
	for _, p := range sorted {
		fmt.Fprintf(&b, "|%d-%d:%d", p.Year, p.Month, p.Volume)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
