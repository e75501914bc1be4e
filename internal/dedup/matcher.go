// Package dedup decides whether a candidate posting is a new observation of
// a record already in the store.
//
// The match relation is deliberately a heuristic: company equality is a
// hard gate, while title/location/roleType tolerate truncation and
// formatting drift through bidirectional substring containment. The
// relation is not transitive; the documented policy is first match wins,
// scanned in store order.
package dedup

import (
	"log/slog"
	"strings"

	"github.com/jobtrack/jobtrack-be/internal/domain"
)

// Matcher scans a record collection for duplicates of a candidate.
type Matcher struct {
	logger *slog.Logger
}

// NewMatcher returns a matcher that logs ambiguous matches.
func NewMatcher(logger *slog.Logger) *Matcher {
	return &Matcher{logger: logger}
}

// Match returns the index of the first existing record the candidate
// duplicates, or ok=false. When more than one record matches, the extra
// matches are logged and the first still wins.
func (m *Matcher) Match(candidate domain.JobRecord, existing []domain.JobRecord) (int, bool) {
	first := -1
	extra := 0

	for i := range existing {
		if !isDuplicate(candidate, existing[i]) {
			continue
		}
		if first == -1 {
			first = i
			continue
		}
		extra++
		if extra == 1 {
			m.logger.Warn("Ambiguous duplicate match, keeping first",
				slog.String("company", candidate.Company),
				slog.String("title", candidate.Title),
				slog.Int("first_index", first),
				slog.Int("also_matches", i),
			)
		}
	}

	if first == -1 {
		return 0, false
	}
	return first, true
}

// isDuplicate applies the four-field rule. Company is an exact gate on the
// normalized strings. An empty company carries no evidence on its own, so
// two company-less records pass the gate only when the source URL
// corroborates; without that, repeated observations of the same
// company-less posting would insert forever instead of converging. For the
// containment fields a missing value on either side satisfies the check
// automatically.
func isDuplicate(candidate, existing domain.JobRecord) bool {
	company := normalize(candidate.Company)
	if company != normalize(existing.Company) {
		return false
	}
	if company == "" {
		url := normalize(candidate.URL)
		if url == "" || url != normalize(existing.URL) {
			return false
		}
	}

	return contains(candidate.Title, existing.Title) &&
		contains(candidate.Location, existing.Location) &&
		contains(candidate.RoleType, existing.RoleType)
}

// contains reports bidirectional substring containment of the normalized
// values, treating a missing value on either side as satisfied.
func contains(a, b string) bool {
	na, nb := normalize(a), normalize(b)
	if na == "" || nb == "" {
		return true
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
