package mapstate

import (
	"strconv"
	"strings"

	"github.com/pinmov/atlas-server/internal/models"
)

// SeverityAll disables the severity predicate.
const SeverityAll = "all"

// Filter is the predicate set applied to the canonical report collection.
// Predicates are conjunctive: a report must satisfy every active one.
type Filter struct {
	// Severity keeps only reports with this exact severity.
	// Empty or SeverityAll keeps everything.
	Severity string

	// Search keeps reports whose title, description or stringified
	// coordinates contain this term, case-insensitively.
	Search string
}

// Match reports whether r satisfies the filter conjunction.
func (f Filter) Match(r *models.Report) bool {
	if f.Severity != "" && f.Severity != SeverityAll && string(r.Severity) != f.Severity {
		return false
	}

	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(r.Title), term) &&
			!(r.Description != nil && strings.Contains(strings.ToLower(*r.Description), term)) &&
			!strings.Contains(formatCoord(r.Lat), term) &&
			!strings.Contains(formatCoord(r.Lng), term) {
			return false
		}
	}

	return true
}

// filterReports returns the order-preserving subset of reports matching f.
// It always allocates a fresh slice and never touches the input.
func filterReports(reports []models.Report, f Filter) []models.Report {
	filtered := make([]models.Report, 0, len(reports))
	for i := range reports {
		if f.Match(&reports[i]) {
			filtered = append(filtered, reports[i])
		}
	}
	return filtered
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
