// Package merge fills gaps in an existing record from a fresh observation
// without ever clobbering data that is already present — user edits and
// previously learned fields are sticky.
package merge

import "github.com/jobtrack/jobtrack-be/internal/domain"

// fillable lists the descriptive fields eligible for overwrite-if-empty
// merging. Identifying fields, lifecycle state, and attachments are never
// touched here.
var fillable = []struct {
	get func(*domain.JobRecord) *string
}{
	{func(r *domain.JobRecord) *string { return &r.Salary }},
	{func(r *domain.JobRecord) *string { return &r.DatePosted }},
	{func(r *domain.JobRecord) *string { return &r.RoleType }},
	{func(r *domain.JobRecord) *string { return &r.Duration }},
	{func(r *domain.JobRecord) *string { return &r.WorkAuthorization }},
	{func(r *domain.JobRecord) *string { return &r.JobDescription }},
}

// Merge copies each fillable field from incoming into existing when the
// existing value is missing and the incoming one is not. It returns the
// merged record and whether anything actually changed, so callers can skip
// a no-op persistence write.
func Merge(existing domain.JobRecord, incoming domain.JobRecord) (domain.JobRecord, bool) {
	changed := false

	for _, f := range fillable {
		dst := f.get(&existing)
		src := *f.get(&incoming)
		if *dst == "" && src != "" {
			*dst = src
			changed = true
		}
	}

	return existing, changed
}
