// Package domain holds the core data model of the job tracker: job records,
// attachment blobs, and the candidate shape supplied by the page-scraping
// collaborator.
package domain

import "time"

// JobRecord is one observed job posting and its tracked state.
//
// Descriptive fields use the empty string as the single "unknown" encoding.
// The legacy "N/A" sentinel from scraped input is normalized away at the
// ingestion boundary and only re-rendered for display/CSV output.
type JobRecord struct {
	ID string `json:"id"`

	// Identifying fields, matched case-insensitively by the dedup matcher.
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	RoleType string `json:"roleType"`

	// Descriptive fields, fillable by merge while empty.
	Salary            string `json:"salary"`
	DatePosted        string `json:"datePosted"`
	Duration          string `json:"duration"`
	WorkAuthorization string `json:"workAuthorizationRequirement"`
	JobDescription    string `json:"jobDescription"`

	// Source of the observation.
	URL     string `json:"url"`
	Website string `json:"website"`

	// Lifecycle fields. DateLogged is immutable once set.
	DateLogged    time.Time  `json:"dateLogged"`
	Applied       bool       `json:"applied"`
	DateCompleted *time.Time `json:"dateCompleted"`
	Note          string     `json:"note"`

	// Liveness fields.
	Active      bool       `json:"active"`
	LastChecked *time.Time `json:"lastChecked"`

	// Attachment references. Empty means not uploaded. A non-empty id that
	// no longer resolves to a blob is tolerated on read as "not uploaded".
	CVFileID          string `json:"cvFileId"`
	CoverLetterFileID string `json:"coverLetterFileId"`
}

// SetApplied flips the applied flag and keeps DateCompleted consistent with
// it: non-nil iff applied.
func (r *JobRecord) SetApplied(applied bool, now time.Time) {
	r.Applied = applied
	if applied {
		r.DateCompleted = &now
	} else {
		r.DateCompleted = nil
	}
}

// AttachmentBlob is an opaque binary payload (CV or cover letter) keyed by a
// generated identifier. A blob is owned by at most one record reference and
// is never mutated in place, only created and deleted.
type AttachmentBlob struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

// Candidate is a job-posting observation before dedup/merge, as supplied by
// the external scraping collaborator. All fields are raw free text; blank
// and "N/A" values both mean "not observed".
type Candidate struct {
	URL               string
	Website           string
	Title             string
	Company           string
	Location          string
	RoleType          string
	Salary            string
	DatePosted        string
	Duration          string
	WorkAuthorization string
	JobDescription    string
}
