// Package liveness owns the posting re-check policy: when a record is due
// for a probe and how a probe result transitions its state. The probe
// itself (an HTTP existence check) lives behind the Prober interface.
package liveness

import (
	"time"

	"github.com/jobtrack/jobtrack-be/internal/domain"
)

// CheckInterval is the minimum age of lastChecked before a record is due
// for another automatic probe. Both the cron sweep and the opportunistic
// ingestion re-check compare against it, so a record is never probed twice
// inside the window regardless of which trigger fires first.
const CheckInterval = 24 * time.Hour

// IsDue reports whether the record should be probed now.
func IsDue(record domain.JobRecord, now time.Time) bool {
	if record.LastChecked == nil {
		return true
	}
	return now.Sub(*record.LastChecked) >= CheckInterval
}

// ApplyCheckResult records a probe outcome: active tracks reachability and
// lastChecked is stamped unconditionally. A network failure was already
// collapsed into reachable=false by the prober; that information loss is
// accepted.
func ApplyCheckResult(record domain.JobRecord, reachable bool, now time.Time) domain.JobRecord {
	record.Active = reachable
	record.LastChecked = &now
	return record
}
