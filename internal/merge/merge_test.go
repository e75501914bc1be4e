package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jobtrack/jobtrack-be/internal/domain"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name        string
		existing    domain.JobRecord
		incoming    domain.JobRecord
		want        domain.JobRecord
		wantChanged bool
	}{
		{
			name:        "fills empty salary",
			existing:    domain.JobRecord{Salary: ""},
			incoming:    domain.JobRecord{Salary: "$90k"},
			want:        domain.JobRecord{Salary: "$90k"},
			wantChanged: true,
		},
		{
			name:        "existing salary is sticky",
			existing:    domain.JobRecord{Salary: "$50k"},
			incoming:    domain.JobRecord{Salary: "$90k"},
			want:        domain.JobRecord{Salary: "$50k"},
			wantChanged: false,
		},
		{
			name:     "fills several fields at once",
			existing: domain.JobRecord{Salary: "$50k"},
			incoming: domain.JobRecord{
				Salary:         "$90k",
				DatePosted:     "2026-08-01",
				Duration:       "12 months",
				JobDescription: "Build things",
			},
			want: domain.JobRecord{
				Salary:         "$50k",
				DatePosted:     "2026-08-01",
				Duration:       "12 months",
				JobDescription: "Build things",
			},
			wantChanged: true,
		},
		{
			name:        "empty incoming changes nothing",
			existing:    domain.JobRecord{Salary: "$50k", RoleType: "Full-time"},
			incoming:    domain.JobRecord{},
			want:        domain.JobRecord{Salary: "$50k", RoleType: "Full-time"},
			wantChanged: false,
		},
		{
			name: "never touches identifying or lifecycle fields",
			existing: domain.JobRecord{
				Title:   "Engineer",
				Company: "Acme Corp",
				Applied: true,
				Note:    "phone screen done",
			},
			incoming: domain.JobRecord{
				Title:   "Senior Engineer",
				Company: "Acme Corp Inc",
				Note:    "scraped note",
			},
			want: domain.JobRecord{
				Title:   "Engineer",
				Company: "Acme Corp",
				Applied: true,
				Note:    "phone screen done",
			},
			wantChanged: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := Merge(tt.existing, tt.incoming)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantChanged, changed)
		})
	}
}

func TestMerge_Idempotent(t *testing.T) {
	existing := domain.JobRecord{Salary: ""}
	incoming := domain.JobRecord{Salary: "$90k", Duration: "6 months"}

	once, changed := Merge(existing, incoming)
	assert.True(t, changed)

	twice, changed := Merge(once, incoming)
	assert.False(t, changed)
	assert.Equal(t, once, twice)
}
