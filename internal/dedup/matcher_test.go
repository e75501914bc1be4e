package dedup

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jobtrack/jobtrack-be/internal/domain"
)

func testMatcher() *Matcher {
	return NewMatcher(slog.New(slog.DiscardHandler))
}

func record(company, title, location, roleType string) domain.JobRecord {
	return domain.JobRecord{
		Company:  company,
		Title:    title,
		Location: location,
		RoleType: roleType,
	}
}

func companylessRecord(url, title string) domain.JobRecord {
	return domain.JobRecord{
		Title: title,
		URL:   url,
	}
}

func TestMatcher_Match(t *testing.T) {
	tests := []struct {
		name      string
		candidate domain.JobRecord
		existing  []domain.JobRecord
		wantIndex int
		wantOK    bool
	}{
		{
			name:      "exact match",
			candidate: record("Acme Corp", "Software Engineer", "London", "Full-time"),
			existing: []domain.JobRecord{
				record("Acme Corp", "Software Engineer", "London", "Full-time"),
			},
			wantIndex: 0,
			wantOK:    true,
		},
		{
			name:      "company case and whitespace insensitive",
			candidate: record("  acme corp ", "Software Engineer", "London", "Full-time"),
			existing: []domain.JobRecord{
				record("Acme Corp", "Software Engineer", "London", "Full-time"),
			},
			wantIndex: 0,
			wantOK:    true,
		},
		{
			name:      "company is an exact gate, not containment",
			candidate: record("Acme Corp", "Software Engineer", "London", "Full-time"),
			existing: []domain.JobRecord{
				record("Acme Corp Inc", "Software Engineer", "London", "Full-time"),
			},
			wantOK: false,
		},
		{
			name:      "title containment in either direction",
			candidate: record("Acme Corp", "Senior Software Engineer", "London", "Full-time"),
			existing: []domain.JobRecord{
				record("Acme Corp", "Software Engineer", "London", "Full-time"),
			},
			wantIndex: 0,
			wantOK:    true,
		},
		{
			name:      "unrelated title does not match",
			candidate: record("Acme Corp", "Product Manager", "London", "Full-time"),
			existing: []domain.JobRecord{
				record("Acme Corp", "Software Engineer", "London", "Full-time"),
			},
			wantOK: false,
		},
		{
			name:      "empty candidate title satisfies containment",
			candidate: record("Acme Corp", "", "London", "Full-time"),
			existing: []domain.JobRecord{
				record("Acme Corp", "Software Engineer", "London", "Full-time"),
			},
			wantIndex: 0,
			wantOK:    true,
		},
		{
			name:      "empty existing location satisfies containment",
			candidate: record("Acme Corp", "Software Engineer", "London", "Full-time"),
			existing: []domain.JobRecord{
				record("Acme Corp", "Software Engineer", "", "Full-time"),
			},
			wantIndex: 0,
			wantOK:    true,
		},
		{
			name:      "empty companies match when the url corroborates",
			candidate: companylessRecord("https://jobs.example.com/123", "Software Engineer"),
			existing: []domain.JobRecord{
				companylessRecord("https://jobs.example.com/123", "Software Engineer"),
			},
			wantIndex: 0,
			wantOK:    true,
		},
		{
			name:      "empty companies with different urls do not match",
			candidate: companylessRecord("https://jobs.example.com/123", "Software Engineer"),
			existing: []domain.JobRecord{
				companylessRecord("https://jobs.example.com/456", "Software Engineer"),
			},
			wantOK: false,
		},
		{
			name:      "empty companies without urls do not match",
			candidate: companylessRecord("", "Software Engineer"),
			existing: []domain.JobRecord{
				companylessRecord("", "Software Engineer"),
			},
			wantOK: false,
		},
		{
			name:      "empty company does not match a named one",
			candidate: companylessRecord("https://jobs.example.com/123", "Software Engineer"),
			existing: []domain.JobRecord{
				{Company: "Acme Corp", Title: "Software Engineer", URL: "https://jobs.example.com/123"},
			},
			wantOK: false,
		},
		{
			name:      "first match wins in store order",
			candidate: record("Acme Corp", "Engineer", "London", ""),
			existing: []domain.JobRecord{
				record("Other Co", "Engineer", "London", ""),
				record("Acme Corp", "Software Engineer", "London", ""),
				record("Acme Corp", "Engineer", "London", ""),
			},
			wantIndex: 1,
			wantOK:    true,
		},
		{
			name:      "no records",
			candidate: record("Acme Corp", "Software Engineer", "London", "Full-time"),
			existing:  nil,
			wantOK:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, ok := testMatcher().Match(tt.candidate, tt.existing)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantIndex, idx)
			}
		})
	}
}

func TestContains(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{name: "equal", a: "Engineer", b: "engineer", want: true},
		{name: "a contains b", a: "Senior Engineer", b: "engineer", want: true},
		{name: "b contains a", a: "engineer", b: "Senior Engineer", want: true},
		{name: "disjoint", a: "Engineer", b: "Manager", want: false},
		{name: "both empty", a: "", b: "", want: true},
		{name: "one empty", a: "Engineer", b: "", want: true},
		{name: "whitespace only counts as empty", a: "   ", b: "Engineer", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contains(tt.a, tt.b))
		})
	}
}
