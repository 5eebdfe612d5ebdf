package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSource(t *testing.T) {
	tests := []struct {
		in     string
		want   Source
		wantOK bool
	}{
		{"web", SourceWeb, true},
		{"  Mobile ", SourceMobile, true},
		{"PRINT", SourcePrint, true},
		{"fax", "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseSource(tc.in)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRecordStatus_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from RecordStatus
		to   RecordStatus
		want bool
	}{
		{"pending to validated", StatusPending, StatusValidated, true},
		{"pending to flagged", StatusPending, StatusFlagged, true},
		{"pending to approved skips scoring", StatusPending, StatusApproved, false},
		{"validated to approved", StatusValidated, StatusApproved, true},
		{"validated to rejected", StatusValidated, StatusRejected, true},
		{"flagged to approved", StatusFlagged, StatusApproved, true},
		{"validated back to pending", StatusValidated, StatusPending, false},
		{"approved is terminal", StatusApproved, StatusRejected, false},
		{"rejected is terminal", StatusRejected, StatusApproved, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.from.CanTransition(tc.to))
		})
	}
}

func TestRecordStatus_Terminal(t *testing.T) {
	assert.True(t, StatusApproved.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusValidated.Terminal())
	assert.False(t, StatusFlagged.Terminal())
}

func TestProvider_FieldAccessors(t *testing.T) {
	p := Provider{Phone: "555-123-4567", City: "Springfield"}

	assert.Equal(t, "555-123-4567", p.Field("phone"))
	assert.Equal(t, "Springfield", p.Field("city"))
	assert.Equal(t, "", p.Field("specialty")) // not a comparison field

	p.SetField("email", "a@b.com")
	assert.Equal(t, "a@b.com", p.Email)

	p.SetField("unknown", "x") // ignored
	for _, f := range ComparisonFields {
		if f == "phone" || f == "city" || f == "email" {
			continue
		}
		assert.Empty(t, p.Field(f))
	}
}

func TestProvider_Snapshot(t *testing.T) {
	p := Provider{NPI: "1234567890", Name: "Dr. Jane Smith", Phone: "555-111-2222"}
	snap := p.Snapshot()

	assert.Equal(t, "1234567890", snap["npi"])
	assert.Equal(t, "Dr. Jane Smith", snap["name"])
	assert.Equal(t, "555-111-2222", snap["phone"])
	assert.Equal(t, "", snap["email"])

	// Mutating the record afterwards must not touch the snapshot.
	p.Phone = "999-999-9999"
	assert.Equal(t, "555-111-2222", snap["phone"])
}

func TestReconcileReport_ConsistencyScore(t *testing.T) {
	tests := []struct {
		name   string
		report ReconcileReport
		want   int
	}{
		{"nothing checked", ReconcileReport{}, 100},
		{"all consistent", ReconcileReport{TotalChecked: 4, ConsistentCount: 4}, 100},
		{"half consistent", ReconcileReport{TotalChecked: 4, ConsistentCount: 2}, 50},
		{"rounding up", ReconcileReport{TotalChecked: 3, ConsistentCount: 2}, 67},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.report.ConsistencyScore())
		})
	}
}
