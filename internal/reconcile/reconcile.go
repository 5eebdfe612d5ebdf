// Package reconcile compares provider records that appear in multiple
// directories, detects field-level disagreements, and chooses one
// canonical value per disagreeing field through an ordered policy.
package reconcile

import (
	"strings"

	"github.com/sells-group/directory-cli/internal/config"
	"github.com/sells-group/directory-cli/internal/identity"
	"github.com/sells-group/directory-cli/internal/model"
)

// Reconciler resolves cross-source field conflicts using a declared
// source-precedence order.
type Reconciler struct {
	precedence []model.Source
	trustedMin int
}

// New creates a Reconciler from configuration. An empty or invalid
// precedence list falls back to web, mobile, print.
func New(cfg config.ReconcileConfig) *Reconciler {
	var precedence []model.Source
	for _, s := range cfg.SourcePrecedence {
		if src, ok := model.ParseSource(s); ok {
			precedence = append(precedence, src)
		}
	}
	if len(precedence) == 0 {
		precedence = []model.Source{model.SourceWeb, model.SourceMobile, model.SourcePrint}
	}

	trustedMin := cfg.TrustedMinLength
	if trustedMin <= 0 {
		trustedMin = 5
	}

	return &Reconciler{precedence: precedence, trustedMin: trustedMin}
}

// Run reconciles a point-in-time snapshot of records. Only identity
// groups spanning two or more distinct sources are checked. The same
// snapshot always produces the same report.
func (r *Reconciler) Run(records []*model.Provider) *model.ReconcileReport {
	report := &model.ReconcileReport{
		Inconsistencies: []model.Inconsistency{},
		CleanedRecords:  []model.CleanedRecord{},
		SourceCounts:    make(map[model.Source]int),
	}

	for _, p := range records {
		if p.Source != "" {
			report.SourceCounts[p.Source]++
		}
	}

	groups := identity.MultiSource(identity.GroupRecords(records))
	report.TotalChecked = len(groups)

	for _, g := range groups {
		cleaned, conflicts := r.reconcileGroup(g)
		report.CleanedRecords = append(report.CleanedRecords, *cleaned)

		if len(conflicts) > 0 {
			first := g.Records[0]
			report.Inconsistencies = append(report.Inconsistencies, model.Inconsistency{
				ProviderName:       first.Name,
				NPI:                first.NPI,
				Sources:            g.Sources(),
				InconsistentFields: conflicts,
				CleanedRecord:      cleaned,
			})
		}
	}

	report.InconsistentCount = len(report.Inconsistencies)
	report.ConsistentCount = report.TotalChecked - report.InconsistentCount
	return report
}

// reconcileGroup builds the group's cleaned record and the list of
// conflicting fields. Stable identity and credential fields come from
// the group's first member; comparison fields take the consistent or
// reconciled value.
func (r *Reconciler) reconcileGroup(g identity.Group) (*model.CleanedRecord, []model.FieldConflict) {
	first := g.Records[0]
	cleaned := &model.CleanedRecord{
		NPI:           first.NPI,
		Name:          first.Name,
		Specialty:     first.Specialty,
		Organization:  first.Organization,
		LicenseNumber: first.LicenseNumber,
		LicenseState:  first.LicenseState,
	}

	var conflicts []model.FieldConflict

	for _, field := range model.ComparisonFields {
		values := collectValues(g.Records, field)

		switch distinctNormalized(values) {
		case 0:
			cleaned.SetField(field, first.Field(field))
		case 1:
			// Unanimous: the sole value is canonical, no conflict recorded.
			cleaned.SetField(field, values[0].Value)
		default:
			chosen := r.Resolve(values)
			conflicts = append(conflicts, model.FieldConflict{
				Field:          field,
				Values:         allValues(g.Records, field),
				CorrectedValue: chosen,
			})
			cleaned.SetField(field, chosen)
		}
	}

	for _, field := range model.ComparisonFields {
		if cleaned.Field(field) != first.Field(field) || hasConflict(conflicts, field) {
			cleaned.CorrectedFields = append(cleaned.CorrectedFields, field)
		}
	}

	return cleaned, conflicts
}

// Resolve picks one canonical value from conflicting source values:
//
//  1. A value from the most trusted source wins outright if longer
//     than the trusted minimum length.
//  2. Otherwise the most frequent value wins if any value appears at
//     least twice, ties broken by source precedence.
//  3. Otherwise the longest value wins, ties broken by source
//     precedence.
func (r *Reconciler) Resolve(values []model.SourceValue) string {
	if len(values) == 0 {
		return ""
	}

	trusted := r.precedence[0]
	for _, v := range values {
		if v.Source == trusted && len(v.Value) > r.trustedMin {
			return v.Value
		}
	}

	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v.Value]++
	}
	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	if maxCount >= 2 {
		return r.bestByPrecedence(values, func(v model.SourceValue) bool {
			return counts[v.Value] == maxCount
		})
	}

	maxLen := 0
	for _, v := range values {
		if len(v.Value) > maxLen {
			maxLen = len(v.Value)
		}
	}
	return r.bestByPrecedence(values, func(v model.SourceValue) bool {
		return len(v.Value) == maxLen
	})
}

// bestByPrecedence returns the value among candidates whose source
// ranks earliest in the precedence list.
func (r *Reconciler) bestByPrecedence(values []model.SourceValue, candidate func(model.SourceValue) bool) string {
	best := ""
	bestRank := len(r.precedence) + 1
	for _, v := range values {
		if !candidate(v) {
			continue
		}
		rank := r.rank(v.Source)
		if best == "" || rank < bestRank {
			best = v.Value
			bestRank = rank
		}
	}
	return best
}

func (r *Reconciler) rank(s model.Source) int {
	for i, p := range r.precedence {
		if p == s {
			return i
		}
	}
	return len(r.precedence)
}

// collectValues gathers trimmed, non-empty (source, value) pairs for a
// field across group members, in member order.
func collectValues(records []*model.Provider, field string) []model.SourceValue {
	var out []model.SourceValue
	for _, p := range records {
		if v := strings.TrimSpace(p.Field(field)); v != "" {
			out = append(out, model.SourceValue{Source: p.Source, Value: v})
		}
	}
	return out
}

// allValues gathers every member's value for a field, substituting an
// explicit placeholder for missing ones, for conflict reporting.
func allValues(records []*model.Provider, field string) []model.SourceValue {
	out := make([]model.SourceValue, 0, len(records))
	for _, p := range records {
		v := p.Field(field)
		if strings.TrimSpace(v) == "" {
			v = model.EmptyValue
		}
		out = append(out, model.SourceValue{Source: p.Source, Value: v})
	}
	return out
}

// distinctNormalized counts case-insensitively distinct values.
func distinctNormalized(values []model.SourceValue) int {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		seen[strings.ToLower(v.Value)] = true
	}
	return len(seen)
}

func hasConflict(conflicts []model.FieldConflict, field string) bool {
	for _, c := range conflicts {
		if c.Field == field {
			return true
		}
	}
	return false
}
