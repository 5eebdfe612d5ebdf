// Package validate applies per-field format and completeness rules to
// a provider record and turns the accumulated deductions into a bounded
// confidence score. Validation is pure: bad data is never an error,
// only a scored outcome.
package validate

import (
	"regexp"
	"strings"

	"github.com/sells-group/directory-cli/internal/config"
	"github.com/sells-group/directory-cli/internal/model"
)

var (
	phoneRe   = regexp.MustCompile(`^[+]?[(]?[0-9]{3}[)]?[-\s.]?[0-9]{3}[-\s.]?[0-9]{4,6}$`)
	emailRe   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	websiteRe = regexp.MustCompile(`^(https?://)?([\da-z.-]+)\.([a-z.]{2,6})([/\w .-]*)*/?$`)
	zipRe     = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	npiRe     = regexp.MustCompile(`^\d{10}$`)
)

const minLicenseLength = 5

// Validator evaluates provider fields using configured deduction weights.
type Validator struct {
	cfg config.ValidationConfig
}

// New creates a Validator.
func New(cfg config.ValidationConfig) *Validator {
	return &Validator{cfg: cfg}
}

// Validate classifies each field of p and returns the tri-state result
// set plus the total score deduction. A zero-valued field status means
// the field was not evaluated at all.
//
// Missing phone and incomplete address are penalized like failures;
// missing email, website, and license are exempt. The asymmetry is
// deliberate and matches the directory product's scoring rules.
func (v *Validator) Validate(p *model.Provider) (model.ValidationResults, int) {
	var results model.ValidationResults
	deduction := 0

	// Phone: required.
	if phone := strings.TrimSpace(p.Phone); phone != "" {
		if phoneRe.MatchString(strings.ReplaceAll(phone, " ", "")) {
			results.Phone = model.FieldValid
		} else {
			results.Phone = model.FieldInvalid
			deduction += v.cfg.PhoneDeduction
		}
	} else {
		results.Phone = model.FieldInvalid
		deduction += v.cfg.PhoneDeduction
	}

	// Email: optional.
	if email := strings.TrimSpace(p.Email); email != "" {
		if emailRe.MatchString(email) {
			results.Email = model.FieldValid
		} else {
			results.Email = model.FieldInvalid
			deduction += v.cfg.EmailDeduction
		}
	} else {
		results.Email = model.FieldNotApplicable
	}

	// Website: optional.
	if site := strings.TrimSpace(p.Website); site != "" {
		if websiteRe.MatchString(strings.ToLower(site)) {
			results.Website = model.FieldValid
		} else {
			results.Website = model.FieldInvalid
			deduction += v.cfg.WebsiteDeduction
		}
	} else {
		results.Website = model.FieldNotApplicable
	}

	// Address completeness: street, city, state, and zip must all be present.
	if strings.TrimSpace(p.Address) != "" &&
		strings.TrimSpace(p.City) != "" &&
		strings.TrimSpace(p.State) != "" &&
		strings.TrimSpace(p.Zip) != "" {
		results.Address = model.FieldValid
	} else {
		results.Address = model.FieldInvalid
		deduction += v.cfg.AddressDeduction
	}

	// Zip format: only evaluated when present.
	if zip := strings.TrimSpace(p.Zip); zip != "" {
		if zipRe.MatchString(zip) {
			results.Zip = model.FieldValid
		} else {
			results.Zip = model.FieldInvalid
			deduction += v.cfg.ZipDeduction
		}
	}

	// License number: optional, basic length check.
	if lic := strings.TrimSpace(p.LicenseNumber); lic != "" {
		if len(lic) >= minLicenseLength {
			results.License = model.FieldValid
		} else {
			results.License = model.FieldInvalid
			deduction += v.cfg.LicenseDeduction
		}
	} else {
		results.License = model.FieldNotApplicable
	}

	// NPI: only evaluated when present.
	if npi := strings.TrimSpace(p.NPI); npi != "" {
		if npiRe.MatchString(npi) {
			results.NPI = model.FieldValid
		} else {
			results.NPI = model.FieldInvalid
			deduction += v.cfg.NPIDeduction
		}
	}

	return results, deduction
}

// Score converts a total deduction plus an optional enrichment
// adjustment into a confidence score clamped to [0,100] and the
// resulting initial status. The status is assigned exactly once, here;
// later review actions move it independently.
func (v *Validator) Score(deduction, adjustment int) (int, model.RecordStatus) {
	score := 100 - deduction + adjustment
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	if score < v.cfg.ScoreThreshold {
		return score, model.StatusFlagged
	}
	return score, model.StatusValidated
}
