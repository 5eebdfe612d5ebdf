package model

// EmptyValue is the placeholder recorded for a source that has no
// value for a conflicting field.
const EmptyValue = "(empty)"

// SourceValue pairs a directory source with its raw value for a field.
type SourceValue struct {
	Source Source `json:"source"`
	Value  string `json:"value"`
}

// FieldConflict describes one field that disagrees across sources,
// with all source values and the value the reconciler chose.
type FieldConflict struct {
	Field          string        `json:"field"`
	Values         []SourceValue `json:"values"`
	CorrectedValue string        `json:"corrected_value"`
}

// CleanedRecord is the canonical record synthesized for one identity
// group: stable identity and credential fields from the group's first
// member plus the consistent-or-reconciled value for each comparison
// field. CorrectedFields lists the fields whose final value differs
// from the first member's original value.
type CleanedRecord struct {
	NPI             string   `json:"npi,omitempty"`
	Name            string   `json:"name"`
	Specialty       string   `json:"specialty,omitempty"`
	Organization    string   `json:"organization,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	Email           string   `json:"email,omitempty"`
	Website         string   `json:"website,omitempty"`
	Address         string   `json:"address,omitempty"`
	City            string   `json:"city,omitempty"`
	State           string   `json:"state,omitempty"`
	Zip             string   `json:"zip,omitempty"`
	LicenseNumber   string   `json:"license_number,omitempty"`
	LicenseState    string   `json:"license_state,omitempty"`
	CorrectedFields []string `json:"corrected_fields,omitempty"`
}

// Field returns the named comparison field value from the cleaned record.
func (c *CleanedRecord) Field(name string) string {
	switch name {
	case "phone":
		return c.Phone
	case "email":
		return c.Email
	case "website":
		return c.Website
	case "address":
		return c.Address
	case "city":
		return c.City
	case "state":
		return c.State
	case "zip":
		return c.Zip
	default:
		return ""
	}
}

// SetField sets the named comparison field on the cleaned record.
func (c *CleanedRecord) SetField(name, value string) {
	switch name {
	case "phone":
		c.Phone = value
	case "email":
		c.Email = value
	case "website":
		c.Website = value
	case "address":
		c.Address = value
	case "city":
		c.City = value
	case "state":
		c.State = value
	case "zip":
		c.Zip = value
	}
}

// Inconsistency reports one identity group with at least one
// conflicting field.
type Inconsistency struct {
	ProviderName       string          `json:"provider_name"`
	NPI                string          `json:"npi,omitempty"`
	Sources            []Source        `json:"sources"`
	InconsistentFields []FieldConflict `json:"inconsistent_fields"`
	CleanedRecord      *CleanedRecord  `json:"cleaned_record"`
}

// ReconcileReport is the output of one cross-source consistency run.
type ReconcileReport struct {
	TotalChecked      int             `json:"total_checked"`
	InconsistentCount int             `json:"inconsistent_count"`
	ConsistentCount   int             `json:"consistent_count"`
	Inconsistencies   []Inconsistency `json:"inconsistencies"`
	CleanedRecords    []CleanedRecord `json:"cleaned_records"`
	SourceCounts      map[Source]int  `json:"source_counts,omitempty"`
}

// ConsistencyScore is the share of checked groups with no conflicts,
// as a rounded percentage. Reports with nothing checked score 100.
func (r *ReconcileReport) ConsistencyScore() int {
	if r.TotalChecked == 0 {
		return 100
	}
	return int(float64(r.ConsistentCount)/float64(r.TotalChecked)*100 + 0.5)
}
