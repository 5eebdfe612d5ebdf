// Package ingest parses provider directory files (CSV and XLSX) into
// records ready for validation. Column headers are matched loosely so
// exports from different directory systems load without manual mapping.
package ingest

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/directory-cli/internal/model"
)

// columnAliases maps canonical record fields to the header spellings
// seen in real directory exports.
var columnAliases = map[string][]string{
	"npi":            {"npi", "npi_number", "provider_npi"},
	"name":           {"name", "provider_name", "full_name", "provider"},
	"specialty":      {"specialty", "speciality", "taxonomy"},
	"organization":   {"organization", "org", "practice", "practice_name", "group_name"},
	"phone":          {"phone", "telephone", "phone_number", "tel"},
	"email":          {"email", "e_mail", "email_address"},
	"website":        {"website", "url", "web", "site"},
	"address":        {"address", "street", "street_address", "address_1", "address1"},
	"city":           {"city", "town"},
	"state":          {"state", "st"},
	"zip":            {"zip", "zipcode", "zip_code", "postal_code"},
	"license_number": {"license_number", "license", "license_no", "license_num"},
	"license_state":  {"license_state", "licensing_state"},
}

// normalizeHeader folds a raw header cell into alias-lookup form.
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, "-", "_")
	h = strings.ReplaceAll(h, ".", "")
	h = strings.ReplaceAll(h, "#", "")
	return strings.Trim(h, "_")
}

// MapHeader resolves a header row to canonical field names by column
// index. Unrecognized columns are omitted.
func MapHeader(header []string) map[int]string {
	aliasIndex := make(map[string]string)
	for field, aliases := range columnAliases {
		for _, a := range aliases {
			aliasIndex[a] = field
		}
	}

	mapped := make(map[int]string)
	for i, h := range header {
		if field, ok := aliasIndex[normalizeHeader(h)]; ok {
			mapped[i] = field
		}
	}
	return mapped
}

// RecordFromRow builds a provider record from one data row. Returns nil
// when the row carries no name, which marks it unloadable.
func RecordFromRow(columns map[int]string, row []string, source model.Source) *model.Provider {
	p := &model.Provider{Source: source, Status: model.StatusPending}

	for i, field := range columns {
		if i >= len(row) {
			continue
		}
		val := strings.TrimSpace(row[i])
		switch field {
		case "npi":
			p.NPI = val
		case "name":
			p.Name = val
		case "specialty":
			p.Specialty = val
		case "organization":
			p.Organization = val
		case "license_number":
			p.LicenseNumber = val
		case "license_state":
			p.LicenseState = val
		default:
			p.SetField(field, val)
		}
	}

	if p.Name == "" {
		return nil
	}
	p.OriginalData = p.Snapshot()
	return p
}

// buildRecords maps parsed rows to provider records, dropping nameless rows.
func buildRecords(columns map[int]string, rows [][]string, source model.Source, format string) []*model.Provider {
	var out []*model.Provider
	skipped := 0
	for _, row := range rows {
		p := RecordFromRow(columns, row, source)
		if p == nil {
			skipped++
			continue
		}
		out = append(out, p)
	}
	if skipped > 0 {
		zap.L().Warn("skipped rows without a provider name",
			zap.String("format", format),
			zap.Int("skipped", skipped),
		)
	}
	return out
}
