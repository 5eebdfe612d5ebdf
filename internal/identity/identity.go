// Package identity derives deterministic grouping keys for provider
// records so the same real-world entity can be found across
// independently maintained directories.
package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/directory-cli/internal/model"
)

// foldDiacritics strips combining marks so accented and unaccented
// spellings of the same name produce the same key.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Key derives the identity key for a record: the trimmed NPI when
// present, otherwise the normalized name. Returns the empty string
// when neither yields a usable key; such records stay unmatched.
//
// The name fallback is lossy: two distinct providers with colliding
// normalized names group together. That is an accepted limitation,
// not detected here.
func Key(npi, name string) string {
	if k := strings.TrimSpace(npi); k != "" {
		return k
	}
	return NormalizeName(name)
}

// NormalizeName lowercases a name, folds diacritics, and removes every
// non-alphabetic character.
func NormalizeName(name string) string {
	folded, _, err := transform.String(foldDiacritics, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Group is a set of records sharing one identity key.
type Group struct {
	Key     string
	Records []*model.Provider
}

// Sources returns the distinct sources represented in the group, in
// first-seen order.
func (g *Group) Sources() []model.Source {
	seen := make(map[model.Source]bool, len(g.Records))
	var out []model.Source
	for _, p := range g.Records {
		if p.Source == "" || seen[p.Source] {
			continue
		}
		seen[p.Source] = true
		out = append(out, p.Source)
	}
	return out
}

// GroupRecords buckets records by identity key, preserving first-seen
// key order and input order within each group. Records with no usable
// key are excluded.
func GroupRecords(records []*model.Provider) []Group {
	byKey := make(map[string]int)
	var groups []Group

	for _, p := range records {
		key := Key(p.NPI, p.Name)
		if key == "" {
			continue
		}
		idx, ok := byKey[key]
		if !ok {
			idx = len(groups)
			byKey[key] = idx
			groups = append(groups, Group{Key: key})
		}
		groups[idx].Records = append(groups[idx].Records, p)
	}

	return groups
}

// MultiSource filters groups down to those spanning at least two
// distinct sources, the only groups eligible for reconciliation.
func MultiSource(groups []Group) []Group {
	var out []Group
	for _, g := range groups {
		if len(g.Sources()) >= 2 {
			out = append(out, g)
		}
	}
	return out
}
