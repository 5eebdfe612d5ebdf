package enrich

import (
	"context"

	"github.com/sells-group/directory-cli/internal/model"
)

// Compile-time interface check.
var _ Client = (*StubClient)(nil)

// StubClient implements Client with canned suggestions for offline
// runs and tests. No network, no keys.
type StubClient struct{}

// SuggestCorrections returns a fixed suggestion for records with a
// suspiciously short phone value and an empty set otherwise.
func (s *StubClient) SuggestCorrections(_ context.Context, p *model.Provider) (*Suggestions, error) {
	if p.Phone != "" && len(p.Phone) < 7 {
		return &Suggestions{
			Fields:     map[string]string{"phone": "555-000-0000"},
			Issues:     []string{"phone number too short"},
			Adjustment: 0,
		}, nil
	}
	return Empty(), nil
}
