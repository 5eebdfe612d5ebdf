package resilience

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit transient", NewTransientError(errors.New("overloaded"), 529), true},
		{"wrapped transient", fmt.Errorf("store: %w", NewTransientError(errors.New("busy"), 503)), true},
		{"sqlite lock", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"pg deadlock", errors.New("ERROR: deadlock detected (SQLSTATE 40P01)"), true},
		{"pg connection limit", errors.New("FATAL: too many connections"), true},
		{"io timeout", errors.New("read tcp 10.0.0.1:5432: i/o timeout"), true},
		{"validation error", errors.New("provider name is required"), false},
		{"illegal transition", errors.New("illegal status transition approved -> rejected"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTransient(tc.err); got != tc.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("expected %d to be transient", code)
		}
	}
	for _, code := range []int{200, 400, 401, 404, 422} {
		if IsTransientHTTPStatus(code) {
			t.Errorf("expected %d to be permanent", code)
		}
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	base := errors.New("base")
	te := NewTransientError(base, 500)
	if !errors.Is(te, base) {
		t.Error("expected errors.Is to find the wrapped error")
	}
	if te.Error() != "base" {
		t.Errorf("unexpected message %q", te.Error())
	}
}
