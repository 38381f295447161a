package testutil

import (
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// T is the part of testing.TB the non-fatal assertions use.
type T interface {
	Helper()
	Errorf(format string, args ...any)
}

// TierNames are the three wire values of a risk tier.
var TierNames = []string{"HIGH", "MEDIUM", "LOW"}

// RequireNoError fails the test immediately if err is not nil.
func RequireNoError(t *testing.T, err error, msgAndArgs ...any) {
	t.Helper()
	require.NoError(t, err, msgAndArgs...)
}

// AssertErrorContains checks that err is non-nil and its message contains want.
// A nil error is reported once rather than followed by a nil dereference.
func AssertErrorContains(t T, err error, want string) bool {
	t.Helper()
	if err == nil {
		return assert.Fail(t, fmt.Sprintf("expected an error containing %q, got nil", want))
	}
	return assert.Contains(t, err.Error(), want)
}

// AssertConfidence checks that v is a finite value in [0, 1].
func AssertConfidence(t T, v float64, msgAndArgs ...any) bool {
	t.Helper()
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 1 {
		return assert.Fail(t, fmt.Sprintf("confidence %v outside [0, 1]", v), msgAndArgs...)
	}
	return true
}

// AssertTier checks that tier is one of TierNames.
func AssertTier(t T, tier string, msgAndArgs ...any) bool {
	t.Helper()
	if !slices.Contains(TierNames, tier) {
		return assert.Fail(t, fmt.Sprintf("unknown risk tier %q", tier), msgAndArgs...)
	}
	return true
}
