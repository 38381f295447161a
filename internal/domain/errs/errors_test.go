package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/vulntriage/internal/domain/errs"
)

func TestScoringFailure(t *testing.T) {
	cause := fmt.Errorf("dimension mismatch")
	err := error(errs.NewScoringFailure("CVE-2024-0001", errs.StageRisk, cause))

	assert.Equal(t, "scoring CVE-2024-0001 failed at risk: dimension mismatch", err.Error())
	assert.True(t, errors.Is(err, cause))

	var failure *errs.ScoringFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, "CVE-2024-0001", failure.RecordID)
	assert.Equal(t, errs.StageRisk, failure.Stage)
}

func TestScoringFailure_NoRecordID(t *testing.T) {
	err := errs.NewScoringFailure("", errs.StageTransform, fmt.Errorf("boom"))
	assert.Equal(t, "scoring failed at transform: boom", err.Error())
}

func TestWrappers(t *testing.T) {
	t.Run("invalid input", func(t *testing.T) {
		err := errs.InvalidInput("days_back must be in [1,30], got %d", 31)
		assert.True(t, errors.Is(err, errs.ErrInvalidInput))
		assert.Contains(t, err.Error(), "got 31")
	})

	t.Run("upstream", func(t *testing.T) {
		err := errs.Upstream("status %d", 503)
		assert.True(t, errors.Is(err, errs.ErrUpstreamUnavailable))
		assert.False(t, errors.Is(err, errs.ErrInvalidInput))
	})
}
