package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitedCarriesRetryAfter(t *testing.T) {
	err := NewRateLimited("cooldown active", 90*time.Second)

	wait, ok := RetryAfter(err)
	require.True(t, ok)
	assert.Equal(t, 90*time.Second, wait)

	de := ToDomainError(err)
	assert.Equal(t, http.StatusTooManyRequests, de.HTTPStatus)
	assert.Equal(t, 2, de.Details["retry_after_minutes"])
}

func TestHasCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("transition: %w", NewComplianceError("notes required", nil))

	assert.True(t, HasCode(err, CodeCompliance))
	assert.False(t, HasCode(err, CodeGovernance))
	assert.False(t, HasCode(errors.New("plain"), CodeCompliance))
}

func TestToDomainErrorFallsBackToInternal(t *testing.T) {
	de := ToDomainError(errors.New("boom"))

	assert.Equal(t, CodeInternal, de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.Nil(t, ToDomainError(nil))

	_, ok := RetryAfter(NewNotFound("request", nil))
	assert.False(t, ok)
}
