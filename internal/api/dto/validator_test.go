package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/campus-assist/pkg/util/errorutil"
)

func TestValidateCreatePayload(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, Validate(v, CreateHelpRequestRequest{Category: "Medical", Location: "Block A"}))
	assert.NoError(t, Validate(v, CreateHelpRequestRequest{Category: "Safety", Priority: "Emergency", Location: "Gate"}))

	err := Validate(v, CreateHelpRequestRequest{Category: "Plumbing", Priority: "Urgent"})
	require.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	fields := apperrors.ToDomainError(err).Details["fields"].(map[string]any)
	assert.Equal(t, "oneof", fields["Category"])
	assert.Equal(t, "oneof", fields["Priority"])
	assert.Equal(t, "required", fields["Location"])
}

func TestValidateTransitionStatus(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, Validate(v, TransitionRequest{Status: "In Progress"}))
	assert.True(t, apperrors.HasCode(Validate(v, TransitionRequest{Status: "Reopened"}), apperrors.CodeValidation))
	assert.True(t, apperrors.HasCode(Validate(v, TransitionRequest{}), apperrors.CodeValidation))
}
