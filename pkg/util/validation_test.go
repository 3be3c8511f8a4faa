package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invitePayload struct {
	Email    string `json:"email" validate:"required,email"`
	Priority string `json:"priority" validate:"omitempty,oneof=Low High"`
}

func TestValidateStructReportsJSONNames(t *testing.T) {
	err := ValidateStruct(invitePayload{Email: "not-an-email", Priority: "Urgent"})
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeValidation))

	details := ToDomainError(err).Details
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "priority")
}

func TestValidateStructPasses(t *testing.T) {
	assert.NoError(t, ValidateStruct(invitePayload{Email: "a@b.io"}))
}

func TestValidateVar(t *testing.T) {
	assert.NoError(t, ValidateVar("email", "user@example.com", "required,email"))

	err := ValidateVar("email", "", "required,email")
	require.Error(t, err)
	assert.Equal(t, "field 'email' is required", ToDomainError(err).Message)
}
