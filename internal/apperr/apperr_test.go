package apperr

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestSentinels_surviveWrapping(t *testing.T) {
	err := Validation("owner cannot be an admin user")
	err = errors.Wrap(err, "submit tracking")

	require.True(t, IsValidation(err))
	require.False(t, IsNotFound(err))
	require.Contains(t, err.Error(), "owner cannot be an admin user")
}

func TestNotFound(t *testing.T) {
	err := NotFound("shipping mark")
	require.True(t, IsNotFound(err))
	require.False(t, IsPermission(err))
}

func TestValidationf(t *testing.T) {
	err := Validationf("unknown status %q", "shipped")
	require.True(t, IsValidation(err))
	require.Contains(t, err.Error(), `unknown status "shipped"`)
}
