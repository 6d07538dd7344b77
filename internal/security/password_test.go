package security_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aryan01101/ELEC5620-Stage2-YAAKE/internal/security"
)

func TestHashPassword(t *testing.T) {
	h, err := security.HashPassword("Test@123456")
	require.NoError(t, err)
	assert.NotEqual(t, "Test@123456", h)
	assert.Greater(t, len(h), 50)

	assert.True(t, security.CheckPassword(h, "Test@123456"))
	assert.False(t, security.CheckPassword(h, "Test@123457"))
	assert.False(t, security.CheckPassword(h, ""))
}

func TestNewToken(t *testing.T) {
	a, err := security.NewToken()
	require.NoError(t, err)
	b, err := security.NewToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
