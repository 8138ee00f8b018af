package timezone

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keepLocal(t *testing.T) {
	t.Helper()
	prev := time.Local
	t.Setenv(EnvVar, os.Getenv(EnvVar))
	t.Cleanup(func() { time.Local = prev })
}

func TestEnforce(t *testing.T) {
	keepLocal(t)

	var e Enforcer
	require.NoError(t, e.Enforce("Asia/Tokyo"))

	assert.Equal(t, "Asia/Tokyo", os.Getenv(EnvVar))
	assert.Equal(t, "Asia/Tokyo", time.Local.String())
	require.NotNil(t, e.Current())
	assert.Equal(t, "Asia/Tokyo", e.Current().String())

	_, offset := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local).Zone()
	assert.Equal(t, 9*60*60, offset)
}

func TestEnforceIsIdempotent(t *testing.T) {
	keepLocal(t)

	var e Enforcer
	require.NoError(t, e.Enforce("America/Los_Angeles"))
	require.NoError(t, e.Enforce("America/Los_Angeles"))
	assert.Equal(t, "America/Los_Angeles", e.Current().String())
}

func TestEnforceInvalidKeepsPreviousZone(t *testing.T) {
	keepLocal(t)

	var e Enforcer
	require.NoError(t, e.Enforce("Europe/London"))

	err := e.Enforce("Not/AZone")
	require.ErrorIs(t, err, ErrInvalidZone)

	assert.Equal(t, "Not/AZone", os.Getenv(EnvVar), "variable is written before resolution")
	assert.Equal(t, "Europe/London", time.Local.String())
	assert.Equal(t, "Europe/London", e.Current().String())
}

func TestEnforceRejectsEmptyAndLocal(t *testing.T) {
	keepLocal(t)

	var e Enforcer
	assert.ErrorIs(t, e.Enforce(""), ErrInvalidZone)
	assert.ErrorIs(t, e.Enforce("Local"), ErrInvalidZone)
	assert.Nil(t, e.Current())
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("Asia/Tokyo"))
	assert.True(t, Valid("UTC"))
	assert.False(t, Valid("Not/AZone"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("Local"))
}
