package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_HOST", "localhost")
	t.Setenv("DATABASE_DBNAME", "contests")
	t.Setenv("DATABASE_USER", "contests")
}

func TestLoad_DefaultsServerPort(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoad_ServerPortFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9000")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load("")

	assert.Error(t, err)
}

func TestLoad_RequiresDatabaseCoordinates(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_HOST", "")

	_, err := Load("")

	assert.Error(t, err)
}
