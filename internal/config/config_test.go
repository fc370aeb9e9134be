package config_test

import (
	"forensiai/backend/internal/config"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ConnectedServerNeedsJWTSecret(t *testing.T) {
	cfg := config.Config{DatabaseURL: "postgres://forensiai@db/forensiai"}

	err := cfg.Validate()

	assert.ErrorIs(t, err, config.ErrMissingJWTSecret)
	assert.Empty(t, cfg.JWTSecret)
}

func TestValidate_OfflineFallsBackToDevSecret(t *testing.T) {
	cfg := config.Config{}

	require.NoError(t, cfg.Validate())

	assert.Equal(t, config.DevJWTSecret, cfg.JWTSecret)
}

func TestValidate_KeepsConfiguredSecret(t *testing.T) {
	cfg := config.Config{DatabaseURL: "postgres://forensiai@db/forensiai", JWTSecret: "s3cret"}

	require.NoError(t, cfg.Validate())

	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("OFFLINE_ACCESS_TOKEN", "open-sesame")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg := config.Load()

	assert.Empty(t, cfg.JWTSecret)
	assert.Equal(t, "open-sesame", cfg.OfflineAccessToken)
	assert.Equal(t, 20, cfg.DBMaxConns)
}
