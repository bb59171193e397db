package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Success loading from env", func(t *testing.T) {
		// t.Setenv sets the environment variable for the duration of the test
		// and automatically restores it afterwards.
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("DB_USER", "testuser")
		t.Setenv("DB_PASSWORD", "testpass")
		t.Setenv("DB_NAME", "testdb")
		t.Setenv("DB_PORT", "5433")
		t.Setenv("APP_PORT", "9090")
		t.Setenv("APP_ENV", "test")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("JWT_TTL", "2h")
		t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")
		t.Setenv("LOYALTY_EARN_RATE", "0.05")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, "localhost", cfg.DBHost)
		assert.Equal(t, "testuser", cfg.DBUser)
		assert.Equal(t, "testpass", cfg.DBPassword)
		assert.Equal(t, "testdb", cfg.DBName)
		assert.Equal(t, "5433", cfg.DBPort)
		assert.Equal(t, "9090", cfg.AppPort)
		assert.Equal(t, "test", cfg.AppEnv)
		assert.Equal(t, "secret", cfg.JWTSecret)
		assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
		assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
		assert.InDelta(t, 0.05, cfg.LoyaltyEarnRate, 1e-9)
		assert.False(t, cfg.IsProduction())
	})

	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("JWT_SECRET", "secret")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, "5432", cfg.DBPort)
		assert.Equal(t, "disable", cfg.DBSSLMode)
		assert.Equal(t, 10*time.Second, cfg.NotifyTimeout)
		assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	})

	t.Run("Negative earn rate", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("LOYALTY_EARN_RATE", "-1")

		_, err := LoadConfig()
		assert.Error(t, err)
	})
}
