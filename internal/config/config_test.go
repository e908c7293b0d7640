package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setDBEnv(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_USER", "editor")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "courses")
}

func TestLoad(t *testing.T) {
	setDBEnv(t)
	t.Setenv("SERVER_PORT", "")
	t.Setenv("MAX_REQUEST_SIZE", "")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a.local , ,http://b.local")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(10*1024*1024), cfg.Server.MaxRequestSize)
	assert.Equal(t, 100, cfg.Server.RateLimit)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing host", func(t *testing.T) {
		setDBEnv(t)
		t.Setenv("DB_HOST", "")

		_, err := Load()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "DB_HOST is required")
	})

	t.Run("invalid port", func(t *testing.T) {
		setDBEnv(t)
		t.Setenv("DB_PORT", "abc")

		_, err := Load()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid DB_PORT")
	})

	t.Run("invalid server port", func(t *testing.T) {
		setDBEnv(t)
		t.Setenv("SERVER_PORT", "http")

		_, err := Load()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid SERVER_PORT")
	})
}

func TestParseOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, parseOrigins(""))
	assert.Equal(t, []string{"*"}, parseOrigins(" , "))
	assert.Equal(t, []string{"http://a"}, parseOrigins("http://a"))
}

func TestDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Host: "db", Port: 3306, User: "u", Password: "p", DBName: "courses"}}

	dsn := cfg.DSN()

	assert.Contains(t, dsn, "u:p@tcp(db:3306)/courses?")
	assert.Contains(t, dsn, "clientFoundRows=true")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestLoadEditor(t *testing.T) {
	t.Setenv("EDITOR_BACKEND_URL", "http://api.local/")
	t.Setenv("EDITOR_TIMEOUT", "3s")

	cfg, err := LoadEditor()

	require.NoError(t, err)
	assert.Equal(t, "http://api.local", cfg.BackendURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout)

	t.Setenv("EDITOR_TIMEOUT", "soon")
	_, err = LoadEditor()
	assert.Error(t, err)
}
