package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"metaproxy/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetAfter removes keys that godotenv may export during a test.
func unsetAfter(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		require.NoError(t, os.Unsetenv(key))
	}
	t.Cleanup(func() {
		for _, key := range keys {
			_ = os.Unsetenv(key)
		}
	})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_WithDefaults(t *testing.T) {
	config, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, models.SecurityModeLogOnly, config.Security.Mode)
	assert.Equal(t, 60*time.Second, config.Security.RateLimit.Window)
	assert.Equal(t, 30, config.Security.RateLimit.MaxRequests)
	assert.Equal(t, 300*time.Second, config.Security.RateLimit.BanDuration)
	assert.Equal(t, "https://accounts.spotify.com/api/token", config.Upstream.Spotify.TokenURL)
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	configFile := writeFile(t, "config.yaml", `
server:
  port: 8080
  host: "localhost"
  read_timeout: 30s

security:
  mode: strict
  min_client_version: "2.1.0"
  latest_client_version: "2.2.0"
  rate_limit:
    window: 30s
    max_requests: 10
    ban_duration: 10m
    cleanup_interval: 1m

upstream:
  timeout: 5s
  tmdb:
    api_key: "tmdb-from-file"
  discord:
    client_id: "123456"

logging:
  level: "DEBUG"
  format: "text"
  output: "stdout"

metrics:
  enabled: false
`)

	config, err := Load(configFile, "")
	require.NoError(t, err)

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 30*time.Second, config.Server.ReadTimeout)

	assert.Equal(t, models.SecurityModeStrict, config.Security.Mode, "mode is normalised to upper case")
	assert.Equal(t, "2.1.0", config.Security.MinClientVersion)
	assert.Equal(t, "2.2.0", config.Security.LatestVersion())
	assert.Equal(t, 30*time.Second, config.Security.RateLimit.Window)
	assert.Equal(t, 10, config.Security.RateLimit.MaxRequests)
	assert.Equal(t, 10*time.Minute, config.Security.RateLimit.BanDuration)

	assert.Equal(t, 5*time.Second, config.Upstream.Timeout)
	assert.Equal(t, "tmdb-from-file", config.Upstream.TMDB.APIKey)
	assert.Equal(t, "https://api.themoviedb.org/3", config.Upstream.TMDB.APIBaseURL, "unset keys keep defaults")
	assert.Equal(t, "123456", config.Upstream.Discord.ClientID)

	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "text", config.Logging.Format)
	assert.False(t, config.Metrics.Enabled)
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("SECURITY_MODE", "STRICT")
	t.Setenv("MIN_CLIENT_VERSION", "2.1.0")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "50")
	t.Setenv("RATE_LIMIT_BAN_DURATION", "2m")
	t.Setenv("SPOTIFY_CLIENT_ID", "spotify-id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "spotify-secret")
	t.Setenv("TMDB_API_KEY", "tmdb-key")
	t.Setenv("GOOGLE_BOOKS_KEY", "books-key")
	t.Setenv("DISCORD_CLIENT_ID", "987")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("METRICS_ENABLED", "false")

	config, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, 4000, config.Server.Port)
	assert.True(t, config.Security.Strict())
	assert.Equal(t, "2.1.0", config.Security.MinClientVersion)
	assert.Equal(t, 50, config.Security.RateLimit.MaxRequests)
	assert.Equal(t, 2*time.Minute, config.Security.RateLimit.BanDuration)
	assert.Equal(t, "spotify-id", config.Upstream.Spotify.ClientID)
	assert.Equal(t, "spotify-secret", config.Upstream.Spotify.ClientSecret)
	assert.Equal(t, "tmdb-key", config.Upstream.TMDB.APIKey)
	assert.Equal(t, "books-key", config.Upstream.GoogleBooks.APIKey)
	assert.Equal(t, "987", config.Upstream.Discord.ClientID)
	assert.Equal(t, "warn", config.Logging.Level)
	assert.False(t, config.Metrics.Enabled)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	configFile := writeFile(t, "config.yaml", `
security:
  mode: LOG_ONLY
  min_client_version: "1.5.0"
`)
	t.Setenv("MIN_CLIENT_VERSION", "3.0.0")

	config, err := Load(configFile, "")
	require.NoError(t, err)

	assert.Equal(t, "3.0.0", config.Security.MinClientVersion)
	assert.Equal(t, models.SecurityModeLogOnly, config.Security.Mode)
}

func TestLoad_WithEnvFile(t *testing.T) {
	unsetAfter(t, "SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_SECRET", "DISCORD_CLIENT_ID")
	envFile := writeFile(t, ".env", `
SPOTIFY_CLIENT_ID=from-dotenv
SPOTIFY_CLIENT_SECRET=secret-from-dotenv
DISCORD_CLIENT_ID=dotenv-discord
`)

	config, err := Load("", envFile)
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", config.Upstream.Spotify.ClientID)
	assert.Equal(t, "secret-from-dotenv", config.Upstream.Spotify.ClientSecret)
	assert.Equal(t, "dotenv-discord", config.Upstream.Discord.ClientID)
}

func TestLoad_EnvFileNeverOverridesEnvironment(t *testing.T) {
	unsetAfter(t, "TMDB_API_KEY")
	t.Setenv("TMDB_API_KEY", "real-env")
	envFile := writeFile(t, ".env", "TMDB_API_KEY=from-file\n")

	config, err := Load("", envFile)
	require.NoError(t, err)

	assert.Equal(t, "real-env", config.Upstream.TMDB.APIKey)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load env file")
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/non/existent/config.yaml", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_InvalidYAML(t *testing.T) {
	configFile := writeFile(t, "invalid.yaml", `
server:
  port: 8080
  host: "localhost"
    invalid_indentation: true
`)

	_, err := Load(configFile, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML config")
}

func TestLoad_EmptyConfigFile(t *testing.T) {
	configFile := writeFile(t, "empty.yaml", "")

	config, err := Load(configFile, "")
	require.NoError(t, err)
	assert.Equal(t, models.NewDefaultConfig().Server.Port, config.Server.Port)
}

func TestLoad_InvalidEnvironmentValue(t *testing.T) {
	t.Setenv("RATE_LIMIT_WINDOW", "sixty")

	_, err := Load("", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse environment")
}

func TestLoad_ValidationFailure(t *testing.T) {
	t.Setenv("SECURITY_MODE", "paranoid")

	_, err := Load("", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), "invalid security mode")
}

func TestLoad_SpotifyCredentialsMustBePaired(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "only-id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "")

	_, err := Load("", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be set together")
}

func TestSaveExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.example.yaml")

	require.NoError(t, SaveExample(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "min_client_version: 2.1.0")

	config, err := Load(path, "")
	require.NoError(t, err)
	assert.True(t, config.Security.Strict())
	assert.Equal(t, "your-discord-application-id", config.Upstream.Discord.ClientID)
}
