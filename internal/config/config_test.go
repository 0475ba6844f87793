package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-sambat/internal/config"
)

// TestConstants_Integrity ensures critical constants are not empty or malformed.
func TestConstants_Integrity(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"AppName", config.AppName},
		{"AppID", config.AppID},
		{"Version", config.Version},
		{"UserAgent", config.UserAgent},
		{"ICalVersion", config.ICalVersion},
		{"ICalProdid", config.ICalProdid},
		{"DefaultBackendURL", config.DefaultBackendURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEmpty(t, tt.value, "Critical constant %s should not be empty", tt.name)
		})
	}
}

// TestUserAgent_Format ensures the UA string follows the standard format.
func TestUserAgent_Format(t *testing.T) {
	assert.True(t, strings.HasPrefix(config.UserAgent, "Go-Sambat/"), "UserAgent must start with AppName/")
}

func TestTimeoutsAndLimits(t *testing.T) {
	t.Parallel()

	assert.Greater(t, config.HTTPTimeout, 0*time.Second)
	assert.LessOrEqual(t, config.HTTPTimeout, 2*time.Minute)
	assert.Greater(t, config.ShutdownTimeout, 0*time.Second)
	assert.Greater(t, config.MaxHTTPResponseSize, 0)
	assert.Equal(t, []string{config.StatusOpen, config.StatusUpcoming, config.StatusClosed}, config.StatusOrder)
}

// writeSettings creates a settings file in a temp dir and returns its path.
func writeSettings(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "go-sambat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoader_Defaults(t *testing.T) {
	// No file on the search path means defaults only.
	l := config.NewLoader("")
	s, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, config.DefaultBackendURL, s.BackendURL)
	assert.Equal(t, config.SourceModeWeb, s.SourceMode)
	assert.Equal(t, config.DefaultLanguage, s.Language)
	assert.Equal(t, config.DefaultPort, s.ServerPort)
	assert.Equal(t, time.Duration(config.DefaultRefreshMin)*time.Minute, s.RefreshInterval())
	assert.Equal(t, "10:00", s.Notifications.MorningTime)
	assert.Equal(t, "19:00", s.Notifications.EveningTime)
	assert.True(t, s.MetricsEnabled)
	assert.Same(t, s, l.Current())
}

func TestLoader_FileAndEnv(t *testing.T) {
	path := writeSettings(t, `
backend_api_url: https://backend.example.com/api
language: ne
server_port: 19090
refresh_interval_min: 15
notifications:
  morning_time: "09:30"
  evening_time: ""
`)
	t.Setenv("SAMBAT_SERVER_PORT", "19191")

	s, err := config.NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "https://backend.example.com/api", s.BackendURL)
	assert.Equal(t, "ne", s.Language)
	assert.Equal(t, 19191, s.ServerPort, "environment must win over the file")
	assert.Equal(t, 15*time.Minute, s.RefreshInterval())
	assert.Equal(t, "09:30", s.Notifications.MorningTime)
	assert.Empty(t, s.Notifications.EveningTime)
}

func TestLoader_Override(t *testing.T) {
	l := config.NewLoader(writeSettings(t, "language: en\n"))
	l.Override(config.KeyLanguage, "ne")

	s, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "ne", s.Language)
}

func TestLoader_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"Bad morning time", "notifications:\n  morning_time: \"25:00\"\n"},
		{"Bad language", "language: fr\n"},
		{"Bad mode", "source_mode: ftp\n"},
		{"Local mode without path", "source_mode: local\n"},
		{"Port out of range", "server_port: 70000\n"},
		{"Bad URL", "backend_api_url: not a url\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.NewLoader(writeSettings(t, tt.body)).Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), config.ErrSettingsInvalid)
		})
	}
}

func TestLoader_MissingExplicitFile(t *testing.T) {
	_, err := config.NewLoader(filepath.Join(t.TempDir(), "absent.yaml")).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrSettingsRead)
}

func TestLoader_WatchReloads(t *testing.T) {
	path := writeSettings(t, "refresh_interval_min: 30\n")

	l := config.NewLoader(path)
	_, err := l.Load()
	require.NoError(t, err)
	changes := l.Watch()

	require.NoError(t, os.WriteFile(path, []byte("refresh_interval_min: 5\n"), config.FilePermUserRW))

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change signalled after editing the settings file")
	}
	assert.Equal(t, 5*time.Minute, l.Current().RefreshInterval())
}

func TestLoader_WatchWithoutFile(t *testing.T) {
	l := config.NewLoader("")
	_, err := l.Load()
	require.NoError(t, err)
	assert.NotNil(t, l.Watch(), "Defaults-only settings still return a usable channel")
}
