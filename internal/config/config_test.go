package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"INVESTA_API_URL", "INVESTA_API_PREFIX", "INVESTA_WEB_URL",
		"INVESTA_DATA_DIR", "INVESTA_LOG_LEVEL", "INVESTA_HTTP_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
	// Keep a developer's .env out of the test.
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, "http://localhost:3000", cfg.WebURL)
	assert.Equal(t, filepath.Join(home, ".investa"), cfg.DataDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.Timeout())
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("INVESTA_API_URL", "https://api.example.com/")
	t.Setenv("INVESTA_API_PREFIX", "v1/")
	t.Setenv("INVESTA_DATA_DIR", "/tmp/investa-test")
	t.Setenv("INVESTA_HTTP_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.APIURL)
	assert.Equal(t, "/v1", cfg.APIPrefix)
	assert.Equal(t, "/tmp/investa-test", cfg.DataDir)
	assert.Equal(t, 3*time.Second, cfg.Timeout())
}

func TestLoadRejectsBadURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("INVESTA_DATA_DIR", "/tmp/x")
	t.Setenv("INVESTA_API_URL", "localhost:8000")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVESTA_API_URL")
}

func TestTimeoutFallback(t *testing.T) {
	for _, raw := range []string{"", "soon", "-1s", "0s"} {
		c := &Config{HTTPTimeout: raw}
		assert.Equal(t, 10*time.Second, c.Timeout(), "HTTPTimeout=%q", raw)
	}
}

func TestNormalizePrefix(t *testing.T) {
	tests := map[string]string{
		"/api":    "/api",
		"api":     "/api",
		"/api/":   "/api",
		"/":       "",
		"":        "",
		" /a/b/ ": "/a/b",
		"//api//": "/api",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePrefix(in), "NormalizePrefix(%q)", in)
	}
}

func TestSetAPIURL(t *testing.T) {
	c := &Config{APIURL: "http://localhost:8000"}
	require.NoError(t, c.SetAPIURL("http://127.0.0.1:9000/"))
	assert.Equal(t, "http://127.0.0.1:9000", c.APIURL)
	require.Error(t, c.SetAPIURL("ftp://example.com"))
	assert.Equal(t, "http://127.0.0.1:9000", c.APIURL)
}
