package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/effective-security/agentools/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "toolset.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
	return file
}

func TestLoad(t *testing.T) {
	t.Setenv("TOOLSET_TOKEN", "tok-123")

	file := writeConfig(t, `
name: hris
base_url: https://api.example.com
auth:
  type: bearer
  token: ${TOOLSET_TOKEN}
headers:
  X-Account-Id: acc-1
`)
	cfg, err := config.Load(file)
	require.NoError(t, err)
	assert.Equal(t, "hris", cfg.Name)
	assert.Equal(t, "https://api.example.com", cfg.BaseURL)

	headers := cfg.Headers()
	assert.Equal(t, "Bearer tok-123", headers["Authorization"])
	assert.Equal(t, "acc-1", headers["X-Account-Id"])
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Headers())
}

func TestLoadNotFound(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tcases := []struct {
		name   string
		cfg    config.Config
		expErr string
	}{
		{
			name: "no auth",
			cfg:  config.Config{Name: "crm"},
		},
		{
			name: "basic",
			cfg: config.Config{
				Auth: config.AuthConfig{Type: "basic", Username: "u", Password: "p"},
			},
		},
		{
			name: "basic missing password",
			cfg: config.Config{
				Auth: config.AuthConfig{Type: "basic", Username: "u"},
			},
			expErr: "basic auth requires username and password",
		},
		{
			name: "bearer missing token",
			cfg: config.Config{
				Auth: config.AuthConfig{Type: "bearer"},
			},
			expErr: "bearer auth requires a token",
		},
		{
			name: "unknown auth type",
			cfg: config.Config{
				Auth: config.AuthConfig{Type: "oauth"},
			},
			expErr: "invalid configuration",
		},
		{
			name: "invalid base url",
			cfg: config.Config{
				BaseURL: "not a url",
			},
			expErr: "invalid configuration",
		},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.expErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expErr)
			}
		})
	}
}

func TestHeadersBasic(t *testing.T) {
	cfg := config.Config{
		Auth: config.AuthConfig{Type: "basic", Username: "user", Password: "pass"},
	}
	// base64("user:pass")
	assert.Equal(t, "Basic dXNlcjpwYXNz", cfg.Headers()["Authorization"])
}
