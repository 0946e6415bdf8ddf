package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useConfigHome points the XDG config dir at a temp dir for one test.
func useConfigHome(t *testing.T) string {
	t.Helper()
	old := xdg.ConfigHome
	xdg.ConfigHome = t.TempDir()
	t.Cleanup(func() { xdg.ConfigHome = old })
	return xdg.ConfigHome
}

func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json5"))
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoadJSON5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	data := `{
  // comments and trailing commas are fine
  store: "sample",
  sample_file: "/tmp/creds.yaml",
  keyring_backend: "file,pass",
}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "sample", cfg.Store)
	assert.Equal(t, "/tmp/creds.yaml", cfg.SampleFile)
	assert.Equal(t, "file,pass", cfg.KeyringBackend)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	require.NoError(t, os.WriteFile(path, []byte("{store:"), 0600))
	_, err := LoadFrom(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestKeys(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, []string{"store", "sample_file", "keyring_service", "keyring_backend", "default_output"}, cfg.Keys())
}

func TestGetSetUnset(t *testing.T) {
	home := useConfigHome(t)
	cfg := &Config{}

	require.NoError(t, cfg.Set("store", "keyring"))
	require.NoError(t, cfg.Set("keyring_service", "work"))
	v, err := cfg.Get("store")
	require.NoError(t, err)
	assert.Equal(t, "keyring", v)

	path := filepath.Join(home, "keyring", "config.json5")
	assert.Equal(t, path, ConfigPath())
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "keyring", loaded.Store)
	assert.Equal(t, "work", loaded.KeyringService)

	require.NoError(t, loaded.Unset("store"))
	reloaded, err := Load()
	require.NoError(t, err)
	assert.Empty(t, reloaded.Store)
	assert.Equal(t, "work", reloaded.KeyringService)
}

func TestUnknownKey(t *testing.T) {
	useConfigHome(t)
	cfg := &Config{}

	_, err := cfg.Get("region")
	assert.ErrorContains(t, err, "unknown config key")
	assert.Error(t, cfg.Set("region", "us"))
	assert.Error(t, cfg.Unset("region"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr bool
	}{
		{name: "valid store", key: "store", value: "sample"},
		{name: "invalid store", key: "store", value: "vault", wantErr: true},
		{name: "valid output", key: "default_output", value: "json"},
		{name: "invalid output", key: "default_output", value: "xml", wantErr: true},
		{name: "free-form key", key: "sample_file", value: "anything"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.key, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
