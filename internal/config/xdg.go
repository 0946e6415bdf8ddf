package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// ConfigDir returns the XDG-compliant config directory for keyring
// Typically ~/.config/keyring/ on Linux
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, "keyring")
}

// ConfigPath returns the full path to the config file
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json5")
}

// DataDir returns the XDG-compliant data directory for keyring
// Typically ~/.local/share/keyring/ on Linux (sample store, warning marker)
func DataDir() string {
	return filepath.Join(xdg.DataHome, "keyring")
}
