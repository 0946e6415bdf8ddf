package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/semmy-space/keyring/internal/config"
	"github.com/semmy-space/keyring/internal/output"
	"github.com/semmy-space/keyring/pkg/keyring"
	"github.com/semmy-space/keyring/pkg/keyringstore"
	"github.com/semmy-space/keyring/pkg/mock"
	"github.com/semmy-space/keyring/pkg/sample"
)

// StoreProvider opens the selected store on first use, so commands that
// never touch credentials (config, version) never open a keyring.
type StoreProvider struct {
	globals *Globals
	cfg     *config.Config

	once  sync.Once
	store keyring.Store
	err   error
}

// NewStoreProvider creates a provider resolving the store from flags and config
func NewStoreProvider(g *Globals, cfg *config.Config) *StoreProvider {
	return &StoreProvider{globals: g, cfg: cfg}
}

// Store opens the store and installs it as the keyring default
func (p *StoreProvider) Store() (keyring.Store, error) {
	p.once.Do(func() {
		p.store, p.err = openStore(p.globals, p.cfg)
		if p.err == nil {
			keyring.SetDefaultStore(p.store)
		}
	})
	return p.store, p.err
}

// storeKind resolves the backend: CLI flag (or env) > config > auto
func storeKind(g *Globals, cfg *config.Config) string {
	if g.Store != "" {
		return g.Store
	}
	if cfg.Store != "" {
		return cfg.Store
	}
	return "auto"
}

// samplePath resolves the sample backing file: CLI flag (or env) > config > XDG default
func samplePath(g *Globals, cfg *config.Config) string {
	if g.File != "" {
		return g.File
	}
	if cfg.SampleFile != "" {
		return cfg.SampleFile
	}
	return sample.DefaultPath()
}

// keyringConfig builds the OS keyring settings from config
func keyringConfig(cfg *config.Config) keyringstore.Config {
	kc := keyringstore.Config{ServiceName: cfg.KeyringService}
	for _, b := range strings.Split(cfg.KeyringBackend, ",") {
		if b = strings.TrimSpace(b); b != "" {
			kc.Backends = append(kc.Backends, b)
		}
	}
	return kc
}

// openStore creates the store instance for the resolved backend.
// "auto" tries the OS keyring first and falls back to the sample store,
// which is also used directly on WSL and headless machines.
func openStore(g *Globals, cfg *config.Config) (keyring.Store, error) {
	switch kind := storeKind(g, cfg); kind {
	case "sample":
		return sample.Open(samplePath(g, cfg))
	case "keyring":
		return keyringstore.Open(keyringConfig(cfg))
	case "mock":
		return mock.New(), nil
	case "auto":
		return openAuto(g, cfg)
	default:
		return nil, output.NewCLIError(output.ExitConfigError, fmt.Sprintf("unknown store: %s", kind)).
			WithHint("Valid stores: " + strings.Join(config.ValidStores, ", "))
	}
}

// openAuto picks the OS keyring unless the host cannot run one, and
// otherwise keeps credentials in the sample store.
func openAuto(g *Globals, cfg *config.Config) (keyring.Store, error) {
	path := samplePath(g, cfg)
	if reason := keyringUnsuitable(); reason != "" {
		return fallBackToSample(path, reason)
	}
	store, err := keyringstore.Open(keyringConfig(cfg))
	if err != nil {
		return fallBackToSample(path, fmt.Sprintf("the OS keyring is unavailable (%v)", err))
	}
	return store, nil
}

// fallBackToSample opens the sample store and tells the user once per
// data directory that their secrets are kept in clear text.
func fallBackToSample(path, reason string) (keyring.Store, error) {
	store, err := sample.Open(path)
	if err != nil {
		return nil, err
	}
	keyring.Logger().Debug("using sample store instead of the OS keyring", "reason", reason, "path", path)
	noticeFallback(fmt.Sprintf("%s, so credentials go to the sample store at %s in clear text", reason, path))
	return store, nil
}

// fallbackMarker records that the clear-text notice was printed.
func fallbackMarker() string {
	return filepath.Join(config.DataDir(), ".sample-store-warning-shown")
}

// noticeFallback prints msg unless KEYRING_QUIET is set or the marker
// exists, then writes the marker.
func noticeFallback(msg string) {
	if quiet := os.Getenv("KEYRING_QUIET"); quiet == "1" || quiet == "true" {
		return
	}
	marker := fallbackMarker()
	if _, err := os.Stat(marker); err == nil {
		return
	}
	fmt.Fprintln(stderr, "warning: "+msg)
	_ = os.MkdirAll(filepath.Dir(marker), 0700)
	_ = os.WriteFile(marker, []byte("1"), 0600)
}

// keyringUnsuitable names why this host has no usable OS keyring, or
// returns "". Linux under WSL or without a display has no secret service
// to unlock.
var keyringUnsuitable = func() string {
	if runtime.GOOS != "linux" {
		return ""
	}
	if data, err := os.ReadFile("/proc/version"); err == nil {
		version := strings.ToLower(string(data))
		if strings.Contains(version, "microsoft") || strings.Contains(version, "wsl") {
			return "running under WSL"
		}
	}
	if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		return "no display server"
	}
	return ""
}
