// Package keyringstore adapts github.com/99designs/keyring (macOS
// Keychain, Windows Credential Manager, Secret Service, KWallet, pass, and
// an encrypted-file fallback) to the keyring.Store API.
//
// Each credential is one keyring item. Item keys encode service, user and
// modifiers, so keys are unique and Build never reports Ambiguous.
package keyringstore

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	oskeyring "github.com/99designs/keyring"
	"github.com/adrg/xdg"

	"github.com/semmy-space/keyring/pkg/keyring"
)

// Vendor is the vendor string of every keyringstore Store.
const Vendor = "99designs-keyring"

// DefaultServiceName is the keyring service used when Config leaves it empty.
const DefaultServiceName = "keyring"

// Config selects and configures the underlying keyring backend.
type Config struct {
	// ServiceName scopes the items in the OS keyring.
	ServiceName string
	// Backends restricts the backends tried, by 99designs name
	// ("keychain", "wincred", "secret-service", "kwallet", "pass", "file").
	// Empty means every available backend.
	Backends []string
	// FileDir is where the file backend keeps items.
	// Defaults to $XDG_DATA_HOME/keyring/ring.
	FileDir string
	// PasswordFunc supplies the file backend's password.
	// Defaults to prompting on the terminal.
	PasswordFunc oskeyring.PromptFunc
}

// Store is a keyring.Store over an opened 99designs keyring.
type Store struct {
	ring    oskeyring.Keyring
	service string
	locks   sync.Map // item key -> *sync.Mutex
}

// Open opens the OS keyring described by cfg. Failure to open any backend
// is reported as NoStorageAccess.
func Open(cfg Config) (*Store, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}
	kcfg := oskeyring.Config{
		ServiceName:              cfg.ServiceName,
		KeychainTrustApplication: true, // macOS: don't prompt every access
		FileDir:                  cfg.FileDir,
		FilePasswordFunc:         cfg.PasswordFunc,
	}
	if kcfg.FileDir == "" {
		kcfg.FileDir = filepath.Join(xdg.DataHome, "keyring", "ring")
	}
	if kcfg.FilePasswordFunc == nil {
		kcfg.FilePasswordFunc = oskeyring.TerminalPrompt
	}
	for _, b := range cfg.Backends {
		kcfg.AllowedBackends = append(kcfg.AllowedBackends, oskeyring.BackendType(b))
	}

	ring, err := oskeyring.Open(kcfg)
	if err != nil {
		return nil, keyring.NoStorageAccess(fmt.Errorf("failed to open keyring: %w", err))
	}
	return New(ring, cfg.ServiceName), nil
}

// New wraps an already opened keyring.
func New(ring oskeyring.Keyring, service string) *Store {
	return &Store{ring: ring, service: service}
}

func (s *Store) Vendor() string { return Vendor }

func (s *Store) ID() string { return "keyring-" + s.service }

// Persistence is UntilDelete for every backend.
func (s *Store) Persistence() keyring.Persistence { return keyring.PersistenceUntilDelete }

// lock returns the per-item mutex.
func (s *Store) lock(itemKey string) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(itemKey, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Build returns a specifying credential for the key.
func (s *Store) Build(service, user string, mods keyring.Modifiers) (keyring.Credential, error) {
	if err := keyring.ValidateKey(service, user, 0); err != nil {
		return nil, err
	}
	key := keyring.Key{Service: service, User: user, Modifiers: mods}
	return &Credential{store: s, key: key, itemKey: encodeKey(key)}, nil
}

// Search lists the keyring's items and matches "service", "user" and
// modifier keys exactly. Items not written by this package are skipped.
func (s *Store) Search(query map[string]string) ([]*keyring.Entry, error) {
	for k := range query {
		if k == "" {
			return nil, keyring.Invalid("query", "empty key")
		}
	}
	itemKeys, err := s.ring.Keys()
	if err != nil {
		return nil, keyring.PlatformFailure(fmt.Errorf("keyring list failed: %w", err))
	}
	sort.Strings(itemKeys)

	entries := []*keyring.Entry{}
	for _, ik := range itemKeys {
		key, ok := decodeKey(ik)
		if !ok || !matches(key, query) {
			continue
		}
		entries = append(entries, keyring.WrapCredential(&Credential{store: s, key: key, itemKey: ik, wrapper: true}))
	}
	return entries, nil
}

func matches(key keyring.Key, query map[string]string) bool {
	for k, want := range query {
		var got string
		var ok bool
		switch k {
		case "service":
			got, ok = key.Service, true
		case "user":
			got, ok = key.User, true
		default:
			got, ok = key.Modifiers.Get(k)
		}
		if !ok || got != want {
			return false
		}
	}
	return true
}

// encodeKey renders a key as "service:user[?mods]" with each part
// query-escaped, so the separators never appear inside a part.
func encodeKey(key keyring.Key) string {
	s := url.QueryEscape(key.Service) + ":" + url.QueryEscape(key.User)
	if len(key.Modifiers) > 0 {
		values := url.Values{}
		for _, mod := range key.Modifiers {
			values.Set(mod.Key, mod.Value)
		}
		s += "?" + values.Encode()
	}
	return s
}

func decodeKey(itemKey string) (keyring.Key, bool) {
	head, rawMods, hasMods := strings.Cut(itemKey, "?")
	rawService, rawUser, ok := strings.Cut(head, ":")
	if !ok {
		return keyring.Key{}, false
	}
	service, err1 := url.QueryUnescape(rawService)
	user, err2 := url.QueryUnescape(rawUser)
	if err1 != nil || err2 != nil || service == "" || user == "" {
		return keyring.Key{}, false
	}
	key := keyring.Key{Service: service, User: user}
	if hasMods {
		values, err := url.ParseQuery(rawMods)
		if err != nil {
			return keyring.Key{}, false
		}
		m := make(map[string]string, len(values))
		for k := range values {
			m[k] = values.Get(k)
		}
		key.Modifiers = keyring.NewModifiers(m)
	}
	return key, true
}

// translate maps backend errors onto the keyring taxonomy.
func translate(op string, err error) error {
	if errors.Is(err, oskeyring.ErrKeyNotFound) {
		return keyring.NoEntry()
	}
	return keyring.PlatformFailure(fmt.Errorf("keyring %s failed: %w", op, err))
}
