// Package keyring is a store-independent API for saving and retrieving
// passwords and binary secrets.
//
// A Store provides the storage. An Entry is the client's handle on one
// logical secret, and it works in one of two modes:
//
//   - A specifying entry holds a service, a user and optional modifiers.
//     Every operation asks the store to Build a credential for that key, so
//     the entry always sees the store's current state.
//   - A wrapping entry holds one already-resolved Credential. It never asks
//     the store again. Once its credential is deleted, every operation on it
//     returns NoEntry.
//
// When a key matches several records, operations return an Ambiguous error
// whose candidates are wrapping entries, one per match. The caller decides
// which one to keep.
package keyring

import (
	"fmt"
	"maps"
)

// Entry is a reference to a logical secret. Its mode (specifying or
// wrapping) is fixed when it is created. Entries are cheap and safe to
// share between goroutines.
type Entry struct {
	key   Key
	store Store      // set for specifying entries
	cred  Credential // set for wrapping entries
}

// NewEntry creates a specifying entry over the default store.
// It does not access the store.
func NewEntry(service, user string) (*Entry, error) {
	return NewEntryWithModifiers(service, user, nil)
}

// NewEntryWithModifiers creates a specifying entry over the default store
// with store-specific modifiers. It does not access the store.
func NewEntryWithModifiers(service, user string, mods map[string]string) (*Entry, error) {
	store, err := DefaultStore()
	if err != nil {
		return nil, err
	}
	return NewEntryWithStore(store, service, user, mods), nil
}

// NewEntryWithStore creates a specifying entry over an explicit store.
// With a nil store every operation fails with NoDefaultStore.
func NewEntryWithStore(store Store, service, user string, mods map[string]string) *Entry {
	e := &Entry{
		key:   Key{Service: service, User: user, Modifiers: NewModifiers(mods)},
		store: store,
	}
	Logger().Debug("created specifying entry", "entry", e.key.String(), "store", storeID(store))
	return e
}

func storeID(store Store) string {
	if store == nil {
		return "<nil>"
	}
	return store.ID()
}

// NewEntryWithCredential builds a credential for the key in store now and
// returns a wrapping entry bound to it.
func NewEntryWithCredential(store Store, service, user string, mods map[string]string) (*Entry, error) {
	if store == nil {
		return nil, NoDefaultStore()
	}
	cred, err := store.Build(service, user, NewModifiers(mods))
	if err != nil {
		return nil, err
	}
	return WrapCredential(cred), nil
}

// WrapCredential returns a wrapping entry for a credential obtained from
// any store.
func WrapCredential(cred Credential) *Entry {
	Logger().Debug("created wrapping entry", "entry", cred.Key().String())
	return &Entry{key: cred.Key(), cred: cred}
}

// IsSpecifier reports whether the entry re-resolves on every call.
func (e *Entry) IsSpecifier() bool {
	return e.cred == nil
}

// Key returns the key tuple the entry was created with.
func (e *Entry) Key() Key {
	return e.key
}

// Store returns the store of a specifying entry, or nil for a wrapping one.
func (e *Entry) Store() Store {
	return e.store
}

// Credential returns the bound credential of a wrapping entry, or nil for
// a specifying one. Type-assert the result to reach provider extensions.
func (e *Entry) Credential() Credential {
	return e.cred
}

func (e *Entry) String() string {
	if e.cred != nil {
		return "wrapper(" + e.key.String() + ")"
	}
	return fmt.Sprintf("specifier(%s in %s)", e.key.String(), storeID(e.store))
}

// credential returns the bound credential, or builds one for a specifier.
func (e *Entry) credential() (Credential, error) {
	if e.cred != nil {
		return e.cred, nil
	}
	if e.store == nil {
		return nil, NoDefaultStore()
	}
	return e.store.Build(e.key.Service, e.key.User, e.key.Modifiers)
}

// GetPassword returns the secret as a UTF-8 string. Non-UTF-8 data gives
// BadEncoding carrying the raw bytes.
func (e *Entry) GetPassword() (string, error) {
	Logger().Debug("get password", "entry", e.String())
	cred, err := e.credential()
	if err != nil {
		return "", err
	}
	if pc, ok := cred.(PasswordCredential); ok {
		return pc.GetPassword()
	}
	secret, err := cred.GetSecret()
	if err != nil {
		return "", err
	}
	return DecodePassword(secret)
}

// SetPassword stores password, creating a credential if this is a
// specifier and none exists.
func (e *Entry) SetPassword(password string) error {
	Logger().Debug("set password", "entry", e.String())
	cred, err := e.credential()
	if err != nil {
		return err
	}
	if pc, ok := cred.(PasswordCredential); ok {
		return pc.SetPassword(password)
	}
	return cred.SetSecret([]byte(password))
}

// GetSecret returns the raw secret.
func (e *Entry) GetSecret() ([]byte, error) {
	Logger().Debug("get secret", "entry", e.String())
	cred, err := e.credential()
	if err != nil {
		return nil, err
	}
	return cred.GetSecret()
}

// SetSecret stores a raw secret, creating a credential if this is a
// specifier and none exists.
func (e *Entry) SetSecret(secret []byte) error {
	Logger().Debug("set secret", "entry", e.String())
	cred, err := e.credential()
	if err != nil {
		return err
	}
	return cred.SetSecret(secret)
}

// DeleteCredential deletes the underlying credential. The Entry itself
// stays usable; a specifier can set a new secret afterwards.
func (e *Entry) DeleteCredential() error {
	Logger().Debug("delete credential", "entry", e.String())
	cred, err := e.credential()
	if err != nil {
		return err
	}
	return cred.Delete()
}

// GetAttributes returns the store-specific decorations on the credential.
func (e *Entry) GetAttributes() (map[string]string, error) {
	Logger().Debug("get attributes", "entry", e.String())
	cred, err := e.credential()
	if err != nil {
		return nil, err
	}
	attrs, err := cred.Attributes()
	if err != nil {
		return nil, err
	}
	return maps.Clone(attrs), nil
}

// UpdateAttributes changes store-specific decorations. It never creates a
// credential.
func (e *Entry) UpdateAttributes(attrs map[string]string) error {
	Logger().Debug("update attributes", "entry", e.String(), "attributes", attrs)
	cred, err := e.credential()
	if err != nil {
		return err
	}
	return cred.UpdateAttributes(attrs)
}

// AsCredential resolves the entry now and returns a wrapping entry bound
// to the record found. It returns NoEntry when no record exists, unlike
// SetPassword on a specifier, which would create one.
func (e *Entry) AsCredential() (*Entry, error) {
	Logger().Debug("resolve entry", "entry", e.String())
	cred, err := e.credential()
	if err != nil {
		return nil, err
	}
	resolved, err := cred.Resolve()
	if err != nil {
		return nil, err
	}
	return WrapCredential(resolved), nil
}

// Search returns wrapping entries for every credential in store matching query.
func Search(store Store, query map[string]string) ([]*Entry, error) {
	if store == nil {
		return nil, NoDefaultStore()
	}
	Logger().Debug("search", "store", store.ID(), "query", query)
	entries, err := store.Search(query)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*Entry{}
	}
	return entries, nil
}

// SearchDefault searches the default store.
func SearchDefault(query map[string]string) ([]*Entry, error) {
	store, err := DefaultStore()
	if err != nil {
		return nil, err
	}
	return Search(store, query)
}
