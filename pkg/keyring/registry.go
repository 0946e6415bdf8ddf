package keyring

import "sync"

// The process-wide default store. Unset at start.
var defaultStore struct {
	mu    sync.RWMutex
	store Store
}

// SetDefaultStore installs store as the default for NewEntry and
// SearchDefault, replacing any previous store. The previous store is
// dropped, not closed.
//
// Call it at startup, before creating entries.
func SetDefaultStore(store Store) {
	Logger().Debug("setting default credential store", "vendor", store.Vendor(), "id", store.ID())
	defaultStore.mu.Lock()
	defaultStore.store = store
	defaultStore.mu.Unlock()
}

// UnsetDefaultStore clears the default store and returns the previous one,
// or nil if none was set. Calling it when already unset is a no-op.
func UnsetDefaultStore() Store {
	Logger().Debug("unsetting default credential store")
	defaultStore.mu.Lock()
	defer defaultStore.mu.Unlock()
	old := defaultStore.store
	defaultStore.store = nil
	return old
}

// DefaultStore returns the current default store, or NoDefaultStore.
func DefaultStore() (Store, error) {
	defaultStore.mu.RLock()
	defer defaultStore.mu.RUnlock()
	if defaultStore.store == nil {
		return nil, NoDefaultStore()
	}
	return defaultStore.store, nil
}
