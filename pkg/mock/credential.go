package mock

import (
	"bytes"

	"github.com/semmy-space/keyring/pkg/keyring"
)

// Credential is a mock credential. A specifying credential (from Build)
// looks its key up on every call and creates the record on set; a
// wrapping one (from Resolve or Search) is bound to one record and fails
// with NoEntry once that record is deleted, even if the key is set again.
type Credential struct {
	store   *Store
	key     keyring.Key
	ck      string
	rec     *record // wrappers only
	wrapper bool
}

func wrap(s *Store, ck string, rec *record) *Credential {
	return &Credential{store: s, key: rec.key, ck: ck, rec: rec, wrapper: true}
}

// IsWrapper reports whether the credential is bound to one record.
func (c *Credential) IsWrapper() bool {
	return c.wrapper
}

func (c *Credential) Key() keyring.Key {
	return c.key
}

// bound returns the record this credential refers to, or nil.
func (c *Credential) bound() *record {
	if c.wrapper {
		return c.rec
	}
	return c.store.lookup(c.ck)
}

func (c *Credential) GetSecret() ([]byte, error) {
	if o, ok := c.store.next(); ok {
		if o.Err != nil {
			return nil, o.Err
		}
		return bytes.Clone(o.Secret), nil
	}
	rec := c.bound()
	if rec == nil {
		return nil, keyring.NoEntry()
	}
	rec.mu.RLock()
	defer rec.mu.RUnlock()
	if !rec.present {
		return nil, keyring.NoEntry()
	}
	return bytes.Clone(rec.secret), nil
}

func (c *Credential) SetSecret(secret []byte) error {
	if o, ok := c.store.next(); ok {
		return o.Err
	}
	if c.wrapper {
		c.rec.mu.Lock()
		defer c.rec.mu.Unlock()
		if !c.rec.present {
			return keyring.NoEntry()
		}
		c.rec.secret = bytes.Clone(secret)
		return nil
	}
	for {
		rec := c.store.record(c.key, c.ck)
		rec.mu.Lock()
		if rec.removed {
			// deleted between lookup and lock; a fresh record replaces it
			rec.mu.Unlock()
			continue
		}
		rec.present = true
		rec.secret = bytes.Clone(secret)
		rec.mu.Unlock()
		return nil
	}
}

func (c *Credential) Delete() error {
	if o, ok := c.store.next(); ok {
		return o.Err
	}
	rec := c.bound()
	if rec == nil {
		return keyring.NoEntry()
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if !rec.present {
		return keyring.NoEntry()
	}
	c.store.remove(c.ck, rec)
	return nil
}

// Attributes is always empty for an existing mock credential.
func (c *Credential) Attributes() (map[string]string, error) {
	if o, ok := c.store.next(); ok {
		if o.Err != nil {
			return nil, o.Err
		}
		return map[string]string{}, nil
	}
	if err := c.exists(); err != nil {
		return nil, err
	}
	return map[string]string{}, nil
}

// UpdateAttributes returns NotSupported for an existing credential.
func (c *Credential) UpdateAttributes(map[string]string) error {
	if o, ok := c.store.next(); ok {
		return o.Err
	}
	if err := c.exists(); err != nil {
		return err
	}
	return keyring.NotSupported(Vendor)
}

func (c *Credential) Resolve() (keyring.Credential, error) {
	if o, ok := c.store.next(); ok && o.Err != nil {
		return nil, o.Err
	}
	rec := c.bound()
	if rec == nil {
		return nil, keyring.NoEntry()
	}
	rec.mu.RLock()
	defer rec.mu.RUnlock()
	if !rec.present {
		return nil, keyring.NoEntry()
	}
	return wrap(c.store, c.ck, rec), nil
}

func (c *Credential) exists() error {
	rec := c.bound()
	if rec == nil {
		return keyring.NoEntry()
	}
	rec.mu.RLock()
	defer rec.mu.RUnlock()
	if !rec.present {
		return keyring.NoEntry()
	}
	return nil
}
