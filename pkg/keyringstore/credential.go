package keyringstore

import (
	"strconv"

	oskeyring "github.com/99designs/keyring"

	"github.com/semmy-space/keyring/pkg/keyring"
)

// updatable lists the attributes UpdateAttributes accepts. A "*" marks
// a boolean.
var updatable = []string{"label", "description", "*not-synchronizable", "*not-trust-application"}

// Credential is one keyring item. Specifiers create the item on set;
// wrappers (from Resolve or Search) fail with NoEntry once it is removed.
type Credential struct {
	store   *Store
	key     keyring.Key
	itemKey string
	wrapper bool
}

// ItemKey returns the key of the underlying keyring item.
func (c *Credential) ItemKey() string {
	return c.itemKey
}

func (c *Credential) Key() keyring.Key {
	return c.key
}

// get reads the item. Callers hold the item lock.
func (c *Credential) get() (oskeyring.Item, error) {
	item, err := c.store.ring.Get(c.itemKey)
	if err != nil {
		return oskeyring.Item{}, translate("get", err)
	}
	return item, nil
}

func (c *Credential) GetSecret() ([]byte, error) {
	mu := c.store.lock(c.itemKey)
	mu.Lock()
	defer mu.Unlock()
	item, err := c.get()
	if err != nil {
		return nil, err
	}
	return item.Data, nil
}

func (c *Credential) SetSecret(secret []byte) error {
	mu := c.store.lock(c.itemKey)
	mu.Lock()
	defer mu.Unlock()
	item, err := c.get()
	switch {
	case err == nil:
		item.Data = secret
	case c.wrapper || keyring.KindOf(err) != keyring.KindNoEntry:
		return err
	default:
		item = oskeyring.Item{
			Key:         c.itemKey,
			Data:        secret,
			Label:       c.key.Service,
			Description: c.key.User,
		}
	}
	if err := c.store.ring.Set(item); err != nil {
		return translate("set", err)
	}
	return nil
}

// Delete checks for the item first: not every backend reports a missing
// item as ErrKeyNotFound on removal.
func (c *Credential) Delete() error {
	mu := c.store.lock(c.itemKey)
	mu.Lock()
	defer mu.Unlock()
	if _, err := c.get(); err != nil {
		return err
	}
	if err := c.store.ring.Remove(c.itemKey); err != nil {
		return translate("remove", err)
	}
	return nil
}

// Attributes reports the item's label, description and keychain flags
// along with the key's modifiers.
func (c *Credential) Attributes() (map[string]string, error) {
	mu := c.store.lock(c.itemKey)
	mu.Lock()
	defer mu.Unlock()
	item, err := c.get()
	if err != nil {
		return nil, err
	}
	attrs := c.key.Modifiers.Map()
	attrs["label"] = item.Label
	attrs["description"] = item.Description
	attrs["not-synchronizable"] = strconv.FormatBool(item.KeychainNotSynchronizable)
	attrs["not-trust-application"] = strconv.FormatBool(item.KeychainNotTrustApplication)
	return attrs, nil
}

// UpdateAttributes changes the item's label, description or keychain
// flags. Other keys are Invalid. The flags only matter to the macOS
// keychain backend.
func (c *Credential) UpdateAttributes(attrs map[string]string) error {
	if err := keyring.ParseModifiers(updatable, keyring.NewModifiers(attrs)); err != nil {
		return err
	}
	mu := c.store.lock(c.itemKey)
	mu.Lock()
	defer mu.Unlock()
	item, err := c.get()
	if err != nil {
		return err
	}
	for k, v := range attrs {
		switch k {
		case "label":
			item.Label = v
		case "description":
			item.Description = v
		case "not-synchronizable":
			item.KeychainNotSynchronizable = v == "true"
		case "not-trust-application":
			item.KeychainNotTrustApplication = v == "true"
		}
	}
	if err := c.store.ring.Set(item); err != nil {
		return translate("set", err)
	}
	return nil
}

func (c *Credential) Resolve() (keyring.Credential, error) {
	mu := c.store.lock(c.itemKey)
	mu.Lock()
	defer mu.Unlock()
	if _, err := c.get(); err != nil {
		return nil, err
	}
	return &Credential{store: c.store, key: c.key, itemKey: c.itemKey, wrapper: true}, nil
}
