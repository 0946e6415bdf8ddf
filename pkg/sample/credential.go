package sample

import (
	"bytes"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/semmy-space/keyring/pkg/keyring"
)

// Credential is a sample store credential. A specifier matches records by
// key on every call; a wrapper is bound to one record by UUID.
type Credential struct {
	store   *Store
	id      credID
	key     keyring.Key
	uuid    string
	wrapper bool
}

// IsWrapper reports whether the credential is bound to a single record.
func (c *Credential) IsWrapper() bool {
	return c.wrapper
}

// UUID returns the bound record's UUID, or "" for a specifier.
func (c *Credential) UUID() string {
	return c.uuid
}

func (c *Credential) Key() keyring.Key {
	return c.key
}

// find locates the one record this credential refers to.
// Callers hold b.mu.
func (c *Credential) find(b *bucket) (*record, error) {
	if b == nil {
		return nil, keyring.NoEntry()
	}
	if c.wrapper {
		_, rec := b.byUUID(c.uuid)
		if rec == nil {
			return nil, keyring.NoEntry()
		}
		return rec, nil
	}
	matched := b.matching(c.key.Modifiers)
	switch len(matched) {
	case 0:
		return nil, keyring.NoEntry()
	case 1:
		return matched[0], nil
	default:
		return nil, c.store.ambiguous(c.id, matched)
	}
}

func (c *Credential) GetSecret() ([]byte, error) {
	b := c.store.bucket(c.id, false)
	if b == nil {
		return nil, keyring.NoEntry()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, err := c.find(b)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(rec.secret), nil
}

// SetSecret updates the matching record. A specifier with no match creates
// a record carrying its modifiers; a wrapper whose record is gone fails
// with NoEntry.
func (c *Credential) SetSecret(secret []byte) error {
	b := c.store.bucket(c.id, !c.IsWrapper())
	if b == nil {
		return keyring.NoEntry()
	}
	b.mu.Lock()
	rec, err := c.find(b)
	switch {
	case err == nil:
		rec.secret = bytes.Clone(secret)
	case !c.IsWrapper() && keyring.KindOf(err) == keyring.KindNoEntry:
		b.records = append(b.records, &record{
			uuid:    uuid.NewString(),
			mods:    c.key.Modifiers,
			created: time.Now().UTC().Truncate(time.Second),
			secret:  bytes.Clone(secret),
		})
	default:
		b.mu.Unlock()
		return err
	}
	b.mu.Unlock()
	return c.store.persist()
}

func (c *Credential) Delete() error {
	b := c.store.bucket(c.id, false)
	if b == nil {
		return keyring.NoEntry()
	}
	b.mu.Lock()
	rec, err := c.find(b)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	b.records = slices.DeleteFunc(b.records, func(r *record) bool { return r == rec })
	b.mu.Unlock()
	return c.store.persist()
}

func (c *Credential) Attributes() (map[string]string, error) {
	b := c.store.bucket(c.id, false)
	if b == nil {
		return nil, keyring.NoEntry()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, err := c.find(b)
	if err != nil {
		return nil, err
	}
	attrs := rec.mods.Map()
	attrs["uuid"] = rec.uuid
	if !rec.created.IsZero() {
		attrs["created"] = rec.created.Format(time.RFC3339)
	}
	if rec.comment != "" {
		attrs["comment"] = rec.comment
	}
	return attrs, nil
}

// UpdateAttributes sets the record's comment. Any other key is Invalid.
func (c *Credential) UpdateAttributes(attrs map[string]string) error {
	for k := range attrs {
		if k != "comment" {
			return keyring.Invalid(k, "cannot be updated")
		}
	}
	b := c.store.bucket(c.id, false)
	if b == nil {
		return keyring.NoEntry()
	}
	b.mu.Lock()
	rec, err := c.find(b)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	if comment, ok := attrs["comment"]; ok {
		rec.comment = comment
	}
	b.mu.Unlock()
	return c.store.persist()
}

func (c *Credential) Resolve() (keyring.Credential, error) {
	b := c.store.bucket(c.id, false)
	if b == nil {
		return nil, keyring.NoEntry()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, err := c.find(b)
	if err != nil {
		return nil, err
	}
	return c.store.wrapper(c.id, rec), nil
}

// Comment returns the record's comment.
func (c *Credential) Comment() (string, error) {
	attrs, err := c.Attributes()
	if err != nil {
		return "", err
	}
	return attrs["comment"], nil
}
