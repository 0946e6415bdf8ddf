package keyring

// Credential is the per-record API implemented by every store.
// Implementations must be safe to call from multiple goroutines.
//
// Provider-specific extensions are reached with a type assertion on the
// concrete credential, e.g. entry.Credential().(*sample.Credential).
type Credential interface {
	// GetSecret returns the stored secret.
	//
	// A specifying credential with no matching record returns NoEntry, and
	// one with several matching records returns Ambiguous. A wrapping
	// credential whose record was deleted returns NoEntry.
	GetSecret() ([]byte, error)

	// SetSecret stores secret. A specifying credential creates a record if
	// none matches; a wrapping credential whose record was deleted returns
	// NoEntry.
	SetSecret(secret []byte) error

	// Delete removes the underlying record. NoEntry if there is none.
	Delete() error

	// Attributes returns store-specific decorations on the record.
	// It fails in the same cases as GetSecret.
	Attributes() (map[string]string, error)

	// UpdateAttributes changes store-specific decorations. Stores without
	// updatable attributes return NotSupported.
	UpdateAttributes(attrs map[string]string) error

	// Resolve returns a wrapping credential bound to the single record this
	// credential currently refers to. NoEntry if there is none, Ambiguous if
	// there are several.
	Resolve() (Credential, error)

	// Key returns the key tuple that produced this credential.
	Key() Key
}

// PasswordCredential is implemented by credentials that handle passwords
// natively. Entry falls back to UTF-8 over GetSecret/SetSecret otherwise.
type PasswordCredential interface {
	GetPassword() (string, error)
	SetPassword(password string) error
}

// Persistence describes how long a store keeps its credentials.
type Persistence int

const (
	// PersistenceNone: credentials vanish with the store handle.
	PersistenceNone Persistence = iota
	// PersistenceUntilReboot: credentials live in kernel or session memory.
	PersistenceUntilReboot
	// PersistenceUntilDelete: credentials are on disk until deleted.
	PersistenceUntilDelete
	// PersistenceForever: credentials cannot be removed once written.
	PersistenceForever
)

func (p Persistence) String() string {
	switch p {
	case PersistenceNone:
		return "none"
	case PersistenceUntilReboot:
		return "until-reboot"
	case PersistenceUntilDelete:
		return "until-delete"
	case PersistenceForever:
		return "forever"
	default:
		return "unknown"
	}
}

// Store is the provider-wide API that builds and searches credentials.
// A single Store value is shared by the registry and every Entry built
// against it; implementations must be safe for concurrent use.
type Store interface {
	// Vendor names the provider. It does not vary between versions.
	Vendor() string

	// ID identifies this store instance within a process.
	ID() string

	// Build locates or creates a credential for the key. If more than one
	// existing record matches, Build returns Ambiguous with a wrapping entry
	// per match, in the store's documented order.
	Build(service, user string, mods Modifiers) (Credential, error)

	// Search returns wrapping entries for every credential matching query.
	// No match is an empty result, not an error. A malformed query returns
	// Invalid.
	Search(query map[string]string) ([]*Entry, error)

	// Persistence reports the lifetime of credentials in this store.
	Persistence() Persistence
}
