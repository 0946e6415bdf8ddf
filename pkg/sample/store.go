// Package sample is a file-backed credential store. It serves as a
// cross-platform store for client development and as a template for
// writing keyring stores.
//
// It is neither secure nor robust. Secrets are written in clear text to
// a YAML backing file, and the whole file is rewritten after every
// mutation. A crash during a write can corrupt it. Several processes
// sharing one backing file are not kept consistent: each one reads the
// file only when it opens the store.
//
// # Ambiguity
//
// The store allows several credentials for the same service and user. A
// key matches every record with that service and user whose modifiers
// include all the key's modifiers. A Build or an operation that matches
// more than one record fails with Ambiguous. The candidates come back in
// creation order.
//
// The "force-create" modifier makes Build append a new record right away,
// with an empty secret and the modifier's value as its comment. Build then
// returns a wrapper for that record. Use it with
// keyring.NewEntryWithCredential rather than with a specifying entry,
// which would create a new record on every call.
//
// # Attributes
//
// Attributes reports "uuid", "created" (when known), "comment" (if set)
// and the record's modifiers. Only "comment" can be updated.
package sample

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adrg/xdg"
	"github.com/google/uuid"

	"github.com/semmy-space/keyring/pkg/keyring"
)

const (
	// Vendor is the vendor string of every sample store.
	Vendor = "keyring-sample"

	// ForceCreate is the Build modifier that appends a new record.
	ForceCreate = "force-create"
)

// DefaultPath returns the backing file used when none is configured,
// typically ~/.local/share/keyring/credentials.yaml on Linux.
func DefaultPath() string {
	return filepath.Join(xdg.DataHome, "keyring", "credentials.yaml")
}

type credID struct {
	service string
	user    string
}

type record struct {
	uuid    string
	mods    keyring.Modifiers
	created time.Time
	comment string
	secret  []byte
}

// bucket holds every record for one service/user pair, in creation order.
type bucket struct {
	mu      sync.RWMutex
	records []*record
}

// matching returns the records whose modifiers include mods.
// Callers hold b.mu.
func (b *bucket) matching(mods keyring.Modifiers) []*record {
	var out []*record
	for _, rec := range b.records {
		if mods.Subset(rec.mods) {
			out = append(out, rec)
		}
	}
	return out
}

// byUUID finds a record. Callers hold b.mu.
func (b *bucket) byUUID(id string) (int, *record) {
	for i, rec := range b.records {
		if rec.uuid == id {
			return i, rec
		}
	}
	return -1, nil
}

// Store is a keyring.Store keeping credentials in memory, optionally
// mirrored to a backing file.
type Store struct {
	id     string
	path   string
	maxLen int

	mu      sync.RWMutex // guards the buckets map, not bucket contents
	buckets map[credID]*bucket

	saveMu sync.Mutex
}

// Option configures a Store
type Option func(*Store)

// WithBackingFile loads the store from path and saves every change to it.
// The file need not exist yet.
func WithBackingFile(path string) Option {
	return func(s *Store) { s.path = path }
}

// WithID overrides the generated store ID.
func WithID(id string) Option {
	return func(s *Store) { s.id = id }
}

// WithMaxFieldLength sets the limit on service and user lengths.
func WithMaxFieldLength(n int) Option {
	return func(s *Store) { s.maxLen = n }
}

var storeCount atomic.Int64

// New creates a store. Without WithBackingFile it is memory-only.
func New(opts ...Option) (*Store, error) {
	s := &Store{
		id:      fmt.Sprintf("sample-%d", storeCount.Add(1)),
		maxLen:  keyring.MaxFieldLength,
		buckets: make(map[credID]*bucket),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.path != "" {
		if err := s.load(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Open creates a store backed by the file at path.
func Open(path string) (*Store, error) {
	return New(WithBackingFile(path))
}

func (s *Store) Vendor() string { return Vendor }

func (s *Store) ID() string { return s.id }

// Path returns the backing file, or "" for a memory-only store.
func (s *Store) Path() string { return s.path }

// Persistence is UntilDelete with a backing file, None without.
func (s *Store) Persistence() keyring.Persistence {
	if s.path == "" {
		return keyring.PersistenceNone
	}
	return keyring.PersistenceUntilDelete
}

// Len returns the number of records in the store.
func (s *Store) Len() int {
	n := 0
	for _, b := range s.snapshotBuckets() {
		b.b.mu.RLock()
		n += len(b.b.records)
		b.b.mu.RUnlock()
	}
	return n
}

// bucket returns the bucket for id, creating it when create is set.
// It returns nil if the bucket does not exist and create is false.
func (s *Store) bucket(id credID, create bool) *bucket {
	s.mu.RLock()
	b := s.buckets[id]
	s.mu.RUnlock()
	if b != nil || !create {
		return b
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b = s.buckets[id]; b == nil {
		b = &bucket{}
		s.buckets[id] = b
	}
	return b
}

type idBucket struct {
	id credID
	b  *bucket
}

// snapshotBuckets lists the buckets sorted by service, then user.
func (s *Store) snapshotBuckets() []idBucket {
	s.mu.RLock()
	out := make([]idBucket, 0, len(s.buckets))
	for id, b := range s.buckets {
		out = append(out, idBucket{id: id, b: b})
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b idBucket) int {
		if c := strings.Compare(a.id.service, b.id.service); c != 0 {
			return c
		}
		return strings.Compare(a.id.user, b.id.user)
	})
	return out
}

// Build returns a credential for the key. With the force-create modifier
// it appends a record and returns a wrapper for it; otherwise it returns a
// specifier, or Ambiguous if several records already match.
func (s *Store) Build(service, user string, mods keyring.Modifiers) (keyring.Credential, error) {
	if err := keyring.ValidateKey(service, user, s.maxLen); err != nil {
		return nil, err
	}
	id := credID{service: service, user: user}

	if comment, ok := mods.Get(ForceCreate); ok {
		rec := &record{
			uuid:    uuid.NewString(),
			mods:    mods.Without(ForceCreate),
			created: time.Now().UTC().Truncate(time.Second),
			comment: comment,
			secret:  []byte{},
		}
		b := s.bucket(id, true)
		b.mu.Lock()
		b.records = append(b.records, rec)
		b.mu.Unlock()
		keyring.Logger().Debug("force-created sample credential", "service", service, "user", user, "uuid", rec.uuid)
		if err := s.persist(); err != nil {
			return nil, err
		}
		return s.wrapper(id, rec), nil
	}

	if b := s.bucket(id, false); b != nil {
		b.mu.RLock()
		matched := b.matching(mods)
		if len(matched) > 1 {
			err := s.ambiguous(id, matched)
			b.mu.RUnlock()
			return nil, err
		}
		b.mu.RUnlock()
	}
	return &Credential{
		store: s,
		id:    id,
		key:   keyring.Key{Service: service, User: user, Modifiers: mods},
	}, nil
}

// wrapper returns a credential bound to rec.
func (s *Store) wrapper(id credID, rec *record) *Credential {
	return &Credential{
		store:   s,
		id:      id,
		key:     keyring.Key{Service: id.service, User: id.user, Modifiers: rec.mods},
		uuid:    rec.uuid,
		wrapper: true,
	}
}

// ambiguous builds an Ambiguous error over recs, in bucket order.
func (s *Store) ambiguous(id credID, recs []*record) error {
	candidates := make([]*keyring.Entry, len(recs))
	for i, rec := range recs {
		candidates[i] = keyring.WrapCredential(s.wrapper(id, rec))
	}
	return keyring.Ambiguous(candidates)
}

// persist saves to the backing file, if there is one.
func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}
	if err := s.Save(); err != nil {
		keyring.Logger().Error("saving sample store failed", "store", s.id, "path", s.path, "error", err)
		return err
	}
	return nil
}
