// Package mock provides an in-memory credential store for testing code
// that uses the keyring API.
//
// Records live only as long as the Store. Tests can queue programmed
// outcomes with Program; each credential operation (and Search) consumes
// one queued outcome instead of touching the store, so error paths can be
// exercised deterministically:
//
//	store := mock.New()
//	keyring.SetDefaultStore(store)
//	store.Program(mock.Fail(keyring.PlatformFailure(errors.New("locked"))))
//	entry, _ := keyring.NewEntry("service", "user")
//	entry.SetPassword("x") // fails with the programmed error
//	entry.SetPassword("x") // succeeds
package mock

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/semmy-space/keyring/pkg/keyring"
)

// Vendor is the vendor string reported by every mock store.
const Vendor = "mock"

// Outcome is a programmed result. A non-nil Err is returned as is; a nil
// Err means success, with Secret returned by reads.
type Outcome struct {
	Secret []byte
	Err    error
}

// Fail returns an outcome that fails with err.
func Fail(err error) Outcome {
	return Outcome{Err: err}
}

// Succeed returns a successful outcome; reads return secret.
func Succeed(secret []byte) Outcome {
	return Outcome{Secret: secret}
}

// record holds one key's data. A record enters the store map on its first
// write and leaves it when deleted; a removed record is never reused, so
// wrappers bound to it stay deleted.
type record struct {
	mu      sync.RWMutex
	key     keyring.Key
	secret  []byte
	present bool
	removed bool
}

// Store is an in-memory keyring.Store. Keys are unique, so Build never
// returns Ambiguous.
type Store struct {
	id      string
	maxLen  int
	records sync.Map // canonical key -> *record

	qmu   sync.Mutex
	queue []Outcome
}

// Option configures a Store
type Option func(*Store)

// WithID overrides the generated store ID.
func WithID(id string) Option {
	return func(s *Store) { s.id = id }
}

// WithMaxFieldLength sets the limit on service and user lengths.
func WithMaxFieldLength(n int) Option {
	return func(s *Store) { s.maxLen = n }
}

var storeCount atomic.Int64

// New creates an empty mock store.
func New(opts ...Option) *Store {
	s := &Store{
		id:     fmt.Sprintf("mock-%d", storeCount.Add(1)),
		maxLen: keyring.MaxFieldLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Vendor() string { return Vendor }

func (s *Store) ID() string { return s.id }

// Persistence is PersistenceNone: data vanishes with the store.
func (s *Store) Persistence() keyring.Persistence { return keyring.PersistenceNone }

// Program appends outcomes to the FIFO queue.
func (s *Store) Program(outcomes ...Outcome) {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	s.queue = append(s.queue, outcomes...)
}

// Pending returns the number of queued outcomes.
func (s *Store) Pending() int {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	return len(s.queue)
}

// Reset drops any queued outcomes.
func (s *Store) Reset() {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	s.queue = nil
}

// next pops the head of the queue.
func (s *Store) next() (Outcome, bool) {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	if len(s.queue) == 0 {
		return Outcome{}, false
	}
	o := s.queue[0]
	s.queue = s.queue[1:]
	return o, true
}

// Len returns the number of records currently holding a secret.
func (s *Store) Len() int {
	n := 0
	s.records.Range(func(_, v any) bool {
		rec := v.(*record)
		rec.mu.RLock()
		if rec.present {
			n++
		}
		rec.mu.RUnlock()
		return true
	})
	return n
}

// Build returns a specifying credential for the key. It does not consume
// programmed outcomes.
func (s *Store) Build(service, user string, mods keyring.Modifiers) (keyring.Credential, error) {
	if err := keyring.ValidateKey(service, user, s.maxLen); err != nil {
		return nil, err
	}
	key := keyring.Key{Service: service, User: user, Modifiers: mods}
	return &Credential{store: s, key: key, ck: canonical(key)}, nil
}

// lookup returns the stored record for ck, or nil.
func (s *Store) lookup(ck string) *record {
	if v, ok := s.records.Load(ck); ok {
		return v.(*record)
	}
	return nil
}

// record returns the record for key, adding an empty one if needed.
func (s *Store) record(key keyring.Key, ck string) *record {
	if rec := s.lookup(ck); rec != nil {
		return rec
	}
	v, _ := s.records.LoadOrStore(ck, &record{key: key})
	return v.(*record)
}

// remove drops rec from the map. Callers hold rec.mu.
func (s *Store) remove(ck string, rec *record) {
	rec.present = false
	rec.removed = true
	rec.secret = nil
	s.records.CompareAndDelete(ck, rec)
}

// Search matches "service", "user" and modifier keys exactly. Results are
// ordered by canonical key.
func (s *Store) Search(query map[string]string) ([]*keyring.Entry, error) {
	if o, ok := s.next(); ok && o.Err != nil {
		return nil, o.Err
	}
	for k := range query {
		if k == "" {
			return nil, keyring.Invalid("query", "empty key")
		}
	}

	type hit struct {
		ck   string
		cred *Credential
	}
	var hits []hit
	s.records.Range(func(k, v any) bool {
		rec := v.(*record)
		rec.mu.RLock()
		defer rec.mu.RUnlock()
		if rec.present && matches(rec.key, query) {
			hits = append(hits, hit{ck: k.(string), cred: wrap(s, k.(string), rec)})
		}
		return true
	})
	sort.Slice(hits, func(i, j int) bool { return hits[i].ck < hits[j].ck })

	entries := make([]*keyring.Entry, len(hits))
	for i, h := range hits {
		entries[i] = keyring.WrapCredential(h.cred)
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

// canonical encodes a key as a unique map key.
func canonical(key keyring.Key) string {
	var b strings.Builder
	b.WriteString(strconv.Quote(key.Service))
	b.WriteByte('/')
	b.WriteString(strconv.Quote(key.User))
	for _, mod := range key.Modifiers {
		b.WriteByte(';')
		b.WriteString(strconv.Quote(mod.Key))
		b.WriteByte('=')
		b.WriteString(strconv.Quote(mod.Value))
	}
	return b.String()
}
