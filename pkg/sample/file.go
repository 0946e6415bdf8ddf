package sample

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/semmy-space/keyring/pkg/keyring"
)

const (
	encodingText   = "text"
	encodingBase64 = "base64"

	lockTimeout = 10 * time.Second
	lockRetry   = 50 * time.Millisecond
)

// fileDocument is the on-disk layout of a backing file.
type fileDocument struct {
	Credentials []fileRecord `yaml:"credentials"`
}

type fileRecord struct {
	Service   string            `yaml:"service"`
	User      string            `yaml:"user"`
	UUID      string            `yaml:"uuid"`
	Created   string            `yaml:"created,omitempty"`
	Comment   string            `yaml:"comment,omitempty"`
	Modifiers keyring.Modifiers `yaml:"modifiers,omitempty"`
	Secret    fileSecret        `yaml:"secret"`
}

// fileSecret tags the payload: UTF-8 secrets that YAML reads back
// unchanged are kept as text so the file stays readable, anything else is
// base64.
type fileSecret struct {
	Encoding string `yaml:"encoding"`
	Data     string `yaml:"data"`
}

func encodeSecret(secret []byte) fileSecret {
	if utf8.Valid(secret) {
		text := fileSecret{Encoding: encodingText, Data: string(secret)}
		if survivesYAML(text) {
			return text
		}
	}
	return fileSecret{Encoding: encodingBase64, Data: base64.StdEncoding.EncodeToString(secret)}
}

// survivesYAML reports whether fs decodes to the same data after a YAML
// round trip. Block scalars drop some trailing line breaks.
func survivesYAML(fs fileSecret) bool {
	out, err := yaml.Marshal(fileRecord{Secret: fs})
	if err != nil {
		return false
	}
	var back fileRecord
	if err := yaml.Unmarshal(out, &back); err != nil {
		return false
	}
	return back.Secret.Data == fs.Data
}

func decodeSecret(fs fileSecret) ([]byte, error) {
	switch fs.Encoding {
	case encodingText, "":
		return []byte(fs.Data), nil
	case encodingBase64:
		return base64.StdEncoding.DecodeString(fs.Data)
	default:
		return nil, fmt.Errorf("unknown secret encoding %q", fs.Encoding)
	}
}

func formatCreated(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// withFileLock runs fn holding the advisory lock next to the backing file.
// The lock orders this process's writers against readers in other
// processes; it does not make multi-process use safe.
func withFileLock(path string, shared bool, fn func() error) error {
	lock := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	var locked bool
	var err error
	if shared {
		locked, err = lock.TryRLockContext(ctx, lockRetry)
	} else {
		locked, err = lock.TryLockContext(ctx, lockRetry)
	}
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock: timeout")
	}
	defer lock.Unlock()

	return fn()
}

// load reads the whole backing file into memory. A missing file leaves
// the store empty.
func (s *Store) load() error {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		keyring.Logger().Debug("sample backing file not found, starting empty", "path", s.path)
		return nil
	}
	var data []byte
	err := withFileLock(s.path, true, func() error {
		var rerr error
		data, rerr = os.ReadFile(s.path)
		return rerr
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			keyring.Logger().Debug("sample backing file not found, starting empty", "path", s.path)
			return nil
		}
		return keyring.NoStorageAccess(fmt.Errorf("failed to read %s: %w", s.path, err))
	}
	if len(data) == 0 {
		return nil
	}

	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return keyring.PlatformFailure(fmt.Errorf("failed to parse %s: %w", s.path, err))
	}

	seen := make(map[string]bool, len(doc.Credentials))
	for i, fr := range doc.Credentials {
		secret, err := decodeSecret(fr.Secret)
		if err != nil {
			return keyring.PlatformFailure(fmt.Errorf("credential %d in %s: %w", i, s.path, err))
		}
		var created time.Time
		if fr.Created != "" {
			created, err = time.Parse(time.RFC3339, fr.Created)
			if err != nil {
				return keyring.PlatformFailure(fmt.Errorf("credential %d in %s: bad creation date: %w", i, s.path, err))
			}
		}
		// Hand-edited files may lack uuids or repeat them; every record
		// needs its own so wrappers can tell them apart.
		id := fr.UUID
		if id == "" || seen[id] {
			id = uuid.NewString()
			keyring.Logger().Debug("assigned uuid to sample credential", "path", s.path, "index", i, "uuid", id)
		}
		seen[id] = true
		b := s.bucket(credID{service: fr.Service, user: fr.User}, true)
		b.records = append(b.records, &record{
			uuid:    id,
			mods:    keyring.NewModifiers(fr.Modifiers.Map()),
			created: created,
			comment: fr.Comment,
			secret:  secret,
		})
	}
	keyring.Logger().Debug("loaded sample store", "path", s.path, "credentials", len(doc.Credentials))
	return nil
}

// Save rewrites the backing file from the in-memory records. It is a
// no-op for a memory-only store. Every mutation calls it, so clients only
// need it after editing the file out of band.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	var doc fileDocument
	for _, ib := range s.snapshotBuckets() {
		ib.b.mu.RLock()
		for _, rec := range ib.b.records {
			doc.Credentials = append(doc.Credentials, fileRecord{
				Service:   ib.id.service,
				User:      ib.id.user,
				UUID:      rec.uuid,
				Created:   formatCreated(rec.created),
				Comment:   rec.comment,
				Modifiers: rec.mods,
				Secret:    encodeSecret(rec.secret),
			})
		}
		ib.b.mu.RUnlock()
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return keyring.PlatformFailure(fmt.Errorf("failed to serialize credentials: %w", err))
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return keyring.NoStorageAccess(fmt.Errorf("failed to create credentials directory: %w", err))
	}
	err = withFileLock(s.path, false, func() error {
		return os.WriteFile(s.path, data, 0600)
	})
	if err != nil {
		return keyring.NoStorageAccess(fmt.Errorf("failed to write %s: %w", s.path, err))
	}
	keyring.Logger().Debug("saved sample store", "path", s.path, "credentials", len(doc.Credentials))
	return nil
}
