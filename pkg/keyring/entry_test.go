package keyring_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semmy-space/keyring/pkg/keyring"
	"github.com/semmy-space/keyring/pkg/mock"
)

// useStore installs a fresh mock store as the default for one test.
func useStore(t *testing.T) *mock.Store {
	t.Helper()
	store := mock.New()
	keyring.SetDefaultStore(store)
	t.Cleanup(func() { keyring.UnsetDefaultStore() })
	return store
}

func TestNoDefaultStore(t *testing.T) {
	keyring.UnsetDefaultStore()

	_, err := keyring.NewEntry("svc", "user")
	assert.ErrorIs(t, err, keyring.ErrNoDefaultStore)
	_, err = keyring.SearchDefault(nil)
	assert.ErrorIs(t, err, keyring.ErrNoDefaultStore)
	_, err = keyring.DefaultStore()
	assert.ErrorIs(t, err, keyring.ErrNoDefaultStore)
}

func TestSetAndUnsetDefaultStore(t *testing.T) {
	first := useStore(t)
	got, err := keyring.DefaultStore()
	require.NoError(t, err)
	assert.Same(t, first, got)

	second := mock.New()
	keyring.SetDefaultStore(second)
	got, err = keyring.DefaultStore()
	require.NoError(t, err)
	assert.Same(t, second, got)

	assert.Same(t, second, keyring.UnsetDefaultStore())
	assert.Nil(t, keyring.UnsetDefaultStore())
}

func TestEntryKeepsStoreAfterDefaultChanges(t *testing.T) {
	first := useStore(t)
	entry, err := keyring.NewEntry("svc", "user")
	require.NoError(t, err)

	keyring.SetDefaultStore(mock.New())
	require.NoError(t, entry.SetPassword("pw"))
	assert.Equal(t, 1, first.Len())
	assert.Same(t, first, entry.Store())
}

func TestNewEntryDoesNotTouchStore(t *testing.T) {
	store := useStore(t)
	store.Program(mock.Fail(keyring.PlatformFailure(errors.New("boom"))))

	entry, err := keyring.NewEntryWithModifiers("svc", "user", map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.True(t, entry.IsSpecifier())
	assert.Equal(t, 1, store.Pending())
	assert.Equal(t, "v", entry.Key().Modifiers.Map()["k"])
}

func TestPasswordLifecycle(t *testing.T) {
	useStore(t)
	entry, err := keyring.NewEntry("svc", "user")
	require.NoError(t, err)

	_, err = entry.GetPassword()
	assert.ErrorIs(t, err, keyring.ErrNoEntry)

	require.NoError(t, entry.SetPassword("secret"))
	pw, err := entry.GetPassword()
	require.NoError(t, err)
	assert.Equal(t, "secret", pw)

	secret, err := entry.GetSecret()
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), secret)

	attrs, err := entry.GetAttributes()
	require.NoError(t, err)
	assert.Empty(t, attrs)

	require.NoError(t, entry.DeleteCredential())
	assert.ErrorIs(t, entry.DeleteCredential(), keyring.ErrNoEntry)
	_, err = entry.GetSecret()
	assert.ErrorIs(t, err, keyring.ErrNoEntry)
}

func TestGetPasswordBadEncoding(t *testing.T) {
	useStore(t)
	entry, err := keyring.NewEntry("svc", "user")
	require.NoError(t, err)
	require.NoError(t, entry.SetSecret([]byte{0xff}))

	_, err = entry.GetPassword()
	assert.ErrorIs(t, err, keyring.ErrBadEncoding)
}

func TestInvalidKeysSurfaceOnUse(t *testing.T) {
	useStore(t)
	entry, err := keyring.NewEntry("", "user")
	require.NoError(t, err)

	_, err = entry.GetPassword()
	assert.ErrorIs(t, err, keyring.ErrInvalid)
	assert.ErrorIs(t, entry.SetPassword("x"), keyring.ErrInvalid)
}

func TestAsCredential(t *testing.T) {
	store := useStore(t)
	entry, err := keyring.NewEntry("svc", "user")
	require.NoError(t, err)

	_, err = entry.AsCredential()
	assert.ErrorIs(t, err, keyring.ErrNoEntry)
	assert.Equal(t, 0, store.Len())

	require.NoError(t, entry.SetPassword("pw"))
	wrapper, err := entry.AsCredential()
	require.NoError(t, err)
	assert.False(t, wrapper.IsSpecifier())
	assert.Nil(t, wrapper.Store())
	assert.True(t, wrapper.Key().Equal(entry.Key()))

	pw, err := wrapper.GetPassword()
	require.NoError(t, err)
	assert.Equal(t, "pw", pw)

	require.NoError(t, entry.DeleteCredential())
	_, err = wrapper.GetPassword()
	assert.ErrorIs(t, err, keyring.ErrNoEntry)

	// Recreating the key does not revive the wrapper.
	require.NoError(t, entry.SetPassword("again"))
	_, err = wrapper.GetPassword()
	assert.ErrorIs(t, err, keyring.ErrNoEntry)
	assert.ErrorIs(t, wrapper.SetPassword("x"), keyring.ErrNoEntry)
}

func TestNewEntryWithCredential(t *testing.T) {
	store := mock.New()

	_, err := keyring.NewEntryWithCredential(store, "", "user", nil)
	assert.ErrorIs(t, err, keyring.ErrInvalid)

	entry, err := keyring.NewEntryWithCredential(store, "svc", "user", nil)
	require.NoError(t, err)
	assert.False(t, entry.IsSpecifier())
	require.NotNil(t, entry.Credential())
	assert.Equal(t, "wrapper(svc/user)", entry.String())
}

func TestEntryString(t *testing.T) {
	store := mock.New(mock.WithID("test"))
	entry := keyring.NewEntryWithStore(store, "svc", "user", map[string]string{"k": "v"})
	assert.Equal(t, "specifier(svc/user{k=v} in test)", entry.String())
}

func TestSearch(t *testing.T) {
	store := useStore(t)
	for _, user := range []string{"bob", "alice"} {
		entry, err := keyring.NewEntry("svc", user)
		require.NoError(t, err)
		require.NoError(t, entry.SetPassword(user))
	}

	entries, err := keyring.SearchDefault(map[string]string{"service": "svc"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].Key().User)
	assert.Equal(t, "bob", entries[1].Key().User)

	entries, err = keyring.Search(store, map[string]string{"user": "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	keyring.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { keyring.SetLogger(nil) })

	keyring.NewEntryWithStore(mock.New(), "svc", "user", nil)
	assert.Contains(t, buf.String(), "created specifying entry")

	keyring.SetLogger(nil)
	buf.Reset()
	keyring.NewEntryWithStore(mock.New(), "svc", "user", nil)
	assert.Empty(t, buf.String())
}

func TestNilStore(t *testing.T) {
	keyring.SetLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { keyring.SetLogger(nil) })

	entry := keyring.NewEntryWithStore(nil, "svc", "user", nil)
	assert.Contains(t, entry.String(), "<nil>")
	_, err := entry.GetPassword()
	assert.ErrorIs(t, err, keyring.ErrNoDefaultStore)
	assert.ErrorIs(t, entry.SetPassword("pw"), keyring.ErrNoDefaultStore)

	_, err = keyring.NewEntryWithCredential(nil, "svc", "user", nil)
	assert.ErrorIs(t, err, keyring.ErrNoDefaultStore)
	_, err = keyring.Search(nil, nil)
	assert.ErrorIs(t, err, keyring.ErrNoDefaultStore)
}
