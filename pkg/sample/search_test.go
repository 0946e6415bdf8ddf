package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semmy-space/keyring/pkg/keyring"
)

func TestWildcardToRegexp(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		expected string
	}{
		{name: "star", pattern: "git*", expected: "^git(?s:.*)$"},
		{name: "question", pattern: "a?c", expected: "^a(?s:.)c$"},
		{name: "quotes meta", pattern: "a.b*", expected: `^a\.b(?s:.*)$`},
		{name: "only star", pattern: "*", expected: "^(?s:.*)$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, wildcardToRegexp(tt.pattern))
		})
	}
}

func seedSearchStore(t *testing.T) *Store {
	t.Helper()
	s := newMemoryStore(t)
	for _, k := range []struct{ service, user, env string }{
		{"github.com", "alice", "work"},
		{"github.com", "bob", "home"},
		{"gitlab.com", "alice", "work"},
		{"example.org", "carol", ""},
	} {
		var mods map[string]string
		if k.env != "" {
			mods = map[string]string{"env": k.env}
		}
		require.NoError(t, keyring.NewEntryWithStore(s, k.service, k.user, mods).SetPassword("pw"))
	}
	return s
}

func keysOf(entries []*keyring.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Key().Service + "/" + e.Key().User
	}
	return out
}

func TestSearch(t *testing.T) {
	s := seedSearchStore(t)

	tests := []struct {
		name     string
		query    map[string]string
		expected []string
	}{
		{
			name:     "empty query matches all in order",
			query:    map[string]string{},
			expected: []string{"example.org/carol", "github.com/alice", "github.com/bob", "gitlab.com/alice"},
		},
		{
			name:     "exact user",
			query:    map[string]string{"user": "alice"},
			expected: []string{"github.com/alice", "gitlab.com/alice"},
		},
		{
			name:     "exact is not a prefix match",
			query:    map[string]string{"service": "git"},
			expected: []string{},
		},
		{
			name:     "wildcard",
			query:    map[string]string{"service": "git*.com"},
			expected: []string{"github.com/alice", "github.com/bob", "gitlab.com/alice"},
		},
		{
			name:     "regexp is unanchored",
			query:    map[string]string{"service": "re:lab"},
			expected: []string{"gitlab.com/alice"},
		},
		{
			name:     "modifier",
			query:    map[string]string{"env": "work"},
			expected: []string{"github.com/alice", "gitlab.com/alice"},
		},
		{
			name:     "terms are conjunctive",
			query:    map[string]string{"env": "work", "service": "github.com"},
			expected: []string{"github.com/alice"},
		},
		{
			name:     "unknown key matches nothing",
			query:    map[string]string{"color": "*"},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := keyring.Search(s, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, keysOf(entries))
			for _, e := range entries {
				assert.False(t, e.IsSpecifier())
			}
		})
	}
}

func TestSearchInvalid(t *testing.T) {
	s := seedSearchStore(t)

	_, err := s.Search(map[string]string{"service": "re:("})
	require.ErrorIs(t, err, keyring.ErrInvalid)
	var kerr *keyring.Error
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, "service", kerr.Attr)

	_, err = s.Search(map[string]string{"": "x"})
	assert.ErrorIs(t, err, keyring.ErrInvalid)
}

func TestSearchResultsAreLive(t *testing.T) {
	s := seedSearchStore(t)
	entries, err := s.Search(map[string]string{"user": "carol"})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, entries[0].SetPassword("changed"))
	pw, err := keyring.NewEntryWithStore(s, "example.org", "carol", nil).GetPassword()
	require.NoError(t, err)
	assert.Equal(t, "changed", pw)
}
