package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_EnvironmentRoundTrip(t *testing.T) {
	s := newTestStore(t)

	env, err := s.Environment()
	require.NoError(t, err)
	assert.Empty(t, env)

	require.NoError(t, s.SetEnvironment("staging"))

	env, err = s.Environment()
	require.NoError(t, err)
	assert.Equal(t, "staging", env)
}

func TestStore_EnvironmentPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SetEnvironment("development"))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	env, err := s.Environment()
	require.NoError(t, err)
	assert.Equal(t, "development", env)
}

func TestStore_RecentSearches(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.AddRecentSearch("denim"))
	require.NoError(t, s.AddRecentSearch("silk scarf"))
	require.NoError(t, s.AddRecentSearch("wool coat"))

	searches, err := s.RecentSearches()
	require.NoError(t, err)
	assert.Equal(t, []string{"wool coat", "silk scarf", "denim"}, searches)
}

func TestStore_RecentSearchesDeduplicates(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.AddRecentSearch("denim"))
	require.NoError(t, s.AddRecentSearch("silk scarf"))
	require.NoError(t, s.AddRecentSearch("denim"))

	searches, err := s.RecentSearches()
	require.NoError(t, err)
	assert.Equal(t, []string{"denim", "silk scarf"}, searches)
}

func TestStore_RecentSearchesCapped(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 15; i++ {
		require.NoError(t, s.AddRecentSearch(fmt.Sprintf("query-%d", i)))
	}

	searches, err := s.RecentSearches()
	require.NoError(t, err)
	require.Len(t, searches, maxRecentSearches)
	assert.Equal(t, "query-14", searches[0])
	assert.Equal(t, "query-5", searches[len(searches)-1])
}

func TestStore_RecentSearchesIgnoresEmpty(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.AddRecentSearch(""))

	searches, err := s.RecentSearches()
	require.NoError(t, err)
	assert.Empty(t, searches)
}

func TestStore_EnqueueAndPending(t *testing.T) {
	s := newTestStore(t)

	payload := json.RawMessage(`{"title": "Wool overcoat"}`)
	item, err := s.Enqueue("Wool overcoat", "user-1", payload)
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "Wool overcoat", item.Title)

	pending, err := s.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, item.ID, pending[0].ID)
	assert.JSONEq(t, string(payload), string(pending[0].Payload))
}

func TestStore_EnqueueReplacesMatchingEntry(t *testing.T) {
	s := newTestStore(t)

	first, err := s.Enqueue("Wool overcoat", "user-1", json.RawMessage(`{"price": 120}`))
	require.NoError(t, err)

	// Same title and owner replaces; a different owner does not.
	second, err := s.Enqueue("Wool overcoat", "user-1", json.RawMessage(`{"price": 110}`))
	require.NoError(t, err)
	_, err = s.Enqueue("Wool overcoat", "user-2", json.RawMessage(`{"price": 90}`))
	require.NoError(t, err)

	pending, err := s.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 2)

	ids := []string{pending[0].ID, pending[1].ID}
	assert.NotContains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
}

func TestStore_PendingOldestFirst(t *testing.T) {
	s := newTestStore(t)

	a, err := s.Enqueue("Item A", "user-1", json.RawMessage(`{}`))
	require.NoError(t, err)
	b, err := s.Enqueue("Item B", "user-1", json.RawMessage(`{}`))
	require.NoError(t, err)
	c, err := s.Enqueue("Item C", "user-1", json.RawMessage(`{}`))
	require.NoError(t, err)

	pending, err := s.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.False(t, pending[0].EnqueuedAt.After(pending[1].EnqueuedAt))
	assert.False(t, pending[1].EnqueuedAt.After(pending[2].EnqueuedAt))

	ids := []string{pending[0].ID, pending[1].ID, pending[2].ID}
	assert.ElementsMatch(t, []string{a.ID, b.ID, c.ID}, ids)
}

func TestStore_Remove(t *testing.T) {
	s := newTestStore(t)

	item, err := s.Enqueue("Item", "user-1", json.RawMessage(`{}`))
	require.NoError(t, err)

	require.NoError(t, s.Remove(item.ID))

	pending, err := s.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Removing a missing ID is a no-op.
	assert.NoError(t, s.Remove("missing"))
}
