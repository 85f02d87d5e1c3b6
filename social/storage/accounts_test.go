package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	v, err := store.GetString("missing")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	require.NoError(t, store.SetString("token", "abc123"))
	v, err = store.GetString("token")
	require.NoError(t, err)
	assert.Equal(t, "abc123", v)

	require.NoError(t, store.SetString("token", "def456"))
	v, err = store.GetString("token")
	require.NoError(t, err)
	assert.Equal(t, "def456", v)
}

func TestSqliteDatabase(t *testing.T) {
	db := NewDatabase(filepath.Join(t.TempDir(), "accounts.db"))
	require.NoError(t, db.Open())
	defer db.Close()

	alice := db.Account("alice@example.com")
	bob := db.Account("bob@example.com")

	v, err := alice.GetString("oauth_client_key")
	require.NoError(t, err)
	assert.Equal(t, "", v, "unset keys read back empty")

	require.NoError(t, alice.SetString("oauth_client_key", "key1"))
	require.NoError(t, alice.SetString("oauth_client_secret", "secret1"))
	require.NoError(t, bob.SetString("oauth_client_key", "key2"))

	v, err = alice.GetString("oauth_client_key")
	require.NoError(t, err)
	assert.Equal(t, "key1", v)

	v, err = bob.GetString("oauth_client_key")
	require.NoError(t, err)
	assert.Equal(t, "key2", v, "stores are scoped per account")

	// Save on an existing primary key overwrites
	require.NoError(t, alice.SetString("oauth_client_key", "rotated"))
	v, err = alice.GetString("oauth_client_key")
	require.NoError(t, err)
	assert.Equal(t, "rotated", v)
}

func TestSqliteDatabase_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.db")

	db := NewDatabase(path)
	require.NoError(t, db.Open())
	require.NoError(t, db.Account("a").SetString("k", "v"))
	db.Close()

	db = NewDatabase(path)
	require.NoError(t, db.Open())
	defer db.Close()
	v, err := db.Account("a").GetString("k")
	require.NoError(t, err)
	assert.Equal(t, "v", v, "values survive a reopen")
}
