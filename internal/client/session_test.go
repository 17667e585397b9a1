package client

import (
	"os"            // File checks
	"path/filepath" // Temp paths
	"testing"       // Testing framework

	"tournament_system/internal/domain" // User model

	"github.com/stretchr/testify/assert"  // Assertions
	"github.com/stretchr/testify/require" // Fatal assertions
)

func TestSessionStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewSessionStore(path)
	require.NoError(t, store.Load()) // Missing file is a signed-out session
	assert.False(t, store.Current().Valid())

	user := &domain.User{ID: 3, Username: "neo", Role: domain.RolePlayer}
	require.NoError(t, store.Save(Session{User: user, Token: "tok"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reloaded := NewSessionStore(path)
	require.NoError(t, reloaded.Load())
	sess := reloaded.Current()
	require.True(t, sess.Valid())
	assert.Equal(t, "tok", sess.Token)
	assert.Equal(t, "neo", sess.User.Username)

	require.NoError(t, reloaded.Clear())
	assert.Empty(t, reloaded.Token())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, reloaded.Clear()) // Clearing twice is fine
}

func TestSessionStoreCurrentIsACopy(t *testing.T) {
	store := NewSessionStore("")
	require.NoError(t, store.Save(Session{User: &domain.User{ID: 1, Username: "a"}, Token: "t"}))
	sess := store.Current()
	sess.User.Username = "changed"
	assert.Equal(t, "a", store.Current().User.Username)
}

func TestSessionStoreIgnoresPartialSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"token":"only-a-token"}`), 0o600))
	store := NewSessionStore(path)
	require.NoError(t, store.Load())
	assert.False(t, store.Current().Valid())

	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o600))
	assert.Error(t, store.Load())
}
