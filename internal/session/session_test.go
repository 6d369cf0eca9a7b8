package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qwitter-backend/internal/domains/auth/provider"
	"qwitter-backend/internal/infrastructure/docstore"
)

func newFixture(t *testing.T) (*docstore.MemoryStore, *provider.Local, *Session) {
	t.Helper()

	docs := docstore.NewMemoryStore()
	local := provider.NewLocal(docs)

	prefs, err := OpenPrefs(filepath.Join(t.TempDir(), "prefs"))
	require.NoError(t, err)

	sess := New(docs, local, prefs)
	sess.Start(context.Background())
	return docs, local, sess
}

func seedPost(t *testing.T, docs docstore.Store, id, owner, createdAt string) {
	t.Helper()
	err := docs.InsertWithID(context.Background(), docstore.CollectionPosts, id, map[string]any{
		"body":      "post " + id,
		"owner":     owner,
		"likes":     []string{},
		"createdAt": createdAt,
	})
	require.NoError(t, err)
}

func seedUser(t *testing.T, docs docstore.Store, id, username string) {
	t.Helper()
	err := docs.InsertWithID(context.Background(), docstore.CollectionUsers, id, map[string]any{
		"name":      username,
		"username":  username,
		"followers": []string{},
		"following": []string{},
		"createdAt": "2026-01-01T00:00:00Z",
	})
	require.NoError(t, err)
}

func postIDs(s *Session) []string {
	snapshot := s.Posts.Snapshot()
	out := make([]string, len(snapshot))
	for i, p := range snapshot {
		out[i] = p.ID
	}
	return out
}

func TestSignInPopulatesMirrorsNewestFirst(t *testing.T) {
	docs, local, sess := newFixture(t)

	// Existing data before anyone signs in.
	seedPost(t, docs, "p-old", "ada", "2026-01-01T00:00:00Z")
	seedPost(t, docs, "p-new", "ada", "2026-01-02T00:00:00Z")
	seedUser(t, docs, "u-ada", "ada")

	assert.Equal(t, 0, sess.Posts.Len(), "no subscription while signed out")

	identity, err := local.SignUp(context.Background(), "ada@example.com", "long enough")
	require.NoError(t, err)
	require.NotEmpty(t, identity.UserID)

	// Snapshot arrives oldest-first, front-insertion flips it.
	assert.Equal(t, []string{"p-new", "p-old"}, postIDs(sess))
	assert.False(t, sess.Posts.Loading())
	assert.True(t, sess.Prefs().WasAuthenticated())

	// Live additions land at the front.
	seedPost(t, docs, "p-live", "ada", "2026-01-03T00:00:00Z")
	assert.Equal(t, []string{"p-live", "p-new", "p-old"}, postIDs(sess))
}

func TestCurrentUserResolvesFromMirror(t *testing.T) {
	docs, local, sess := newFixture(t)

	_, ok := sess.CurrentUser()
	assert.False(t, ok)

	identity, err := local.SignUp(context.Background(), "ada@example.com", "long enough")
	require.NoError(t, err)

	// Registration persists the public document keyed by the identity;
	// here the test does that write directly.
	seedUser(t, docs, identity.UserID, "ada")

	u, ok := sess.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "ada", u.Username)
}

func TestSignOutResetsAndDropsLateEvents(t *testing.T) {
	docs, local, sess := newFixture(t)

	_, err := local.SignUp(context.Background(), "ada@example.com", "long enough")
	require.NoError(t, err)
	seedPost(t, docs, "p1", "ada", "2026-01-01T00:00:00Z")
	require.Equal(t, 1, sess.Posts.Len())

	require.NoError(t, local.SignOut(context.Background()))

	assert.Equal(t, 0, sess.Posts.Len())
	assert.Equal(t, 0, sess.Users.Len())
	assert.True(t, sess.Posts.Loading())
	assert.Nil(t, sess.Identity())
	assert.False(t, sess.Prefs().WasAuthenticated())

	// Writes while signed out must not revive the reset mirrors.
	seedPost(t, docs, "p2", "ada", "2026-01-02T00:00:00Z")
	assert.Equal(t, 0, sess.Posts.Len())
}

func TestSignBackInResubscribes(t *testing.T) {
	docs, local, sess := newFixture(t)

	_, err := local.SignUp(context.Background(), "ada@example.com", "long enough")
	require.NoError(t, err)
	seedPost(t, docs, "p1", "ada", "2026-01-01T00:00:00Z")

	require.NoError(t, local.SignOut(context.Background()))
	seedPost(t, docs, "p2", "ada", "2026-01-02T00:00:00Z")

	_, err = local.SignIn(context.Background(), "ada@example.com", "long enough")
	require.NoError(t, err)

	// The fresh snapshot includes writes made while signed out.
	assert.Equal(t, []string{"p2", "p1"}, postIDs(sess))
}

func TestMalformedEventsAreDropped(t *testing.T) {
	docs, local, sess := newFixture(t)

	_, err := local.SignUp(context.Background(), "ada@example.com", "long enough")
	require.NoError(t, err)

	// Missing owner and createdAt; the parser fails closed and the store
	// never sees the document.
	err = docs.InsertWithID(context.Background(), docstore.CollectionPosts, "p-bad", map[string]any{
		"body": "malformed",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, sess.Posts.Len())
}
