package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qwitter-backend/internal/domains/user/model"
)

var community = []model.User{
	{ID: "u1", Username: "ada", Followers: []string{"bob"}, Following: []string{"carol"}},
	{ID: "u2", Username: "bob", Followers: []string{}, Following: []string{"ada"}},
	{ID: "u3", Username: "carol", Followers: []string{"ada"}, Following: []string{}},
	{ID: "u4", Username: "dan", Followers: []string{}, Following: []string{}},
}

func usernames(users []model.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.Username
	}
	return out
}

func TestSuggestedUsersExcludesSelfAndFollowed(t *testing.T) {
	ada := community[0]

	got := SuggestedUsers(community, ada)

	// carol is already followed (ada in her followers), ada is self.
	assert.Equal(t, []string{"bob", "dan"}, usernames(got))
}

func TestSuggestedUsersForNewcomer(t *testing.T) {
	dan := community[3]

	got := SuggestedUsers(community, dan)

	assert.Equal(t, []string{"ada", "bob", "carol"}, usernames(got))
}

func TestFollowersOf(t *testing.T) {
	// bob follows ada (ada in bob's following set).
	assert.Equal(t, []string{"bob"}, usernames(FollowersOf(community, "ada")))
	assert.Empty(t, FollowersOf(community, "dan"))
}

func TestFollowingOf(t *testing.T) {
	// ada follows carol (ada in carol's followers set).
	assert.Equal(t, []string{"carol"}, usernames(FollowingOf(community, "ada")))
	assert.Empty(t, FollowingOf(community, "dan"))
}

func TestByUsername(t *testing.T) {
	u, found := ByUsername(community, "carol")
	require.True(t, found)
	assert.Equal(t, "u3", u.ID)

	_, found = ByUsername(community, "eve")
	assert.False(t, found)
}
