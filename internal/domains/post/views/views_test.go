package views

import (
	"testing"

	"github.com/stretchr/testify/assert"

	postmodel "qwitter-backend/internal/domains/post/model"
	usermodel "qwitter-backend/internal/domains/user/model"
)

// newest-first, the order the mirror maintains
var feed = []postmodel.Post{
	{ID: "p4", Owner: "carol", Likes: []string{"ada"}},
	{ID: "p3", Owner: "ada"},
	{ID: "p2", Owner: "bob", Likes: []string{"bob", "ada"}},
	{ID: "p1", Owner: "ada", Likes: []string{"carol"}},
}

func postIDs(posts []postmodel.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestFollowingPosts(t *testing.T) {
	ada := usermodel.User{ID: "u-ada", Username: "ada", Following: []string{"bob"}}

	got := FollowingPosts(feed, ada)

	// Own posts plus followed authors, input order preserved.
	assert.Equal(t, []string{"p3", "p2", "p1"}, postIDs(got))
}

func TestFollowingPostsWithNoFollows(t *testing.T) {
	solo := usermodel.User{ID: "u-dan", Username: "dan"}

	assert.Empty(t, FollowingPosts(feed, solo))
}

func TestProfilePosts(t *testing.T) {
	assert.Equal(t, []string{"p3", "p1"}, postIDs(ProfilePosts(feed, "ada")))
	assert.Empty(t, ProfilePosts(feed, "nobody"))
}

func TestLikedPosts(t *testing.T) {
	assert.Equal(t, []string{"p4", "p2"}, postIDs(LikedPosts(feed, "ada")))
	assert.Equal(t, []string{"p1"}, postIDs(LikedPosts(feed, "carol")))
	assert.Empty(t, LikedPosts(feed, "dan"))
}

func TestViewsDoNotMutateInput(t *testing.T) {
	before := postIDs(feed)

	FollowingPosts(feed, usermodel.User{Username: "ada", Following: []string{"bob", "carol"}})
	ProfilePosts(feed, "ada")
	LikedPosts(feed, "ada")

	assert.Equal(t, before, postIDs(feed))
}
