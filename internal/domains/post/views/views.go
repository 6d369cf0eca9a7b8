// Package views holds the pure projections screens read posts through.
// Every function preserves the input order (descending creation time);
// none of them re-sort.
package views

import (
	postmodel "qwitter-backend/internal/domains/post/model"
	usermodel "qwitter-backend/internal/domains/user/model"
)

// FollowingPosts returns the home feed: posts authored by the user or by
// anyone the user follows.
func FollowingPosts(posts []postmodel.Post, user usermodel.User) []postmodel.Post {
	out := make([]postmodel.Post, 0, len(posts))
	for _, p := range posts {
		if p.Owner == user.Username || user.Follows(p.Owner) {
			out = append(out, p)
		}
	}
	return out
}

// ProfilePosts returns the posts authored by username.
func ProfilePosts(posts []postmodel.Post, username string) []postmodel.Post {
	out := make([]postmodel.Post, 0, len(posts))
	for _, p := range posts {
		if p.Owner == username {
			out = append(out, p)
		}
	}
	return out
}

// LikedPosts returns the posts username has liked.
func LikedPosts(posts []postmodel.Post, username string) []postmodel.Post {
	out := make([]postmodel.Post, 0, len(posts))
	for _, p := range posts {
		if p.LikedBy(username) {
			out = append(out, p)
		}
	}
	return out
}
