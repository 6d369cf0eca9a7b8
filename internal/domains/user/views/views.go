// Package views holds the pure projections screens read users through.
// Input order is preserved (arbitrary but stable); nothing re-sorts.
package views

import (
	"qwitter-backend/internal/domains/user/model"
)

// SuggestedUsers returns follow candidates: everyone the current user does
// not already follow, excluding the current user.
func SuggestedUsers(users []model.User, current model.User) []model.User {
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.Username == current.Username {
			continue
		}
		if u.FollowedBy(current.Username) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// FollowersOf returns the users who follow username, by membership in
// their denormalized following sets.
func FollowersOf(users []model.User, username string) []model.User {
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.Follows(username) {
			out = append(out, u)
		}
	}
	return out
}

// FollowingOf returns the users username follows, by membership in their
// denormalized follower sets.
func FollowingOf(users []model.User, username string) []model.User {
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.FollowedBy(username) {
			out = append(out, u)
		}
	}
	return out
}

// ByUsername finds a user by username.
func ByUsername(users []model.User, username string) (model.User, bool) {
	for _, u := range users {
		if u.Username == username {
			return u, true
		}
	}
	return model.User{}, false
}
