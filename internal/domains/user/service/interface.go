package service

import (
	"context"

	"qwitter-backend/internal/domains/user/model"
)

// UserService dispatches profile and follow-graph mutations to the remote
// store. Like the post dispatcher it never writes to the local users
// mirror; effects surface through "modified" change events.
type UserService interface {
	// UpdateProfile validates and persists profile changes, uploading
	// any newly selected avatar/cover image first and substituting the
	// resulting URLs into the update.
	UpdateProfile(ctx context.Context, userID string, req model.UpdateProfileRequest) error

	// FollowUser performs the two independent writes maintaining the
	// denormalized follow relationship: targetName into the actor's
	// following set, username into the target's followers set. The pair
	// is NOT atomic; a failure after the first write leaves the graph
	// asymmetric until a later mutation heals it.
	FollowUser(ctx context.Context, req model.FollowRequest) error

	// UnfollowUser is the symmetric removal, with the same
	// non-atomicity caveat.
	UnfollowUser(ctx context.Context, req model.FollowRequest) error
}
