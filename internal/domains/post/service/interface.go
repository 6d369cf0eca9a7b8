package service

import (
	"context"

	"qwitter-backend/internal/domains/post/model"
)

// PostService dispatches post mutations to the remote store. It never
// mutates the local posts mirror; every effect becomes visible only once
// the corresponding change event is delivered.
type PostService interface {
	// CreatePost persists a new post, uploading its image first when one
	// is attached, and returns the assigned id.
	CreatePost(ctx context.Context, req model.CreatePostRequest) (string, error)

	// DeletePost removes a post remotely. Local removal arrives via the
	// "removed" event, not as a side effect of this call.
	DeletePost(ctx context.Context, id string) error

	// LikePost adds username to the post's likes set. Idempotent at the
	// remote layer.
	LikePost(ctx context.Context, postID, username string) error

	// UnlikePost removes username from the post's likes set. Idempotent
	// at the remote layer.
	UnlikePost(ctx context.Context, postID, username string) error
}
