package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"qwitter-backend/internal/domains/post/model"
	"qwitter-backend/internal/infrastructure/docstore"
	"qwitter-backend/internal/infrastructure/queue"
	"qwitter-backend/internal/infrastructure/storage"
	"qwitter-backend/internal/shared/apperrors"
)

type postService struct {
	docs          docstore.Store
	objects       storage.ObjectStorage
	tasks         queue.Enqueuer // may be nil when no worker is deployed
	maxImageBytes int64
}

// NewPostService creates the post command dispatcher.
func NewPostService(docs docstore.Store, objects storage.ObjectStorage, tasks queue.Enqueuer, maxImageBytes int64) PostService {
	return &postService{
		docs:          docs,
		objects:       objects,
		tasks:         tasks,
		maxImageBytes: maxImageBytes,
	}
}

// postDocument is the wire shape persisted for a post. The id is assigned
// by the store; likes always start empty.
type postDocument struct {
	Body      string   `json:"body"`
	ImageURL  string   `json:"imageUrl,omitempty"`
	Owner     string   `json:"owner"`
	Likes     []string `json:"likes"`
	CreatedAt string   `json:"createdAt"`
}

func (s *postService) CreatePost(ctx context.Context, req model.CreatePostRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", apperrors.Validation(err.Error())
	}

	var imageURL string
	if req.Image != nil {
		// Size ceiling is checked before the transfer starts; an
		// oversized file never reaches the network.
		if err := storage.CheckSize(req.Image.Size, s.maxImageBytes); err != nil {
			return "", err
		}

		key := fmt.Sprintf("posts/%s/%s", uuid.NewString(), req.Image.Name)
		url, err := s.objects.Upload(ctx, key, req.Image.Reader, req.Image.Size, req.Image.ContentType, nil)
		if err != nil {
			return "", apperrors.RemoteWrite(fmt.Errorf("upload post image: %w", err))
		}
		imageURL = url
	}

	doc := postDocument{
		Body:      strings.TrimSpace(req.Body),
		ImageURL:  imageURL,
		Owner:     req.Owner,
		Likes:     []string{},
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	id, err := s.docs.Insert(ctx, docstore.CollectionPosts, doc)
	if err != nil {
		return "", apperrors.RemoteWrite(fmt.Errorf("create post: %w", err))
	}

	// The post is not merged into the local mirror here; it becomes
	// visible once the "added" event is delivered.
	return id, nil
}

func (s *postService) DeletePost(ctx context.Context, id string) error {
	// Read the image URL first so the object can be cleaned up after the
	// delete is confirmed. A failed read only skips cleanup.
	var post model.Post
	if err := s.docs.GetByID(ctx, docstore.CollectionPosts, id, &post); err != nil {
		log.Debug().Err(err).Str("post_id", id).Msg("could not read post before delete")
	}

	if err := s.docs.Delete(ctx, docstore.CollectionPosts, id); err != nil {
		return apperrors.RemoteWrite(fmt.Errorf("delete post: %w", err))
	}

	if post.ImageURL != "" && s.tasks != nil {
		if err := s.tasks.EnqueueImageCleanup(ctx, id, post.ImageURL); err != nil {
			// The post is gone; a leaked object is not a command
			// failure.
			log.Error().Err(err).Str("post_id", id).Msg("failed to enqueue image cleanup")
		}
	}
	return nil
}

func (s *postService) LikePost(ctx context.Context, postID, username string) error {
	if postID == "" || username == "" {
		return apperrors.Validation("post id and username are required")
	}

	err := s.docs.Update(ctx, docstore.CollectionPosts, postID, docstore.Update{
		SetAdd: map[string]string{"likes": username},
	})
	if err != nil {
		return apperrors.RemoteWrite(fmt.Errorf("like post: %w", err))
	}
	return nil
}

func (s *postService) UnlikePost(ctx context.Context, postID, username string) error {
	if postID == "" || username == "" {
		return apperrors.Validation("post id and username are required")
	}

	err := s.docs.Update(ctx, docstore.CollectionPosts, postID, docstore.Update{
		SetRemove: map[string]string{"likes": username},
	})
	if err != nil {
		return apperrors.RemoteWrite(fmt.Errorf("unlike post: %w", err))
	}
	return nil
}
