package service

import (
	"context"
	"fmt"
	"strings"

	"qwitter-backend/internal/domains/user/model"
	"qwitter-backend/internal/infrastructure/docstore"
	"qwitter-backend/internal/infrastructure/storage"
	"qwitter-backend/internal/shared/apperrors"
)

type userService struct {
	docs          docstore.Store
	objects       storage.ObjectStorage
	maxImageBytes int64
}

// NewUserService creates the user command dispatcher.
func NewUserService(docs docstore.Store, objects storage.ObjectStorage, maxImageBytes int64) UserService {
	return &userService{
		docs:          docs,
		objects:       objects,
		maxImageBytes: maxImageBytes,
	}
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, req model.UpdateProfileRequest) error {
	if userID == "" {
		return apperrors.Validation("user id is required")
	}
	if err := req.Validate(); err != nil {
		return apperrors.Validation(err.Error())
	}

	set := map[string]any{
		"name": strings.TrimSpace(req.Name),
		"bio":  strings.TrimSpace(req.Bio),
	}

	// Newly selected images are uploaded before the profile write; the
	// write then carries durable URLs only.
	if req.Avatar != nil {
		url, err := s.uploadProfileImage(ctx, userID, "avatar", req.Avatar)
		if err != nil {
			return err
		}
		set["profilePicUrl"] = url
	}
	if req.Cover != nil {
		url, err := s.uploadProfileImage(ctx, userID, "cover", req.Cover)
		if err != nil {
			return err
		}
		set["coverPicUrl"] = url
	}

	err := s.docs.Update(ctx, docstore.CollectionUsers, userID, docstore.Update{Set: set})
	if err != nil {
		return apperrors.RemoteWrite(fmt.Errorf("update profile: %w", err))
	}
	return nil
}

func (s *userService) uploadProfileImage(ctx context.Context, userID, kind string, img *model.ImageUpload) (string, error) {
	if err := storage.CheckSize(img.Size, s.maxImageBytes); err != nil {
		return "", err
	}

	key := fmt.Sprintf("profiles/%s/%s/%s", userID, kind, img.Name)
	url, err := s.objects.Upload(ctx, key, img.Reader, img.Size, img.ContentType, nil)
	if err != nil {
		return "", apperrors.RemoteWrite(fmt.Errorf("upload %s image: %w", kind, err))
	}
	return url, nil
}

func (s *userService) FollowUser(ctx context.Context, req model.FollowRequest) error {
	if err := req.Validate(); err != nil {
		return apperrors.Validation(err.Error())
	}

	// Two separate writes, not a transaction. If the second fails the
	// acting user "follows" someone who doesn't list them as a follower;
	// the asymmetry window is accepted and documented, not hidden.
	err := s.docs.Update(ctx, docstore.CollectionUsers, req.UserID, docstore.Update{
		SetAdd: map[string]string{"following": req.TargetName},
	})
	if err != nil {
		return apperrors.RemoteWrite(fmt.Errorf("add to following: %w", err))
	}

	err = s.docs.Update(ctx, docstore.CollectionUsers, req.TargetID, docstore.Update{
		SetAdd: map[string]string{"followers": req.Username},
	})
	if err != nil {
		return apperrors.RemoteWrite(fmt.Errorf("add to followers: %w", err))
	}
	return nil
}

func (s *userService) UnfollowUser(ctx context.Context, req model.FollowRequest) error {
	if err := req.Validate(); err != nil {
		return apperrors.Validation(err.Error())
	}

	err := s.docs.Update(ctx, docstore.CollectionUsers, req.UserID, docstore.Update{
		SetRemove: map[string]string{"following": req.TargetName},
	})
	if err != nil {
		return apperrors.RemoteWrite(fmt.Errorf("remove from following: %w", err))
	}

	err = s.docs.Update(ctx, docstore.CollectionUsers, req.TargetID, docstore.Update{
		SetRemove: map[string]string{"followers": req.Username},
	})
	if err != nil {
		return apperrors.RemoteWrite(fmt.Errorf("remove from followers: %w", err))
	}
	return nil
}
