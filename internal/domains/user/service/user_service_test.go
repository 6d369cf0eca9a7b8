package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qwitter-backend/internal/domains/user/model"
	"qwitter-backend/internal/infrastructure/docstore"
	"qwitter-backend/internal/infrastructure/storage"
	"qwitter-backend/internal/shared/apperrors"
)

const maxTestImageBytes = 1 << 20

type fakeStorage struct {
	uploads []string
}

func (f *fakeStorage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string, onProgress storage.ProgressFunc) (string, error) {
	f.uploads = append(f.uploads, key)
	return "http://objects.local/qwitter/" + key, nil
}

func (f *fakeStorage) Remove(ctx context.Context, key string) error { return nil }

func (f *fakeStorage) KeyFromURL(rawURL string) (string, error) {
	return strings.TrimPrefix(rawURL, "http://objects.local/qwitter/"), nil
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

func getUser(t *testing.T, docs docstore.Store, id string) model.User {
	t.Helper()
	var u model.User
	require.NoError(t, docs.GetByID(context.Background(), docstore.CollectionUsers, id, &u))
	return u
}

func TestFollowUpdatesBothSides(t *testing.T) {
	docs := docstore.NewMemoryStore()
	svc := NewUserService(docs, &fakeStorage{}, maxTestImageBytes)

	seedUser(t, docs, "u-ada", "ada")
	seedUser(t, docs, "u-grace", "grace")

	err := svc.FollowUser(context.Background(), model.FollowRequest{
		UserID:     "u-ada",
		Username:   "ada",
		TargetID:   "u-grace",
		TargetName: "grace",
	})
	require.NoError(t, err)

	assert.True(t, getUser(t, docs, "u-ada").Follows("grace"))
	assert.True(t, getUser(t, docs, "u-grace").FollowedBy("ada"))
}

func TestFollowPartialFailureLeavesAsymmetry(t *testing.T) {
	docs := docstore.NewMemoryStore()
	svc := NewUserService(docs, &fakeStorage{}, maxTestImageBytes)

	seedUser(t, docs, "u-ada", "ada")
	seedUser(t, docs, "u-grace", "grace")

	// The follower-side write fails after the following-side write
	// succeeded. The relationship is two independent writes; the half
	// that landed stays.
	docs.FailUpdate = func(collection, id string) error {
		if id == "u-grace" {
			return fmt.Errorf("write rejected")
		}
		return nil
	}

	err := svc.FollowUser(context.Background(), model.FollowRequest{
		UserID:     "u-ada",
		Username:   "ada",
		TargetID:   "u-grace",
		TargetName: "grace",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindRemoteWrite, apperrors.KindOf(err))

	assert.True(t, getUser(t, docs, "u-ada").Follows("grace"),
		"first write is not rolled back")
	assert.False(t, getUser(t, docs, "u-grace").FollowedBy("ada"))
}

func TestUnfollowRemovesBothSides(t *testing.T) {
	docs := docstore.NewMemoryStore()
	svc := NewUserService(docs, &fakeStorage{}, maxTestImageBytes)

	seedUser(t, docs, "u-ada", "ada")
	seedUser(t, docs, "u-grace", "grace")

	req := model.FollowRequest{UserID: "u-ada", Username: "ada", TargetID: "u-grace", TargetName: "grace"}
	require.NoError(t, svc.FollowUser(context.Background(), req))
	require.NoError(t, svc.UnfollowUser(context.Background(), req))

	assert.False(t, getUser(t, docs, "u-ada").Follows("grace"))
	assert.False(t, getUser(t, docs, "u-grace").FollowedBy("ada"))

	// Unfollowing an absent relation is a remote no-op, not an error.
	require.NoError(t, svc.UnfollowUser(context.Background(), req))
}

func TestFollowRequiresBothSides(t *testing.T) {
	svc := NewUserService(docstore.NewMemoryStore(), &fakeStorage{}, maxTestImageBytes)

	err := svc.FollowUser(context.Background(), model.FollowRequest{UserID: "u-ada", Username: "ada"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestUpdateProfileUploadsImagesFirst(t *testing.T) {
	docs := docstore.NewMemoryStore()
	objects := &fakeStorage{}
	svc := NewUserService(docs, objects, maxTestImageBytes)

	seedUser(t, docs, "u-ada", "ada")

	err := svc.UpdateProfile(context.Background(), "u-ada", model.UpdateProfileRequest{
		Name:   "Ada L.",
		Bio:    "writes programs",
		Avatar: &model.ImageUpload{Reader: strings.NewReader("a"), Size: 1, Name: "avatar.png"},
		Cover:  &model.ImageUpload{Reader: strings.NewReader("c"), Size: 1, Name: "cover.png"},
	})
	require.NoError(t, err)
	require.Len(t, objects.uploads, 2)

	u := getUser(t, docs, "u-ada")
	assert.Equal(t, "Ada L.", u.Name)
	assert.Equal(t, "writes programs", u.Bio)
	assert.Contains(t, u.ProfilePicURL, "avatar.png")
	assert.Contains(t, u.CoverPicURL, "cover.png")
	// Username is immutable; a profile update must not touch it.
	assert.Equal(t, "ada", u.Username)
}

func TestUpdateProfileRejectsOversizedImage(t *testing.T) {
	docs := docstore.NewMemoryStore()
	objects := &fakeStorage{}
	svc := NewUserService(docs, objects, maxTestImageBytes)

	seedUser(t, docs, "u-ada", "ada")

	err := svc.UpdateProfile(context.Background(), "u-ada", model.UpdateProfileRequest{
		Name:   "Ada",
		Avatar: &model.ImageUpload{Reader: strings.NewReader("a"), Size: maxTestImageBytes + 1, Name: "huge.png"},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsImageTooLarge(err))
	assert.Empty(t, objects.uploads)

	// The whole update is rejected; no partial profile write happened.
	u := getUser(t, docs, "u-ada")
	assert.Equal(t, "ada", u.Name)
}

func TestUpdateProfileValidation(t *testing.T) {
	svc := NewUserService(docstore.NewMemoryStore(), &fakeStorage{}, maxTestImageBytes)

	err := svc.UpdateProfile(context.Background(), "u-ada", model.UpdateProfileRequest{Name: "   "})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	err = svc.UpdateProfile(context.Background(), "u-ada", model.UpdateProfileRequest{
		Name: "Ada",
		Bio:  strings.Repeat("b", model.MaxBioLength+1),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	err = svc.UpdateProfile(context.Background(), "", model.UpdateProfileRequest{Name: "Ada"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}
