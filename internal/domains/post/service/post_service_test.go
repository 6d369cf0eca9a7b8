package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qwitter-backend/internal/domains/post/model"
	"qwitter-backend/internal/infrastructure/docstore"
	"qwitter-backend/internal/infrastructure/storage"
	"qwitter-backend/internal/shared/apperrors"
	"qwitter-backend/internal/shared/entitystore"
)

const maxTestImageBytes = 2 << 20

// fakeStorage records uploads without moving any bytes.
type fakeStorage struct {
	uploads []string
	removed []string
}

func (f *fakeStorage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string, onProgress storage.ProgressFunc) (string, error) {
	f.uploads = append(f.uploads, key)
	return "http://objects.local/qwitter/" + key, nil
}

func (f *fakeStorage) Remove(ctx context.Context, key string) error {
	f.removed = append(f.removed, key)
	return nil
}

func (f *fakeStorage) KeyFromURL(rawURL string) (string, error) {
	key, ok := strings.CutPrefix(rawURL, "http://objects.local/qwitter/")
	if !ok {
		return "", fmt.Errorf("url %q not in managed storage", rawURL)
	}
	return key, nil
}

type fakeEnqueuer struct {
	cleanups []string // image URLs
}

func (f *fakeEnqueuer) EnqueueImageCleanup(ctx context.Context, postID, imageURL string) error {
	f.cleanups = append(f.cleanups, imageURL)
	return nil
}

// mirror subscribes a posts entity store to the change feed the way the
// session does, so tests observe effects only through events.
func mirror(t *testing.T, docs docstore.Store) *entitystore.Store[model.Post] {
	t.Helper()
	posts := entitystore.New[model.Post]()
	err := docs.Subscribe(context.Background(), docstore.CollectionPosts, func(evt docstore.Event) {
		if evt.Type == docstore.EventRemoved {
			posts.ApplyRemoved(evt.ID)
			return
		}
		p, err := model.Parse(evt.Data)
		if err != nil {
			return
		}
		switch evt.Type {
		case docstore.EventAdded:
			posts.ApplyAdded(p)
		case docstore.EventModified:
			posts.ApplyModified(p)
		}
	})
	require.NoError(t, err)
	return posts
}

func TestCreatePostVisibleOnlyThroughEvents(t *testing.T) {
	docs := docstore.NewMemoryStore()
	posts := mirror(t, docs)
	svc := NewPostService(docs, &fakeStorage{}, nil, maxTestImageBytes)

	id, err := svc.CreatePost(context.Background(), model.CreatePostRequest{
		Body:  "hello world",
		Owner: "ada",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// The dispatcher returned an id but never touched the mirror itself;
	// the post is there because the "added" event was delivered.
	got, ok := posts.Get(id)
	require.True(t, ok)
	assert.Equal(t, "hello world", got.Body)
	assert.Equal(t, "ada", got.Owner)
	assert.Empty(t, got.Likes)
	assert.NotEmpty(t, got.CreatedAt)
}

func TestCreatePostValidation(t *testing.T) {
	docs := docstore.NewMemoryStore()
	posts := mirror(t, docs)
	svc := NewPostService(docs, &fakeStorage{}, nil, maxTestImageBytes)

	cases := []struct {
		name string
		req  model.CreatePostRequest
	}{
		{"blank body", model.CreatePostRequest{Body: "   ", Owner: "ada"}},
		{"body too long", model.CreatePostRequest{Body: strings.Repeat("x", model.MaxBodyLength+1), Owner: "ada"}},
		{"missing owner", model.CreatePostRequest{Body: "hi"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreatePost(context.Background(), tc.req)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
		})
	}

	assert.Equal(t, 0, posts.Len())
}

func TestCreatePostRejectsOversizedImage(t *testing.T) {
	docs := docstore.NewMemoryStore()
	posts := mirror(t, docs)
	objects := &fakeStorage{}
	svc := NewPostService(docs, objects, nil, maxTestImageBytes)

	_, err := svc.CreatePost(context.Background(), model.CreatePostRequest{
		Body:  "with image",
		Owner: "ada",
		Image: &model.ImageUpload{
			Reader: strings.NewReader("pretend image"),
			Size:   maxTestImageBytes + 1,
			Name:   "big.png",
		},
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsImageTooLarge(err))
	// Rejected before any transfer and before the document write.
	assert.Empty(t, objects.uploads)
	assert.Equal(t, 0, posts.Len())
}

func TestCreatePostUploadsImageFirst(t *testing.T) {
	docs := docstore.NewMemoryStore()
	posts := mirror(t, docs)
	objects := &fakeStorage{}
	svc := NewPostService(docs, objects, nil, maxTestImageBytes)

	id, err := svc.CreatePost(context.Background(), model.CreatePostRequest{
		Body:  "with image",
		Owner: "ada",
		Image: &model.ImageUpload{
			Reader:      strings.NewReader("pretend image"),
			Size:        512,
			Name:        "pic.png",
			ContentType: "image/png",
		},
	})
	require.NoError(t, err)
	require.Len(t, objects.uploads, 1)

	got, ok := posts.Get(id)
	require.True(t, ok)
	assert.Contains(t, got.ImageURL, objects.uploads[0])
}

func TestDeletePostEnqueuesImageCleanup(t *testing.T) {
	docs := docstore.NewMemoryStore()
	posts := mirror(t, docs)
	tasks := &fakeEnqueuer{}
	svc := NewPostService(docs, &fakeStorage{}, tasks, maxTestImageBytes)

	id, err := svc.CreatePost(context.Background(), model.CreatePostRequest{
		Body:  "short lived",
		Owner: "ada",
		Image: &model.ImageUpload{Reader: strings.NewReader("img"), Size: 3, Name: "a.png"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeletePost(context.Background(), id))

	_, ok := posts.Get(id)
	assert.False(t, ok, "removed event should have evicted the post")
	require.Len(t, tasks.cleanups, 1)
	assert.Contains(t, tasks.cleanups[0], "a.png")
}

func TestLikeUnlikeRoundTrip(t *testing.T) {
	docs := docstore.NewMemoryStore()
	posts := mirror(t, docs)
	svc := NewPostService(docs, &fakeStorage{}, nil, maxTestImageBytes)

	id, err := svc.CreatePost(context.Background(), model.CreatePostRequest{Body: "like me", Owner: "ada"})
	require.NoError(t, err)

	require.NoError(t, svc.LikePost(context.Background(), id, "grace"))
	// Double-tap: adding an already-present member must not duplicate it.
	require.NoError(t, svc.LikePost(context.Background(), id, "grace"))

	got, ok := posts.Get(id)
	require.True(t, ok)
	assert.Equal(t, []string{"grace"}, got.Likes)

	require.NoError(t, svc.UnlikePost(context.Background(), id, "grace"))
	require.NoError(t, svc.UnlikePost(context.Background(), id, "grace"))

	got, ok = posts.Get(id)
	require.True(t, ok)
	assert.Empty(t, got.Likes)
}

func TestLikeRequiresIdentifiers(t *testing.T) {
	svc := NewPostService(docstore.NewMemoryStore(), &fakeStorage{}, nil, maxTestImageBytes)

	assert.True(t, apperrors.IsValidation(svc.LikePost(context.Background(), "", "grace")))
	assert.True(t, apperrors.IsValidation(svc.UnlikePost(context.Background(), "p1", "")))
}
