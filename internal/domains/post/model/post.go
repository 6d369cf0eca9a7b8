package model

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxBodyLength caps post bodies.
const MaxBodyLength = 140

// Post is a short text/image update. Owner is the author's username, a
// denormalized reference; Likes holds the usernames who liked the post.
// CreatedAt is an ISO-8601 string assigned at creation and is the sole
// sort key (descending).
type Post struct {
	ID        string   `json:"id"`
	Body      string   `json:"body"`
	ImageURL  string   `json:"imageUrl,omitempty"`
	Owner     string   `json:"owner"`
	Likes     []string `json:"likes"`
	CreatedAt string   `json:"createdAt"`
}

// EntityID implements entitystore.Entity.
func (p Post) EntityID() string { return p.ID }

// LikedBy reports whether username is in the post's likes set.
func (p Post) LikedBy(username string) bool {
	for _, u := range p.Likes {
		if u == username {
			return true
		}
	}
	return false
}

// Parse decodes a change-event document into a Post, failing closed on
// missing required fields instead of trusting the remote shape.
func Parse(data []byte) (Post, error) {
	var p Post
	if err := json.Unmarshal(data, &p); err != nil {
		return Post{}, fmt.Errorf("decode post: %w", err)
	}
	if p.ID == "" {
		return Post{}, fmt.Errorf("post document missing id")
	}
	if p.Owner == "" {
		return Post{}, fmt.Errorf("post %s missing owner", p.ID)
	}
	if p.CreatedAt == "" {
		return Post{}, fmt.Errorf("post %s missing createdAt", p.ID)
	}
	if p.Likes == nil {
		p.Likes = []string{}
	}
	return p, nil
}

// ImageUpload carries a locally-selected image file into the upload
// pipeline.
type ImageUpload struct {
	Reader      io.Reader
	Size        int64
	Name        string
	ContentType string
}

// CreatePostRequest is the create-post command input.
type CreatePostRequest struct {
	Body  string
	Owner string
	Image *ImageUpload
}

// Validate enforces the submission rules: non-empty trimmed body within
// the length cap, and a known owner.
func (r CreatePostRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Body,
			validation.By(requireNonBlank("post body")),
			validation.Length(0, MaxBodyLength),
		),
		validation.Field(&r.Owner, validation.Required),
	)
}

func requireNonBlank(name string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
		return nil
	}
}
