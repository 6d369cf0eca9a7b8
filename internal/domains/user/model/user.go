package model

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	// MaxBioLength caps profile bios.
	MaxBioLength = 160
	// MinUsernameLength is the registration floor.
	MinUsernameLength = 3
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// User is a Qwitter account. The id equals the authentication identity.
// Followers and Following are denormalized username sets maintained by two
// independent writes, so they can transiently diverge. Username is unique
// (enforced by a registration-time pre-check, not transactionally) and
// immutable after registration.
type User struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Username      string   `json:"username"`
	Bio           string   `json:"bio,omitempty"`
	ProfilePicURL string   `json:"profilePicUrl,omitempty"`
	CoverPicURL   string   `json:"coverPicUrl,omitempty"`
	Followers     []string `json:"followers"`
	Following     []string `json:"following"`
	CreatedAt     string   `json:"createdAt"`
}

// EntityID implements entitystore.Entity.
func (u User) EntityID() string { return u.ID }

// Follows reports whether the user follows the given username.
func (u User) Follows(username string) bool {
	for _, f := range u.Following {
		if f == username {
			return true
		}
	}
	return false
}

// FollowedBy reports whether the given username is among the user's
// followers.
func (u User) FollowedBy(username string) bool {
	for _, f := range u.Followers {
		if f == username {
			return true
		}
	}
	return false
}

// Parse decodes a change-event document into a User, failing closed on
// missing required fields.
func Parse(data []byte) (User, error) {
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return User{}, fmt.Errorf("decode user: %w", err)
	}
	if u.ID == "" {
		return User{}, fmt.Errorf("user document missing id")
	}
	if u.Username == "" {
		return User{}, fmt.Errorf("user %s missing username", u.ID)
	}
	if u.Followers == nil {
		u.Followers = []string{}
	}
	if u.Following == nil {
		u.Following = []string{}
	}
	return u, nil
}

// ValidateUsername enforces the registration rule: at least three
// alphanumeric characters.
func ValidateUsername(username string) error {
	return validation.Validate(username,
		validation.Required.Error("username is required"),
		validation.Length(MinUsernameLength, 0).Error(
			fmt.Sprintf("username must be at least %d characters", MinUsernameLength)),
		validation.Match(usernamePattern).Error("username must be alphanumeric"),
	)
}

// ImageUpload carries a locally-selected image file into the upload
// pipeline.
type ImageUpload struct {
	Reader      io.Reader
	Size        int64
	Name        string
	ContentType string
}

// UpdateProfileRequest is the profile mutation input. Nil image fields
// mean "unchanged".
type UpdateProfileRequest struct {
	Name   string
	Bio    string
	Avatar *ImageUpload
	Cover  *ImageUpload
}

// Validate enforces the profile rules: non-empty name, bio within cap.
func (r UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.By(func(value interface{}) error {
			s, _ := value.(string)
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("name cannot be empty")
			}
			return nil
		})),
		validation.Field(&r.Bio, validation.Length(0, MaxBioLength)),
	)
}

// FollowRequest names the two sides of a follow-graph mutation.
type FollowRequest struct {
	UserID     string // acting user's document id
	Username   string // acting user's username
	TargetID   string // target's document id
	TargetName string // target's username
}

// Validate requires both sides to be fully identified.
func (r FollowRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.TargetID, validation.Required),
		validation.Field(&r.TargetName, validation.Required),
	)
}
