package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"qwitter-backend/internal/domains/user/model"
	"qwitter-backend/internal/domains/user/service"
	"qwitter-backend/internal/domains/user/views"
	"qwitter-backend/internal/session"
	"qwitter-backend/internal/shared/middleware"
	"qwitter-backend/internal/shared/response"
)

// UserHandler exposes profile and follow-graph commands plus the user
// views backed by the session's local mirror.
type UserHandler struct {
	service service.UserService
	session *session.Session
}

func NewUserHandler(service service.UserService, sess *session.Session) *UserHandler {
	return &UserHandler{service: service, session: sess}
}

// UpdateProfile - PUT /v1/users/me (multipart: name, bio, optional avatar
// and cover images)
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)

	req := model.UpdateProfileRequest{
		Name: c.PostForm("name"),
		Bio:  c.PostForm("bio"),
	}

	var closers []multipart.File
	defer func() {
		for _, f := range closers {
			f.Close()
		}
	}()

	for field, dst := range map[string]**model.ImageUpload{
		"avatar": &req.Avatar,
		"cover":  &req.Cover,
	} {
		fh, err := c.FormFile(field)
		if err != nil || fh == nil {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			response.BadRequest(c, "could not read "+field+" upload")
			return
		}
		closers = append(closers, f)
		*dst = &model.ImageUpload{
			Reader:      f,
			Size:        fh.Size,
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
		}
	}

	if err := h.service.UpdateProfile(c.Request.Context(), userID, req); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": userID})
}

// Follow - POST /v1/users/:username/follow
func (h *UserHandler) Follow(c *gin.Context) {
	req, ok := h.followRequest(c)
	if !ok {
		return
	}

	if err := h.service.FollowUser(c.Request.Context(), req); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"following": req.TargetName})
}

// Unfollow - DELETE /v1/users/:username/follow
func (h *UserHandler) Unfollow(c *gin.Context) {
	req, ok := h.followRequest(c)
	if !ok {
		return
	}

	if err := h.service.UnfollowUser(c.Request.Context(), req); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unfollowed": req.TargetName})
}

// followRequest resolves both sides of a follow mutation: the actor from
// the session token, the target from the users mirror by username.
func (h *UserHandler) followRequest(c *gin.Context) (model.FollowRequest, bool) {
	targetName := c.Param("username")

	target, found := views.ByUsername(h.session.Users.Snapshot(), targetName)
	if !found {
		response.NotFound(c, "user not found")
		return model.FollowRequest{}, false
	}

	req := model.FollowRequest{
		UserID:     c.GetString(middleware.CtxUserID),
		Username:   c.GetString(middleware.CtxUsername),
		TargetID:   target.ID,
		TargetName: target.Username,
	}
	if req.Username == req.TargetName {
		response.BadRequest(c, "cannot follow yourself")
		return model.FollowRequest{}, false
	}
	return req, true
}

// Suggestions - GET /v1/users/suggestions
// Follow candidates: everyone the current user does not already follow.
func (h *UserHandler) Suggestions(c *gin.Context) {
	current, ok := h.session.CurrentUser()
	if !ok {
		response.Unauthorized(c, "no active session")
		return
	}

	users := views.SuggestedUsers(h.session.Users.Snapshot(), current)
	response.Success(c, http.StatusOK, gin.H{
		"users":   users,
		"loading": h.session.Users.Loading(),
	})
}

// Profile - GET /v1/users/:username
func (h *UserHandler) Profile(c *gin.Context) {
	username := c.Param("username")

	user, found := views.ByUsername(h.session.Users.Snapshot(), username)
	if !found {
		response.NotFound(c, "user not found")
		return
	}
	response.Success(c, http.StatusOK, user)
}

// Followers - GET /v1/users/:username/followers
func (h *UserHandler) Followers(c *gin.Context) {
	username := c.Param("username")
	users := views.FollowersOf(h.session.Users.Snapshot(), username)
	response.Success(c, http.StatusOK, gin.H{"users": users})
}

// Following - GET /v1/users/:username/following
func (h *UserHandler) Following(c *gin.Context) {
	username := c.Param("username")
	users := views.FollowingOf(h.session.Users.Snapshot(), username)
	response.Success(c, http.StatusOK, gin.H{"users": users})
}
