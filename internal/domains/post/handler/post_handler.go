package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"qwitter-backend/internal/domains/post/model"
	"qwitter-backend/internal/domains/post/service"
	"qwitter-backend/internal/domains/post/views"
	"qwitter-backend/internal/session"
	"qwitter-backend/internal/shared/middleware"
	"qwitter-backend/internal/shared/response"
)

// PostHandler exposes the post commands and the reconciled post views over
// HTTP. Reads come from the session's local mirror; writes go through the
// dispatcher and surface in the mirror via change events.
type PostHandler struct {
	service service.PostService
	session *session.Session
}

func NewPostHandler(service service.PostService, sess *session.Session) *PostHandler {
	return &PostHandler{service: service, session: sess}
}

// CreatePost - POST /v1/posts (multipart: body, optional image)
func (h *PostHandler) CreatePost(c *gin.Context) {
	username := c.GetString(middleware.CtxUsername)

	req := model.CreatePostRequest{
		Body:  c.PostForm("body"),
		Owner: username,
	}

	if fh, err := c.FormFile("image"); err == nil && fh != nil {
		f, err := fh.Open()
		if err != nil {
			response.BadRequest(c, "could not read image upload")
			return
		}
		defer f.Close()

		req.Image = &model.ImageUpload{
			Reader:      f,
			Size:        fh.Size,
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
		}
	}

	id, err := h.service.CreatePost(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	// The post is returned by id only; it appears in feeds once its
	// "added" event lands in the mirror.
	response.Success(c, http.StatusCreated, gin.H{"id": id})
}

// DeletePost - DELETE /v1/posts/:id
func (h *PostHandler) DeletePost(c *gin.Context) {
	id := c.Param("id")
	username := c.GetString(middleware.CtxUsername)

	// Ownership check against the mirror. An unknown id is allowed
	// through: the remote delete is the authority and errors there.
	if post, ok := h.session.Posts.Get(id); ok && post.Owner != username {
		response.Unauthorized(c, "cannot delete someone else's post")
		return
	}

	if err := h.service.DeletePost(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id})
}

// LikePost - POST /v1/posts/:id/like
func (h *PostHandler) LikePost(c *gin.Context) {
	id := c.Param("id")
	username := c.GetString(middleware.CtxUsername)

	if err := h.service.LikePost(c.Request.Context(), id, username); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id})
}

// UnlikePost - DELETE /v1/posts/:id/like
func (h *PostHandler) UnlikePost(c *gin.Context) {
	id := c.Param("id")
	username := c.GetString(middleware.CtxUsername)

	if err := h.service.UnlikePost(c.Request.Context(), id, username); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id})
}

// Feed - GET /v1/posts/feed
// Posts by the current user and everyone they follow, newest first.
func (h *PostHandler) Feed(c *gin.Context) {
	user, ok := h.session.CurrentUser()
	if !ok {
		response.Unauthorized(c, "no active session")
		return
	}

	feed := views.FollowingPosts(h.session.Posts.Snapshot(), user)
	response.Success(c, http.StatusOK, gin.H{
		"posts":   feed,
		"loading": h.session.Posts.Loading(),
	})
}

// ProfilePosts - GET /v1/posts/profile/:username
func (h *PostHandler) ProfilePosts(c *gin.Context) {
	username := c.Param("username")
	posts := views.ProfilePosts(h.session.Posts.Snapshot(), username)
	response.Success(c, http.StatusOK, gin.H{"posts": posts})
}

// LikedPosts - GET /v1/posts/liked/:username
func (h *PostHandler) LikedPosts(c *gin.Context) {
	username := c.Param("username")
	posts := views.LikedPosts(h.session.Posts.Snapshot(), username)
	response.Success(c, http.StatusOK, gin.H{"posts": posts})
}
