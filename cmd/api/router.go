package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"qwitter-backend/internal/shared/middleware"
	"qwitter-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Recovery(),
		middleware.Logger(),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupAuthRoutes(v1, c)
		setupPostRoutes(v1, c)
		setupUserRoutes(v1, c)
	}

	return router
}

func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container) {
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.AuthHandler.Register)
		auth.POST("/login", c.AuthHandler.Login)
		auth.POST("/logout", middleware.AuthMiddleware(c.JWTManager), c.AuthHandler.Logout)
	}
}

func setupPostRoutes(v1 *gin.RouterGroup, c *container.Container) {
	posts := v1.Group("/posts")
	posts.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		posts.POST("", c.PostHandler.CreatePost)
		posts.DELETE("/:id", c.PostHandler.DeletePost)
		posts.POST("/:id/like", c.PostHandler.LikePost)
		posts.DELETE("/:id/like", c.PostHandler.UnlikePost)

		posts.GET("/feed", c.PostHandler.Feed)
		posts.GET("/profile/:username", c.PostHandler.ProfilePosts)
		posts.GET("/liked/:username", c.PostHandler.LikedPosts)
	}
}

func setupUserRoutes(v1 *gin.RouterGroup, c *container.Container) {
	users := v1.Group("/users")
	users.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		users.GET("/suggestions", c.UserHandler.Suggestions)
		users.PUT("/me", c.UserHandler.UpdateProfile)
		users.GET("/:username", c.UserHandler.Profile)
		users.GET("/:username/followers", c.UserHandler.Followers)
		users.GET("/:username/following", c.UserHandler.Following)
		users.POST("/:username/follow", c.UserHandler.Follow)
		users.DELETE("/:username/follow", c.UserHandler.Unfollow)
	}
}

func healthCheckHandler(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   c.Config.App.Version,
			"store":     c.Config.Store.Backend,
		})
	}
}
