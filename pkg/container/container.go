// Package container builds the application's dependency graph with
// explicit constructor injection: config, then infrastructure, then
// dispatchers, then the session and the HTTP handlers. Nothing in here is
// a package-level singleton; tests build their own graphs from the same
// constructors.
package container

import (
	"context"
	"fmt"
	"time"

	"qwitter-backend/internal/config"
	authHandler "qwitter-backend/internal/domains/auth/handler"
	authProvider "qwitter-backend/internal/domains/auth/provider"
	authService "qwitter-backend/internal/domains/auth/service"
	postHandler "qwitter-backend/internal/domains/post/handler"
	postService "qwitter-backend/internal/domains/post/service"
	userHandler "qwitter-backend/internal/domains/user/handler"
	userService "qwitter-backend/internal/domains/user/service"
	"qwitter-backend/internal/infrastructure/docstore"
	"qwitter-backend/internal/infrastructure/queue"
	"qwitter-backend/internal/infrastructure/storage"
	"qwitter-backend/internal/session"
	"qwitter-backend/pkg/jwt"
	"qwitter-backend/pkg/logger"
)

// Container is the root of the dependency graph.
type Container struct {
	Config     *config.Config
	Docs       docstore.Store
	Objects    storage.ObjectStorage
	Tasks      *queue.Client
	JWTManager *jwt.Manager

	AuthService authService.AuthService
	PostService postService.PostService
	UserService userService.UserService

	Session *session.Session

	AuthHandler *authHandler.AuthHandler
	PostHandler *postHandler.PostHandler
	UserHandler *userHandler.UserHandler

	cancel context.CancelFunc
}

// New builds the whole graph in dependency order and starts the session.
func New() (*Container, error) {
	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	c.Config = cfg

	logger.Init(cfg.App.Environment)

	// Root context for everything the container owns: the document store
	// subscriptions and the session lifecycle.
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	connectCtx, connectCancel := context.WithTimeout(ctx, 30*time.Second)
	defer connectCancel()

	docs, err := newDocStore(connectCtx, cfg)
	if err != nil {
		cancel()
		return nil, err
	}
	c.Docs = docs

	objects, err := storage.NewMinIOStorage(connectCtx, cfg.MinIO)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	c.Objects = objects

	c.Tasks = queue.NewClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)

	c.JWTManager = jwt.NewManager(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.SessionExpiryHours)*time.Hour,
	)

	provider := authProvider.NewLocal(docs)

	c.AuthService = authService.NewAuthService(provider, docs)
	c.PostService = postService.NewPostService(docs, objects, c.Tasks, cfg.Upload.MaxPostImageBytes)
	c.UserService = userService.NewUserService(docs, objects, cfg.Upload.MaxProfileImageBytes)

	prefs, err := session.OpenPrefs(cfg.Prefs.Path)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open prefs: %w", err)
	}

	c.Session = session.New(docs, provider, prefs)
	c.Session.Start(ctx)

	c.AuthHandler = authHandler.NewAuthHandler(c.AuthService, c.JWTManager)
	c.PostHandler = postHandler.NewPostHandler(c.PostService, c.Session)
	c.UserHandler = userHandler.NewUserHandler(c.UserService, c.Session)

	return c, nil
}

// newDocStore picks the change-feed backend from config.
func newDocStore(ctx context.Context, cfg *config.Config) (docstore.Store, error) {
	switch cfg.Store.Backend {
	case "postgres":
		store, err := docstore.NewPostgresStore(ctx, docstore.PostgresOptions{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: int32(cfg.Postgres.MaxConns),
			MinConns: int32(cfg.Postgres.MinConns),
		})
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		return store, nil
	default:
		store, err := docstore.NewRedisStore(ctx, cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("init redis store: %w", err)
		}
		return store, nil
	}
}

// Cleanup tears down the session subscriptions and releases connections.
// Called during graceful shutdown.
func (c *Container) Cleanup() {
	if c.cancel != nil {
		c.cancel()
	}

	if c.Tasks != nil {
		if err := c.Tasks.Close(); err != nil {
			logger.Error("failed to close task client", err)
		}
	}

	switch store := c.Docs.(type) {
	case interface{ Close() error }:
		if err := store.Close(); err != nil {
			logger.Error("failed to close document store", err)
		}
	case interface{ Close() }:
		store.Close()
	}
}
