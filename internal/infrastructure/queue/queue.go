// Package queue wires background task dispatch over asynq.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task types processed by cmd/worker.
const (
	TypeImageCleanup = "post:cleanup_image"
)

// ImageCleanupPayload identifies an orphaned post image to remove from
// object storage after its post was deleted.
type ImageCleanupPayload struct {
	PostID   string `json:"post_id"`
	ImageURL string `json:"image_url"`
}

// Enqueuer dispatches background tasks. Command services treat enqueue
// failures as non-fatal; the remote write they follow has already
// succeeded.
type Enqueuer interface {
	EnqueueImageCleanup(ctx context.Context, postID, imageURL string) error
}

// Client is the asynq-backed Enqueuer.
type Client struct {
	client *asynq.Client
}

// NewClient creates an asynq client against the given redis address.
func NewClient(redisAddr, password string, db int) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: password,
			DB:       db,
		}),
	}
}

func (c *Client) EnqueueImageCleanup(ctx context.Context, postID, imageURL string) error {
	payload, err := json.Marshal(ImageCleanupPayload{PostID: postID, ImageURL: imageURL})
	if err != nil {
		return fmt.Errorf("marshal cleanup payload: %w", err)
	}

	task := asynq.NewTask(TypeImageCleanup, payload, asynq.MaxRetry(5), asynq.Queue("low"))
	if _, err := c.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue image cleanup: %w", err)
	}
	return nil
}

// Close releases the underlying redis connections.
func (c *Client) Close() error {
	return c.client.Close()
}
