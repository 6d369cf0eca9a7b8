// Package job holds the background task handlers for the post domain.
package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"qwitter-backend/internal/infrastructure/queue"
	"qwitter-backend/internal/infrastructure/storage"
)

// CleanupImageHandler removes orphaned post images from object storage
// after their post was deleted.
type CleanupImageHandler struct {
	objects storage.ObjectStorage
}

func NewCleanupImageHandler(objects storage.ObjectStorage) *CleanupImageHandler {
	return &CleanupImageHandler{objects: objects}
}

func (h *CleanupImageHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.ImageCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		// Malformed payloads never become valid; do not retry.
		return fmt.Errorf("unmarshal cleanup payload: %w: %w", err, asynq.SkipRetry)
	}

	key, err := h.objects.KeyFromURL(payload.ImageURL)
	if err != nil {
		log.Warn().
			Err(err).
			Str("post_id", payload.PostID).
			Str("image_url", payload.ImageURL).
			Msg("image cleanup skipped: url not in managed storage")
		return nil
	}

	if err := h.objects.Remove(ctx, key); err != nil {
		return fmt.Errorf("remove image %s: %w", key, err)
	}

	log.Info().
		Str("post_id", payload.PostID).
		Str("key", key).
		Msg("orphaned post image removed")
	return nil
}
