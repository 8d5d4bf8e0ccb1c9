package recordings

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-webinar/recording-ingest/pkg/queue"
	"github.com/aura-webinar/recording-ingest/pkg/response"
)

// VideoStatusWebhook is the body the video platform posts when encoding progresses.
type VideoStatusWebhook struct {
	VideoLibraryID json.Number `json:"VideoLibraryId"`
	VideoGUID      string      `json:"VideoGuid"`
	Status         *int        `json:"Status"`
}

// StatusQueue accepts video status events for asynchronous processing.
type StatusQueue interface {
	EnqueueVideoStatus(ctx context.Context, payload queue.VideoStatusPayload) error
}

// WebhookHandler handles video platform webhooks.
type WebhookHandler struct {
	queue  StatusQueue
	logger *zap.Logger
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(q StatusQueue, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{queue: q, logger: logger}
}

// VideoStatus handles POST /webhooks/video-status. The event is queued and
// applied to the lesson by the status worker.
func (h *WebhookHandler) VideoStatus(c *gin.Context) {
	var body VideoStatusWebhook
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if body.VideoGUID == "" || body.Status == nil {
		response.BadRequest(c, "VideoGuid and Status required")
		return
	}

	payload := queue.VideoStatusPayload{
		VideoLibraryID: body.VideoLibraryID.String(),
		VideoGUID:      body.VideoGUID,
		Status:         *body.Status,
	}
	if err := h.queue.EnqueueVideoStatus(c.Request.Context(), payload); err != nil {
		h.logger.Error("enqueue video status failed", zap.Error(err), zap.String("video_guid", body.VideoGUID))
		response.Internal(c, "failed to enqueue event")
		return
	}

	h.logger.Info("video status webhook queued",
		zap.String("video_guid", body.VideoGUID),
		zap.Int("status", *body.Status),
	)
	response.OK(c, gin.H{"queued": true})
}
