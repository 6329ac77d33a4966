package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/pa-broadcaster/internal/models"
	"github.com/noah-isme/pa-broadcaster/internal/service"
)

type subscriberRegistry interface {
	Register(sub service.Subscriber)
	Unregister(id string)
}

// StreamConfig tunes the event stream.
type StreamConfig struct {
	BufferSize        int
	KeepAliveInterval time.Duration
}

// StreamHandler serves the Server-Sent Events feed consumed by display clients.
type StreamHandler struct {
	registry subscriberRegistry
	cfg      StreamConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewStreamHandler constructs a StreamHandler.
func NewStreamHandler(registry subscriberRegistry, cfg StreamConfig, logger *zap.Logger) *StreamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.KeepAliveInterval <= 0 {
		cfg.KeepAliveInterval = 25 * time.Second
	}
	return &StreamHandler{registry: registry, cfg: cfg, logger: logger, now: time.Now}
}

// Stream godoc
// @Summary Announcement stream
// @Description Server-Sent Events: connection_status once, then new_announcement and ping events
// @Tags Stream
// @Produce text/event-stream
// @Success 200 {string} string "event stream"
// @Router /stream [get]
func (h *StreamHandler) Stream(c *gin.Context) {
	sub := service.NewChannelSubscriber(h.cfg.BufferSize)
	// Queued before Register so no broadcast can overtake it.
	sub.Send(models.StreamMessage{
		Event: models.EventConnectionStatus,
		Data: models.ConnectionStatus{
			Status:       "connected",
			Message:      "Connected to PA System",
			SubscriberID: sub.ID(),
			Timestamp:    models.FormatTimestamp(h.now()),
		},
	})
	h.registry.Register(sub)
	defer h.registry.Unregister(sub.ID())

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	ticker := time.NewTicker(h.cfg.KeepAliveInterval)
	defer ticker.Stop()
	ctx := c.Request.Context()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-sub.Done():
			h.logger.Debug("stream closed by registry", zap.String("subscriber_id", sub.ID()))
			return false
		case msg := <-sub.Messages():
			c.SSEvent(msg.Event, msg.Data)
			return true
		case <-ticker.C:
			c.SSEvent(models.EventPing, gin.H{"timestamp": models.FormatTimestamp(h.now())})
			return true
		}
	})
}
