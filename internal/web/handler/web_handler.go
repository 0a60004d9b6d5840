package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gitadityakumar/LiveNews/internal/catalog"
	"github.com/gitadityakumar/LiveNews/internal/channelorder"
	"github.com/gitadityakumar/LiveNews/internal/common/config"
	"github.com/gitadityakumar/LiveNews/internal/common/messaging"
	"github.com/gitadityakumar/LiveNews/internal/resolver"
	"github.com/gitadityakumar/LiveNews/internal/streamcache"
	"github.com/gitadityakumar/LiveNews/internal/web/websocket"
	"github.com/gitadityakumar/LiveNews/pkg/models"
	"github.com/sirupsen/logrus"
)

// Handler serves the viewer API.
type Handler struct {
	rabbitCfg *config.RabbitMQConfig
	log       *logrus.Logger
	message   messaging.Client
	wsHub     *websocket.Hub
	catalog   *catalog.Catalog
	order     *channelorder.Store
	cache     *streamcache.Service
	resolver  *resolver.Resolver
	viewers   *viewers
}

// Deps groups what the handler is built from. The hub is owned by the
// caller, which runs it after NewHandler returns.
type Deps struct {
	RabbitMQ *config.RabbitMQConfig
	Log      *logrus.Logger
	Message  messaging.Client
	Hub      *websocket.Hub
	Catalog  *catalog.Catalog
	Order    *channelorder.Store
	Cache    *streamcache.Service
	Resolver *resolver.Resolver
}

func NewHandler(d Deps) *Handler {
	h := &Handler{
		rabbitCfg: d.RabbitMQ,
		log:       d.Log,
		message:   d.Message,
		wsHub:     d.Hub,
		catalog:   d.Catalog,
		order:     d.Order,
		cache:     d.Cache,
		resolver:  d.Resolver,
		viewers:   newViewers(),
	}
	h.wsHub.OnDisconnect(h.viewers.remove)
	return h
}

// RegisterRoutes registers all the routes for the web handler
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.WebSocketHandler())

	api := r.Group("/api")
	{
		api.GET("/regions/:region/channels", h.ChannelsHandler())
		api.PUT("/regions/:region/order", h.SaveOrderHandler())
		api.GET("/regions/:region/streams/:index", h.StreamHandler())

		api.POST("/channels/:id/reload", h.ReloadHandler())
		api.GET("/channels/:id/stream", h.CachedStreamHandler())
		api.DELETE("/channels/:id/stream", h.ClearStreamHandler())

		api.POST("/player/fullscreen", h.FullscreenHandler())
		api.POST("/viewers/:client/select", h.SelectHandler())
		api.POST("/viewers/:client/focus", h.FocusHandler())
	}
}

// WebSocketHandler returns the WebSocket connection handler
func (h *Handler) WebSocketHandler() gin.HandlerFunc {
	return websocket.WebSocketHandler(h.wsHub, h.log)
}

// ChannelsHandler lists a region's channels in the user's saved order
func (h *Handler) ChannelsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		region, ok := h.region(c)
		if !ok {
			return
		}

		ctx := c.Request.Context()
		channels := channelorder.Apply(h.catalog.Channels(region), h.order.Load(ctx, region))
		c.JSON(http.StatusOK, gin.H{
			"region":   region,
			"dynamic":  h.resolver.Dynamic(region),
			"channels": channels,
		})
	}
}

// SaveOrderHandler stores the user's channel order for a region
func (h *Handler) SaveOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		region, ok := h.region(c)
		if !ok {
			return
		}

		var req struct {
			IDs []int `json:"ids" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		ctx := c.Request.Context()
		h.order.Save(ctx, region, req.IDs)
		c.JSON(http.StatusOK, gin.H{
			"channels": channelorder.Apply(h.catalog.Channels(region), req.IDs),
		})
	}
}

// StreamHandler resolves the URL the player should load
func (h *Handler) StreamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		region, ok := h.region(c)
		if !ok {
			return
		}

		index, err := strconv.Atoi(c.Param("index"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid stream index"})
			return
		}

		res, found := h.resolver.Resolve(c.Request.Context(), region, index)
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "Stream not found"})
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// ReloadHandler asks the discovery worker to rescan a channel's page.
// Channels without a discovery page are a silent no-op.
func (h *Handler) ReloadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		channelID := c.Param("id")

		pageURL, ok := h.catalog.PageURL(channelID)
		if !ok {
			c.Status(http.StatusNoContent)
			return
		}

		command := models.ReloadCommand{
			Action: models.ReloadAction,
			Data:   models.ReloadData{ChannelID: channelID, PageURL: pageURL},
		}
		if err := h.publishCommand(command); err != nil {
			h.log.WithFields(logrus.Fields{
				"channel_id": channelID,
				"component":  "web_handler",
			}).WithError(err).Error("Failed to publish reload command")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Reload is unavailable right now"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"channelId": channelID,
			"pageUrl":   pageURL,
		})
	}
}

// CachedStreamHandler returns the discovered URL for a channel, if any
func (h *Handler) CachedStreamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		url, ok := h.cache.Get(c.Request.Context(), c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "No discovered stream"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": url})
	}
}

// ClearStreamHandler forgets the discovered URL for a channel
func (h *Handler) ClearStreamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.cache.Clear(c.Request.Context(), c.Param("id"))
		c.Status(http.StatusNoContent)
	}
}

// FullscreenHandler relays the player's fullscreen state to subscribers
func (h *Handler) FullscreenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.FullscreenEvent
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if err := h.wsHub.Publish(websocket.TypeFullscreen, map[string]any{"fullscreen": req.Fullscreen}); err != nil {
			h.log.WithField("component", "web_handler").WithError(err).Error("Failed to broadcast fullscreen event")
		}
		c.Status(http.StatusNoContent)
	}
}

// ConsumeEvents relays discovery events from the log queue to websocket
// subscribers until ctx is done. Only captures and timeouts reach users.
func (h *Handler) ConsumeEvents(ctx context.Context) error {
	if err := h.message.DeclareQueue(h.rabbitCfg.Queue.Log); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", h.rabbitCfg.Queue.Log, err)
	}
	if err := h.message.BindQueue(h.rabbitCfg.Queue.Log, h.rabbitCfg.Exchange, config.RoutingLogDiscovery); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", h.rabbitCfg.Queue.Log, err)
	}

	return h.message.Consume(ctx, h.rabbitCfg.Queue.Log, func(message []byte, routingKey string) error {
		h.handleEvent(ctx, message)
		return nil
	})
}

func (h *Handler) handleEvent(ctx context.Context, message []byte) {
	entry := h.log.WithField("component", "event_relay")

	var ev models.DiscoveryEvent
	if err := json.Unmarshal(message, &ev); err != nil {
		entry.WithError(err).Warn("Dropping malformed discovery event")
		return
	}

	entry = entry.WithFields(logrus.Fields{
		"status":     ev.Status,
		"channel_id": ev.ChannelID,
		"session_id": ev.SessionID,
	})

	var err error
	switch ev.Status {
	case models.DiscoveryCaptured:
		// The worker may run on its own store; keep ours current.
		h.cache.Save(ctx, ev.ChannelID, ev.URL)
		err = h.wsHub.Publish(websocket.TypeStreamUpdated, map[string]any{
			"channel_id": ev.ChannelID,
			"url":        ev.URL,
		})
	case models.DiscoveryTimedOut:
		err = h.wsHub.Publish(websocket.TypeNoStreamDetected, map[string]any{
			"channel_id": ev.ChannelID,
		})
	case models.DiscoveryFailed:
		entry.WithField("error", ev.Error).Warn("Discovery session failed")
		return
	default:
		entry.Debug("Discovery event")
		return
	}

	if err != nil {
		entry.WithError(err).Error("Failed to broadcast discovery event")
	}
}

func (h *Handler) region(c *gin.Context) (models.Region, bool) {
	region, err := models.ParseRegion(c.Param("region"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown region"})
		return "", false
	}
	return region, true
}

// publishCommand publishes a command on the discovery routing key
func (h *Handler) publishCommand(command models.ReloadCommand) error {
	return h.message.PublishJSON(h.rabbitCfg.Exchange, config.RoutingCommandDiscovery, command)
}
