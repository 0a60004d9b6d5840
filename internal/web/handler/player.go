package handler

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gitadityakumar/LiveNews/internal/resolver"
	"github.com/gitadityakumar/LiveNews/pkg/models"
)

// viewers holds one player state per connected websocket client. Entries
// are dropped when the hub reports the client gone.
type viewers struct {
	mu       sync.Mutex
	byClient map[string]*resolver.Viewer
}

func newViewers() *viewers {
	return &viewers{byClient: make(map[string]*resolver.Viewer)}
}

func (v *viewers) get(id string) (*resolver.Viewer, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	viewer, ok := v.byClient[id]
	return viewer, ok
}

func (v *viewers) put(id string, viewer *resolver.Viewer) *resolver.Viewer {
	v.mu.Lock()
	defer v.mu.Unlock()
	if existing, ok := v.byClient[id]; ok {
		return existing
	}
	v.byClient[id] = viewer
	return viewer
}

func (v *viewers) remove(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.byClient, id)
}

func (v *viewers) len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.byClient)
}

type playerState struct {
	Region      models.Region       `json:"region"`
	StreamIndex int                 `json:"streamIndex"`
	Stream      resolver.Resolution `json:"stream"`
}

func stateOf(v *resolver.Viewer) playerState {
	region, index, res := v.Current()
	return playerState{Region: region, StreamIndex: index, Stream: res}
}

// viewer returns the player state of a connected client, creating it on the
// first region when needed. Unknown clients get a 404.
func (h *Handler) viewer(c *gin.Context) (*resolver.Viewer, bool) {
	id := c.Param("client")
	if !h.wsHub.Connected(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown player client"})
		return nil, false
	}

	if v, ok := h.viewers.get(id); ok {
		return v, true
	}
	v := h.viewers.put(id, resolver.NewViewer(c.Request.Context(), h.resolver, models.Regions[0]))

	// The client may have left while the viewer was being built
	if !h.wsHub.Connected(id) {
		h.viewers.remove(id)
	}
	return v, true
}

// SelectHandler switches a client's player to a region and stream index
func (h *Handler) SelectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Region      string `json:"region"`
			StreamIndex *int   `json:"streamIndex" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		v, ok := h.viewer(c)
		if !ok {
			return
		}

		ctx := c.Request.Context()
		if req.Region != "" {
			region, err := models.ParseRegion(req.Region)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "Unknown region"})
				return
			}
			if current, _, _ := v.Current(); current != region {
				v.SetRegion(ctx, region)
			}
		}

		v.Select(ctx, *req.StreamIndex)
		c.JSON(http.StatusOK, stateOf(v))
	}
}

// FocusHandler re-resolves a client's current stream when its player
// surface regains focus, picking up URLs discovered in the meantime.
func (h *Handler) FocusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := h.viewer(c)
		if !ok {
			return
		}

		v.Focus(c.Request.Context())
		c.JSON(http.StatusOK, stateOf(v))
	}
}
