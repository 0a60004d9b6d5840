package models

// Discovery event statuses
const (
	DiscoveryStarted  = "started"
	DiscoveryCaptured = "captured"
	DiscoveryTimedOut = "timed_out"
	DiscoveryFailed   = "failed"
)

// DiscoveryEvent represents a log message from the discovery worker
type DiscoveryEvent struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id,omitempty"`
	ChannelID string `json:"channel_id"`
	PageURL   string `json:"page_url,omitempty"`
	URL       string `json:"url,omitempty"`
	Error     string `json:"error,omitempty"`
}

// FullscreenEvent is emitted by the player surface when it enters or leaves fullscreen
type FullscreenEvent struct {
	Fullscreen bool `json:"fullscreen"`
}
