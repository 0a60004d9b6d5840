package models

// Action
const (
	ReloadAction = "reload"
)

// ReloadCommand asks the discovery worker to rescan a channel page
type ReloadCommand struct {
	Action string     `json:"action"`
	Data   ReloadData `json:"data"`
}

// ReloadData contains the channel and the page to scan
type ReloadData struct {
	ChannelID string `json:"channelId"`
	PageURL   string `json:"pageUrl"`
}
