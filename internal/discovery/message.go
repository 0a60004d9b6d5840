package discovery

import (
	"encoding/json"
	"strings"
)

// MessageTypeFound is the only message type the probe sends.
const MessageTypeFound = "M3U8_FOUND"

// MessageKind tags how a probe message was decoded.
type MessageKind int

const (
	// MessageIgnored covers malformed payloads and well-formed JSON of any other shape.
	MessageIgnored MessageKind = iota
	// MessageFound is a structured {"type":"M3U8_FOUND","url":...} report.
	MessageFound
	// MessageRaw is a non-JSON payload that textually carries a playlist URL.
	MessageRaw
)

func (k MessageKind) String() string {
	switch k {
	case MessageFound:
		return "found"
	case MessageRaw:
		return "raw"
	default:
		return "ignored"
	}
}

// Message is a decoded probe payload.
type Message struct {
	Kind MessageKind
	URL  string
}

type probePayload struct {
	Type string  `json:"type"`
	URL  *string `json:"url"`
}

// ParseMessage decodes a payload posted by the probe. Structured JSON is tried
// first; a payload that is not JSON at all but contains a playlist marker is
// taken as the URL itself. Everything else is ignored.
func ParseMessage(raw string) Message {
	var p probePayload
	err := json.Unmarshal([]byte(raw), &p)
	if err == nil {
		if p.Type != MessageTypeFound || p.URL == nil {
			return Message{Kind: MessageIgnored}
		}
		return Message{Kind: MessageFound, URL: strings.TrimSpace(*p.URL)}
	}

	if json.Valid([]byte(raw)) {
		// valid JSON of the wrong shape, e.g. a url that is not a string
		return Message{Kind: MessageIgnored}
	}
	if strings.Contains(raw, PlaylistMarker) {
		return Message{Kind: MessageRaw, URL: strings.TrimSpace(raw)}
	}
	return Message{Kind: MessageIgnored}
}

// Usable reports whether the message carries a candidate URL.
func (m Message) Usable() bool {
	return m.Kind != MessageIgnored && m.URL != ""
}

// FoundMessage encodes url the way the probe does.
func FoundMessage(url string) string {
	data, _ := json.Marshal(probePayload{Type: MessageTypeFound, URL: &url})
	return string(data)
}
