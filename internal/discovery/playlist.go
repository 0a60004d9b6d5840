package discovery

import (
	"net/url"
	"sort"
	"strings"
)

// PlaylistMarker is the substring every HLS playlist URL carries.
const PlaylistMarker = ".m3u8"

// Query parameters trackers are known to wrap the real playlist in, checked in order.
var wrapperParams = []string{"param8", "url", "streamUrl"}

// Hosts and path fragments of measurement pings that embed a playlist URL
// without being one.
var blockedMarkers = []string{"youboranqs", "/ping?"}

// Known live video CDNs and broadcasters.
var likelyHosts = []string{
	"dai.google.com",
	"cdn.livenewsplayer.com",
	"abc",
	"bloomberg",
	"cnn",
}

// IsLikelyPlaylist reports whether u looks like a real playlist rather than a
// variant chunk list or a ping. It is a confidence hint only; IsValidPlaylist
// decides what gets stored.
func IsLikelyPlaylist(u string) bool {
	if !strings.Contains(u, PlaylistMarker) {
		return false
	}
	lower := strings.ToLower(u)
	if strings.HasSuffix(lower, "master.m3u8") || strings.HasSuffix(lower, "playlist.m3u8") {
		return true
	}
	for _, host := range likelyHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	return false
}

// UnwrapTrackingURL extracts a playlist URL carried in a query parameter of
// wrapper. The well-known parameters win in order; after that the remaining
// parameters are scanned in key order.
func UnwrapTrackingURL(wrapper string) (string, bool) {
	u, err := url.Parse(wrapper)
	if err != nil || !u.IsAbs() {
		return "", false
	}
	query := splitQuery(u.RawQuery)

	for _, key := range wrapperParams {
		if v := query.Get(key); strings.Contains(v, PlaylistMarker) {
			return decodeParam(v)
		}
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, v := range query[k] {
			if strings.Contains(v, PlaylistMarker) {
				return decodeParam(v)
			}
		}
	}
	return "", false
}

// splitQuery parses a raw query the way browsers do: pairs are separated by
// '&' only, so a ';' stays part of its value. Keys or values that do not
// unescape are kept verbatim.
func splitQuery(raw string) url.Values {
	values := make(url.Values)
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		values.Add(unescapeLenient(key), unescapeLenient(value))
	}
	return values
}

func unescapeLenient(s string) string {
	if decoded, err := url.QueryUnescape(s); err == nil {
		return decoded
	}
	return s
}

// decodeParam undoes a second layer of percent-encoding. A value that does
// not decode cleanly is treated as no match.
func decodeParam(v string) (string, bool) {
	decoded, err := url.PathUnescape(v)
	if err != nil {
		return "", false
	}
	return decoded, true
}

// IsValidPlaylist is the gate every URL passes before it is persisted.
func IsValidPlaylist(u string) bool {
	if u == "" {
		return false
	}
	lower := strings.ToLower(u)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}
	if !strings.Contains(u, PlaylistMarker) {
		return false
	}
	for _, marker := range blockedMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}

// ResolveCandidate turns a raw observed URL into the URL to store: the
// unwrapped playlist when raw is a tracking wrapper, raw itself otherwise.
// ok is false when the result fails IsValidPlaylist.
func ResolveCandidate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)

	candidate := raw
	if inner, ok := UnwrapTrackingURL(raw); ok {
		candidate = inner
	}

	if !IsValidPlaylist(candidate) {
		return candidate, false
	}
	return candidate, true
}
