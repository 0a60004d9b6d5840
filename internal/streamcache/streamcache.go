// Package streamcache remembers the last playlist URL discovered for each
// channel. It never fails its callers: a storage fault only means the player
// falls back to the static catalog URL.
package streamcache

import (
	"context"
	"strings"

	"github.com/gitadityakumar/LiveNews/internal/kvstore"
	"github.com/gitadityakumar/LiveNews/internal/metrics"
	"github.com/sirupsen/logrus"
)

// KeyPrefix is prepended to the channel id to form the store key.
const KeyPrefix = "@m3u8_"

// PlaylistMarker must appear in every URL the cache accepts.
const PlaylistMarker = ".m3u8"

// Key builds the store key for a channel.
func Key(channelID string) string {
	return KeyPrefix + channelID
}

// Service is the URL cache.
type Service struct {
	store kvstore.Store
	log   *logrus.Entry
}

func New(store kvstore.Store, log *logrus.Logger) *Service {
	return &Service{
		store: store,
		log:   log.WithField("component", "stream_cache"),
	}
}

// result carries a store outcome to the boundary where it is flattened.
type result struct {
	value string
	found bool
	err   error
}

func (s *Service) read(ctx context.Context, channelID string) result {
	v, ok, err := s.store.Get(ctx, Key(channelID))
	return result{value: v, found: ok, err: err}
}

// Save records url for the channel. Empty ids, empty urls and urls without
// the playlist marker are ignored.
func (s *Service) Save(ctx context.Context, channelID, url string) {
	if channelID == "" || url == "" || !strings.Contains(url, PlaylistMarker) {
		return
	}

	if err := s.store.Set(ctx, Key(channelID), url); err != nil {
		metrics.StoreErrors.WithLabelValues("stream_cache", "set").Inc()
		s.log.WithFields(logrus.Fields{
			"channel_id": channelID,
		}).WithError(err).Warn("Failed to save stream URL")
		return
	}

	s.log.WithFields(logrus.Fields{
		"channel_id": channelID,
		"url":        url,
	}).Debug("Saved stream URL")
}

// Get returns the cached url for the channel.
func (s *Service) Get(ctx context.Context, channelID string) (string, bool) {
	if channelID == "" {
		return "", false
	}

	r := s.read(ctx, channelID)
	if r.err != nil {
		metrics.StoreErrors.WithLabelValues("stream_cache", "get").Inc()
		s.log.WithField("channel_id", channelID).WithError(r.err).Warn("Failed to read stream URL")
		return "", false
	}
	if !r.found || r.value == "" {
		return "", false
	}
	return r.value, true
}

// Clear drops the cached url for the channel.
func (s *Service) Clear(ctx context.Context, channelID string) {
	if err := s.store.Remove(ctx, Key(channelID)); err != nil {
		metrics.StoreErrors.WithLabelValues("stream_cache", "remove").Inc()
		s.log.WithField("channel_id", channelID).WithError(err).Warn("Failed to clear stream URL")
	}
}
