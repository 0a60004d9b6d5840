// Package channelorder persists the user's drag-reordered channel list per region.
package channelorder

import (
	"context"
	"encoding/json"

	"github.com/gitadityakumar/LiveNews/internal/kvstore"
	"github.com/gitadityakumar/LiveNews/internal/metrics"
	"github.com/gitadityakumar/LiveNews/pkg/models"
	"github.com/sirupsen/logrus"
)

// KeyPrefix is prepended to the region name to form the store key.
const KeyPrefix = "channel_order_"

func Key(region models.Region) string {
	return KeyPrefix + string(region)
}

type Store struct {
	store kvstore.Store
	log   *logrus.Entry
}

func New(store kvstore.Store, log *logrus.Logger) *Store {
	return &Store{
		store: store,
		log:   log.WithField("component", "channel_order"),
	}
}

// Load returns the saved channel ids for region, or nil when nothing usable is stored.
func (s *Store) Load(ctx context.Context, region models.Region) []int {
	raw, ok, err := s.store.Get(ctx, Key(region))
	if err != nil {
		metrics.StoreErrors.WithLabelValues("channel_order", "get").Inc()
		s.log.WithField("region", region).WithError(err).Warn("Failed to read channel order")
		return nil
	}
	if !ok || raw == "" {
		return nil
	}

	var ids []int
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		s.log.WithField("region", region).WithError(err).Warn("Ignoring malformed channel order")
		return nil
	}
	return ids
}

// Save stores ids as the order for region.
func (s *Store) Save(ctx context.Context, region models.Region, ids []int) {
	if ids == nil {
		ids = []int{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return
	}

	if err := s.store.Set(ctx, Key(region), string(data)); err != nil {
		metrics.StoreErrors.WithLabelValues("channel_order", "set").Inc()
		s.log.WithField("region", region).WithError(err).Warn("Failed to save channel order")
	}
}

// Apply orders channels by ids. Channels named in ids come first in that
// order; unknown ids are dropped and channels missing from ids keep their
// catalog order at the end.
func Apply(channels []models.Channel, ids []int) []models.Channel {
	if len(ids) == 0 {
		return append([]models.Channel(nil), channels...)
	}

	byID := make(map[int]models.Channel, len(channels))
	for _, c := range channels {
		byID[c.ID] = c
	}

	ordered := make([]models.Channel, 0, len(channels))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ordered = append(ordered, c)
	}

	for _, c := range channels {
		if !seen[c.ID] {
			ordered = append(ordered, c)
		}
	}
	return ordered
}
