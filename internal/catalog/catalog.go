// Package catalog holds the read-only channel catalog: the channels of each
// region, the static stream URL list they index into, and the pages the
// discovery worker scans for fresh URLs.
package catalog

import (
	"fmt"
	"strconv"

	"github.com/gitadityakumar/LiveNews/internal/common/config"
	"github.com/gitadityakumar/LiveNews/pkg/models"
)

type Catalog struct {
	streams  map[models.Region][]string
	channels map[models.Region][]models.Channel
	pages    map[int]string
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c := &Catalog{
		streams:  make(map[models.Region][]string, len(defaultStreams)),
		channels: make(map[models.Region][]models.Channel, len(defaultChannels)),
		pages:    make(map[int]string, len(defaultPages)),
	}
	for r, s := range defaultStreams {
		c.streams[r] = append([]string(nil), s...)
	}
	for r, ch := range defaultChannels {
		c.channels[r] = append([]models.Channel(nil), ch...)
	}
	for id, p := range defaultPages {
		c.pages[id] = p
	}
	return c
}

// FromConfig starts from the defaults and replaces every section the
// configuration provides, then validates the result.
func FromConfig(cfg *config.CatalogConfig) (*Catalog, error) {
	c := Default()

	for name, streams := range cfg.Streams {
		r, err := models.ParseRegion(name)
		if err != nil {
			return nil, fmt.Errorf("catalog.streams: %w", err)
		}
		c.streams[r] = append([]string(nil), streams...)
	}

	for name, channels := range cfg.Channels {
		r, err := models.ParseRegion(name)
		if err != nil {
			return nil, fmt.Errorf("catalog.channels: %w", err)
		}
		c.channels[r] = append([]models.Channel(nil), channels...)
	}

	if len(cfg.Pages) > 0 {
		c.pages = make(map[int]string, len(cfg.Pages))
		for key, page := range cfg.Pages {
			id, err := strconv.Atoi(key)
			if err != nil {
				return nil, fmt.Errorf("catalog.pages: channel id %q is not a number", key)
			}
			c.pages[id] = page
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that channel ids are unique and every stream index points
// at a static URL.
func (c *Catalog) Validate() error {
	seen := make(map[int]models.Region)
	for r, channels := range c.channels {
		for _, ch := range channels {
			if other, dup := seen[ch.ID]; dup {
				return fmt.Errorf("channel id %d used in %s and %s", ch.ID, other, r)
			}
			seen[ch.ID] = r

			if ch.StreamIndex < 0 || ch.StreamIndex >= len(c.streams[r]) {
				return fmt.Errorf("channel %d (%s) has stream index %d outside the %s stream list",
					ch.ID, ch.Name, ch.StreamIndex, r)
			}
		}
	}
	return nil
}

// Channels returns the catalog order for region.
func (c *Catalog) Channels(region models.Region) []models.Channel {
	return append([]models.Channel(nil), c.channels[region]...)
}

// StaticURL returns the static stream URL at streamIndex.
func (c *Catalog) StaticURL(region models.Region, streamIndex int) (string, bool) {
	streams := c.streams[region]
	if streamIndex < 0 || streamIndex >= len(streams) {
		return "", false
	}
	return streams[streamIndex], true
}

// ChannelByStreamIndex finds the channel that plays streamIndex in region.
func (c *Catalog) ChannelByStreamIndex(region models.Region, streamIndex int) (models.Channel, bool) {
	for _, ch := range c.channels[region] {
		if ch.StreamIndex == streamIndex {
			return ch, true
		}
	}
	return models.Channel{}, false
}

// ChannelByID finds a channel in any region.
func (c *Catalog) ChannelByID(id int) (models.Channel, models.Region, bool) {
	for r, channels := range c.channels {
		for _, ch := range channels {
			if ch.ID == id {
				return ch, r, true
			}
		}
	}
	return models.Channel{}, "", false
}

// PageURL returns the discovery page for a channel id.
func (c *Catalog) PageURL(channelID string) (string, bool) {
	id, err := strconv.Atoi(channelID)
	if err != nil {
		return "", false
	}
	page, ok := c.pages[id]
	return page, ok && page != ""
}
