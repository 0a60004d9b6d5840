// Package resolver decides which URL the player gets for a channel: a
// freshly discovered one when the region uses discovery and one is cached,
// the static catalog URL otherwise.
package resolver

import (
	"context"
	"strconv"
	"strings"

	"github.com/gitadityakumar/LiveNews/internal/metrics"
	"github.com/gitadityakumar/LiveNews/pkg/models"
)

// Source names where a resolved URL came from.
type Source string

const (
	SourceStatic Source = "static"
	SourceCache  Source = "cache"
)

// Catalog is the static side of resolution.
type Catalog interface {
	StaticURL(region models.Region, streamIndex int) (string, bool)
	ChannelByStreamIndex(region models.Region, streamIndex int) (models.Channel, bool)
}

// Cache is the dynamic side of resolution.
type Cache interface {
	Get(ctx context.Context, channelID string) (string, bool)
}

// Resolution is the outcome of one lookup.
type Resolution struct {
	URL       string `json:"url"`
	Source    Source `json:"source"`
	ChannelID int    `json:"channelId,omitempty"`
}

type Resolver struct {
	catalog Catalog
	cache   Cache
	dynamic map[models.Region]bool
}

// New builds a resolver. dynamicRegions lists the regions whose channels may
// be overridden by discovered URLs.
func New(catalog Catalog, cache Cache, dynamicRegions []models.Region) *Resolver {
	dynamic := make(map[models.Region]bool, len(dynamicRegions))
	for _, r := range dynamicRegions {
		dynamic[r] = true
	}
	return &Resolver{catalog: catalog, cache: cache, dynamic: dynamic}
}

// Dynamic reports whether region uses discovered URLs.
func (r *Resolver) Dynamic(region models.Region) bool {
	return r.dynamic[region]
}

// Resolve returns the URL to play for streamIndex in region. ok is false
// only when neither a cached nor a static URL exists.
func (r *Resolver) Resolve(ctx context.Context, region models.Region, streamIndex int) (Resolution, bool) {
	static, hasStatic := r.catalog.StaticURL(region, streamIndex)

	if r.dynamic[region] {
		if ch, found := r.catalog.ChannelByStreamIndex(region, streamIndex); found {
			cached, ok := r.cache.Get(ctx, strconv.Itoa(ch.ID))
			if ok && strings.Contains(cached, ".m3u8") {
				metrics.Resolutions.WithLabelValues(string(region), string(SourceCache)).Inc()
				return Resolution{URL: cached, Source: SourceCache, ChannelID: ch.ID}, true
			}
		}
	}

	if !hasStatic {
		return Resolution{}, false
	}

	res := Resolution{URL: static, Source: SourceStatic}
	if ch, found := r.catalog.ChannelByStreamIndex(region, streamIndex); found {
		res.ChannelID = ch.ID
	}
	metrics.Resolutions.WithLabelValues(string(region), string(SourceStatic)).Inc()
	return res, true
}
