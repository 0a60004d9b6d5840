package resolver

import (
	"context"
	"sync"

	"github.com/gitadityakumar/LiveNews/pkg/models"
)

// Viewer tracks what the player surface is showing and re-runs resolution
// on selection and whenever the surface regains focus, so a URL discovered
// while the user was elsewhere is picked up without reselecting.
type Viewer struct {
	resolver *Resolver

	mu          sync.Mutex
	region      models.Region
	streamIndex int
	current     Resolution
}

// NewViewer starts on the first stream of region.
func NewViewer(ctx context.Context, resolver *Resolver, region models.Region) *Viewer {
	v := &Viewer{resolver: resolver}
	v.SetRegion(ctx, region)
	return v
}

// SetRegion switches region and resets to its first stream.
func (v *Viewer) SetRegion(ctx context.Context, region models.Region) Resolution {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.region = region
	v.streamIndex = 0
	v.current = Resolution{}
	return v.refreshLocked(ctx)
}

// Select plays streamIndex in the current region.
func (v *Viewer) Select(ctx context.Context, streamIndex int) Resolution {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.streamIndex = streamIndex
	return v.refreshLocked(ctx)
}

// Focus re-evaluates the current selection.
func (v *Viewer) Focus(ctx context.Context) Resolution {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.refreshLocked(ctx)
}

// Current returns the URL the player should be showing.
func (v *Viewer) Current() (models.Region, int, Resolution) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.region, v.streamIndex, v.current
}

// refreshLocked keeps the previous URL when the selection does not resolve.
func (v *Viewer) refreshLocked(ctx context.Context) Resolution {
	if res, ok := v.resolver.Resolve(ctx, v.region, v.streamIndex); ok {
		v.current = res
	}
	return v.current
}
