// Package observability provides hooks for metrics and tracing.
//
// The preprocessor reports cache lookups and renderer batches through the
// hooks registered here. Defaults are no-ops, so nothing is recorded unless
// main registers an implementation at startup.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    observability.SetRenderHooks(&myRenderHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Render().OnBatchStart(ctx, args, len(sources))
//	// ... run the renderer ...
//	observability.Render().OnBatchComplete(ctx, args, len(sources), duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from the artifact cache.
type CacheHooks interface {
	// OnCacheHit records a diagram whose artifact already exists.
	OnCacheHit(ctx context.Context, path string)

	// OnCacheMiss records a diagram that had to be queued.
	OnCacheMiss(ctx context.Context, path string)

	// OnCacheSet records a freshly written artifact.
	OnCacheSet(ctx context.Context, path string, size int)
}

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from the batch renderer.
type RenderHooks interface {
	// OnBatchStart is called before the renderer is invoked for a group.
	OnBatchStart(ctx context.Context, args []string, diagrams int)

	// OnBatchComplete is called after the group finished, successfully or not.
	OnBatchComplete(ctx context.Context, args []string, diagrams int, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnBatchStart(context.Context, []string, int) {}
func (NoopRenderHooks) OnBatchComplete(context.Context, []string, int, time.Duration, error) {
}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	renderHooks RenderHooks = NoopRenderHooks{}
	hooksMu     sync.RWMutex
)

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetRenderHooks registers custom render hooks.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	cacheHooks = NoopCacheHooks{}
	renderHooks = NoopRenderHooks{}
}
