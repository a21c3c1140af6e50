// Package observability provides hooks for metrics, tracing, and logging.
//
// The editor core, the config loader and the diagram renderer report events
// through small hook interfaces instead of depending on a metrics backend.
// Every interface has a no-op implementation that is active until a caller
// registers its own.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetEditorHooks(&myEditorHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Editor().OnMutation("set_position", id, err)
//	observability.Editor().OnRecompute(stats, duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Editor Hooks
// =============================================================================

// RecomputeStats summarizes one recompute pass.
type RecomputeStats struct {
	Points   int
	Ropes    int
	Status   string
	Warnings int
}

// EditorHooks receives events from the rig editor core.
//
// The core is synchronous and has no request context, so these hooks take
// none.
type EditorHooks interface {
	// OnMutation records an edit. err is non-nil when it was rejected.
	OnMutation(op, pointID string, err error)

	// OnRecompute records a completed recompute pass.
	OnRecompute(stats RecomputeStats, duration time.Duration)
}

// =============================================================================
// Config Hooks
// =============================================================================

// ConfigHooks receives events from configuration loading.
type ConfigHooks interface {
	// OnConfigLoad records a configuration file read. path is empty when
	// defaults were used.
	OnConfigLoad(path string, err error)

	// OnConfigReload records a configuration change picked up by a watcher.
	OnConfigReload(path string, err error)
}

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from diagram rendering.
type RenderHooks interface {
	OnRenderStart(ctx context.Context, format string)
	OnRenderComplete(ctx context.Context, format string, size int, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopEditorHooks is a no-op implementation of EditorHooks.
type NoopEditorHooks struct{}

func (NoopEditorHooks) OnMutation(string, string, error)             {}
func (NoopEditorHooks) OnRecompute(RecomputeStats, time.Duration) {}

// NoopConfigHooks is a no-op implementation of ConfigHooks.
type NoopConfigHooks struct{}

func (NoopConfigHooks) OnConfigLoad(string, error)   {}
func (NoopConfigHooks) OnConfigReload(string, error) {}

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnRenderStart(context.Context, string)                               {}
func (NoopRenderHooks) OnRenderComplete(context.Context, string, int, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	editorHooks EditorHooks = NoopEditorHooks{}
	configHooks ConfigHooks = NoopConfigHooks{}
	renderHooks RenderHooks = NoopRenderHooks{}
	hooksMu     sync.RWMutex
)

// SetEditorHooks registers custom editor hooks.
// This should be called once at application startup before any editor is created.
func SetEditorHooks(h EditorHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		editorHooks = h
	}
}

// SetConfigHooks registers custom config hooks.
func SetConfigHooks(h ConfigHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		configHooks = h
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

// Editor returns the registered editor hooks.
func Editor() EditorHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return editorHooks
}

// Config returns the registered config hooks.
func Config() ConfigHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return configHooks
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
	editorHooks = NoopEditorHooks{}
	configHooks = NoopConfigHooks{}
	renderHooks = NoopRenderHooks{}
}
