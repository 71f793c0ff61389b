package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/demurrage/journal"
	"github.com/xraph/demurrage/schedule"
	"github.com/xraph/demurrage/types"
)

// DefaultTimeout bounds each hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// Hook interfaces are discovered once at registration.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit            []OnInit
	onShutdown        []OnShutdown
	onMinted          []OnMinted
	onTransferred     []OnTransferred
	onWithdrawn       []OnWithdrawn
	onRateUpdated     []OnRateUpdated
	onDecayRealized   []OnDecayRealized
	onOperationFailed []OnOperationFailed
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	r.timeout = d
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnMinted); ok {
		r.onMinted = append(r.onMinted, v)
	}
	if v, ok := p.(OnTransferred); ok {
		r.onTransferred = append(r.onTransferred, v)
	}
	if v, ok := p.(OnWithdrawn); ok {
		r.onWithdrawn = append(r.onWithdrawn, v)
	}
	if v, ok := p.(OnRateUpdated); ok {
		r.onRateUpdated = append(r.onRateUpdated, v)
	}
	if v, ok := p.(OnDecayRealized); ok {
		r.onDecayRealized = append(r.onDecayRealized, v)
	}
	if v, ok := p.(OnOperationFailed); ok {
		r.onOperationFailed = append(r.onOperationFailed, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

// implementedInterfaces returns the hook interfaces implemented by the plugin.
func implementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnMinted)(nil)).Elem(), "OnMinted")
	checkInterface(reflect.TypeOf((*OnTransferred)(nil)).Elem(), "OnTransferred")
	checkInterface(reflect.TypeOf((*OnWithdrawn)(nil)).Elem(), "OnWithdrawn")
	checkInterface(reflect.TypeOf((*OnRateUpdated)(nil)).Elem(), "OnRateUpdated")
	checkInterface(reflect.TypeOf((*OnDecayRealized)(nil)).Elem(), "OnDecayRealized")
	checkInterface(reflect.TypeOf((*OnOperationFailed)(nil)).Elem(), "OnOperationFailed")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, l interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	emit(ctx, r, "OnInit", plugins, func(p OnInit) error { return p.OnInit(ctx, l) })
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	emit(ctx, r, "OnShutdown", plugins, func(p OnShutdown) error { return p.OnShutdown(ctx) })
}

// EmitMinted emits a minted event.
func (r *Registry) EmitMinted(ctx context.Context, e *journal.Entry) {
	r.mu.RLock()
	plugins := r.onMinted
	r.mu.RUnlock()

	emit(ctx, r, "OnMinted", plugins, func(p OnMinted) error { return p.OnMinted(ctx, e) })
}

// EmitTransferred emits a transferred event.
func (r *Registry) EmitTransferred(ctx context.Context, e *journal.Entry) {
	r.mu.RLock()
	plugins := r.onTransferred
	r.mu.RUnlock()

	emit(ctx, r, "OnTransferred", plugins, func(p OnTransferred) error { return p.OnTransferred(ctx, e) })
}

// EmitWithdrawn emits a withdrawn event.
func (r *Registry) EmitWithdrawn(ctx context.Context, e *journal.Entry) {
	r.mu.RLock()
	plugins := r.onWithdrawn
	r.mu.RUnlock()

	emit(ctx, r, "OnWithdrawn", plugins, func(p OnWithdrawn) error { return p.OnWithdrawn(ctx, e) })
}

// EmitRateUpdated emits a rate updated event.
func (r *Registry) EmitRateUpdated(ctx context.Context, c *schedule.Checkpoint) {
	r.mu.RLock()
	plugins := r.onRateUpdated
	r.mu.RUnlock()

	emit(ctx, r, "OnRateUpdated", plugins, func(p OnRateUpdated) error { return p.OnRateUpdated(ctx, c) })
}

// EmitDecayRealized emits a decay realized event.
func (r *Registry) EmitDecayRealized(ctx context.Context, holder string, decayed types.Amount) {
	r.mu.RLock()
	plugins := r.onDecayRealized
	r.mu.RUnlock()

	emit(ctx, r, "OnDecayRealized", plugins, func(p OnDecayRealized) error { return p.OnDecayRealized(ctx, holder, decayed) })
}

// EmitOperationFailed emits an operation failed event.
func (r *Registry) EmitOperationFailed(ctx context.Context, op string, err error) {
	r.mu.RLock()
	plugins := r.onOperationFailed
	r.mu.RUnlock()

	emit(ctx, r, "OnOperationFailed", plugins, func(p OnOperationFailed) error { return p.OnOperationFailed(ctx, op, err) })
}

func emit[T Plugin](ctx context.Context, r *Registry, hook string, plugins []T, call func(T) error) {
	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return call(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins must never block the ledger.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
