package operator

import (
	"fmt"
	"sync"
)

// Arguments is the structurally typed record of positional and named
// entries the parser hands a factory (spec §6.1). The core treats it as
// an opaque map; argument validation is each factory's responsibility.
type Arguments struct {
	Positional []any
	Named      map[string]any
}

// Factory builds one Operator from Arguments, or returns a structured
// failure — never a panic, per spec §6.1: "factories receive the
// arguments, validate them, and return either an operator instance or a
// structured failure."
type Factory func(args Arguments) (Operator, error)

// Registry resolves plugin_name to a Factory, generalizing the teacher's
// component.Factories table (collector/cmd/otelarrowcol/components.go)
// from a fixed compile-time set of receivers/processors/exporters to a
// pluggable name→factory map the surface parser queries at assembly
// time.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a Factory under pluginName. Panics on a duplicate
// registration, since two plugins silently shadowing each other is a
// build-time configuration bug, not a runtime condition to recover from.
func (r *Registry) Register(pluginName string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[pluginName]; exists {
		panic("operator: duplicate registration for plugin " + pluginName)
	}
	r.factories[pluginName] = f
}

// Build resolves pluginName and invokes its Factory with args.
func (r *Registry) Build(pluginName string, args Arguments) (Operator, error) {
	r.mu.RLock()
	f, ok := r.factories[pluginName]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("operator: unknown plugin %q", pluginName)
	}
	return f(args)
}

// Names returns the plugin names currently registered, primarily for
// diagnostics ("did you mean...") and tests.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	return out
}
