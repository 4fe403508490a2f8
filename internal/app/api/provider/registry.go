package provider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"mp4text/internal/app/api"
	apperrors "mp4text/internal/app/errors"
	"mp4text/internal/config"
)

// Factory builds an unloaded engine from settings.
type Factory func(settings config.Settings, logger *zap.Logger) (api.Transcriber, error)

// Registry maps engine names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("engine name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("engine factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return apperrors.AlreadyExists("engine", name)
	}
	r.factories[name] = factory
	return nil
}

// New constructs the engine registered under name.
func (r *Registry) New(name string, settings config.Settings, logger *zap.Logger) (api.Transcriber, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrEngineNotFound, "engine %q (available: %v)", name, r.Names())
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	t, err := factory(settings, logger.With(zap.String("engine", name)))
	if err != nil {
		return nil, fmt.Errorf("failed to create engine %q: %w", name, err)
	}
	return t, nil
}

// Names returns the registered engine names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := lo.Keys(r.factories)
	sort.Strings(names)
	return names
}

// Description is the registry's view of one engine.
type Description struct {
	Name  string
	Info  api.ModelInfo
	Error error
}

// Describe constructs every engine without loading it and collects its
// model info. Construction errors are reported per engine.
func (r *Registry) Describe(settings config.Settings) []Description {
	return lo.Map(r.Names(), func(name string, _ int) Description {
		t, err := r.New(name, settings, nil)
		if err != nil {
			return Description{Name: name, Error: err}
		}
		return Description{Name: name, Info: t.ModelInfo()}
	})
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry engines add themselves to.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a factory to the default registry. It panics on duplicate
// names, as it is meant to be called from init.
func Register(name string, factory Factory) {
	if err := defaultRegistry.Register(name, factory); err != nil {
		panic(err)
	}
}

// New constructs an engine from the default registry.
func New(name string, settings config.Settings, logger *zap.Logger) (api.Transcriber, error) {
	return defaultRegistry.New(name, settings, logger)
}

// Names lists the engines in the default registry.
func Names() []string {
	return defaultRegistry.Names()
}

// Describe describes the engines in the default registry.
func Describe(settings config.Settings) []Description {
	return defaultRegistry.Describe(settings)
}
