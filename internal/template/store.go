package template

import (
	"fmt"
	"log/slog"
	"sync"
)

// Store holds the current Registry and swaps it atomically on reload.
//
// Readers take the registry once per operation and keep using that snapshot,
// so a reload never changes the templates seen by a running recognition.
type Store struct {
	mu        sync.RWMutex
	registry  *Registry
	root      string
	sources   []string
	callbacks []func(*Registry)
	logger    *slog.Logger
}

// NewStore builds the initial registry from root and sources.
//
// An empty source list selects every template file directly under root,
// sorted by name. The directory is listed again on every Reload, so added
// and removed files are picked up.
func NewStore(root string, sources []string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	reg, err := build(root, sources)
	if err != nil {
		return nil, fmt.Errorf("failed to build template registry: %w", err)
	}
	s := &Store{
		registry:  reg,
		root:      root,
		sources:   append([]string(nil), sources...),
		callbacks: make([]func(*Registry), 0),
		logger:    logger,
	}
	logger.Info("template registry loaded", "root", root, "templates", reg.Len())
	return s, nil
}

// NewStaticStore wraps an existing registry. Reload rebuilds from no
// sources until SetSources is called.
func NewStaticStore(reg *Registry) *Store {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Store{
		registry:  reg,
		callbacks: make([]func(*Registry), 0),
		logger:    slog.Default(),
	}
}

// Discovering reports whether the store lists its root for templates
// instead of using a configured source list.
func (s *Store) Discovering() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return discovering(s.root, s.sources)
}

// Registry returns the current registry.
func (s *Store) Registry() *Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry
}

// Root returns the directory relative sources are resolved against.
func (s *Store) Root() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// Sources returns a copy of the configured source list. It is empty when the
// store discovers its templates.
func (s *Store) Sources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.sources...)
}

// SetSources replaces the root and source list used by the next Reload. An
// empty list discovers the templates under root, as in NewStore.
func (s *Store) SetSources(root string, sources []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = root
	s.sources = append([]string(nil), sources...)
}

// OnChange registers a callback invoked after every successful swap.
func (s *Store) OnChange(fn func(*Registry)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, fn)
}

// Reload rebuilds the registry from the configured sources and swaps it in.
// On failure the previous registry stays in place.
func (s *Store) Reload() error {
	root, sources := s.Root(), s.Sources()

	reg, err := build(root, sources)
	if err != nil {
		s.logger.Warn("template reload failed, keeping previous registry", "error", err)
		return fmt.Errorf("failed to reload templates: %w", err)
	}
	s.Swap(reg)
	s.logger.Info("template registry reloaded", "templates", reg.Len())
	return nil
}

// Swap installs reg as the current registry and notifies listeners.
func (s *Store) Swap(reg *Registry) {
	s.mu.Lock()
	s.registry = reg
	callbacks := make([]func(*Registry), len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(reg)
	}
}

func discovering(root string, sources []string) bool {
	return len(sources) == 0 && root != ""
}

// build is Build with an empty source list replaced by the files currently
// under root.
func build(root string, sources []string) (*Registry, error) {
	if discovering(root, sources) {
		found, err := Discover(root)
		if err != nil {
			return nil, err
		}
		sources = found
	}
	return Build(root, sources)
}
