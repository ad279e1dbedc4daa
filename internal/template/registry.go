package template

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Registry is an ordered collection of templates.
//
// A Registry is filled by Register during construction and treated as
// read-only afterwards; the Store replaces it wholesale on reload instead of
// mutating it. Lookups scan in registration order and return the first hit,
// so an earlier template shadows a later one with the same id or screen type.
type Registry struct {
	models  []*Model
	sources []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		models:  make([]*Model, 0),
		sources: make([]string, 0),
	}
}

// Build loads every source, in order, into a new registry. Relative sources
// are resolved against root. The first source that fails to load aborts the
// build.
func Build(root string, sources []string) (*Registry, error) {
	reg := NewRegistry()
	for _, src := range sources {
		path := src
		if root != "" && !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		if err := reg.Register(path); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Discover lists the template files directly under root, sorted by name.
// It is the source list used when none is configured.
func Discover(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates in %s: %w", root, err)
	}
	sources := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isTemplateFile(e.Name()) {
			continue
		}
		sources = append(sources, e.Name())
	}
	sort.Strings(sources)
	return sources, nil
}

// Register loads a template file and appends it.
func (r *Registry) Register(path string) error {
	m, err := Load(path)
	if err != nil {
		return err
	}
	r.models = append(r.models, m)
	r.sources = append(r.sources, path)
	return nil
}

// Add appends an already decoded template.
func (r *Registry) Add(m *Model) {
	r.models = append(r.models, m)
	r.sources = append(r.sources, "")
}

// Len returns the number of registered templates.
func (r *Registry) Len() int {
	return len(r.models)
}

// Models returns the templates in registration order.
func (r *Registry) Models() []*Model {
	out := make([]*Model, len(r.models))
	copy(out, r.models)
	return out
}

// Source returns the file a template was loaded from, or "" when it was
// added in memory or is not registered.
func (r *Registry) Source(m *Model) string {
	for i, rm := range r.models {
		if rm == m {
			return r.sources[i]
		}
	}
	return ""
}

// FindByID returns the first template with the given id, or nil.
func (r *Registry) FindByID(id string) *Model {
	for _, m := range r.models {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// FindByScreenType returns the first template for the given screen type, or
// nil.
func (r *Registry) FindByScreenType(screenType string) *Model {
	for _, m := range r.models {
		if m.ScreenType == screenType {
			return m
		}
	}
	return nil
}
