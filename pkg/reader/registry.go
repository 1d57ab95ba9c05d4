package reader

import (
	"fmt"
	"sort"
	"sync"

	"github.com/stratoseis/dasio/pkg/das"
	"github.com/stratoseis/dasio/pkg/errors"
)

// FormatReader extracts a section from one container kind. Implementations
// are stateless; a single instance serves concurrent reads.
type FormatReader interface {
	// Tag returns the canonical format tag the reader is registered under.
	Tag() string

	// Read extracts the windowed section and its diagnostics from src.
	Read(src *Source, opts Options) (*das.Section, []das.Diagnostic, error)
}

// Registry manages format reader registration and tag resolution.
type Registry struct {
	mu      sync.RWMutex
	readers map[string]FormatReader
	aliases map[string]string
}

// NewRegistry creates a registry preloaded with the built-in aliases.
func NewRegistry() *Registry {
	return &Registry{
		readers: make(map[string]FormatReader),
		aliases: map[string]string{
			"hdf5":   "h5",
			"segy":   "sgy",
			"pickle": "pkl",
		},
	}
}

// globalRegistry is the default registry used by the package-level
// functions. It is populated during init and read-only afterward.
var globalRegistry = NewRegistry()

// Register adds a format reader under its tag.
func (r *Registry) Register(fr FormatReader) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tag := fr.Tag()
	if tag == "" {
		return fmt.Errorf("format reader has an empty tag")
	}
	if _, exists := r.readers[tag]; exists {
		return fmt.Errorf("format %s already registered", tag)
	}
	r.readers[tag] = fr
	return nil
}

// Alias maps an alternative name onto a canonical tag.
func (r *Registry) Alias(alias, tag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if alias == "" || tag == "" {
		return fmt.Errorf("alias and tag must be non-empty")
	}
	if existing, ok := r.aliases[alias]; ok && existing != tag {
		return fmt.Errorf("alias %s already maps to %s", alias, existing)
	}
	r.aliases[alias] = tag
	return nil
}

// Resolve canonicalizes a tag or alias. Unknown names pass through
// unchanged so lookup failures report what the caller asked for.
func (r *Registry) Resolve(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if tag, ok := r.aliases[name]; ok {
		return tag
	}
	return name
}

// Get returns the reader registered under the given tag or alias.
func (r *Registry) Get(tag string) (FormatReader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if canonical, ok := r.aliases[tag]; ok {
		tag = canonical
	}
	fr, ok := r.readers[tag]
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeUnsupportedFormat,
			"unsupported format %q", tag)
	}
	return fr, nil
}

// Has reports whether a reader is registered for the tag or alias.
func (r *Registry) Has(tag string) bool {
	_, err := r.Get(tag)
	return err == nil
}

// List returns the registered canonical tags, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.readers))
	for tag := range r.readers {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Aliases returns a copy of the alias table.
func (r *Registry) Aliases() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.aliases))
	for alias, tag := range r.aliases {
		out[alias] = tag
	}
	return out
}

// Register adds a format reader to the global registry.
func Register(fr FormatReader) error {
	return globalRegistry.Register(fr)
}

// MustRegister adds a format reader to the global registry and panics on
// conflict. Intended for init-time registration.
func MustRegister(fr FormatReader) {
	if err := globalRegistry.Register(fr); err != nil {
		panic(err)
	}
}

// AddAlias maps an alternative name onto a canonical tag in the global
// registry.
func AddAlias(alias, tag string) error {
	return globalRegistry.Alias(alias, tag)
}

// Get returns the reader registered in the global registry.
func Get(tag string) (FormatReader, error) {
	return globalRegistry.Get(tag)
}

// Has reports whether the global registry has a reader for the tag.
func Has(tag string) bool {
	return globalRegistry.Has(tag)
}

// List returns the canonical tags registered in the global registry.
func List() []string {
	return globalRegistry.List()
}

// Aliases returns the global registry's alias table.
func Aliases() map[string]string {
	return globalRegistry.Aliases()
}
