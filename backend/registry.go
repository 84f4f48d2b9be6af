package backend

import (
	"sync"

	"github.com/subgo/subrender"
)

// Backend name constants.
const (
	// NameSoft is the pure Go software backend.
	NameSoft = "soft"
	// NameLibass is the dynamically loaded libass/libassmod backend.
	NameLibass = "libass"
)

// Factory creates a backend instance.
type Factory func() Backend

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	// libass renders full ASS; soft is the built-in fallback.
	priority = []string{NameLibass, NameSoft}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it is replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry. Useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	return names
}

// Get returns a backend instance by name, or nil if not registered.
func Get(name string) Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := backends[name]
	if !ok {
		return nil
	}
	return factory()
}

// InitDefault returns the best backend that initializes successfully,
// in priority order. Unavailable backends are skipped with a log line;
// ErrBackendNotAvailable is returned when nothing works.
func InitDefault() (Backend, error) {
	registryMu.RLock()
	ordered := make([]Backend, 0, len(backends))
	for _, name := range priority {
		if factory, ok := backends[name]; ok {
			ordered = append(ordered, factory())
		}
	}
	for name, factory := range backends {
		if !inPriority(name) {
			ordered = append(ordered, factory())
		}
	}
	registryMu.RUnlock()

	for _, b := range ordered {
		if err := b.Init(); err != nil {
			subrender.Logger().Info("backend unavailable",
				"backend", b.Name(), "error", err)
			continue
		}
		subrender.Logger().Info("backend selected", "backend", b.Name())
		return b, nil
	}
	return nil, ErrBackendNotAvailable
}

func inPriority(name string) bool {
	for _, p := range priority {
		if p == name {
			return true
		}
	}
	return false
}
