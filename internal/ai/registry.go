package ai

import (
	"fmt"
	"strings"
	"sync"
)

// Factory builds a provider for a concrete model name.
type Factory func(model string) (Provider, error)

type registration struct {
	defaultModel string
	factory      Factory
}

// Registry maps provider names to factories and owns the default-model
// fallback, so call sites can ask for ("gemini", "") and get the configured
// default instead of repeating the fallback at every wiring site.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registration
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registration)}
}

func (r *Registry) Register(name, defaultModel string, f Factory) {
	name = normalizeName(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = registration{defaultModel: defaultModel, factory: f}
}

// Get builds a provider. An empty model selects the registered default.
func (r *Registry) Get(name, model string) (Provider, error) {
	r.mu.RLock()
	reg, ok := r.entries[normalizeName(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown ai provider: %s", name)
	}
	if model == "" {
		model = reg.defaultModel
	}
	return reg.factory(model)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
