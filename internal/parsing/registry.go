package parsing

import (
	"fmt"
	"sort"

	"CouncilScraper/internal/domain"
	"CouncilScraper/internal/ports"
)

// Factory builds a parser from the recipe stored on a scraper configuration.
type Factory func(cfg domain.ParserConfig) (ports.Parser, error)

// Registry keeps a mapping from parser kinds to their factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds or replaces a parser factory.
func (r *Registry) Register(kind string, factory Factory) {
	if r.factories == nil {
		r.factories = map[string]Factory{}
	}
	r.factories[kind] = factory
}

// Build resolves cfg.Kind and constructs the parser.
func (r *Registry) Build(cfg domain.ParserConfig) (ports.Parser, error) {
	factory, ok := r.factories[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("parser %q is not registered", cfg.Kind)
	}
	parser, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("build parser %s: %w", cfg.Kind, err)
	}
	return parser, nil
}

// Kinds lists registered parser kinds in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
