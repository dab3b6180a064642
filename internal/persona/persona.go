package persona

import (
	"sort"
	"strings"

	"Herald/internal/domain"
)

// Persona builds the prompt for one agent type.
type Persona interface {
	Type() domain.AgentType
	Prompt(req domain.AgentRequest, intel domain.IntelligenceContext) string
}

// Registry keeps a mapping from agent types to their personas.
type Registry struct {
	personas map[domain.AgentType]Persona
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{personas: map[domain.AgentType]Persona{}}
}

// Default returns a registry holding the five community personas.
func Default() *Registry {
	r := NewRegistry()
	for _, p := range builtin {
		r.Register(p)
	}
	return r
}

// Register adds or replaces a persona.
func (r *Registry) Register(p Persona) {
	if r.personas == nil {
		r.personas = map[domain.AgentType]Persona{}
	}
	r.personas[p.Type()] = p
}

// Resolve returns the persona for t or a validation error naming the valid set.
func (r *Registry) Resolve(t domain.AgentType) (Persona, error) {
	if p, ok := r.personas[t]; ok {
		return p, nil
	}
	types := r.Types()
	names := make([]string, len(types))
	for i, known := range types {
		names[i] = string(known)
	}
	return nil, domain.Invalid("agent_type", "unknown agent type %q, expected one of: %s", t, strings.Join(names, ", "))
}

// Types lists registered agent types in sorted order.
func (r *Registry) Types() []domain.AgentType {
	out := make([]domain.AgentType, 0, len(r.personas))
	for t := range r.personas {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
