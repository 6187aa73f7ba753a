// Package publish keeps the set of configured platform publishers.
package publish

import (
	"fmt"
	"sort"

	"TrendingPress/internal/domain"
	"TrendingPress/internal/ports"
)

var order = map[domain.Platform]int{
	domain.PlatformTelegram: 0,
	domain.PlatformDevTo:    1,
	domain.PlatformMedium:   2,
}

// Registry maps platforms to their publisher implementations.
type Registry struct {
	publishers map[domain.Platform]ports.Publisher
}

// NewRegistry builds a registry from the given publishers.
func NewRegistry(publishers ...ports.Publisher) *Registry {
	r := &Registry{publishers: map[domain.Platform]ports.Publisher{}}
	for _, p := range publishers {
		r.Register(p)
	}
	return r
}

// Register adds or replaces the publisher for its platform.
func (r *Registry) Register(p ports.Publisher) {
	if p == nil {
		return
	}
	if r.publishers == nil {
		r.publishers = map[domain.Platform]ports.Publisher{}
	}
	r.publishers[p.Platform()] = p
}

// Resolve returns the publisher for a platform or an error if it is not configured.
func (r *Registry) Resolve(platform domain.Platform) (ports.Publisher, error) {
	if p, ok := r.publishers[platform]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("publisher %s is not configured", platform)
}

// All returns the configured publishers in a stable order: telegram, devto, medium, then others by name.
func (r *Registry) All() []ports.Publisher {
	out := make([]ports.Publisher, 0, len(r.publishers))
	for _, p := range r.publishers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Platform(), out[j].Platform()
		ra, okA := order[a]
		rb, okB := order[b]
		switch {
		case okA && okB:
			return ra < rb
		case okA != okB:
			return okA
		default:
			return a < b
		}
	})
	return out
}

// Platforms lists the configured platform names in the order of All.
func (r *Registry) Platforms() []domain.Platform {
	all := r.All()
	out := make([]domain.Platform, len(all))
	for i, p := range all {
		out[i] = p.Platform()
	}
	return out
}

// Len reports how many platforms are configured.
func (r *Registry) Len() int {
	return len(r.publishers)
}
