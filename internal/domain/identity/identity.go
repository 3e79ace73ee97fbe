// Package identity maps authenticated caller identities to display names.
package identity

// Resolver maps a caller identity (e.g. an email) to a display name.
type Resolver interface {
	// Resolve returns the display name for identity. Unmapped identities
	// fall back to the raw identity string; resolution never fails.
	Resolve(identity string) string
}

// StaticResolver resolves against a fixed map loaded from configuration.
type StaticResolver struct {
	names map[string]string
}

// NewStaticResolver creates a resolver over the given identity table.
func NewStaticResolver(names map[string]string) *StaticResolver {
	out := make(map[string]string, len(names))
	for k, v := range names {
		out[k] = v
	}
	return &StaticResolver{names: out}
}

// Resolve returns the mapped display name, or identity itself if unmapped.
func (r *StaticResolver) Resolve(identity string) string {
	if name, ok := r.names[identity]; ok && name != "" {
		return name
	}
	return identity
}
