// Package roster defines the roster provider consumed by the core.
//
// The provider owns no event state; it only maps an operating day to an
// ordered list of (member id, display name) pairs.
package roster

import "context"

// Member is one roster entry.
type Member struct {
	ID   string `koanf:"id" json:"id"`
	Name string `koanf:"name" json:"name"`
}

// Provider returns the ordered roster for an operating day.
type Provider interface {
	// Members returns the ordered roster for the given operating day.
	// Returns ErrNoRoster when no roster can be resolved for the day.
	Members(ctx context.Context, day string) ([]Member, error)
}

// StaticProvider serves a fixed roster loaded from configuration.
// The same list is served for every operating day.
type StaticProvider struct {
	members []Member
}

// NewStaticProvider creates a provider over the given ordered entries.
func NewStaticProvider(members []Member) *StaticProvider {
	// Copy to shield against caller mutation.
	out := make([]Member, len(members))
	copy(out, members)
	return &StaticProvider{members: out}
}

// Members returns the configured roster.
func (p *StaticProvider) Members(_ context.Context, _ string) ([]Member, error) {
	if len(p.members) == 0 {
		return nil, ErrNoRoster
	}
	return p.members, nil
}

// Find scans members in order for the given id.
// Returns ErrMemberNotFound if the id is absent.
func Find(members []Member, id string) (Member, error) {
	for _, m := range members {
		if m.ID == id {
			return m, nil
		}
	}
	return Member{}, ErrMemberNotFound
}
