package trading

import (
	"fmt"
	"time"
)

// Profile is the behavior bundle for one named broker identity: how its
// orders are tagged and how patient its gateway is.
type Profile struct {
	Name         string
	TimeInForce  string
	PollInterval time.Duration
	OrderTimeout time.Duration
}

// Registry maps broker names to profiles. It is built once at startup and
// passed in explicitly; there is no process-wide table.
type Registry struct {
	profiles map[string]Profile
}

// NewRegistry indexes the given profiles by name.
func NewRegistry(profiles ...Profile) *Registry {
	r := &Registry{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		r.profiles[p.Name] = p
	}
	return r
}

// Lookup returns the profile for name, or an error naming the missing
// broker so startup fails loudly instead of trading with defaults.
func (r *Registry) Lookup(name string) (Profile, error) {
	p, ok := r.profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("no broker profile named %q", name)
	}
	return p, nil
}
