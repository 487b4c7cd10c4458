package application

import "home-voice/internal/domain"

type registryKey struct {
	location string
	family   domain.ActionFamily
	subject  domain.Subject
}

// CommandRegistry is the set of commands the house supports. It is
// read-only after construction and safe for concurrent reads.
type CommandRegistry struct {
	supported map[registryKey]struct{}
	locations []string
}

// NewCommandRegistry indexes already-validated entries. Known locations
// are the declared ones followed by any only referenced by a command.
func NewCommandRegistry(m domain.CommandMap) *CommandRegistry {
	r := &CommandRegistry{supported: make(map[registryKey]struct{}, len(m.Commands))}

	seen := make(map[string]bool)
	addLocation := func(l string) {
		if !seen[l] {
			seen[l] = true
			r.locations = append(r.locations, l)
		}
	}

	for _, l := range m.Locations {
		addLocation(l)
	}
	for _, e := range m.Commands {
		r.supported[registryKey{e.Location, e.Family, e.Subject}] = struct{}{}
		addLocation(e.Location)
	}

	return r
}

func (r *CommandRegistry) IsSupported(location string, family domain.ActionFamily, subject domain.Subject) bool {
	_, ok := r.supported[registryKey{location, family, subject}]
	return ok
}

// Supports matches cmd by action family, ignoring polarity.
func (r *CommandRegistry) Supports(cmd domain.Command) bool {
	return r.IsSupported(cmd.Location, cmd.Action.Family, cmd.Subject)
}

// KnownLocations lists locations in first-loaded order.
func (r *CommandRegistry) KnownLocations() []string {
	return append([]string(nil), r.locations...)
}

func (r *CommandRegistry) Len() int {
	return len(r.supported)
}
