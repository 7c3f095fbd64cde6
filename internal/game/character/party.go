package character

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/condition"
	"github.com/cory-johannsen/tactics/internal/game/ruleset"
)

// Roster is a named party definition.
type Roster struct {
	Name    string       `yaml:"name"`
	Members []*Character `yaml:"members"`
}

type rosterFile struct {
	Party *Roster `yaml:"party"`
}

// LoadRoster reads a party definition from path.
//
// Postcondition: Returns a roster with 1..combat.MaxPartySize members, or an error.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading party %s: %w", path, err)
	}
	var f rosterFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing party %s: %w", path, err)
	}
	if f.Party == nil {
		return nil, fmt.Errorf("party %s: missing top-level 'party' key", path)
	}
	if n := len(f.Party.Members); n == 0 || n > combat.MaxPartySize {
		return nil, fmt.Errorf("party %s: %d members, want 1..%d", path, n, combat.MaxPartySize)
	}
	return f.Party, nil
}

// BuildParty builds every member and tracks them in prog.
//
// Precondition: prog may be nil when progression is not needed.
// Postcondition: Returns the party, or every member's build error joined.
func BuildParty(r *Roster, reg *ruleset.Registry, catalog *combat.Catalog, conditions *condition.Registry, prog *Progression) (*combat.Party, error) {
	members := make([]*combat.Combatant, 0, len(r.Members))
	var errs []error
	for _, ch := range r.Members {
		c, err := Build(ch, reg, catalog, conditions)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if prog != nil {
			prog.Track(ch, c)
		}
		members = append(members, c)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return combat.NewParty(members)
}
