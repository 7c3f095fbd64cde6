// Package condition implements time-boxed status effects attached to a single
// combatant: barriers, blessings and sneaking. Effects tick once at the start
// of their owner's turn and are removed when their duration runs out.
package condition

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind identifies a status effect.
type Kind string

const (
	KindBarrier Kind = "barrier"
	KindBless   Kind = "bless"
	KindSneak   Kind = "sneak"
)

// Def is the static description of a status effect, loaded from YAML.
type Def struct {
	ID              Kind    `yaml:"id"`
	Name            string  `yaml:"name"`
	Description     string  `yaml:"description"`
	DefaultRounds   int     `yaml:"default_rounds"`
	DamageReduction float64 `yaml:"damage_reduction"`
	GrantsImmunity  bool    `yaml:"grants_immunity"`
	// RestrictTo limits the owner to abilities carrying one of these special tags.
	RestrictTo []string `yaml:"restrict_to"`
}

// Validate reports every problem with d.
func (d *Def) Validate() error {
	var errs []error
	switch d.ID {
	case KindBarrier, KindBless, KindSneak:
	default:
		errs = append(errs, fmt.Errorf("condition: unknown id %q", d.ID))
	}
	if d.Name == "" {
		errs = append(errs, fmt.Errorf("condition %q: name must not be empty", d.ID))
	}
	if d.DefaultRounds < 0 {
		errs = append(errs, fmt.Errorf("condition %q: default_rounds must be >= 0, got %d", d.ID, d.DefaultRounds))
	}
	if d.DamageReduction < 0 || d.DamageReduction > 1 {
		errs = append(errs, fmt.Errorf("condition %q: damage_reduction must be within [0,1], got %v", d.ID, d.DamageReduction))
	}
	return errors.Join(errs...)
}

// Registry holds the known Defs keyed by Kind.
type Registry struct {
	defs map[Kind]*Def
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[Kind]*Def)}
}

// DefaultRegistry returns the built-in definitions used when no content
// directory is configured.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&Def{ID: KindBarrier, Name: "Barrier", Description: "Incoming damage is reduced.", DefaultRounds: 3, DamageReduction: 0.5})
	r.Register(&Def{ID: KindBless, Name: "Blessed", Description: "Touched by a divine favour.", DefaultRounds: 3})
	r.Register(&Def{ID: KindSneak, Name: "Sneaking", Description: "Hidden from harm until the next strike.", DefaultRounds: 2, GrantsImmunity: true, RestrictTo: []string{"sneak_attack"}})
	return r
}

// Register adds def, replacing any entry with the same ID.
//
// Precondition: def must not be nil.
func (r *Registry) Register(def *Def) {
	r.defs[def.ID] = def
}

// Get returns the Def for id.
func (r *Registry) Get(id Kind) (*Def, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// MustGet returns the Def for id or a minimal placeholder so a missing
// content file never stops a battle.
func (r *Registry) MustGet(id Kind) *Def {
	if d, ok := r.defs[id]; ok {
		return d
	}
	return &Def{ID: id, Name: string(id)}
}

// All returns the definitions sorted by ID.
func (r *Registry) All() []*Def {
	out := make([]*Def, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadDirectory parses every *.yaml file in dir as a Def. Definitions missing
// from dir fall back to DefaultRegistry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a populated Registry, or an error naming every bad file.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading condition dir %q: %w", dir, err)
	}
	reg := DefaultRegistry()
	var errs []error
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def Def
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			errs = append(errs, fmt.Errorf("parsing %q: %w", path, err))
			continue
		}
		if err := def.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%q: %w", path, err))
			continue
		}
		reg.Register(&def)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return reg, nil
}
