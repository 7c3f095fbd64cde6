package ruleset

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Registry provides lookup of races, classes and backgrounds by ID.
//
// Invariant: IDs are unique within each table.
type Registry struct {
	races       map[string]*Race
	classes     map[string]*Class
	backgrounds map[string]*Background
}

// NewRegistry returns an empty Registry.
//
// Postcondition: Returns a non-nil *Registry ready to accept registrations.
func NewRegistry() *Registry {
	return &Registry{
		races:       make(map[string]*Race),
		classes:     make(map[string]*Class),
		backgrounds: make(map[string]*Background),
	}
}

// Load reads the races, classes and backgrounds subdirectories of root.
//
// Postcondition: Returns every load and duplicate-ID error joined.
func Load(root string) (*Registry, error) {
	r := NewRegistry()
	var errs []error

	races, err := LoadRaces(filepath.Join(root, "races"))
	errs = append(errs, err)
	for _, x := range races {
		errs = append(errs, r.AddRace(x))
	}
	classes, err := LoadClasses(filepath.Join(root, "classes"))
	errs = append(errs, err)
	for _, x := range classes {
		errs = append(errs, r.AddClass(x))
	}
	bgs, err := LoadBackgrounds(filepath.Join(root, "backgrounds"))
	errs = append(errs, err)
	for _, x := range bgs {
		errs = append(errs, r.AddBackground(x))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

// AddRace registers race.
//
// Precondition: race must be non-nil with a non-empty ID.
func (r *Registry) AddRace(race *Race) error {
	if _, ok := r.races[race.ID]; ok {
		return fmt.Errorf("ruleset: duplicate race %q", race.ID)
	}
	r.races[race.ID] = race
	return nil
}

// AddClass registers class.
func (r *Registry) AddClass(class *Class) error {
	if _, ok := r.classes[class.ID]; ok {
		return fmt.Errorf("ruleset: duplicate class %q", class.ID)
	}
	r.classes[class.ID] = class
	return nil
}

// AddBackground registers bg.
func (r *Registry) AddBackground(bg *Background) error {
	if _, ok := r.backgrounds[bg.ID]; ok {
		return fmt.Errorf("ruleset: duplicate background %q", bg.ID)
	}
	r.backgrounds[bg.ID] = bg
	return nil
}

// Race returns the race for id, if registered.
func (r *Registry) Race(id string) (*Race, bool) {
	x, ok := r.races[id]
	return x, ok
}

// Class returns the class for id, if registered.
func (r *Registry) Class(id string) (*Class, bool) {
	x, ok := r.classes[id]
	return x, ok
}

// Background returns the background for id, if registered.
func (r *Registry) Background(id string) (*Background, bool) {
	x, ok := r.backgrounds[id]
	return x, ok
}

// Counts returns how many races, classes and backgrounds are registered.
func (r *Registry) Counts() (races, classes, backgrounds int) {
	return len(r.races), len(r.classes), len(r.backgrounds)
}
