package combat

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/tactics/internal/game/condition"
	"github.com/cory-johannsen/tactics/internal/game/dice"
)

// abilityFile is the YAML shape of one ability. Optional fields are pointers
// so their defaults can be told apart from explicit zeros.
type abilityFile struct {
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	Description      string   `yaml:"description"`
	Locked           bool     `yaml:"locked"`
	Category         string   `yaml:"category"`
	BaseDamage       int      `yaml:"base_damage"`
	Dice             string   `yaml:"dice"`
	DiceCount        *int     `yaml:"dice_count"`
	DiceSides        *int     `yaml:"dice_sides"`
	DamageScaling    *float64 `yaml:"damage_scaling"`
	ScalingAttribute string   `yaml:"scaling_attribute"`
	DamageType       string   `yaml:"damage_type"`
	UsesSpellSlot    *bool    `yaml:"uses_spell_slot"`
	SpellLevel       int      `yaml:"spell_level"`
	SlotCost         int      `yaml:"slot_cost"`
	ActionType       string   `yaml:"action_type"`
	TargetType       string   `yaml:"target_type"`
	Delivery         string   `yaml:"delivery"`
	Range            float64  `yaml:"range"`
	AreaRadius       float64  `yaml:"area_radius"`
	Strikes          int      `yaml:"strikes"`
	Special          string   `yaml:"special"`
	Effect           string   `yaml:"effect"`
	StatusEffect     string   `yaml:"status_effect"`
	StatusDuration   int      `yaml:"status_duration"`
	BarrierReduction float64  `yaml:"barrier_reduction"`
	MaxUsesPerBattle int      `yaml:"max_uses_per_battle"`
	MaxLifetimeUses  int      `yaml:"max_lifetime_uses"`
}

// DecodeAbility parses and validates a single YAML ability document.
//
// Postcondition: Returns a fully validated Ability, or an error joining every
// violation found.
func DecodeAbility(data []byte) (*Ability, error) {
	var f abilityFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding ability: %w", err)
	}
	return f.build()
}

func (f abilityFile) build() (*Ability, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	a := &Ability{
		ID:               f.ID,
		Name:             f.Name,
		Description:      f.Description,
		Unlocked:         !f.Locked,
		BaseDamage:       f.BaseDamage,
		DiceCount:        1,
		DiceSides:        6,
		DamageScaling:    1.0,
		UsesSpellSlot:    true,
		SpellLevel:       f.SpellLevel,
		SlotCost:         f.SlotCost,
		Range:            f.Range,
		AreaRadius:       f.AreaRadius,
		Strikes:          f.Strikes,
		Special:          strings.ToLower(strings.TrimSpace(f.Special)),
		StatusEffect:     strings.ToLower(strings.TrimSpace(f.StatusEffect)),
		StatusDuration:   f.StatusDuration,
		BarrierReduction: f.BarrierReduction,
		MaxUsesPerBattle: f.MaxUsesPerBattle,
		MaxLifetimeUses:  f.MaxLifetimeUses,
	}
	if a.Name == "" {
		a.Name = a.ID
	}

	var err error
	a.Category, err = parseEnum("category", categoryNames, f.Category, CategoryMelee)
	collect(err)
	a.DamageType, err = parseEnum("damage type", damageTypeNames, f.DamageType, DamagePhysical)
	collect(err)
	a.Action, err = parseEnum("action type", actionTypeNames, f.ActionType, ActionStandard)
	collect(err)
	a.Target, err = parseEnum("target type", targetTypeNames, f.TargetType, TargetEnemy)
	collect(err)
	a.Delivery, err = parseEnum("delivery", deliveryNames, f.Delivery, DeliveryInstant)
	collect(err)
	a.Effect, err = parseEnum("effect", effectNames, f.Effect, EffectNone)
	collect(err)
	a.ScalingAttribute, err = ParseAttribute(f.ScalingAttribute)
	collect(err)

	if f.Dice != "" {
		expr, err := dice.Parse(f.Dice)
		if err != nil {
			collect(err)
		} else {
			a.DiceCount, a.DiceSides = expr.Count, expr.Sides
			a.BaseDamage += expr.Modifier
		}
	}
	if f.DiceCount != nil {
		a.DiceCount = *f.DiceCount
	}
	if f.DiceSides != nil {
		a.DiceSides = *f.DiceSides
	}
	if f.DamageScaling != nil {
		a.DamageScaling = *f.DamageScaling
	}
	if f.UsesSpellSlot != nil {
		a.UsesSpellSlot = *f.UsesSpellSlot
	}
	if a.Strikes == 0 {
		a.Strikes = 1
		if a.Delivery == DeliveryChain {
			a.Strikes = 3
		}
	}

	collect(a.Validate())
	if len(errs) > 0 {
		return nil, fmt.Errorf("ability %q: %w", f.ID, errors.Join(errs...))
	}
	return a, nil
}

// Validate reports every malformed field. The engine trusts validated
// definitions and performs no checks of its own.
func (a *Ability) Validate() error {
	var errs []string
	if a.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	if a.DiceCount < 0 {
		errs = append(errs, fmt.Sprintf("dice_count must be >= 0, got %d", a.DiceCount))
	}
	if a.DiceSides < 0 {
		errs = append(errs, fmt.Sprintf("dice_sides must be >= 0, got %d", a.DiceSides))
	}
	if a.DiceCount > 0 && a.DiceSides < 1 {
		errs = append(errs, "dice_sides must be >= 1 when dice_count > 0")
	}
	if a.DamageScaling < 0 {
		errs = append(errs, fmt.Sprintf("damage_scaling must be >= 0, got %v", a.DamageScaling))
	}
	if a.SpellLevel < 0 || a.SpellLevel > 9 {
		errs = append(errs, fmt.Sprintf("spell_level must be 0-9, got %d", a.SpellLevel))
	}
	if a.SlotCost < 0 {
		errs = append(errs, fmt.Sprintf("slot_cost must be >= 0, got %d", a.SlotCost))
	}
	if a.Range < 0 {
		errs = append(errs, fmt.Sprintf("range must be >= 0, got %v", a.Range))
	}
	if a.AreaRadius < 0 {
		errs = append(errs, fmt.Sprintf("area_radius must be >= 0, got %v", a.AreaRadius))
	}
	if a.Strikes < 0 {
		errs = append(errs, fmt.Sprintf("strikes must be >= 0, got %d", a.Strikes))
	}
	if a.MaxUsesPerBattle < 0 || a.MaxLifetimeUses < 0 {
		errs = append(errs, "use caps must be >= 0")
	}
	if a.StatusDuration < 0 {
		errs = append(errs, fmt.Sprintf("status_duration must be >= 0, got %d", a.StatusDuration))
	}
	if a.BarrierReduction < 0 || a.BarrierReduction > 1 {
		errs = append(errs, fmt.Sprintf("barrier_reduction must be within [0,1], got %v", a.BarrierReduction))
	}
	if !knownSpecials[a.Special] {
		errs = append(errs, fmt.Sprintf("unknown special %q", a.Special))
	}
	switch condition.Kind(a.StatusEffect) {
	case "", condition.KindBarrier, condition.KindBless, condition.KindSneak:
	default:
		errs = append(errs, fmt.Sprintf("unknown status_effect %q", a.StatusEffect))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Catalog indexes ability definitions by ID. Lookups return the shared
// definition pointer.
type Catalog struct {
	byID map[string]*Ability
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{byID: make(map[string]*Ability)}
}

// Add registers a. Duplicate IDs are rejected.
func (c *Catalog) Add(a *Ability) error {
	if _, ok := c.byID[a.ID]; ok {
		return fmt.Errorf("duplicate ability id %q", a.ID)
	}
	c.byID[a.ID] = a
	return nil
}

// Get returns the ability with id.
func (c *Catalog) Get(id string) (*Ability, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// Resolve maps ids to their shared definitions.
//
// Postcondition: Returns every ability in order, or an error listing every
// unknown id.
func (c *Catalog) Resolve(ids []string) ([]*Ability, error) {
	out := make([]*Ability, 0, len(ids))
	var missing []string
	for _, id := range ids {
		a, ok := c.byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, a)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unknown abilities: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// All returns every ability sorted by ID.
func (c *Catalog) All() []*Ability {
	out := make([]*Ability, 0, len(c.byID))
	for _, a := range c.byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadAbilities reads every *.yaml file in dir as one ability.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a populated Catalog, or an error naming every bad file.
func LoadAbilities(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading ability dir %q: %w", dir, err)
	}
	cat := NewCatalog()
	var errs []error
	for _, e := range entries {
		if e.IsDir() || !(strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		a, err := DecodeAbility(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		if err := cat.Add(a); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cat, nil
}
