package ai

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/dice"
)

// Registry indexes Policies by profile ID.
//
// Invariant: each profile ID is registered at most once.
type Registry struct {
	roller   *dice.Roller
	caller   ScriptCaller
	scope    string
	logger   *zap.Logger
	policies map[string]*Policy
	// builtin is true while the default policy is the stock one.
	builtin bool
}

// NewRegistry returns a Registry holding only the default profile. Policies
// it creates share roller, caller and scope.
//
// Precondition: roller must not be nil.
func NewRegistry(roller *dice.Roller, caller ScriptCaller, scope string, logger *zap.Logger) *Registry {
	r := &Registry{
		roller:   roller,
		caller:   caller,
		scope:    scope,
		logger:   logger,
		policies: make(map[string]*Policy),
		builtin:  true,
	}
	r.policies[DefaultProfileID] = NewPolicy(DefaultProfile(), roller, caller, scope, logger)
	return r
}

// Register creates and stores a Policy for profile. A profile with the
// default ID replaces the built-in one.
//
// Precondition: profile must not be nil.
// Postcondition: returns error on ID collision or an invalid profile.
func (r *Registry) Register(profile *Profile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	_, exists := r.policies[profile.ID]
	if exists && !(profile.ID == DefaultProfileID && r.builtin) {
		return fmt.Errorf("ai.Registry: profile %q already registered", profile.ID)
	}
	if profile.ID == DefaultProfileID {
		r.builtin = false
	}
	r.policies[profile.ID] = NewPolicy(profile, r.roller, r.caller, r.scope, r.logger)
	return nil
}

// PolicyFor returns the Policy for profileID, or false if not registered.
func (r *Registry) PolicyFor(profileID string) (*Policy, bool) {
	p, ok := r.policies[profileID]
	return p, ok
}

// Default returns the default Policy.
func (r *Registry) Default() *Policy {
	return r.policies[DefaultProfileID]
}

// IDs returns the registered profile IDs in sorted order.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.policies))
	for id := range r.policies {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
