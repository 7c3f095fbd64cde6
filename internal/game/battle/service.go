package battle

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/config"
	"github.com/cory-johannsen/tactics/internal/game/ai"
	"github.com/cory-johannsen/tactics/internal/game/character"
	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/dice"
	"github.com/cory-johannsen/tactics/internal/game/npc"
	"github.com/cory-johannsen/tactics/internal/observability"
	"github.com/cory-johannsen/tactics/internal/scripting"
)

const (
	// enemyLineX is where enemy groups spawn, facing a party at the origin.
	enemyLineX   = 10.0
	enemySpacing = 2.0
)

// TuningFrom converts the combat configuration section to engine tuning.
func TuningFrom(c config.CombatConfig) combat.Tuning {
	return combat.Tuning{
		EnemyDamageMultiplier: c.EnemyDamageMultiplier,
		KnockbackDistance:     c.KnockbackDistance,
		DashDistance:          c.DashDistance,
		ShadowStepDistance:    c.ShadowStepDistance,
		LifeDrainRatio:        c.LifeDrainRatio,
		BarrierRounds:         c.BarrierRounds,
		BarrierReduction:      c.BarrierReduction,
		SneakRounds:           c.SneakRounds,
		BlessRounds:           c.BlessRounds,
		WideSlashArc:          c.WideSlashArc,
		CastDelay:             c.CastDelay,
		TravelDelay:           c.TravelDelay,
		HitPause:              c.HitPause,
	}
}

// PacerFor returns the pacer for factor: no delay at 0, scaled real time
// otherwise.
func PacerFor(factor float64) combat.Pacer {
	if factor <= 0 {
		return combat.NoDelay{}
	}
	return combat.ScaledPacer{Inner: combat.ClockPacer{}, Factor: factor}
}

// DefaultProfileFrom builds the fallback AI profile from configured weights.
func DefaultProfileFrom(c config.AIConfig) *ai.Profile {
	return &ai.Profile{
		ID:          ai.DefaultProfileID,
		Description: "configured default",
		Weights: map[string]int{
			"melee":   c.Weights.Melee,
			"ranged":  c.Weights.Ranged,
			"magic":   c.Weights.Magic,
			"utility": c.Weights.Utility,
			"default": c.Weights.Default,
		},
	}
}

// Request describes one battle to run.
type Request struct {
	Roster  *character.Roster
	Enemies []string
	// ReplayKey seeds every roll; empty picks a fresh key.
	ReplayKey string
	// Sink also receives every event when set.
	Sink combat.Sink
}

// Service builds and runs battles from loaded content.
type Service struct {
	cfg     *config.Config
	content *Content
	archive Archive
	logger  *zap.Logger
}

// NewService creates a Service. archive may be nil.
//
// Precondition: cfg and content must not be nil.
func NewService(cfg *config.Config, content *Content, archive Archive, logger *zap.Logger) *Service {
	if cfg == nil || content == nil {
		panic("battle.NewService: cfg and content must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{cfg: cfg, content: content, archive: archive, logger: logger}
}

// Content returns the loaded content.
func (s *Service) Content() *Content { return s.content }

// Simulate runs a battle with the party under AI control and archives it.
//
// Postcondition: the returned record is non-nil whenever the battle started.
func (s *Service) Simulate(ctx context.Context, req Request) (*Record, error) {
	if req.Roster == nil {
		return nil, errors.New("battle: request has no party")
	}
	c, err := s.muster(req.Roster)
	if err != nil {
		return nil, err
	}
	return s.simulate(ctx, req, c)
}

// Campaign runs req's enemy group waves times against one party. Between
// battles the party takes a full rest: the fallen are revived, every member
// is restored and sent back to its starting position. Experience carries
// over. The campaign stops after the first battle that is not a victory.
// Battle i (from 0) is seeded with the replay key suffixed "/i"; the first
// uses the key as is.
//
// Postcondition: records holds one entry per battle fought, in order.
func (s *Service) Campaign(ctx context.Context, req Request, waves int) ([]*Record, error) {
	if req.Roster == nil {
		return nil, errors.New("battle: request has no party")
	}
	if waves < 1 {
		return nil, fmt.Errorf("battle: campaign needs at least one wave, got %d", waves)
	}
	c, err := s.muster(req.Roster)
	if err != nil {
		return nil, err
	}
	base := req.ReplayKey
	if base == "" {
		base = uuid.NewString()
	}
	var records []*Record
	for i := 0; i < waves; i++ {
		if i > 0 {
			c.rest()
			s.logger.Info("party rested", zap.String("party", req.Roster.Name), zap.Int("wave", i+1))
		}
		wave := req
		wave.ReplayKey = base
		if i > 0 {
			wave.ReplayKey = fmt.Sprintf("%s/%d", base, i)
		}
		rec, err := s.simulate(ctx, wave, c)
		if rec != nil {
			records = append(records, rec)
		}
		if err != nil {
			return records, fmt.Errorf("wave %d: %w", i+1, err)
		}
		if rec.Result() != combat.ResultVictory {
			break
		}
	}
	return records, nil
}

func (s *Service) simulate(ctx context.Context, req Request, c *crew) (*Record, error) {
	sess, ctrl, err := s.build(req, true, c)
	if err != nil {
		return nil, err
	}
	sess.battle.SetPlayerController(ctrl)
	if err := sess.Start(ctx); err != nil {
		sess.release()
		return nil, fmt.Errorf("starting battle: %w", err)
	}
	return sess.Finish(context.WithoutCancel(ctx))
}

// NewSession prepares an interactive battle. Enemy turns are driven by AI;
// party turns wait on the returned Session. Call Start, then Finish when done.
func (s *Service) NewSession(req Request) (*Session, error) {
	if req.Roster == nil {
		return nil, errors.New("battle: request has no party")
	}
	c, err := s.muster(req.Roster)
	if err != nil {
		return nil, err
	}
	sess, _, err := s.build(req, false, c)
	return sess, err
}

// crew is a built party that can fight several battles. Its progression
// reports level-ups to whichever battle is running.
type crew struct {
	party *combat.Party
	prog  *character.Progression
	relay *relaySink
	home  map[string]combat.Vec2
}

func (s *Service) muster(r *character.Roster) (*crew, error) {
	relay := &relaySink{}
	prog := character.NewProgression(s.content.Ruleset, relay, s.logger)
	party, err := character.BuildParty(r, s.content.Ruleset, s.content.Abilities, s.content.Conditions, prog)
	if err != nil {
		return nil, fmt.Errorf("building party %q: %w", r.Name, err)
	}
	home := make(map[string]combat.Vec2)
	for _, m := range party.Members() {
		home[m.ID] = m.Position
	}
	return &crew{party: party, prog: prog, relay: relay, home: home}, nil
}

// rest revives the fallen and restores every member between battles.
func (c *crew) rest() {
	for _, m := range c.party.Members() {
		if m.IsDead() {
			m.Revive(1)
		}
		m.Position = c.home[m.ID]
	}
	c.party.RestAll()
}

// relaySink forwards to the current battle's sinks.
type relaySink struct {
	target combat.Sink
}

func (r *relaySink) Emit(e combat.Event) {
	if r.target != nil {
		r.target.Emit(e)
	}
}

func (s *Service) build(req Request, auto bool, c *crew) (*Session, *ai.Controller, error) {
	if len(req.Enemies) == 0 {
		return nil, nil, errors.New("battle: request has no enemies")
	}
	key := req.ReplayKey
	if key == "" {
		key = uuid.NewString()
	}
	roller := dice.NewLoggedRoller(dice.NewReplaySource(key), s.logger.Named("dice"))

	rec := NewRecorder()
	enemies, err := s.content.Enemies.SpawnGroup(req.Enemies, combat.Vec2{X: enemyLineX}, enemySpacing)
	if err != nil {
		return nil, nil, fmt.Errorf("spawning enemies: %w", err)
	}

	scripts := scripting.NewManager(roller, s.logger.Named("lua"))
	abort := func(err error) (*Session, *ai.Controller, error) {
		scripts.Close()
		removeEnemies(s.content.Enemies, enemies, s.logger)
		return nil, nil, err
	}
	if err := scripts.LoadGlobal(s.content.ScriptsDir, s.cfg.AI.ScriptInstructionLimit); err != nil {
		return abort(err)
	}

	sinks := combat.MultiSink{rec, combat.LogSink{Logger: s.logger}}
	if req.Sink != nil {
		sinks = append(sinks, req.Sink)
	}
	c.relay.target = sinks
	var prompter combat.Prompter = combat.AutoPrompter{}
	cp := NewChannelPrompter()
	if !auto {
		prompter = cp
	}
	b := combat.NewBattle(combat.BattleConfig{
		Engine: combat.EngineConfig{
			Roller:   roller,
			Logger:   s.logger,
			Sink:     sinks,
			Pacer:    PacerFor(s.cfg.Combat.PaceFactor),
			Prompter: prompter,
			Tuning:   TuningFrom(s.cfg.Combat),
		},
		SafetyBound: s.cfg.Combat.SafetyBound,
		MaxRounds:   s.cfg.Combat.MaxRounds,
		Awarder:     c.prog,
	}, c.party, enemies)
	logger := observability.ForBattle(s.logger, b.ID, key)

	Bridge(scripts, b)
	b.Engine().AddHook(NewScriptHook(scripts, scripting.GlobalScope, b, logger))

	ctrl, err := s.controller(b, roller, scripts, logger, c.prog)
	if err != nil {
		return abort(err)
	}
	b.SetController(ctrl)

	return &Session{
		battle:    b,
		prompter:  cp,
		recorder:  rec,
		scripts:   scripts,
		enemies:   s.content.Enemies,
		archive:   s.archive,
		replayKey: key,
		party:     req.Roster.Name,
		logger:    logger,
	}, ctrl, nil
}

func (s *Service) controller(b *combat.Battle, roller *dice.Roller, scripts *scripting.Manager, logger *zap.Logger, prog *character.Progression) (*ai.Controller, error) {
	reg := ai.NewRegistry(roller, scripts, scripting.GlobalScope, logger)
	profiles := s.content.Profiles
	if !hasDefault(profiles) {
		profiles = append([]*ai.Profile{DefaultProfileFrom(s.cfg.AI)}, profiles...)
	}
	for _, p := range profiles {
		if err := reg.Register(p); err != nil {
			return nil, err
		}
	}
	ctrl := ai.NewController(b, reg, ai.ControllerConfig{
		Pacer:            PacerFor(s.cfg.Combat.PaceFactor),
		MoveSpeed:        s.cfg.AI.MoveSpeed,
		ChaseMaxTime:     s.cfg.AI.ChaseMaxTime,
		ChaseMaxDistance: s.cfg.AI.ChaseMaxDistance,
		Logger:           logger.Named("ai"),
	})
	var errs []error
	for _, m := range b.Party().Members() {
		profile := ""
		if ch, ok := prog.Character(m.ID); ok {
			profile = ch.AIProfile
		}
		errs = append(errs, ctrl.Assign(m.ID, profile))
	}
	for _, e := range b.Enemies() {
		profile := ""
		if t, ok := s.content.Enemies.Template(e.Tag); ok {
			profile = t.AIProfile
		}
		errs = append(errs, ctrl.Assign(e.ID, profile))
	}
	return ctrl, errors.Join(errs...)
}

// hasDefault reports whether content supplies its own default profile.
func hasDefault(profiles []*ai.Profile) bool {
	for _, p := range profiles {
		if p.ID == ai.DefaultProfileID {
			return true
		}
	}
	return false
}

// removeEnemies returns spawned enemies to the pool, logging any the manager
// no longer holds.
func removeEnemies(m *npc.Manager, enemies []*combat.Combatant, logger *zap.Logger) {
	for _, e := range enemies {
		if err := m.Remove(e.ID); err != nil {
			logger.Debug("releasing enemy", zap.String("enemy", e.ID), zap.Error(err))
		}
	}
}
