// Package config provides Viper-based configuration loading for the tactics
// engine and its CLI.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings for the battle archive.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// CombatConfig holds ability resolution and scheduling knobs.
type CombatConfig struct {
	EnemyDamageMultiplier float64       `mapstructure:"enemy_damage_multiplier"`
	KnockbackDistance     float64       `mapstructure:"knockback_distance"`
	DashDistance          float64       `mapstructure:"dash_distance"`
	ShadowStepDistance    float64       `mapstructure:"shadow_step_distance"`
	LifeDrainRatio        float64       `mapstructure:"life_drain_ratio"`
	BarrierRounds         int           `mapstructure:"barrier_rounds"`
	BarrierReduction      float64       `mapstructure:"barrier_reduction"`
	SneakRounds           int           `mapstructure:"sneak_rounds"`
	BlessRounds           int           `mapstructure:"bless_rounds"`
	WideSlashArc          float64       `mapstructure:"wide_slash_arc"`
	CastDelay             time.Duration `mapstructure:"cast_delay"`
	TravelDelay           time.Duration `mapstructure:"travel_delay"`
	HitPause              time.Duration `mapstructure:"hit_pause"`
	// SafetyBound caps skipped turns per advance before the scheduler stalls.
	SafetyBound int `mapstructure:"safety_bound"`
	// MaxRounds ends a battle as a stall once exceeded; 0 disables the cap.
	MaxRounds int `mapstructure:"max_rounds"`
	// PaceFactor scales every suspension; 0 runs without delay.
	PaceFactor float64 `mapstructure:"pace_factor"`
}

// WeightsConfig holds the default AI category weights.
type WeightsConfig struct {
	Melee   int `mapstructure:"melee"`
	Ranged  int `mapstructure:"ranged"`
	Magic   int `mapstructure:"magic"`
	Utility int `mapstructure:"utility"`
	Default int `mapstructure:"default"`
}

// AIConfig holds enemy controller settings.
type AIConfig struct {
	ChaseMaxDistance float64       `mapstructure:"chase_max_distance"`
	ChaseMaxTime     time.Duration `mapstructure:"chase_max_time"`
	MoveSpeed        float64       `mapstructure:"move_speed"`
	// ScriptInstructionLimit bounds each Lua hook call; 0 selects the default.
	ScriptInstructionLimit int           `mapstructure:"script_instruction_limit"`
	Weights                WeightsConfig `mapstructure:"weights"`
}

// ContentConfig locates the YAML and Lua content tree.
type ContentConfig struct {
	Dir string `mapstructure:"dir"`
}

// AbilitiesDir returns the ability definitions directory.
func (c ContentConfig) AbilitiesDir() string { return c.Dir + "/abilities" }

// EnemiesDir returns the enemy template directory.
func (c ContentConfig) EnemiesDir() string { return c.Dir + "/enemies" }

// RulesetDir returns the root of the race, class and background tables.
func (c ContentConfig) RulesetDir() string { return c.Dir + "/ruleset" }

// ProfilesDir returns the AI profile directory.
func (c ContentConfig) ProfilesDir() string { return c.Dir + "/ai" }

// ConditionsDir returns the condition definition directory.
func (c ContentConfig) ConditionsDir() string { return c.Dir + "/conditions" }

// ScriptsDir returns the Lua hook directory.
func (c ContentConfig) ScriptsDir() string { return c.Dir + "/scripts" }

// ArchiveConfig toggles persistence of finished battles.
type ArchiveConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Config is the top-level application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Combat   CombatConfig   `mapstructure:"combat"`
	AI       AIConfig       `mapstructure:"ai"`
	Content  ContentConfig  `mapstructure:"content"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
}

// Validate checks all configuration invariants. The database section is only
// checked when the archive is enabled.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if c.Archive.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateCombat(c.Combat); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateAI(c.AI); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Content.Dir == "" {
		errs = append(errs, "content.dir must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCombat(c CombatConfig) error {
	var errs []string
	if c.EnemyDamageMultiplier <= 0 {
		errs = append(errs, fmt.Sprintf("combat.enemy_damage_multiplier must be > 0, got %v", c.EnemyDamageMultiplier))
	}
	for name, v := range map[string]float64{
		"knockback_distance":   c.KnockbackDistance,
		"dash_distance":        c.DashDistance,
		"shadow_step_distance": c.ShadowStepDistance,
		"wide_slash_arc":       c.WideSlashArc,
		"pace_factor":          c.PaceFactor,
	} {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("combat.%s must be >= 0, got %v", name, v))
		}
	}
	if c.LifeDrainRatio < 0 || c.LifeDrainRatio > 1 {
		errs = append(errs, fmt.Sprintf("combat.life_drain_ratio must be within [0,1], got %v", c.LifeDrainRatio))
	}
	if c.BarrierReduction < 0 || c.BarrierReduction > 1 {
		errs = append(errs, fmt.Sprintf("combat.barrier_reduction must be within [0,1], got %v", c.BarrierReduction))
	}
	if c.BarrierRounds < 1 || c.SneakRounds < 1 || c.BlessRounds < 1 {
		errs = append(errs, "combat status durations must be >= 1")
	}
	if c.CastDelay < 0 || c.TravelDelay < 0 || c.HitPause < 0 {
		errs = append(errs, "combat delays must not be negative")
	}
	if c.SafetyBound < 1 {
		errs = append(errs, fmt.Sprintf("combat.safety_bound must be >= 1, got %d", c.SafetyBound))
	}
	if c.MaxRounds < 0 {
		errs = append(errs, fmt.Sprintf("combat.max_rounds must be >= 0, got %d", c.MaxRounds))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateAI(a AIConfig) error {
	var errs []string
	if a.ChaseMaxDistance <= 0 {
		errs = append(errs, fmt.Sprintf("ai.chase_max_distance must be > 0, got %v", a.ChaseMaxDistance))
	}
	if a.ChaseMaxTime < 0 {
		errs = append(errs, "ai.chase_max_time must not be negative")
	}
	if a.MoveSpeed <= 0 {
		errs = append(errs, fmt.Sprintf("ai.move_speed must be > 0, got %v", a.MoveSpeed))
	}
	if a.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("ai.script_instruction_limit must be >= 0, got %d", a.ScriptInstructionLimit))
	}
	w := a.Weights
	if w.Melee < 0 || w.Ranged < 0 || w.Magic < 0 || w.Utility < 0 || w.Default < 0 {
		errs = append(errs, "ai.weights must not be negative")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path loads defaults only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with TACTICS_ prefix
	v.SetEnvPrefix("TACTICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetDefaults installs the stock values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "tactics")
	v.SetDefault("database.password", "tactics")
	v.SetDefault("database.name", "tactics")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("combat.enemy_damage_multiplier", 0.5)
	v.SetDefault("combat.knockback_distance", 3.5)
	v.SetDefault("combat.dash_distance", 10.0)
	v.SetDefault("combat.shadow_step_distance", 1.5)
	v.SetDefault("combat.life_drain_ratio", 0.4)
	v.SetDefault("combat.barrier_rounds", 3)
	v.SetDefault("combat.barrier_reduction", 0.5)
	v.SetDefault("combat.sneak_rounds", 2)
	v.SetDefault("combat.bless_rounds", 3)
	v.SetDefault("combat.wide_slash_arc", 120.0)
	v.SetDefault("combat.cast_delay", "300ms")
	v.SetDefault("combat.travel_delay", "400ms")
	v.SetDefault("combat.hit_pause", "250ms")
	v.SetDefault("combat.safety_bound", 64)
	v.SetDefault("combat.max_rounds", 100)
	v.SetDefault("combat.pace_factor", 0.0)

	v.SetDefault("ai.chase_max_distance", 8.0)
	v.SetDefault("ai.chase_max_time", "2s")
	v.SetDefault("ai.move_speed", 4.0)
	v.SetDefault("ai.script_instruction_limit", 100000)
	v.SetDefault("ai.weights.melee", 2)
	v.SetDefault("ai.weights.ranged", 2)
	v.SetDefault("ai.weights.magic", 3)
	v.SetDefault("ai.weights.utility", 1)
	v.SetDefault("ai.weights.default", 1)

	v.SetDefault("content.dir", "content")
	v.SetDefault("archive.enabled", false)
}
