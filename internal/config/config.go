// Package config provides Viper-based configuration loading for the combat
// engine and its tools.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/hexcombat/internal/game/combat"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// DatabaseConfig holds PostgreSQL connection settings for the outcome log.
type DatabaseConfig struct {
	// Enabled turns outcome recording on. The other fields are only
	// validated when it is set.
	Enabled         bool          `mapstructure:"enabled"`
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

// CombatConfig holds the tunable combat rules.
type CombatConfig struct {
	// CombatDelay is the base pacing unit for animations and AI turns.
	CombatDelay           time.Duration `mapstructure:"combat_delay"`
	AIDelayFactor         int           `mapstructure:"ai_delay_factor"`
	ActivationDelayFactor int           `mapstructure:"activation_delay_factor"`
	BaseActionPoints      int           `mapstructure:"base_action_points"`
	AttackCost            int           `mapstructure:"attack_cost"`
	MovementCost          int           `mapstructure:"movement_cost"`
	CriticalHitsOnPlayers bool          `mapstructure:"critical_hits_on_players"`
	// VisibilityRadius applies to areas that do not set their own.
	VisibilityRadius int `mapstructure:"visibility_radius"`
	// MaxRounds bounds an autopiloted combat; it is exited once exceeded.
	MaxRounds int `mapstructure:"max_rounds"`
	// TickInterval is how often the visibility ticker checks activation.
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

// Rules converts the section to combat rules.
func (c CombatConfig) Rules() combat.Rules {
	return combat.Rules{
		CombatDelay:           c.CombatDelay,
		AIDelayFactor:         c.AIDelayFactor,
		ActivationDelayFactor: c.ActivationDelayFactor,
		BaseActionPoints:      c.BaseActionPoints,
		AttackCost:            c.AttackCost,
		MovementCost:          c.MovementCost,
		CriticalHitsOnPlayers: c.CriticalHitsOnPlayers,
	}
}

// ScriptingConfig holds Lua settings.
type ScriptingConfig struct {
	// ScriptDir holds the global scripts: HTN preconditions and shared helpers.
	ScriptDir string `mapstructure:"script_dir"`
	// InstructionLimit bounds each hook call; 0 selects the engine default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// ContentConfig names the content locations.
type ContentConfig struct {
	// AreasDir holds scenario files: an area and the creatures placed in it.
	AreasDir      string `mapstructure:"areas_dir"`
	WeaponsDir    string `mapstructure:"weapons_dir"`
	ConditionsDir string `mapstructure:"conditions_dir"`
	FactionsFile  string `mapstructure:"factions_file"`
	// AIDir holds HTN domain files. Empty disables planned behaviors.
	AIDir string `mapstructure:"ai_dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Combat    CombatConfig    `mapstructure:"combat"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Content   ContentConfig   `mapstructure:"content"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	for _, err := range []error{
		validateLogging(c.Logging),
		validateDatabase(c.Database),
		validateCombat(c.Combat),
		validateScripting(c.Scripting),
		validateContent(c.Content),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
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

func validateDatabase(d DatabaseConfig) error {
	if !d.Enabled {
		return nil
	}
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
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateCombat(c CombatConfig) error {
	var errs []string
	if c.CombatDelay < 0 {
		errs = append(errs, "combat.combat_delay must not be negative")
	}
	if c.AIDelayFactor < 0 {
		errs = append(errs, fmt.Sprintf("combat.ai_delay_factor must be >= 0, got %d", c.AIDelayFactor))
	}
	if c.ActivationDelayFactor < 0 {
		errs = append(errs, fmt.Sprintf("combat.activation_delay_factor must be >= 0, got %d", c.ActivationDelayFactor))
	}
	if c.BaseActionPoints < 1 {
		errs = append(errs, fmt.Sprintf("combat.base_action_points must be >= 1, got %d", c.BaseActionPoints))
	}
	if c.AttackCost < 1 {
		errs = append(errs, fmt.Sprintf("combat.attack_cost must be >= 1, got %d", c.AttackCost))
	}
	if c.MovementCost < 1 {
		errs = append(errs, fmt.Sprintf("combat.movement_cost must be >= 1, got %d", c.MovementCost))
	}
	if c.VisibilityRadius < 1 {
		errs = append(errs, fmt.Sprintf("combat.visibility_radius must be >= 1, got %d", c.VisibilityRadius))
	}
	if c.MaxRounds < 1 {
		errs = append(errs, fmt.Sprintf("combat.max_rounds must be >= 1, got %d", c.MaxRounds))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, "combat.tick_interval must be positive")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateScripting(s ScriptingConfig) error {
	if s.InstructionLimit < 0 {
		return fmt.Errorf("scripting.instruction_limit must be >= 0, got %d", s.InstructionLimit)
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.AreasDir == "" {
		errs = append(errs, "content.areas_dir must not be empty")
	}
	if c.WeaponsDir == "" {
		errs = append(errs, "content.weapons_dir must not be empty")
	}
	if c.FactionsFile == "" {
		errs = append(errs, "content.factions_file must not be empty")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with HEXCOMBAT_ prefix
	v.SetEnvPrefix("HEXCOMBAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
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

// Defaults returns a Viper instance holding only the default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "hexcombat")
	v.SetDefault("database.password", "hexcombat")
	v.SetDefault("database.name", "hexcombat")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	rules := combat.DefaultRules()
	v.SetDefault("combat.combat_delay", rules.CombatDelay.String())
	v.SetDefault("combat.ai_delay_factor", rules.AIDelayFactor)
	v.SetDefault("combat.activation_delay_factor", rules.ActivationDelayFactor)
	v.SetDefault("combat.base_action_points", rules.BaseActionPoints)
	v.SetDefault("combat.attack_cost", rules.AttackCost)
	v.SetDefault("combat.movement_cost", rules.MovementCost)
	v.SetDefault("combat.critical_hits_on_players", rules.CriticalHitsOnPlayers)
	v.SetDefault("combat.visibility_radius", 12)
	v.SetDefault("combat.max_rounds", 100)
	v.SetDefault("combat.tick_interval", "500ms")

	v.SetDefault("scripting.script_dir", "content/scripts/ai")
	v.SetDefault("scripting.instruction_limit", 0)

	v.SetDefault("content.areas_dir", "content/areas")
	v.SetDefault("content.weapons_dir", "content/weapons")
	v.SetDefault("content.conditions_dir", "content/conditions")
	v.SetDefault("content.factions_file", "content/factions.yaml")
	v.SetDefault("content.ai_dir", "content/ai")
}
