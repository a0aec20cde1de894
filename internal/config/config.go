// Package config loads the simulation's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/warwolfworks/wolfcore/internal/core/attack"
	"github.com/warwolfworks/wolfcore/internal/core/observability/log"
	"github.com/warwolfworks/wolfcore/internal/core/scheduler"
	"github.com/warwolfworks/wolfcore/internal/core/spatial"
)

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Simulation scheduler.Config    `yaml:"simulation" json:"simulation"`
	Log        LogConfig           `yaml:"log" json:"log"`
	Feed       FeedConfig          `yaml:"feed" json:"feed"`
	Events     EventsConfig        `yaml:"events" json:"events"`
	Weapons    []attack.Definition `yaml:"weapons,omitempty" json:"weapons,omitempty"`
	Entities   []EntityConfig      `yaml:"entities,omitempty" json:"entities,omitempty"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

type FeedConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
	Path    string `yaml:"path" json:"path"`
}

// EventsConfig lists event types that are never published.
type EventsConfig struct {
	Mute []string `yaml:"mute,omitempty" json:"mute,omitempty"`
}

// EntityConfig describes one spawn entry.
type EntityConfig struct {
	Name     string        `yaml:"name" json:"name"`
	Kind     string        `yaml:"kind,omitempty" json:"kind,omitempty"`
	Count    int           `yaml:"count,omitempty" json:"count,omitempty"`
	Position spatial.Vec3  `yaml:"position" json:"position"`
	Euler    spatial.Vec3  `yaml:"euler" json:"euler"`
	Spacing  spatial.Vec3  `yaml:"spacing,omitempty" json:"spacing,omitempty"`
	Health   *HealthConfig `yaml:"health,omitempty" json:"health,omitempty"`
	Slots    []SlotConfig  `yaml:"slots,omitempty" json:"slots,omitempty"`
}

type HealthConfig struct {
	Max              float64 `yaml:"max" json:"max"`
	ImmunityOnHit    float64 `yaml:"immunity_on_hit,omitempty" json:"immunity_on_hit,omitempty"`
	RedirectToParent bool    `yaml:"redirect_to_parent,omitempty" json:"redirect_to_parent,omitempty"`
	DestroyOnDeath   bool    `yaml:"destroy_on_death,omitempty" json:"destroy_on_death,omitempty"`
}

// SlotConfig binds a weapon by name. The flags default to true.
type SlotConfig struct {
	Weapon         string `yaml:"weapon" json:"weapon"`
	Condition      string `yaml:"condition,omitempty" json:"condition,omitempty"`
	Enabled        *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	CloneAttack    *bool  `yaml:"clone_attack,omitempty" json:"clone_attack,omitempty"`
	CloneCondition *bool  `yaml:"clone_condition,omitempty" json:"clone_condition,omitempty"`
}

func Default() *Config {
	return &Config{
		Simulation: scheduler.DefaultConfig(),
		Log:        LogConfig{Level: "info"},
		Feed:       FeedConfig{Enabled: false, Addr: ":8080", Path: "/feed"},
	}
}

// Load decodes YAML from r over the defaults and validates the result.
// Unknown keys are rejected.
func Load(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func (c *Config) LogLevel() log.Level {
	return log.ParseLevel(strings.ToLower(c.Log.Level))
}

// Weapon looks a weapon definition up by name.
func (c *Config) Weapon(name string) (attack.Definition, bool) {
	for _, w := range c.Weapons {
		if w.Name == name {
			return w, true
		}
	}
	return attack.Definition{}, false
}

func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if err := c.Simulation.Validate(); err != nil {
		add("simulation: %v", err)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error", "silent", "off":
	default:
		add("log: unknown level %q", c.Log.Level)
	}
	if c.Feed.Enabled {
		if c.Feed.Addr == "" {
			add("feed: addr is required when enabled")
		}
		if !strings.HasPrefix(c.Feed.Path, "/") {
			add("feed: path must start with /")
		}
	}

	for i, typ := range c.Events.Mute {
		if strings.TrimSpace(typ) == "" {
			add("events.mute[%d]: empty event type", i)
		}
	}

	seen := make(map[string]bool, len(c.Weapons))
	for _, w := range c.Weapons {
		if err := w.Validate(); err != nil {
			add("weapons: %v", err)
		}
		if seen[w.Name] {
			add("weapons: duplicate name %q", w.Name)
		}
		seen[w.Name] = true
	}

	for i, e := range c.Entities {
		if e.Name == "" {
			add("entities[%d]: name is required", i)
		}
		if e.Count < 0 {
			add("entities[%d]: count must not be negative", i)
		}
		if e.Health != nil && e.Health.Max <= 0 {
			add("entities[%d]: health.max must be positive", i)
		}
		for j, s := range e.Slots {
			if !seen[s.Weapon] {
				add("entities[%d].slots[%d]: unknown weapon %q", i, j, s.Weapon)
			}
			if _, err := attack.ParseCondition(s.Condition, nil); err != nil {
				add("entities[%d].slots[%d]: %v", i, j, err)
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
