package attack

import (
	"fmt"
	"strings"
)

// Definition is the config form of an attack template.
type Definition struct {
	Name        string  `yaml:"name" json:"name"`
	Damage      float64 `yaml:"damage" json:"damage"`
	AttackSpeed float64 `yaml:"attack_speed" json:"attack_speed"`
	Magazine    int     `yaml:"magazine" json:"magazine"`
	ReloadSpeed float64 `yaml:"reload_speed" json:"reload_speed"`
	// AmmoConsumption defaults to 1 when omitted.
	AmmoConsumption *int   `yaml:"ammo_consumption,omitempty" json:"ammo_consumption,omitempty"`
	InfiniteAmmo    bool   `yaml:"infinite_ammo" json:"infinite_ammo"`
	Condition       string `yaml:"condition,omitempty" json:"condition,omitempty"`
}

func (d Definition) Validate() error {
	var problems []string
	if strings.TrimSpace(d.Name) == "" {
		problems = append(problems, "name is required")
	}
	if d.AttackSpeed <= 0 {
		problems = append(problems, "attack_speed must be positive")
	}
	if d.Magazine < 0 {
		problems = append(problems, "magazine must not be negative")
	}
	if d.ReloadSpeed < 0 {
		problems = append(problems, "reload_speed must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w %q: %s", ErrInvalidDefinition, d.Name, strings.Join(problems, "; "))
	}
	return nil
}

// Build validates d and returns an unbound template. finder is used by
// range-based default conditions and may be nil otherwise.
func (d Definition) Build(finder TargetFinder) (*Attack, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	cond, err := ParseCondition(d.Condition, finder)
	if err != nil {
		return nil, fmt.Errorf("attack %q: %w", d.Name, err)
	}
	opts := []Option{WithInfiniteAmmo(d.InfiniteAmmo), WithDefaultCondition(cond)}
	if d.AmmoConsumption != nil {
		opts = append(opts, WithAmmoConsumption(*d.AmmoConsumption))
	}
	return New(d.Name, d.Damage, d.AttackSpeed, d.Magazine, d.ReloadSpeed, opts...), nil
}
