// Package attack implements the per-weapon cooldown, ammo and reload state
// machine and the EntityAttack component that routes trigger conditions to
// it every tick.
package attack

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/warwolfworks/wolfcore/internal/core/entity"
	"github.com/warwolfworks/wolfcore/internal/core/stats"
)

// State is derived from the attack's counters; it is never stored.
type State uint8

const (
	StateReady State = iota
	StateOnCooldown
	StateReloading
	StateReloadPaused
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateOnCooldown:
		return "cooldown"
	case StateReloading:
		return "reloading"
	case StateReloadPaused:
		return "reload_paused"
	default:
		return "unknown"
	}
}

// Attack is one weapon's runtime state. Attacks built from a Definition are
// templates until Initiate binds them to an owner; the owner's stats then
// resolve damage, attack speed, magazine size and reload speed on every read.
//
// Attack speed is in rounds per minute, reload speed in time units per full
// reload.
type Attack struct {
	name             string
	damage           stats.Stat
	attackSpeed      stats.Stat
	magazine         stats.Stat
	reloadSpeed      stats.Stat
	ammoConsumption  int
	infiniteAmmo     bool
	defaultCondition Condition

	owner           *entity.Entity
	timeScale       float64
	currentMagazine int
	sinceAttack     float64
	reloading       bool
	paused          bool
	reloadProgress  float64

	onAttacked      []func(*Attack)
	onReloadStarted []func(*Attack)
	onReloaded      []func(*Attack)
}

type Option func(*Attack)

// WithAmmoConsumption sets the ammo spent per shot. Values below 1 disable
// ammo gating.
func WithAmmoConsumption(n int) Option { return func(a *Attack) { a.ammoConsumption = n } }

func WithInfiniteAmmo(v bool) Option { return func(a *Attack) { a.infiniteAmmo = v } }

func WithDefaultCondition(c Condition) Option { return func(a *Attack) { a.defaultCondition = c } }

func New(name string, damage, attackSpeed float64, magazineSize int, reloadSpeed float64, opts ...Option) *Attack {
	a := &Attack{
		name:            name,
		damage:          stats.New(stats.Damage, damage),
		attackSpeed:     stats.New(stats.AttackSpeed, attackSpeed),
		magazine:        stats.New(stats.Magazine, float64(magazineSize)),
		reloadSpeed:     stats.New(stats.ReloadSpeed, reloadSpeed),
		ammoConsumption: 1,
		timeScale:       1,
		sinceAttack:     math.Inf(1),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Clone copies the definition into a fresh, unbound attack. Listeners and
// runtime state are not copied.
func (a *Attack) Clone() *Attack {
	c := &Attack{
		name:            a.name,
		damage:          a.damage,
		attackSpeed:     a.attackSpeed,
		magazine:        a.magazine,
		reloadSpeed:     a.reloadSpeed,
		ammoConsumption: a.ammoConsumption,
		infiniteAmmo:    a.infiniteAmmo,
		timeScale:       1,
		sinceAttack:     math.Inf(1),
	}
	if a.defaultCondition != nil {
		c.defaultCondition = a.defaultCondition.Clone()
	}
	return c
}

// Initiate binds the attack to owner and fills the magazine. An attack can
// be bound once; later calls return ErrAlreadyInitiated and change nothing.
func (a *Attack) Initiate(owner *entity.Entity) error {
	if owner == nil {
		return ErrNilOwner
	}
	if a.owner != nil {
		return fmt.Errorf("%s bound to %s: %w", a.name, a.owner, ErrAlreadyInitiated)
	}
	a.owner = owner
	a.currentMagazine = a.MagazineSize()
	return nil
}

// Release unbinds the attack so it can be initiated again. Runtime state
// and listeners are dropped.
func (a *Attack) Release() {
	a.owner = nil
	a.timeScale = 1
	a.currentMagazine = 0
	a.sinceAttack = math.Inf(1)
	a.reloading = false
	a.paused = false
	a.reloadProgress = 0
	a.onAttacked, a.onReloadStarted, a.onReloaded = nil, nil, nil
}

func (a *Attack) Name() string                { return a.name }
func (a *Attack) Owner() *entity.Entity       { return a.owner }
func (a *Attack) IsInitiated() bool           { return a.owner != nil }
func (a *Attack) DefaultCondition() Condition { return a.defaultCondition }

func (a *Attack) BaseDamage() stats.Stat      { return a.damage }
func (a *Attack) BaseAttackSpeed() stats.Stat { return a.attackSpeed }
func (a *Attack) BaseMagazine() stats.Stat    { return a.magazine }
func (a *Attack) BaseReloadSpeed() stats.Stat { return a.reloadSpeed }

func (a *Attack) calc(s stats.Stat) float64 {
	if a.owner == nil {
		panic(fmt.Errorf("%s: read %s: %w", a.name, s.Type, ErrNotInitiated))
	}
	return a.owner.Stats().CalculatedValue(s)
}

func (a *Attack) Damage() float64      { return a.calc(a.damage) }
func (a *Attack) AttackSpeed() float64 { return a.calc(a.attackSpeed) }
func (a *Attack) ReloadSpeed() float64 { return a.calc(a.reloadSpeed) }

func (a *Attack) MagazineSize() int {
	n := int(math.Round(a.calc(a.magazine)))
	if n < 0 {
		return 0
	}
	return n
}

// Interval is the time between shots, 60 / attack speed.
func (a *Attack) Interval() float64 {
	speed := a.AttackSpeed()
	if speed <= 0 {
		return math.Inf(1)
	}
	return 60 / speed
}

func (a *Attack) CurrentMagazine() int { return a.currentMagazine }

func (a *Attack) SetCurrentMagazine(n int) {
	a.currentMagazine = max(0, min(n, a.MagazineSize()))
}

func (a *Attack) AmmoConsumption() int   { return a.ammoConsumption }
func (a *Attack) InfiniteAmmo() bool     { return a.infiniteAmmo }
func (a *Attack) SetInfiniteAmmo(v bool) { a.infiniteAmmo = v }

func (a *Attack) TimeScale() float64 { return a.timeScale }

// SetTimeScale scales the time fed to Advance. Zero freezes the attack and
// blocks Trigger.
func (a *Attack) SetTimeScale(s float64) { a.timeScale = max(0, s) }

func (a *Attack) IsReloading() bool        { return a.reloading }
func (a *Attack) IsReloadPaused() bool     { return a.reloading && a.paused }
func (a *Attack) ReloadProgress() float64  { return a.reloadProgress }
func (a *Attack) SinceLastAttack() float64 { return a.sinceAttack }

// timeEpsilon absorbs the rounding left by summing many small deltas, so
// ten steps of 0.1 count as one full time unit.
const timeEpsilon = 1e-9

func (a *Attack) IsOnCooldown() bool { return a.sinceAttack+timeEpsilon < a.Interval() }

func (a *Attack) usesAmmo() bool { return !a.infiniteAmmo && a.ammoConsumption >= 1 }

func (a *Attack) HasAmmo() bool { return !a.usesAmmo() || a.currentMagazine > 0 }

func (a *Attack) State() State {
	switch {
	case a.reloading && a.paused:
		return StateReloadPaused
	case a.reloading:
		return StateReloading
	case a.IsOnCooldown():
		return StateOnCooldown
	default:
		return StateReady
	}
}

// CanTrigger reports whether Trigger would succeed right now.
func (a *Attack) CanTrigger() bool {
	return !a.reloading && a.timeScale > 0 && !a.IsOnCooldown() && a.HasAmmo()
}

// Trigger fires if the attack is ready, has ammo, is not reloading and is
// not frozen. It returns false without side effects otherwise.
func (a *Attack) Trigger() bool {
	if !a.CanTrigger() {
		return false
	}
	a.fire(true)
	return true
}

// ForceTrigger fires regardless of cooldown, ammo, reload or time scale.
// The cooldown restarts from zero.
func (a *Attack) ForceTrigger(consumeAmmo bool) {
	a.fire(consumeAmmo)
}

func (a *Attack) fire(consumeAmmo bool) {
	a.sinceAttack = 0
	if consumeAmmo {
		a.consumeAmmo()
	}
	notify(a.onAttacked, a)
}

func (a *Attack) consumeAmmo() {
	if !a.usesAmmo() {
		return
	}
	a.currentMagazine -= a.ammoConsumption
	if a.currentMagazine <= 0 {
		a.currentMagazine = 0
		a.Reload(0)
	}
}

// Reload starts the reload timer at start (0..1). With infinite ammo the
// reload completes at once. At most one reload runs at a time: a call while
// reloading returns false and changes nothing.
func (a *Attack) Reload(start float64) bool {
	if a.infiniteAmmo {
		a.completeReload()
		return true
	}
	if a.reloading {
		return false
	}
	a.reloading = true
	a.paused = false
	a.reloadProgress = max(0, min(start, 1))
	notify(a.onReloadStarted, a)
	if a.reloadProgress >= 1 {
		a.completeReload()
	}
	return true
}

// InstantReload refills the magazine now, whatever the timer state.
func (a *Attack) InstantReload() {
	a.completeReload()
}

// CancelReload stops the timer, optionally zeroing its progress.
func (a *Attack) CancelReload(resetProgress bool) {
	if !a.reloading {
		return
	}
	a.reloading = false
	a.paused = false
	if resetProgress {
		a.reloadProgress = 0
	}
}

func (a *Attack) PauseReload() {
	if a.reloading {
		a.paused = true
	}
}

func (a *Attack) ResumeReload() {
	a.paused = false
}

// Advance moves the cooldown and reload timers forward by dt scaled by the
// time scale.
func (a *Attack) Advance(dt float64) {
	scaled := dt * a.timeScale
	if scaled <= 0 {
		return
	}
	a.sinceAttack += scaled

	if !a.reloading || a.paused {
		return
	}
	if speed := a.ReloadSpeed(); speed > 0 {
		a.reloadProgress += scaled / speed
	} else {
		a.reloadProgress = 1
	}
	if a.reloadProgress+timeEpsilon >= 1 {
		a.completeReload()
	}
}

func (a *Attack) completeReload() {
	a.currentMagazine = a.MagazineSize()
	a.reloadProgress = 0
	a.reloading = false
	a.paused = false
	notify(a.onReloaded, a)
}

func (a *Attack) OnAttacked(fn func(*Attack)) { a.onAttacked = appendListener(a.onAttacked, fn) }
func (a *Attack) OnReloadStarted(fn func(*Attack)) {
	a.onReloadStarted = appendListener(a.onReloadStarted, fn)
}
func (a *Attack) OnReloaded(fn func(*Attack)) { a.onReloaded = appendListener(a.onReloaded, fn) }

func appendListener(list []func(*Attack), fn func(*Attack)) []func(*Attack) {
	if fn == nil {
		return list
	}
	return append(list, fn)
}

func notify(list []func(*Attack), a *Attack) {
	for _, fn := range list {
		fn(a)
	}
}

type snapshot struct {
	Name           string  `json:"name"`
	State          string  `json:"state"`
	Magazine       int     `json:"magazine"`
	MagazineSize   int     `json:"magazine_size,omitempty"`
	ReloadProgress float64 `json:"reload_progress"`
	Damage         float64 `json:"damage,omitempty"`
}

func (a *Attack) MarshalJSON() ([]byte, error) {
	s := snapshot{
		Name:           a.name,
		Magazine:       a.currentMagazine,
		ReloadProgress: a.reloadProgress,
	}
	if a.owner != nil {
		s.State = a.State().String()
		s.MagazineSize = a.MagazineSize()
		s.Damage = a.Damage()
	}
	return json.Marshal(s)
}
