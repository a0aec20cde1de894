// Package scheduler turns wall-clock time into frame and fixed-step sweeps.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/warwolfworks/wolfcore/internal/core/observability/log"
)

var (
	ErrAlreadyRunning = errors.New("scheduler: loop already running")
	ErrInvalidConfig  = errors.New("scheduler: invalid config")
)

// Sweeper is driven by the loop. *manager.Manager implements it.
type Sweeper interface {
	Tick(dt float64)
	FixedTick(dt float64)
}

// Clock abstracts time.Now for tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type Config struct {
	// FrameRate is the number of frame ticks per second Run aims for.
	FrameRate int `yaml:"frame_rate"`
	// FixedStep is the fixed-update interval in seconds.
	FixedStep float64 `yaml:"fixed_step"`
	// MaxFixedSteps caps the fixed steps run per frame. Time beyond the cap
	// is dropped.
	MaxFixedSteps int `yaml:"max_fixed_steps"`
}

func DefaultConfig() Config {
	return Config{FrameRate: 60, FixedStep: 0.02, MaxFixedSteps: 5}
}

func (c Config) Validate() error {
	switch {
	case c.FrameRate <= 0:
		return fmt.Errorf("%w: frame_rate must be positive, got %d", ErrInvalidConfig, c.FrameRate)
	case c.FixedStep <= 0:
		return fmt.Errorf("%w: fixed_step must be positive, got %v", ErrInvalidConfig, c.FixedStep)
	case c.MaxFixedSteps <= 0:
		return fmt.Errorf("%w: max_fixed_steps must be positive, got %d", ErrInvalidConfig, c.MaxFixedSteps)
	}
	return nil
}

// FrameInterval is the wall time between frames.
func (c Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FrameRate)
}

// Metrics counts what the loop has done so far.
type Metrics struct {
	Frames      uint64
	FixedSteps  uint64
	DroppedTime float64
}

type Loop struct {
	target Sweeper
	logger log.Log
	config Config
	clock  Clock

	mu          sync.Mutex
	accumulator float64
	metrics     Metrics
	running     atomic.Bool
}

type Option func(*Loop)

func WithClock(c Clock) Option { return func(l *Loop) { l.clock = c } }

func New(target Sweeper, logger log.Log, config Config, opts ...Option) (*Loop, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: nil target", ErrInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNop()
	}
	l := &Loop{
		target: target,
		logger: logger.Named("scheduler"),
		config: config,
		clock:  systemClock{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *Loop) Config() Config { return l.config }

func (l *Loop) Metrics() Metrics {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.metrics
}

func (l *Loop) IsRunning() bool { return l.running.Load() }

// Step advances the simulation by frameDelta seconds: as many fixed steps
// as the accumulated time allows (up to MaxFixedSteps), then one frame
// tick. It returns the number of fixed steps run.
func (l *Loop) Step(frameDelta float64) int {
	if frameDelta < 0 || math.IsNaN(frameDelta) {
		frameDelta = 0
	}

	l.mu.Lock()
	l.accumulator += frameDelta
	steps := 0
	for l.accumulator >= l.config.FixedStep && steps < l.config.MaxFixedSteps {
		l.accumulator -= l.config.FixedStep
		steps++
	}
	var dropped float64
	if l.accumulator >= l.config.FixedStep {
		kept := math.Mod(l.accumulator, l.config.FixedStep)
		dropped = l.accumulator - kept
		l.accumulator = kept
	}
	l.metrics.Frames++
	l.metrics.FixedSteps += uint64(steps)
	l.metrics.DroppedTime += dropped
	l.mu.Unlock()

	if dropped > 0 {
		l.logger.Warn("Fixed step budget exceeded",
			log.Int("steps", steps),
			log.Float64("dropped_seconds", dropped))
	}

	for i := 0; i < steps; i++ {
		l.target.FixedTick(l.config.FixedStep)
	}
	l.target.Tick(frameDelta)
	return steps
}

// Run steps the loop at FrameRate until ctx is done. Each frame's delta is
// the clock time elapsed since the previous frame.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	ticker := time.NewTicker(l.config.FrameInterval())
	defer ticker.Stop()

	l.logger.Info("Loop started",
		log.Int("frame_rate", l.config.FrameRate),
		log.Float64("fixed_step", l.config.FixedStep))

	last := l.clock.Now()
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Loop stopped", log.Uint64("frames", l.Metrics().Frames))
			return nil
		case <-ticker.C:
			now := l.clock.Now()
			l.Step(now.Sub(last).Seconds())
			last = now
		}
	}
}
