package injector

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warwolfworks/wolfcore/internal/config"
	"github.com/warwolfworks/wolfcore/internal/core/entity"
	"github.com/warwolfworks/wolfcore/internal/core/events/bus"
	"github.com/warwolfworks/wolfcore/internal/core/health"
)

const skirmish = `
log:
  level: silent
weapons:
  - name: rifle
    damage: 12
    attack_speed: 120
    magazine: 8
    reload_speed: 1
entities:
  - name: turret
    kind: defender
    slots:
      - weapon: rifle
        condition: "in_range:10:raider"
  - name: raider
    kind: raider
    position: {x: 0, y: 0, z: 8}
    health:
      max: 20
      destroy_on_death: true
`

func newSimulation(t *testing.T, yaml string) *Simulation {
	t.Helper()
	cfg, err := config.Load(strings.NewReader(yaml))
	require.NoError(t, err)
	sim, err := InitializeSimulation(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sim.Close() })
	return sim
}

func TestInitializeSimulation(t *testing.T) {
	sim := newSimulation(t, skirmish)
	assert.NotNil(t, sim.Logger)
	assert.NotNil(t, sim.Manager)
	assert.NotNil(t, sim.Loop)
	assert.Nil(t, sim.Feed, "feed is disabled by default")
	assert.Same(t, sim.Events, sim.Manager.Events())
}

func TestSkirmishResolvesHits(t *testing.T) {
	sim := newSimulation(t, skirmish)
	var died int
	_, err := sim.Events.Subscribe(bus.HealthDied, func(bus.Event) error {
		died++
		return nil
	})
	require.NoError(t, err)

	spawned, err := sim.Spawn()
	require.NoError(t, err)
	require.Len(t, spawned, 2)

	raider, ok := sim.Manager.FindByName("raider")
	require.True(t, ok)
	hp := entity.GetComponent[*health.Health](raider)

	sim.Loop.Step(0.5)
	assert.Equal(t, 8.0, hp.Current())

	sim.Loop.Step(0.5)
	assert.Equal(t, 1, died)
	assert.False(t, sim.Manager.Contains(raider))
	assert.Equal(t, 1, sim.Manager.Len())

	sim.Loop.Step(0.5)
	assert.Equal(t, 1, died, "nothing left in range")
}

func TestMutedEventsAreNotPublished(t *testing.T) {
	sim := newSimulation(t, skirmish+`
events:
  mute: [attack.before, entity.instantiated]
`)
	seen := map[string]int{}
	_, err := sim.Events.Subscribe(bus.Wildcard, func(ev bus.Event) error {
		seen[ev.Type()]++
		return nil
	})
	require.NoError(t, err)

	_, err = sim.Spawn()
	require.NoError(t, err)
	sim.Loop.Step(0.5)

	assert.Zero(t, seen[bus.EntityInstantiated])
	assert.Zero(t, seen[bus.AttackBefore])
	assert.Equal(t, 1, seen[bus.AttackTriggered])
	assert.Equal(t, 1, seen[bus.HealthDamaged])
}

func TestRunStopsWithContext(t *testing.T) {
	sim := newSimulation(t, skirmish+`
feed:
  enabled: true
  addr: "127.0.0.1:0"
  path: /feed
`)
	require.NotNil(t, sim.Feed)
	_, err := sim.Spawn()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, sim.Run(ctx))

	frames := sim.Loop.Metrics().Frames
	assert.Positive(t, frames)
}
