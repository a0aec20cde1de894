package attack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warwolfworks/wolfcore/internal/core/entity"
	"github.com/warwolfworks/wolfcore/internal/core/spatial"
)

type stubFinder struct {
	candidates []*entity.Entity
}

func (f stubFinder) ClosestMatching(pos spatial.Vec3, radius float64, filter func(*entity.Entity) bool) (*entity.Entity, bool) {
	for _, e := range f.candidates {
		if spatial.Distance(pos, e.Position()) <= radius && filter(e) {
			return e, true
		}
	}
	return nil, false
}

func TestParseCondition(t *testing.T) {
	finder := stubFinder{}
	tests := []struct {
		spec    string
		want    any
		wantErr error
	}{
		{"", nil, nil},
		{"always", Always{}, nil},
		{"NEVER", Never{}, nil},
		{"ready", Ready{}, nil},
		{"in_range:12.5", &TargetInRange{}, nil},
		{"limit:3:ready", &Limited{}, nil},
		{"limit:3", nil, ErrUnknownCondition},
		{"teleport", nil, ErrUnknownCondition},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseCondition(tt.spec, finder)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.IsType(t, tt.want, got)
		})
	}

	_, err := ParseCondition("in_range:far", finder)
	assert.Error(t, err)
}

func TestParseInRangeKinds(t *testing.T) {
	c, err := ParseCondition("in_range:4:enemy:boss", nil)
	require.NoError(t, err)
	r := c.(*TargetInRange)
	assert.Equal(t, 4.0, r.Radius)
	assert.Equal(t, []entity.Kind{entity.KindOf("enemy"), entity.KindOf("boss")}, r.Kinds)
}

func TestTargetInRangeSkipsOwnHierarchyAndKinds(t *testing.T) {
	owner := newOwner("tank")
	turret := entity.New(entity.WithName("turret"), entity.WithParent(owner))
	ally := entity.New(entity.WithName("ally"), entity.WithKind("friend"))
	enemy := entity.New(entity.WithName("enemy"), entity.WithKind("enemy"))
	enemy.SetPosition(spatial.V3(2, 0, 0))

	a := New("gun", 1, 60, 5, 1)
	require.NoError(t, a.Initiate(owner))

	c := &TargetInRange{
		Finder: stubFinder{candidates: []*entity.Entity{owner, turret, ally, enemy}},
		Radius: 3,
		Kinds:  []entity.Kind{entity.KindOf("enemy")},
	}
	ok, err := c.Met(a)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Same(t, enemy, c.Target())

	enemy.SetPosition(spatial.V3(10, 0, 0))
	ok, err = c.Met(a)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, c.Target())

	clone := c.Clone().(*TargetInRange)
	assert.Nil(t, clone.Target())
	assert.Equal(t, c.Radius, clone.Radius)
}

func TestTargetInRangeRequiresBoundAttack(t *testing.T) {
	c := &TargetInRange{Finder: stubFinder{}, Radius: 1}
	_, err := c.Met(New("gun", 1, 60, 5, 1))
	assert.ErrorIs(t, err, ErrNotInitiated)
}

func TestLimitedCountsOnlyFiredShots(t *testing.T) {
	a, _ := bound(t, New("gun", 1, 60, 5, 1))
	gate := true
	l := &Limited{Inner: Func(func(*Attack) (bool, error) { return gate, nil }), Max: 2}

	gate = false
	ok, _ := l.Met(a)
	assert.False(t, ok)
	assert.Zero(t, l.Used())

	gate = true
	for i := 0; i < 5; i++ {
		ok, _ = l.Met(a)
		assert.True(t, ok)
	}
	assert.Zero(t, l.Used(), "passing without firing is free")

	l.Fired(a)
	l.Fired(a)
	assert.Equal(t, 2, l.Used())
	ok, _ = l.Met(a)
	assert.False(t, ok)

	fresh := l.Clone().(*Limited)
	assert.Zero(t, fresh.Used())
}

func TestLimitedForwardsFiredToInner(t *testing.T) {
	a, _ := bound(t, New("gun", 1, 60, 5, 1))
	inner := &Limited{Inner: Always{}, Max: 5}
	outer := &Limited{Inner: inner, Max: 3}

	outer.Fired(a)
	assert.Equal(t, 1, outer.Used())
	assert.Equal(t, 1, inner.Used())
}

func TestReadyFollowsAttack(t *testing.T) {
	a, _ := bound(t, New("gun", 1, 60, 5, 1))
	ok, err := Ready{}.Met(a)
	require.NoError(t, err)
	assert.True(t, ok)

	a.Trigger()
	ok, _ = Ready{}.Met(a)
	assert.False(t, ok)
}
