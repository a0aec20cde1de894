package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryConsistencyAcrossAddRemove(t *testing.T) {
	e := New(WithName("host"))
	var attached []*recorder

	ops := []struct {
		add    bool
		target int
	}{
		{add: true}, {add: true}, {add: true},
		{add: false, target: 1},
		{add: true},
		{add: false, target: 0},
		{add: true},
		{add: false, target: 2},
	}

	for _, op := range ops {
		if op.add {
			r := &recorder{}
			require.NoError(t, e.Components().Add(r))
			attached = append(attached, r)
			continue
		}
		victim := attached[op.target]
		require.True(t, e.RemoveComponentInstance(victim))
		attached = append(attached[:op.target], attached[op.target+1:]...)

		assert.ElementsMatch(t, attached, GetComponents[*recorder](e))
	}

	assert.Equal(t, attached, FindAll[*recorder](e.Components()))
	assert.Equal(t, len(attached), e.Components().Len())
}

func TestRemoveRunsDestroyHookFirst(t *testing.T) {
	var log []string
	e := New()
	r := &recorder{label: "r", log: &log}
	require.NoError(t, e.Components().Add(r))

	require.True(t, e.Components().Remove(r))
	assert.Equal(t, []string{"r:destroy"}, log)
	assert.Nil(t, r.Entity())
	assert.False(t, e.Components().Remove(r))
}

func TestFindByInterfaceAndAbsent(t *testing.T) {
	e := New()
	_, ok := Find[*other](e.Components())
	assert.False(t, ok)
	assert.Empty(t, FindAll[tagger](e.Components()))

	o := &other{}
	require.NoError(t, e.Components().Add(&recorder{}))
	require.NoError(t, e.Components().Add(o))

	tg, ok := Find[tagger](e.Components())
	require.True(t, ok)
	assert.Equal(t, "other", tg.Tag())

	all := FindAll[Component](e.Components())
	assert.Len(t, all, 2)
}

func TestRegistryRejectsDuplicatesAndForeignComponents(t *testing.T) {
	a, b := New(), New()
	r := &recorder{}
	require.NoError(t, a.Components().Add(r))
	assert.ErrorIs(t, a.Components().Add(r), ErrDuplicateComponent)
	assert.ErrorIs(t, b.Components().Add(r), ErrComponentBound)
	assert.Equal(t, 0, b.Components().Len())
}

func TestRemoveByIDAndIndexRefresh(t *testing.T) {
	e := New()
	r1, r2 := &recorder{}, &recorder{}
	require.NoError(t, e.Components().Add(r1))
	require.NoError(t, e.Components().Add(r2))
	e.Components().Refresh()

	got, ok := e.Components().RemoveByID(ComponentIDOf[*recorder]())
	require.True(t, ok)
	assert.Same(t, r1, got)

	e.Components().Invalidate()
	first, ok := Find[*recorder](e.Components())
	require.True(t, ok)
	assert.Same(t, r2, first)

	_, ok = e.Components().RemoveByID(ComponentIDOf[*other]())
	assert.False(t, ok)
}

func TestComponentIDsAreStable(t *testing.T) {
	assert.Equal(t, ComponentIDOf[*recorder](), ComponentIDOf[*recorder]())
	assert.NotEqual(t, ComponentIDOf[*recorder](), ComponentIDOf[*other]())
	assert.Equal(t, KindOf("turret"), KindOf("turret"))
	assert.Equal(t, NoKind, KindOf(""))
}
