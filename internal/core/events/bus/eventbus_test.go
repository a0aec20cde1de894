package bus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testObserver struct {
	publishCount   int
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnPublish(_ string, _ Event) {
	o.publishCount++
}

func (o *testObserver) OnDelivered(_ string, handlers int, err error, _ time.Duration) {
	o.deliveredCount += handlers
	o.lastErr = err
}

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	var got any
	_, err := b.Subscribe(EntityInstantiated, func(e Event) error {
		got = e.Data()
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, b.Publish(NewEvent(EntityInstantiated, "tester", 123)))
	assert.Equal(t, 123, got)
}

func TestDeliveryFollowsSubscriptionOrder(t *testing.T) {
	b := New()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		_, err := b.Subscribe("ev", func(Event) error { order = append(order, i); return nil })
		require.NoError(t, err)
	}
	require.NoError(t, b.Publish(NewEvent("ev", "src", nil)))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestWildcardReceivesEverything(t *testing.T) {
	b := New()
	var seen []string
	_, _ = b.Subscribe(Wildcard, func(e Event) error { seen = append(seen, e.Type()); return nil })
	_ = b.Publish(NewEvent(AttackTriggered, "a", nil))
	_ = b.Publish(NewEvent(HealthDied, "h", nil))
	assert.Equal(t, []string{AttackTriggered, HealthDied}, seen)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	count := 0
	sub, err := b.Subscribe("x", func(Event) error { count++; return nil })
	require.NoError(t, err)
	_ = b.Publish(NewEvent("x", "src", nil))
	require.NoError(t, b.Unsubscribe(sub))
	require.NoError(t, sub.Cancel())
	_ = b.Publish(NewEvent("x", "src", nil))
	assert.Equal(t, 1, count)
	assert.False(t, sub.IsActive())
	assert.NoError(t, b.Unsubscribe(nil))
}

func TestHandlerErrorsAreJoined(t *testing.T) {
	b := New()
	e1 := errors.New("first")
	e2 := errors.New("second")
	_, _ = b.Subscribe("x", func(Event) error { return e1 })
	_, _ = b.Subscribe("x", func(Event) error { return e2 })
	err := b.Publish(NewEvent("x", "src", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, e1)
	assert.ErrorIs(t, err, e2)
}

func TestHandlerMaySubscribeDuringDelivery(t *testing.T) {
	b := New()
	nested := 0
	_, _ = b.Subscribe("x", func(Event) error {
		_, err := b.Subscribe("y", func(Event) error { nested++; return nil })
		return err
	})
	require.NoError(t, b.Publish(NewEvent("x", "src", nil)))
	require.NoError(t, b.Publish(NewEvent("y", "src", nil)))
	assert.Equal(t, 1, nested)
}

func TestFiltersAndObserverMetrics(t *testing.T) {
	b := New()
	obs := &testObserver{}
	b.AddObserver(obs)
	_, _ = b.Subscribe("x", func(Event) error { return nil })

	_ = b.PublishWithFilters(NewEvent("x", "src", nil), func(Event) bool { return false })
	_ = b.PublishBatch(NewEvent("x", "src", nil), NewEvent("x", "src", nil))

	m := b.GetMetrics()
	assert.EqualValues(t, 1, m.DroppedByFilters)
	assert.EqualValues(t, 2, m.Published)
	assert.EqualValues(t, 2, m.DeliveredHandlers)
	assert.EqualValues(t, 1, m.SubscribersActive)
	assert.Equal(t, 2, obs.publishCount)
	assert.Equal(t, 2, obs.deliveredCount)

	b.RemoveObserver(obs)
	_ = b.Publish(NewEvent("x", "src", nil))
	assert.Equal(t, 2, obs.publishCount)
}
