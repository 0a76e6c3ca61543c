package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishJSON(t *testing.T) {
	bus := NewBus(nil)

	var got []string
	bus.Subscribe(BookingCreated, func(e Event) error {
		var payload struct {
			ID string `json:"id"`
		}
		require.NoError(t, e.Decode(&payload))
		assert.False(t, e.CreatedAt.IsZero())
		got = append(got, payload.ID)
		return nil
	})
	bus.Subscribe(BookingStatusChanged, func(Event) error {
		t.Fatal("unexpected delivery")
		return nil
	})

	require.NoError(t, bus.PublishJSON(BookingCreated, map[string]string{"id": "b1"}))
	assert.Equal(t, []string{"b1"}, got)
}

func TestBus_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	bus := NewBus(nil)
	calls := 0
	bus.Subscribe(BookingCreated, func(Event) error {
		calls++
		return errors.New("boom")
	})
	bus.Subscribe(BookingCreated, func(Event) error {
		calls++
		return nil
	})

	bus.Publish(Event{Type: BookingCreated})
	assert.Equal(t, 2, calls)
}

func TestBus_PublishJSONMarshalError(t *testing.T) {
	bus := NewBus(nil)
	assert.Error(t, bus.PublishJSON(BookingCreated, make(chan int)))
}
