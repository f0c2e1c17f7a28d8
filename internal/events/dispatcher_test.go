package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())

	var received []Event
	d.Subscribe(EventBugCreated, func(_ context.Context, event Event) error {
		received = append(received, event)
		return nil
	})

	err := d.Publish(context.Background(), Event{ID: "e1", Type: EventBugCreated})
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "e1", received[0].ID)

	// Unrelated event types are not delivered.
	err = d.Publish(context.Background(), Event{ID: "e2", Type: EventBugDeleted})
	require.NoError(t, err)
	assert.Len(t, received, 1)
}

func TestDispatcherSwallowsAndLogsHandlerErrors(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := NewInMemoryDispatcher(zap.New(core))

	var laterRan bool
	d.Subscribe(EventBugAssigned, func(context.Context, Event) error {
		return errors.New("smtp down")
	})
	d.Subscribe(EventBugAssigned, func(context.Context, Event) error {
		laterRan = true
		return nil
	})

	err := d.Publish(context.Background(), Event{ID: "e3", Type: EventBugAssigned})
	require.NoError(t, err)
	assert.True(t, laterRan)

	entries := logs.FilterMessage("event handler failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, string(EventBugAssigned), entries[0].ContextMap()["event_type"])
}
