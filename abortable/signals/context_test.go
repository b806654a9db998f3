package signals_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/abortable-streams-go/abortable/signals"
)

func Test_ContextSignal_FiresOnCancel(t *testing.T) {
	// setup
	ctx, cancel := context.WithCancel(context.Background())
	signal := signals.FromContext(ctx)
	fired := make(chan struct{})

	// arrange
	signal.Subscribe(func() { close(fired) })
	assert.False(t, signal.Aborted())
	assert.Equal(t, 1, signal.Subscribers())

	// act
	cancel()

	// assert
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("handler did not run")
	}
	assert.True(t, signal.Aborted())
	assert.Eventually(t, func() bool { return signal.Subscribers() == 0 }, time.Second, time.Millisecond)
	assert.Same(t, ctx, signal.Context())
}

func Test_ContextSignal_UnsubscribeStopsTheHandler(t *testing.T) {
	// setup
	ctx, cancel := context.WithCancel(context.Background())
	signal := signals.FromContext(ctx)
	fired := make(chan struct{}, 1)

	// arrange
	id := signal.Subscribe(func() { fired <- struct{}{} })
	signal.Unsubscribe(id)

	// act
	cancel()

	// assert
	select {
	case <-fired:
		t.Fatal("unsubscribed handler ran")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Equal(t, 0, signal.Subscribers())
}

func Test_ContextSignal_AlreadyDoneContextFiresImmediately(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	signal := signals.FromContext(ctx)
	fired := make(chan struct{})

	// act
	signal.Subscribe(func() { close(fired) })

	// assert
	assert.True(t, signal.Aborted())
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("handler did not run")
	}
}
