package signals_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/abortable-streams-go/abortable/signals"
)

func Test_Controller_Abort_InvokesEverySubscriberOnce(t *testing.T) {
	// setup
	controller := signals.NewController()
	var calls atomic.Int32

	// arrange
	controller.Subscribe(func() { calls.Add(1) })
	controller.Subscribe(func() { calls.Add(1) })

	// act
	controller.Abort()
	controller.Abort()

	// assert
	assert.True(t, controller.Aborted())
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 0, controller.Subscribers())
}

func Test_Controller_Unsubscribe_PreventsTheHandler(t *testing.T) {
	// setup
	controller := signals.NewController()
	called := false

	// arrange
	id := controller.Subscribe(func() { called = true })
	controller.Unsubscribe(id)
	controller.Unsubscribe(id)

	// act
	controller.Abort()

	// assert
	assert.False(t, called)
	assert.Equal(t, 0, controller.Subscribers())
}

func Test_Controller_SubscribeAfterAbort_NeverRuns(t *testing.T) {
	// setup
	controller := signals.NewController()
	controller.Abort()
	called := false

	// act
	id := controller.Subscribe(func() { called = true })

	// assert
	assert.NotEqual(t, [16]byte{}, [16]byte(id), "a subscription id is always handed out")
	assert.False(t, called)
	assert.Equal(t, 0, controller.Subscribers())
}

func Test_Controller_HandlerMayUnsubscribeDuringAbort(t *testing.T) {
	// setup
	controller := signals.NewController()
	var id [16]byte

	// arrange
	subscription := controller.Subscribe(func() {
		controller.Unsubscribe(id)
	})
	id = subscription

	// act + assert
	assert.NotPanics(t, controller.Abort)
}

func Test_Controller_ConcurrentAbort_IsSafe(t *testing.T) {
	// setup
	controller := signals.NewController()
	var calls atomic.Int32
	controller.Subscribe(func() { calls.Add(1) })

	// act
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			controller.Abort()
		}()
	}
	wg.Wait()

	// assert
	assert.Equal(t, int32(1), calls.Load())
}
