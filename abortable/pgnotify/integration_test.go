package pgnotify_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/abortable-streams-go/abortable"
	"github.com/AntonStoeckl/abortable-streams-go/abortable/pgnotify"
	"github.com/AntonStoeckl/abortable-streams-go/abortable/signals"
	"github.com/AntonStoeckl/abortable-streams-go/testutil/config"
)

func Test_Integration_ListenUntilAborted(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	listenConn, err := config.PostgresConn(ctx)
	if err != nil {
		t.Skipf("postgres not reachable: %v", err)
	}
	defer func() { _ = listenConn.Close(context.Background()) }()

	notifyConn, err := config.PostgresConn(ctx)
	require.NoError(t, err)
	defer func() { _ = notifyConn.Close(context.Background()) }()

	source, err := pgnotify.Listen(ctx, listenConn, "abortable_test")
	require.NoError(t, err)

	controller := signals.NewController()
	it, err := abortable.WrapSource[pgnotify.Notification](source, controller, abortable.Options[pgnotify.Notification]{})
	require.NoError(t, err)

	// arrange
	_, err = notifyConn.Exec(ctx, "SELECT pg_notify('abortable_test', 'hello')")
	require.NoError(t, err)

	// act
	notification, err := it.Next(ctx)
	require.NoError(t, err)

	time.AfterFunc(20*time.Millisecond, controller.Abort)
	_, err = it.Next(ctx)

	// assert
	assert.Equal(t, "abortable_test", notification.Channel)
	assert.Equal(t, "hello", notification.Payload)
	assert.ErrorIs(t, err, abortable.ErrAborted)
}
