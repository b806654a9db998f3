package rowsource_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/abortable-streams-go/abortable"
	"github.com/AntonStoeckl/abortable-streams-go/abortable/rowsource"
	"github.com/AntonStoeckl/abortable-streams-go/abortable/signals"
	"github.com/AntonStoeckl/abortable-streams-go/testutil/helper/postgreswrapper"
)

const (
	queryFiveNumbers = "SELECT n FROM generate_series(1, 5) AS n ORDER BY n"
	queryManyNumbers = "SELECT n FROM generate_series(1, 10000000) AS n"
)

func Test_Integration_Stream_AllRows(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// setup
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(ctx, t)
	defer wrapper.Close()

	// act
	source, err := rowsource.Stream(ctx, wrapper.GetStreamer(), queryFiveNumbers, rowsource.ScanInto[int]())
	require.NoError(t, err)

	values, err := abortable.Collect[int](ctx, source)

	// assert
	assert.NoError(t, err, wrapper.EngineType())
	assert.Equal(t, []int{1, 2, 3, 4, 5}, values)
}

func Test_Integration_Stream_AbortedMidway(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// setup
	wrapper := postgreswrapper.CreateWrapperWithTestConfig(ctx, t)
	defer wrapper.Close()

	// arrange
	source, err := rowsource.Stream(ctx, wrapper.GetStreamer(), queryManyNumbers, rowsource.ScanInto[int]())
	require.NoError(t, err)

	controller := signals.NewController()
	it, err := abortable.WrapSource[int](source, controller, abortable.Options[int]{})
	require.NoError(t, err)

	for range 3 {
		_, err = it.Next(ctx)
		require.NoError(t, err)
	}

	// act
	controller.Abort()
	_, err = it.Next(ctx)

	// assert
	assert.ErrorIs(t, err, abortable.ErrAborted, wrapper.EngineType())
	assert.Equal(t, 3, source.RowCount())
}

func Test_NewStreamer_NilConnections(t *testing.T) {
	_, err := rowsource.NewStreamerFromPGXPool(nil)
	assert.ErrorIs(t, err, rowsource.ErrNilDatabaseConnection)

	_, err = rowsource.NewStreamerFromSQLDB(nil)
	assert.ErrorIs(t, err, rowsource.ErrNilDatabaseConnection)

	_, err = rowsource.NewStreamerFromSQLX(nil)
	assert.ErrorIs(t, err, rowsource.ErrNilDatabaseConnection)
}
