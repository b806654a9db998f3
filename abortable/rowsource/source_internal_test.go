package rowsource

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/abortable-streams-go/abortable"
	"github.com/AntonStoeckl/abortable-streams-go/abortable/rowsource/internal/adapters"
	"github.com/AntonStoeckl/abortable-streams-go/abortable/signals"
	"github.com/AntonStoeckl/abortable-streams-go/testutil/helper"
)

// fakeDB serves fixed rows; with block set it waits for more rows until the query context is done.
type fakeDB struct {
	values   []any
	block    bool
	queryErr error
	rowsErr  error
	closeErr error
	rows     *fakeRows
}

func (f *fakeDB) Query(ctx context.Context, _ string) (adapters.DBRows, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	f.rows = &fakeRows{ctx: ctx, values: f.values, block: f.block, rowsErr: f.rowsErr, closeErr: f.closeErr}

	return f.rows, nil
}

type fakeRows struct {
	ctx      context.Context
	values   []any
	pos      int
	block    bool
	rowsErr  error
	closeErr error
	err      error
	mu       sync.Mutex
	closes   int
}

func (r *fakeRows) Next() bool {
	if r.pos < len(r.values) {
		r.pos++
		return true
	}

	if r.block {
		<-r.ctx.Done()
		r.err = r.ctx.Err()
		return false
	}

	r.err = r.rowsErr

	return false
}

func (r *fakeRows) Scan(dest ...any) error {
	value := r.values[r.pos-1]

	switch d := dest[0].(type) {
	case *int:
		v, ok := value.(int)
		if !ok {
			return errors.New("cannot scan into int")
		}
		*d = v
	case *[]byte:
		v, ok := value.(string)
		if !ok {
			return errors.New("cannot scan into []byte")
		}
		*d = []byte(v)
	default:
		return errors.New("unsupported destination")
	}

	return nil
}

func (r *fakeRows) Err() error {
	return r.err
}

func (r *fakeRows) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closes++

	return r.closeErr
}

func (r *fakeRows) closeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.closes
}

func Test_Stream_DrainsAllRows(t *testing.T) {
	// setup
	ctx := context.Background()
	db := &fakeDB{values: []any{1, 2, 3}}
	logHandler := helper.NewLogHandlerSpy(false)
	streamer, err := newStreamer(db, []Option{WithLogger(slog.New(logHandler))})
	require.NoError(t, err)

	// act
	source, err := Stream(ctx, streamer, "SELECT n FROM numbers", ScanInto[int]())
	require.NoError(t, err)
	values, err := abortable.Collect[int](ctx, source)

	// assert
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, values)
	assert.Equal(t, 3, source.RowCount())
	assert.Equal(t, 1, db.rows.closeCount())
	assert.True(t, logHandler.HasDebugLogWithMessage("executed sql for: stream").WithDurationMS().Assert())
	assert.True(t, logHandler.HasInfoLogWithMessage("rowsource operation: stream closed").Assert())
}

func Test_Stream_QueryFailure(t *testing.T) {
	queryErr := errors.New("relation does not exist")
	streamer, err := newStreamer(&fakeDB{queryErr: queryErr}, nil)
	require.NoError(t, err)

	_, err = Stream(context.Background(), streamer, "SELECT 1", ScanInto[int]())

	assert.ErrorIs(t, err, ErrQueryingRowsFailed)
	assert.ErrorIs(t, err, queryErr)
}

func Test_Stream_InvalidArguments(t *testing.T) {
	streamer, err := newStreamer(&fakeDB{}, nil)
	require.NoError(t, err)

	_, err = Stream(context.Background(), streamer, "", ScanInto[int]())
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = Stream[int](context.Background(), streamer, "SELECT 1", nil)
	assert.ErrorIs(t, err, ErrNilScanFunc)

	_, err = newStreamer(&fakeDB{}, []Option{WithLogger(nil)})
	assert.ErrorIs(t, err, ErrNilLogger)
}

func Test_Source_RowsErrorIsReported(t *testing.T) {
	// setup
	ctx := context.Background()
	rowsErr := errors.New("connection lost")
	streamer, err := newStreamer(&fakeDB{values: []any{1}, rowsErr: rowsErr}, nil)
	require.NoError(t, err)

	source, err := Stream(ctx, streamer, "SELECT n FROM numbers", ScanInto[int]())
	require.NoError(t, err)

	// act
	values, err := abortable.Collect[int](ctx, source)

	// assert
	assert.Equal(t, []int{1}, values)
	assert.ErrorIs(t, err, ErrReadingRowsFailed)
	assert.ErrorIs(t, err, rowsErr)
}

func Test_Source_ScanErrorClosesTheRows(t *testing.T) {
	// setup
	ctx := context.Background()
	db := &fakeDB{values: []any{"not a number"}}
	streamer, err := newStreamer(db, nil)
	require.NoError(t, err)

	source, err := Stream(ctx, streamer, "SELECT n FROM numbers", ScanInto[int]())
	require.NoError(t, err)

	// act
	_, err = source.Next(ctx)

	// assert
	assert.ErrorIs(t, err, ErrScanningRowFailed)
	assert.Equal(t, 1, db.rows.closeCount())

	_, err = source.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func Test_Source_ReleaseUnblocksAPendingRow(t *testing.T) {
	// setup
	ctx := context.Background()
	db := &fakeDB{values: []any{1}, block: true}
	streamer, err := newStreamer(db, nil)
	require.NoError(t, err)

	source, err := Stream(ctx, streamer, "SELECT n FROM numbers", ScanInto[int]())
	require.NoError(t, err)

	_, err = source.Next(ctx)
	require.NoError(t, err)

	// arrange
	done := make(chan error, 1)
	go func() {
		_, nextErr := source.Next(ctx)
		done <- nextErr
	}()
	time.Sleep(10 * time.Millisecond)

	// act
	releaseErr := source.Release()

	// assert
	assert.NoError(t, releaseErr)
	select {
	case nextErr := <-done:
		assert.ErrorIs(t, nextErr, io.EOF, "a released result set ends without an error")
	case <-time.After(time.Second):
		t.Fatal("Next did not return after Release")
	}
	assert.Equal(t, 1, db.rows.closeCount())
}

func Test_Source_ReleaseReportsCloseError(t *testing.T) {
	closeErr := errors.New("close failed")
	logHandler := helper.NewLogHandlerSpy(false)
	streamer, err := newStreamer(&fakeDB{values: []any{1}, closeErr: closeErr}, []Option{WithLogger(slog.New(logHandler))})
	require.NoError(t, err)

	source, err := Stream(context.Background(), streamer, "SELECT n FROM numbers", ScanInto[int]())
	require.NoError(t, err)

	assert.ErrorIs(t, source.Release(), closeErr)
	assert.NoError(t, source.Release(), "a second release is a no-op")
	assert.True(t, logHandler.HasWarnLogWithMessage("failed to close database rows").Assert())
}

func Test_Source_AbortedByASignal(t *testing.T) {
	// setup
	ctx := context.Background()
	db := &fakeDB{values: []any{`{"id":1}`, `{"id":2}`}, block: true}
	streamer, err := newStreamer(db, nil)
	require.NoError(t, err)

	type order struct {
		ID int `json:"id"`
	}

	source, err := Stream(ctx, streamer, "SELECT payload FROM orders", JSONColumn[order]())
	require.NoError(t, err)

	controller := signals.NewController()
	it, err := abortable.WrapSource[order](source, controller, abortable.Options[order]{})
	require.NoError(t, err)

	// arrange
	time.AfterFunc(20*time.Millisecond, controller.Abort)

	// act
	values, err := abortable.Collect[order](ctx, it)

	// assert
	assert.ErrorIs(t, err, abortable.ErrAborted)
	assert.Equal(t, []order{{ID: 1}, {ID: 2}}, values)
	assert.Eventually(t, func() bool { return db.rows.closeCount() == 1 }, time.Second, time.Millisecond)
}
