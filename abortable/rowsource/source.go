package rowsource

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/AntonStoeckl/abortable-streams-go/abortable"
	"github.com/AntonStoeckl/abortable-streams-go/abortable/rowsource/internal/adapters"
)

// Source hands out the rows of one result set. It is created by Stream.
type Source[T any] struct {
	rows     adapters.DBRows
	scan     ScanFunc[T]
	cancel   context.CancelFunc
	streamer Streamer

	mu       sync.Mutex
	closed   bool
	rowCount int
	released atomic.Bool
}

// Next scans the next row. The result set is closed once it is exhausted or fails.
// The row is read under the context given to Stream, ctx is not consulted.
func (s *Source[T]) Next(_ context.Context) (T, error) {
	var zero T

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return zero, io.EOF
	}

	if !s.rows.Next() {
		rowsErr := s.rows.Err()
		s.closeLocked()

		// a released result set reports the cancelled query, which is no failure
		if rowsErr != nil && !s.released.Load() {
			return zero, errors.Join(ErrReadingRowsFailed, rowsErr)
		}

		return zero, io.EOF
	}

	value, scanErr := s.scan(s.rows)
	if scanErr != nil {
		s.closeLocked()
		return zero, errors.Join(ErrScanningRowFailed, scanErr)
	}

	s.rowCount++

	return value, nil
}

// Release cancels the query and closes the result set.
// A Next call that is blocked on the database returns io.EOF.
func (s *Source[T]) Release() error {
	s.released.Store(true)
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closeLocked()
}

// RowCount returns the number of rows scanned so far.
func (s *Source[T]) RowCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rowCount
}

func (s *Source[T]) closeLocked() error {
	if s.closed {
		return nil
	}

	s.closed = true
	closeErr := s.rows.Close()
	s.cancel()

	if closeErr != nil {
		s.streamer.logWarn(logMsgCloseRowsFailed, closeErr)
		return closeErr
	}

	s.streamer.logInfo(logMsgStreamClosed, logAttrRowCount, s.rowCount, logAttrReleased, s.released.Load())

	return nil
}

// Ensure Source implements abortable.Source and abortable.Releaser.
var (
	_ abortable.Source[int] = (*Source[int])(nil)
	_ abortable.Releaser    = (*Source[int])(nil)
)
