package rowsource

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/abortable-streams-go/abortable"
	"github.com/AntonStoeckl/abortable-streams-go/abortable/rowsource/internal/adapters"
)

const (
	logMsgSQLExecuted     = "executed sql for: stream"
	logMsgDBQueryFailed   = "database query execution failed"
	logMsgCloseRowsFailed = "failed to close database rows"
	logMsgStreamClosed    = "rowsource operation: stream closed"
	logAttrError          = "error"
	logAttrQuery          = "query"
	logAttrDurationMS     = "duration_ms"
	logAttrRowCount       = "row_count"
	logAttrReleased       = "released"
)

// Streamer runs queries whose result sets are consumed row by row.
type Streamer struct {
	db     adapters.DBAdapter
	logger abortable.Logger
}

// Option defines a functional option for configuring a Streamer.
type Option func(*Streamer) error

// WithLogger sets the logger for the Streamer.
//
// Debug level: SQL queries with execution timing
// Info level: closed result sets with their row count
// Warn level: failures to close a result set
// Error level: rejected queries.
func WithLogger(logger abortable.Logger) Option {
	return func(s *Streamer) error {
		if logger == nil {
			return ErrNilLogger
		}

		s.logger = logger

		return nil
	}
}

// NewStreamerFromPGXPool creates a Streamer on top of a pgx Pool.
func NewStreamerFromPGXPool(db *pgxpool.Pool, options ...Option) (Streamer, error) {
	if db == nil {
		return Streamer{}, ErrNilDatabaseConnection
	}

	return newStreamer(adapters.NewPGXAdapter(db), options)
}

// NewStreamerFromSQLDB creates a Streamer on top of a sql.DB.
func NewStreamerFromSQLDB(db *sql.DB, options ...Option) (Streamer, error) {
	if db == nil {
		return Streamer{}, ErrNilDatabaseConnection
	}

	return newStreamer(adapters.NewSQLAdapter(db), options)
}

// NewStreamerFromSQLX creates a Streamer on top of a sqlx.DB.
func NewStreamerFromSQLX(db *sqlx.DB, options ...Option) (Streamer, error) {
	if db == nil {
		return Streamer{}, ErrNilDatabaseConnection
	}

	return newStreamer(adapters.NewSQLXAdapter(db), options)
}

func newStreamer(db adapters.DBAdapter, options []Option) (Streamer, error) {
	s := Streamer{db: db}

	for _, option := range options {
		if err := option(&s); err != nil {
			return Streamer{}, err
		}
	}

	return s, nil
}

// Stream executes query and returns a Source that scans one row per Next call with scan.
//
// ctx bounds the lifetime of the whole result set, not only of the query call.
// The Source must be drained or released to give the connection back.
func Stream[T any](ctx context.Context, streamer Streamer, query string, scan ScanFunc[T]) (*Source[T], error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if scan == nil {
		return nil, ErrNilScanFunc
	}

	queryCtx, cancel := context.WithCancel(ctx)

	start := time.Now()
	rows, queryErr := streamer.db.Query(queryCtx, query)
	streamer.logDebug(logMsgSQLExecuted, logAttrQuery, query, logAttrDurationMS, toMilliseconds(time.Since(start)))

	if queryErr != nil {
		cancel()
		streamer.logError(logMsgDBQueryFailed, queryErr, logAttrQuery, query)

		return nil, errors.Join(ErrQueryingRowsFailed, queryErr)
	}

	return &Source[T]{
		rows:     rows,
		scan:     scan,
		cancel:   cancel,
		streamer: streamer,
	}, nil
}

func (s Streamer) logDebug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s Streamer) logInfo(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s Streamer) logWarn(msg string, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, logAttrError, err.Error())
	}
}

func (s Streamer) logError(msg string, err error, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, append([]any{logAttrError, err.Error()}, args...)...)
	}
}

func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
