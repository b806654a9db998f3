// Package pgnotify turns PostgreSQL LISTEN/NOTIFY into a releasable abortable source.
//
// The source never ends on its own: it hands out notifications until it is released,
// typically because a signal fired on the abortable wrap around it.
package pgnotify

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AntonStoeckl/abortable-streams-go/abortable"
)

const (
	unlistenTimeout     = 5 * time.Second
	logMsgListening     = "listening for notifications"
	logMsgUnlistened    = "stopped listening for notifications"
	logMsgWaitFailed    = "waiting for notification failed"
	logAttrChannel      = "channel"
	logAttrError        = "error"
	logAttrNotification = "notifications"
)

var (
	// ErrNilConnection is returned when Listen is called without a connection.
	ErrNilConnection = errors.New("connection must not be nil")

	// ErrEmptyChannel is returned when Listen is called without a channel name.
	ErrEmptyChannel = errors.New("channel must not be empty")

	// ErrNilLogger is returned when a nil logger is supplied to WithLogger.
	ErrNilLogger = errors.New("logger must not be nil")

	// ErrListenFailed is returned when the LISTEN statement fails.
	ErrListenFailed = errors.New("listen failed")

	// ErrUnlistenFailed is returned by Release when the UNLISTEN statement fails.
	ErrUnlistenFailed = errors.New("unlisten failed")

	// ErrWaitingFailed is returned by Next when the connection breaks while waiting.
	ErrWaitingFailed = errors.New("waiting for notification failed")
)

// Conn is the part of *pgx.Conn a Source needs. The connection must not be used by anyone
// else while it is listening.
type Conn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
}

// Notification is one NOTIFY delivered on the listened channel.
type Notification struct {
	Channel string
	Payload string
	PID     uint32
}

// Option defines a functional option for configuring a Source.
type Option func(*Source) error

// WithLogger sets the logger for the Source.
func WithLogger(logger abortable.Logger) Option {
	return func(s *Source) error {
		if logger == nil {
			return ErrNilLogger
		}

		s.logger = logger

		return nil
	}
}

// Source hands out the notifications of one channel.
type Source struct {
	conn     Conn
	channel  string
	listen   string
	logger   abortable.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	released atomic.Bool
	once     sync.Once
	count    atomic.Int64
}

// Listen issues LISTEN for channel on conn and returns the Source of its notifications.
// The channel name is quoted as an identifier.
func Listen(ctx context.Context, conn Conn, channel string, options ...Option) (*Source, error) {
	if conn == nil {
		return nil, ErrNilConnection
	}

	if channel == "" {
		return nil, ErrEmptyChannel
	}

	s := &Source{
		conn:    conn,
		channel: channel,
		listen:  pgx.Identifier{channel}.Sanitize(),
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	if _, err := conn.Exec(ctx, "LISTEN "+s.listen); err != nil {
		return nil, errors.Join(ErrListenFailed, err)
	}

	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.logDebug(logMsgListening)

	return s, nil
}

// Next waits for the next notification. It returns io.EOF once the source is released.
func (s *Source) Next(ctx context.Context) (Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released.Load() {
		return Notification{}, io.EOF
	}

	waitCtx, cancelWait := context.WithCancel(ctx)
	defer cancelWait()
	stop := context.AfterFunc(s.ctx, cancelWait)
	defer stop()

	notification, err := s.conn.WaitForNotification(waitCtx)
	if err != nil {
		switch {
		case s.released.Load():
			return Notification{}, io.EOF
		case ctx.Err() != nil:
			return Notification{}, ctx.Err()
		default:
			s.logWarn(logMsgWaitFailed, err)
			return Notification{}, errors.Join(ErrWaitingFailed, err)
		}
	}

	s.count.Add(1)

	return Notification{
		Channel: notification.Channel,
		Payload: notification.Payload,
		PID:     notification.PID,
	}, nil
}

// Release cancels a pending wait and issues UNLISTEN. Later calls are no-ops.
func (s *Source) Release() error {
	var err error

	s.once.Do(func() {
		s.released.Store(true)
		s.cancel()

		// the connection is not safe for concurrent use, wait for a pending Next
		s.mu.Lock()
		defer s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), unlistenTimeout)
		defer cancel()

		if _, execErr := s.conn.Exec(ctx, "UNLISTEN "+s.listen); execErr != nil {
			err = errors.Join(ErrUnlistenFailed, execErr)
			return
		}

		s.logDebug(logMsgUnlistened, logAttrNotification, s.count.Load())
	})

	return err
}

func (s *Source) logDebug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, append([]any{logAttrChannel, s.channel}, args...)...)
	}
}

func (s *Source) logWarn(msg string, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, logAttrChannel, s.channel, logAttrError, err.Error())
	}
}

// Ensure Source implements abortable.Source and abortable.Releaser.
var (
	_ abortable.Source[Notification] = (*Source)(nil)
	_ abortable.Releaser             = (*Source)(nil)
	_ Conn                           = (*pgx.Conn)(nil)
)
