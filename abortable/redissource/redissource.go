// Package redissource turns a Redis pub/sub subscription into a releasable abortable source.
package redissource

import (
	"context"
	"errors"
	"io"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/AntonStoeckl/abortable-streams-go/abortable"
)

var (
	// ErrNilClient is returned when Subscribe is called without a client.
	ErrNilClient = errors.New("redis client must not be nil")

	// ErrNilSubscription is returned when New is called without a subscription.
	ErrNilSubscription = errors.New("subscription must not be nil")

	// ErrNoChannels is returned when Subscribe is called without channels.
	ErrNoChannels = errors.New("at least one channel must be supplied")

	// ErrSubscribeFailed is returned when Redis does not confirm the subscription.
	ErrSubscribeFailed = errors.New("subscribing failed")

	// ErrDecodingPayloadFailed is returned when a payload is not valid JSON for the target type.
	ErrDecodingPayloadFailed = errors.New("decoding payload failed")
)

// Subscription is the part of *redis.PubSub a Source needs.
type Subscription interface {
	Channel(opts ...redis.ChannelOption) <-chan *redis.Message
	Close() error
}

// Message is one published message.
type Message struct {
	Channel string
	Pattern string
	Payload string
}

// Source hands out the messages of a subscription. It ends with io.EOF when the
// subscription is closed or the source is released.
type Source struct {
	sub      Subscription
	messages <-chan *redis.Message
	done     chan struct{}
	once     sync.Once
}

// Subscribe subscribes client to channels, waits for Redis to confirm and returns the Source.
func Subscribe(ctx context.Context, client redis.UniversalClient, channels ...string) (*Source, error) {
	if client == nil {
		return nil, ErrNilClient
	}

	if len(channels) == 0 {
		return nil, ErrNoChannels
	}

	pubsub := client.Subscribe(ctx, channels...)

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, errors.Join(ErrSubscribeFailed, err)
	}

	return New(pubsub)
}

// New wraps an existing subscription, for example one created with PSubscribe.
func New(sub Subscription) (*Source, error) {
	if sub == nil {
		return nil, ErrNilSubscription
	}

	return &Source{
		sub:      sub,
		messages: sub.Channel(),
		done:     make(chan struct{}),
	}, nil
}

// Next waits for the next message.
func (s *Source) Next(ctx context.Context) (Message, error) {
	select {
	case <-s.done:
		return Message{}, io.EOF
	default:
	}

	select {
	case msg, ok := <-s.messages:
		if !ok {
			return Message{}, io.EOF
		}
		return Message{Channel: msg.Channel, Pattern: msg.Pattern, Payload: msg.Payload}, nil
	case <-s.done:
		return Message{}, io.EOF
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Release closes the subscription. Later calls are no-ops.
func (s *Source) Release() error {
	var err error

	s.once.Do(func() {
		close(s.done)
		err = s.sub.Close()
	})

	return err
}

// JSONSource decodes the payloads of a message source as JSON.
type JSONSource[T any] struct {
	source abortable.Source[Message]
}

// DecodeJSON returns a source of the payloads of source, decoded into T.
// Releasing it releases source.
func DecodeJSON[T any](source abortable.Source[Message]) *JSONSource[T] {
	return &JSONSource[T]{source: source}
}

// Next decodes the payload of the next message.
func (s *JSONSource[T]) Next(ctx context.Context) (T, error) {
	var value T

	msg, err := s.source.Next(ctx)
	if err != nil {
		return value, err
	}

	if err := jsoniter.ConfigFastest.UnmarshalFromString(msg.Payload, &value); err != nil {
		return value, errors.Join(ErrDecodingPayloadFailed, err)
	}

	return value, nil
}

// Release releases the underlying message source, if it is releasable.
func (s *JSONSource[T]) Release() error {
	if releaser, ok := s.source.(abortable.Releaser); ok {
		return releaser.Release()
	}

	return nil
}

// Ensure the sources implement abortable.Source and abortable.Releaser.
var (
	_ abortable.Source[Message] = (*Source)(nil)
	_ abortable.Releaser        = (*Source)(nil)
	_ abortable.Source[int]     = (*JSONSource[int])(nil)
	_ abortable.Releaser        = (*JSONSource[int])(nil)
	_ Subscription              = (*redis.PubSub)(nil)
)
