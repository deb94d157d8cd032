// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/dionysus-app/dionysus/internal/logging"
)

// Bus is an in-process pub/sub built on Watermill's gochannel.
// Publishing never blocks on slow subscribers; each subscriber gets
// its own buffered channel and lagging subscribers drop messages at
// the hub rather than here.
type Bus struct {
	pubsub *gochannel.GoChannel
	mu     sync.RWMutex
	closed bool
}

// NewBus creates the event bus. bufferSize bounds each subscriber's
// channel; 0 falls back to 256.
func NewBus(bufferSize int64) *Bus {
	if bufferSize <= 0 {
		bufferSize = 256
	}

	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            bufferSize,
			BlockPublishUntilSubscriberAck: false,
		}, watermillLogger{}),
	}
}

// Publish marshals the event and publishes it on its topic.
func (b *Bus) Publish(event *Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("event bus is closed")
	}
	b.mu.RUnlock()

	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return b.pubsub.Publish(event.Topic, message.NewMessage(event.EventID, raw))
}

// PublishPayload builds an envelope and publishes it. Errors are
// logged, not returned; event delivery must not fail the operation
// that produced the event.
func (b *Bus) PublishPayload(topic, projectID string, payload any) {
	event, err := NewEvent(topic, projectID, payload)
	if err != nil {
		logging.Error().Err(err).Str("topic", topic).Msg("Failed to build event")
		return
	}
	if err := b.Publish(event); err != nil {
		logging.Error().Err(err).Str("topic", topic).Msg("Failed to publish event")
	}
}

// Subscribe returns a channel of decoded events for one topic. The
// channel closes when ctx is canceled or the bus closes.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *Event, error) {
	messages, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	out := make(chan *Event)
	go func() {
		defer close(out)
		for msg := range messages {
			var event Event
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				logging.Error().Err(err).Str("topic", topic).Msg("Failed to decode event")
				msg.Ack()
				continue
			}
			msg.Ack()

			select {
			case out <- &event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// SubscribeAll subscribes to every topic and merges the streams.
func (b *Bus) SubscribeAll(ctx context.Context) (<-chan *Event, error) {
	topics := []string{
		TopicCommitDiscovered,
		TopicCommitSummarized,
		TopicCommitFailed,
		TopicSyncCompleted,
		TopicMeetingCompleted,
		TopicCreditsPurchased,
	}

	out := make(chan *Event)
	var wg sync.WaitGroup

	for _, topic := range topics {
		events, err := b.Subscribe(ctx, topic)
		if err != nil {
			return nil, err
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			for event := range events {
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out, nil
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	return b.pubsub.Close()
}

// watermillLogger adapts zerolog to watermill's LoggerAdapter.
type watermillLogger struct {
	fields watermill.LogFields
}

func (l watermillLogger) event(e *zerolog.Event, msg string, fields watermill.LogFields) {
	for k, v := range l.fields {
		e = e.Interface(k, v)
	}
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	e.Msg(msg)
}

func (l watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.event(logging.Error().Err(err), msg, fields)
}

func (l watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.event(logging.Debug(), msg, fields)
}

func (l watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.event(logging.Debug(), msg, fields)
}

func (l watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.event(logging.Debug(), msg, fields)
}

func (l watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	merged := make(watermill.LogFields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return watermillLogger{fields: merged}
}
