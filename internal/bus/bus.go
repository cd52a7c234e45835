// Package bus is a small topic-based event bus decoupling the polling path
// from the UI, the notifier and the history writer.
package bus

import (
	"reflect"

	"github.com/cskr/pubsub"
	"github.com/rs/zerolog"

	"simcpdlc/internal/message"
)

const (
	// TopicInbound carries InboundMessage events for every ingested
	// protocol message.
	TopicInbound = "message.inbound"
	// TopicOutbound carries OutboundMessage events for pilot-originated
	// traffic.
	TopicOutbound = "message.outbound"
	// TopicSession carries SessionEvent whenever logon state changes.
	TopicSession = "session.state"
	// TopicNotice carries Notice events for locally generated system text.
	TopicNotice = "system.notice"
)

// InboundMessage is published for each protocol message added to the store.
type InboundMessage struct {
	ID      int
	Message message.Protocol
}

// OutboundMessage echoes traffic the pilot sent.
type OutboundMessage struct {
	Recipient string
	Text      string
}

// SessionEvent announces a logon state change.
type SessionEvent struct {
	Station  string
	LoggedOn bool
}

// Notice is a locally generated system message.
type Notice struct {
	Text string
}

type Subscription chan any

type MessageBus interface {
	Publish(topic string, msg any)
	Subscribe(topic string) Subscription
	Unsubscribe(ch Subscription, topics ...string)
	Close()
}

type PubSubBus struct {
	ps     *pubsub.PubSub
	logger zerolog.Logger
}

func New(logger zerolog.Logger) *PubSubBus {
	return &PubSubBus{
		ps:     pubsub.New(128),
		logger: logger,
	}
}

func (b *PubSubBus) Publish(topic string, msg any) {
	b.logger.Debug().Str("topic", topic).Str("payload_type", payloadType(msg)).Msg("publish")
	b.ps.Pub(msg, topic)
}

func (b *PubSubBus) Subscribe(topic string) Subscription {
	ch := b.ps.Sub(topic)
	b.logger.Debug().Str("topic", topic).Msg("subscribe")
	return ch
}

func (b *PubSubBus) Unsubscribe(ch Subscription, topics ...string) {
	if len(topics) == 0 {
		b.ps.Unsub(ch)
		return
	}
	b.ps.Unsub(ch, topics...)
}

func (b *PubSubBus) Close() {
	b.ps.Shutdown()
}

func payloadType(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
