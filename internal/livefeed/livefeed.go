// Package livefeed carries staff dashboard updates over a Redis pub/sub channel.
package livefeed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/buttery-backend/pkg/enums"
	"github.com/angelmondragon/buttery-backend/pkg/redis"
)

// Message is the envelope every subscriber receives.
type Message struct {
	Type enums.LiveEventType `json:"type"`
	Data any                 `json:"data,omitempty"`
}

type publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

type subscriber interface {
	Subscribe(ctx context.Context, channel string) (*redis.Subscription, error)
}

// Feed is an open subscription.
type Feed interface {
	Messages() <-chan []byte
	Close() error
}

type Publisher struct {
	pub     publisher
	channel string
}

func NewPublisher(pub publisher, channel string) (*Publisher, error) {
	if pub == nil {
		return nil, fmt.Errorf("redis publisher required")
	}
	if channel == "" {
		return nil, fmt.Errorf("live channel required")
	}
	return &Publisher{pub: pub, channel: channel}, nil
}

// Publish encodes and sends one message.
func (p *Publisher) Publish(ctx context.Context, typ enums.LiveEventType, data any) error {
	payload, err := json.Marshal(Message{Type: typ, Data: data})
	if err != nil {
		return fmt.Errorf("encode %s: %w", typ, err)
	}
	if err := p.pub.Publish(ctx, p.channel, payload); err != nil {
		return fmt.Errorf("publish %s: %w", typ, err)
	}
	return nil
}

type Subscriber struct {
	sub     subscriber
	channel string
}

func NewSubscriber(sub subscriber, channel string) (*Subscriber, error) {
	if sub == nil {
		return nil, fmt.Errorf("redis subscriber required")
	}
	if channel == "" {
		return nil, fmt.Errorf("live channel required")
	}
	return &Subscriber{sub: sub, channel: channel}, nil
}

// Subscribe opens a feed that lives until ctx ends or the feed is closed.
func (s *Subscriber) Subscribe(ctx context.Context) (Feed, error) {
	sub, err := s.sub.Subscribe(ctx, s.channel)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", s.channel, err)
	}
	return sub, nil
}
