package redis

import (
	"sync"

	"github.com/redis/go-redis/v9"
)

// Subscription adapts a go-redis PubSub to a plain payload stream.
type Subscription struct {
	ps       *redis.PubSub
	messages chan []byte
	once     sync.Once
}

func newSubscription(ps *redis.PubSub) *Subscription {
	s := &Subscription{ps: ps, messages: make(chan []byte, 16)}
	go s.pump(ps.Channel())
	return s
}

func (s *Subscription) pump(in <-chan *redis.Message) {
	defer close(s.messages)
	for msg := range in {
		s.messages <- []byte(msg.Payload)
	}
}

// Messages yields payloads until the subscription is closed.
func (s *Subscription) Messages() <-chan []byte {
	return s.messages
}

func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() { err = s.ps.Close() })
	return err
}
