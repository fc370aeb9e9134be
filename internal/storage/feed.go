package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"forensiai/backend/internal/config"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

type subscription struct {
	events  chan ChangeEvent
	done    chan struct{}
	once    sync.Once
	closeFn func() error
	err     error
}

func newSubscription(closeFn func() error) *subscription {
	return &subscription{
		events:  make(chan ChangeEvent, config.FeedBufferSize),
		done:    make(chan struct{}),
		closeFn: closeFn,
	}
}

func (s *subscription) Events() <-chan ChangeEvent { return s.events }

func (s *subscription) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.err = s.closeFn()
	})
	return s.err
}

// deliver blocks until ev is consumed or the subscription is closed.
func (s *subscription) deliver(ev ChangeEvent) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

// RedisFeed fans insert events out over Redis pub/sub, one channel per table.
type RedisFeed struct {
	Redis *redis.Client
}

func NewRedisFeed(rdb *redis.Client) *RedisFeed {
	return &RedisFeed{Redis: rdb}
}

func channelFor(table string) string {
	return config.ChangeChannelPrefix + table
}

// Publish sends ev to every subscriber of its table.
func (f *RedisFeed) Publish(ctx context.Context, ev ChangeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := f.Redis.Publish(ctx, channelFor(ev.Table), payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Table, err)
	}
	return nil
}

// Subscribe waits for the subscription to be confirmed before returning, so
// no event published afterwards is missed.
func (f *RedisFeed) Subscribe(ctx context.Context, table string, filter Predicate) (Subscription, error) {
	pubsub := f.Redis.Subscribe(ctx, channelFor(table))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", table, err)
	}

	sub := newSubscription(pubsub.Close)
	go func() {
		defer close(sub.events)
		for msg := range pubsub.Channel() {
			var ev ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("WARNING: Dropping malformed change event on %s: %v", msg.Channel, err)
				continue
			}
			if ev.Table != table || !filter.Matches(ev.Row) {
				continue
			}
			if !sub.deliver(ev) {
				return
			}
		}
	}()
	return sub, nil
}
