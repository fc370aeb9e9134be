package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"forensiai/backend/internal/config"
	"log"
	"time"

	"github.com/lib/pq"
)

// PostgresFeed listens for the NOTIFY payloads emitted by the triggers from
// InstallNotifyTriggers. Publish is a no-op: the database announces inserts.
type PostgresFeed struct {
	DSN string
}

func NewPostgresFeed(dsn string) *PostgresFeed {
	return &PostgresFeed{DSN: dsn}
}

func (f *PostgresFeed) Publish(context.Context, ChangeEvent) error {
	return nil
}

func (f *PostgresFeed) Subscribe(ctx context.Context, table string, filter Predicate) (Subscription, error) {
	listener := pq.NewListener(f.DSN, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Printf("WARNING: Notify listener for %s: %v", table, err)
		}
	})
	if err := listener.Listen(config.PostgresNotifyName); err != nil {
		listener.Close()
		return nil, fmt.Errorf("listen %s: %w", config.PostgresNotifyName, err)
	}

	sub := newSubscription(listener.Close)
	go func() {
		defer close(sub.events)
		for n := range listener.Notify {
			// nil marks a reconnect; events sent meanwhile are lost.
			if n == nil {
				log.Printf("WARNING: Notify listener for %s reconnected", table)
				continue
			}
			var ev ChangeEvent
			if err := json.Unmarshal([]byte(n.Extra), &ev); err != nil {
				log.Printf("WARNING: Dropping malformed notification: %v", err)
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
