package chathub

import (
	"context"
	"errors"
	"fmt"
	"forensiai/backend/internal/config"
	"forensiai/backend/internal/models"
	"forensiai/backend/internal/storage"
	"log"
	"slices"
	"sync"
)

var ErrNotActive = errors.New("team chat is not subscribed to a case")

// State is the lifecycle of a bus subscription.
type State int

const (
	Unsubscribed State = iota
	Subscribing
	Active
)

func (s State) String() string {
	switch s {
	case Subscribing:
		return "subscribing"
	case Active:
		return "active"
	default:
		return "unsubscribed"
	}
}

// Bus keeps one viewer's team chat for one case consistent with the remote
// store. Local sends show up immediately; remote inserts are merged by
// message id, so the echo of an own send and repeated deliveries are dropped.
type Bus struct {
	remote storage.RemoteStore

	mu       sync.Mutex
	state    State
	caseID   string
	messages []models.TeamMessage
	seen     map[string]struct{}
	focused  bool
	unread   bool
	sub      storage.Subscription
	clients  map[Client]struct{}
	failed   []string

	writes sync.WaitGroup
}

// NewBus returns an unsubscribed bus. A nil remote keeps the chat local.
func NewBus(remote storage.RemoteStore) *Bus {
	return &Bus{
		remote:  remote,
		seen:    make(map[string]struct{}),
		clients: make(map[Client]struct{}),
	}
}

// Subscribe tears down any previous subscription, seeds the chat with
// history and opens the insert stream for caseID.
func (b *Bus) Subscribe(ctx context.Context, caseID string, history []models.TeamMessage) error {
	b.Unsubscribe()

	b.mu.Lock()
	b.state = Subscribing
	b.caseID = caseID
	b.messages = nil
	b.seen = make(map[string]struct{}, len(history))
	b.unread = false
	b.failed = nil
	for _, msg := range history {
		b.appendLocked(msg)
	}
	if b.remote == nil {
		b.state = Active
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	sub, err := b.remote.SubscribeInsert(ctx, models.TableTeamMessages, storage.Where("case_id", caseID))
	if err != nil {
		b.mu.Lock()
		if b.state == Subscribing && b.caseID == caseID {
			b.state = Unsubscribed
		}
		b.mu.Unlock()
		log.Printf("ERROR: Failed to subscribe to team chat for case %s: %v", caseID, err)
		return fmt.Errorf("subscribe team chat: %w", err)
	}

	b.mu.Lock()
	if b.state != Subscribing || b.caseID != caseID {
		// Unsubscribed or moved to another case while we waited.
		b.mu.Unlock()
		sub.Close()
		return nil
	}
	b.state = Active
	b.sub = sub
	b.mu.Unlock()

	go b.merge(sub)
	return nil
}

// merge feeds stream events into OnRemoteInsert until the stream ends.
func (b *Bus) merge(sub storage.Subscription) {
	for ev := range sub.Events() {
		b.OnRemoteInsert(ev)
	}

	b.mu.Lock()
	lost := b.sub == sub
	if lost {
		b.sub = nil
		b.state = Unsubscribed
	}
	caseID := b.caseID
	b.mu.Unlock()

	if lost {
		log.Printf("WARNING: Team chat stream for case %s ended", caseID)
		sub.Close()
	}
}

// Send appends msg locally and writes it to the store in the background.
// A failed write is logged and listed by FailedSends; it is not retried and
// the local copy stays.
func (b *Bus) Send(ctx context.Context, msg models.TeamMessage) (models.TeamMessage, error) {
	if msg.ID == "" {
		msg.ID = models.NewMessageID()
	}
	if msg.Timestamp == "" {
		msg.Timestamp = models.Now()
	}
	if msg.Type == "" {
		msg.Type = models.TeamMessageText
	}

	b.mu.Lock()
	if b.state == Unsubscribed {
		b.mu.Unlock()
		return msg, ErrNotActive
	}
	caseID := b.caseID
	b.appendLocked(msg)
	b.mu.Unlock()

	if b.remote == nil {
		return msg, nil
	}

	b.writes.Add(1)
	go func() {
		defer b.writes.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.WriteTimeout)
		defer cancel()

		row := models.TeamMessageToRow(caseID, msg)
		if err := b.remote.Insert(ctx, models.TableTeamMessages, []storage.Row{row}); err != nil {
			log.Printf("ERROR: Failed to persist team message %s for case %s: %v", msg.ID, caseID, err)
			b.mu.Lock()
			b.failed = append(b.failed, msg.ID)
			b.mu.Unlock()
		}
	}()
	return msg, nil
}

// OnRemoteInsert merges one change event and reports whether it added a
// message. Only team_messages inserts for the current case are considered.
func (b *Bus) OnRemoteInsert(ev storage.ChangeEvent) bool {
	if ev.Operation != storage.OpInsert || ev.Table != models.TableTeamMessages {
		return false
	}
	msg := models.TeamMessageFromRow(ev.Row)
	if msg.ID == "" {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Unsubscribed || fmt.Sprint(ev.Row["case_id"]) != b.caseID {
		return false
	}
	if !b.appendLocked(msg) {
		return false
	}
	if !b.focused {
		b.unread = true
	}
	return true
}

// appendLocked adds msg unless its id is known and fans it out to clients.
func (b *Bus) appendLocked(msg models.TeamMessage) bool {
	if _, ok := b.seen[msg.ID]; ok {
		return false
	}
	b.seen[msg.ID] = struct{}{}
	b.messages = append(b.messages, msg)

	for client := range b.clients {
		select {
		case client.GetSendChannel() <- msg:
		default:
			log.Printf("WARNING: Dropping slow chat client %s", client.GetOfficerID())
			delete(b.clients, client)
			client.Close()
		}
	}
	return true
}

// SetFocused records whether the chat surface is visible. Focus does not
// clear the unread flag; MarkOpened does.
func (b *Bus) SetFocused(focused bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.focused = focused
}

func (b *Bus) MarkOpened() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unread = false
}

func (b *Bus) HasUnread() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.unread
}

// Messages returns a copy of the chat in arrival order.
func (b *Bus) Messages() []models.TeamMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.messages)
}

func (b *Bus) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Bus) CaseID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.caseID
}

// FailedSends lists ids of messages whose write failed.
func (b *Bus) FailedSends() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.failed)
}

// Flush waits for every background write started so far.
func (b *Bus) Flush() {
	b.writes.Wait()
}

// Unsubscribe releases the stream. It is safe to call repeatedly and after
// the stream has already failed; close errors are not reported.
func (b *Bus) Unsubscribe() {
	b.mu.Lock()
	sub := b.sub
	b.sub = nil
	b.state = Unsubscribed
	b.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}

// Register attaches a connected client; it receives every message merged
// from now on.
func (b *Bus) Register(c Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[c] = struct{}{}
}

func (b *Bus) Unregister(c Client) {
	b.mu.Lock()
	_, ok := b.clients[c]
	delete(b.clients, c)
	b.mu.Unlock()
	if ok {
		c.Close()
	}
}
