// Package session holds the explicit context an officer works in: who they
// are and which case they have open.
package session

import (
	"context"
	"errors"
	"fmt"
	"forensiai/backend/internal/annotation"
	"forensiai/backend/internal/casesync"
	"forensiai/backend/internal/chathub"
	"forensiai/backend/internal/config"
	"forensiai/backend/internal/models"
	"forensiai/backend/internal/storage"
	"log"
	"sync"
)

var ErrNoSession = errors.New("no open session for this case")

// Session is one officer's working copy of one case. The snapshot is
// guarded by the session's mutex; team chat lives in Chat.
type Session struct {
	Actor    models.Officer
	Chat     *chathub.Bus
	Comments *annotation.Store

	mu      sync.Mutex
	current *models.Case
}

func newSession(actor models.Officer, c *models.Case, remote storage.RemoteStore) *Session {
	s := &Session{Actor: actor, current: c}
	s.Chat = chathub.NewBus(remote)
	s.Comments = annotation.New(remote, s)
	return s
}

// Update runs fn with exclusive access to the snapshot.
func (s *Session) Update(fn func(c *models.Case)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.current)
}

// CaseID returns the id of the open case.
func (s *Session) CaseID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.ID
}

// Snapshot returns a copy of the open case with the live team chat.
func (s *Session) Snapshot() *models.Case {
	s.mu.Lock()
	c := s.current.Clone()
	s.mu.Unlock()
	c.TeamMessages = s.Chat.Messages()
	return c
}

// Close stops the chat stream and waits for pending writes.
func (s *Session) Close() {
	s.Chat.Unsubscribe()
	s.Chat.Flush()
	s.Comments.Flush()
}

// PresenceTracker records which officers have a session open.
type PresenceTracker interface {
	MarkOnline(ctx context.Context, officerID string) error
	MarkOffline(ctx context.Context, officerID string) error
}

type key struct {
	officerID string
	caseID    string
}

// Registry keeps at most one session per officer and case.
type Registry struct {
	manager  *casesync.Manager
	remote   storage.RemoteStore
	presence PresenceTracker

	mu       sync.Mutex
	sessions map[key]*Session
}

// NewRegistry returns an empty registry. presence may be nil.
func NewRegistry(manager *casesync.Manager, remote storage.RemoteStore, presence PresenceTracker) *Registry {
	return &Registry{
		manager:  manager,
		remote:   remote,
		presence: presence,
		sessions: make(map[key]*Session),
	}
}

// Open returns the actor's session for caseID, loading the case and
// subscribing to its team chat on first use. A chat subscription failure
// leaves the session usable with chat unsubscribed.
func (r *Registry) Open(ctx context.Context, actor models.Officer, caseID string) (*Session, error) {
	k := key{officerID: actor.ID, caseID: caseID}
	if s, ok := r.lookup(k); ok {
		return s, nil
	}

	c, err := r.manager.Load(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("open case %s: %w", caseID, err)
	}
	s := newSession(actor, c, r.remote)
	if err := s.Chat.Subscribe(ctx, caseID, c.TeamMessages); err != nil {
		log.Printf("WARNING: Case %s opened without live team chat: %v", caseID, err)
	}

	r.mu.Lock()
	if existing, ok := r.sessions[k]; ok {
		r.mu.Unlock()
		s.Close()
		return existing, nil
	}
	r.sessions[k] = s
	r.mu.Unlock()

	_, err = r.manager.LogActivity(ctx, caseID, models.ActivityLogEntry{
		UserID:   actor.ID,
		UserName: actor.Name,
		Action:   config.ActivityActions["open"],
		Target:   c.Name,
		Type:     models.ActivityAccess,
	})
	if err != nil {
		log.Printf("WARNING: Opening of case %s not recorded in activity log: %v", caseID, err)
	}
	if r.presence != nil {
		if err := r.presence.MarkOnline(ctx, actor.ID); err != nil {
			log.Printf("WARNING: Failed to mark officer %s online: %v", actor.ID, err)
		}
	}
	return s, nil
}

// Get returns an already open session.
func (r *Registry) Get(officerID, caseID string) (*Session, error) {
	if s, ok := r.lookup(key{officerID: officerID, caseID: caseID}); ok {
		return s, nil
	}
	return nil, ErrNoSession
}

func (r *Registry) lookup(k key) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[k]
	return s, ok
}

// Close ends the officer's session for caseID if one is open.
func (r *Registry) Close(ctx context.Context, officerID, caseID string) {
	k := key{officerID: officerID, caseID: caseID}
	r.mu.Lock()
	s, ok := r.sessions[k]
	delete(r.sessions, k)
	stillOnline := r.hasOfficerLocked(officerID)
	r.mu.Unlock()

	if !ok {
		return
	}
	s.Close()
	if r.presence != nil && !stillOnline {
		if err := r.presence.MarkOffline(ctx, officerID); err != nil {
			log.Printf("WARNING: Failed to mark officer %s offline: %v", officerID, err)
		}
	}
}

// CloseCase ends every session on caseID, as after the case is deleted.
func (r *Registry) CloseCase(ctx context.Context, caseID string) {
	r.mu.Lock()
	var officers []string
	for k := range r.sessions {
		if k.caseID == caseID {
			officers = append(officers, k.officerID)
		}
	}
	r.mu.Unlock()

	for _, id := range officers {
		r.Close(ctx, id, caseID)
	}
}

// CloseAll ends every session.
func (r *Registry) CloseAll(ctx context.Context) {
	r.mu.Lock()
	keys := make([]key, 0, len(r.sessions))
	for k := range r.sessions {
		keys = append(keys, k)
	}
	r.mu.Unlock()

	for _, k := range keys {
		r.Close(ctx, k.officerID, k.caseID)
	}
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) hasOfficerLocked(officerID string) bool {
	for k := range r.sessions {
		if k.officerID == officerID {
			return true
		}
	}
	return false
}
