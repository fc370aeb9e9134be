// Package storagetest provides an in-memory storage.RemoteStore for tests.
package storagetest

import (
	"context"
	"fmt"
	"forensiai/backend/internal/models"
	"forensiai/backend/internal/storage"
	"slices"
	"sync"
)

// Op names a RemoteStore method for failure injection.
type Op string

const (
	OpInsert    Op = "insert"
	OpUpsert    Op = "upsert"
	OpDelete    Op = "delete"
	OpSelect    Op = "select"
	OpSubscribe Op = "subscribe"
)

// Store keeps rows per table in insertion order. Deleting a case removes
// every row whose case_id points at it, as the production schema does.
type Store struct {
	mu     sync.Mutex
	tables map[string][]storage.Row
	fail   map[string]error
	subs   []*subscription
	calls  []string
	// Hook, when set, runs before every operation outside the lock.
	Hook func(op Op, table string)
}

func New() *Store {
	return &Store{
		tables: make(map[string][]storage.Row),
		fail:   make(map[string]error),
	}
}

func failKey(op Op, table string) string { return string(op) + ":" + table }

// Fail makes every later op on table return err. A nil err clears it.
func (s *Store) Fail(op Op, table string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, failKey(op, table))
		return
	}
	s.fail[failKey(op, table)] = err
}

// Rows returns a copy of table's rows.
func (s *Store) Rows(table string) []storage.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRows(s.tables[table])
}

// Seed appends rows without notifying subscribers.
func (s *Store) Seed(table string, rows ...storage.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = append(s.tables[table], copyRows(rows)...)
}

// Calls lists "op:table" for every operation in call order.
func (s *Store) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// Push delivers ev to matching subscribers as if another client wrote it.
func (s *Store) Push(ev storage.ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifyLocked(ev)
}

// Subscribers reports how many subscriptions are open.
func (s *Store) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Break ends every open subscription stream as if the connection dropped.
func (s *Store) Break() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		sub.end()
	}
	s.subs = nil
}

func (s *Store) begin(op Op, table string) error {
	if s.Hook != nil {
		s.Hook(op, table)
	}
	s.mu.Lock()
	s.calls = append(s.calls, failKey(op, table))
	return s.fail[failKey(op, table)]
}

func (s *Store) Insert(_ context.Context, table string, rows []storage.Row) error {
	err := s.begin(OpInsert, table)
	defer s.mu.Unlock()
	if err != nil {
		return err
	}
	for _, r := range rows {
		if s.indexLocked(table, []string{"id"}, r) >= 0 {
			return fmt.Errorf("insert %s: duplicate id %v", table, r["id"])
		}
	}
	for _, r := range copyRows(rows) {
		s.tables[table] = append(s.tables[table], r)
		s.notifyLocked(storage.ChangeEvent{Table: table, Operation: storage.OpInsert, Row: r})
	}
	return nil
}

func (s *Store) Upsert(_ context.Context, table string, rows []storage.Row, conflictKey ...string) error {
	err := s.begin(OpUpsert, table)
	defer s.mu.Unlock()
	if err != nil {
		return err
	}
	if len(conflictKey) == 0 {
		conflictKey = []string{"id"}
	}
	for _, r := range copyRows(rows) {
		if i := s.indexLocked(table, conflictKey, r); i >= 0 {
			for k, v := range r {
				s.tables[table][i][k] = v
			}
			continue
		}
		s.tables[table] = append(s.tables[table], r)
	}
	return nil
}

func (s *Store) DeleteWhere(_ context.Context, table string, where storage.Predicate) error {
	err := s.begin(OpDelete, table)
	defer s.mu.Unlock()
	if err != nil {
		return err
	}
	if where.Empty() {
		return fmt.Errorf("delete %s: empty predicate", table)
	}
	var removedCases []any
	s.tables[table] = slices.DeleteFunc(s.tables[table], func(r storage.Row) bool {
		if !where.Matches(r) {
			return false
		}
		if table == models.TableCases {
			removedCases = append(removedCases, r["id"])
		}
		return true
	})
	for _, id := range removedCases {
		for t := range s.tables {
			if t == models.TableCases {
				continue
			}
			s.tables[t] = slices.DeleteFunc(s.tables[t], storage.Where("case_id", id).Matches)
		}
	}
	return nil
}

func (s *Store) SelectWhere(_ context.Context, table string, where storage.Predicate) ([]storage.Row, error) {
	err := s.begin(OpSelect, table)
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var out []storage.Row
	for _, r := range s.tables[table] {
		if where.Matches(r) {
			out = append(out, copyRow(r))
		}
	}
	return out, nil
}

func (s *Store) SubscribeInsert(_ context.Context, table string, filter storage.Predicate) (storage.Subscription, error) {
	err := s.begin(OpSubscribe, table)
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	sub := &subscription{
		store:  s,
		table:  table,
		filter: filter,
		events: make(chan storage.ChangeEvent, 256),
	}
	s.subs = append(s.subs, sub)
	return sub, nil
}

func (s *Store) notifyLocked(ev storage.ChangeEvent) {
	for _, sub := range s.subs {
		if sub.table == ev.Table && sub.filter.Matches(ev.Row) {
			sub.events <- storage.ChangeEvent{Table: ev.Table, Operation: ev.Operation, Row: copyRow(ev.Row)}
		}
	}
}

func (s *Store) indexLocked(table string, key []string, r storage.Row) int {
	return slices.IndexFunc(s.tables[table], func(existing storage.Row) bool {
		for _, k := range key {
			if fmt.Sprint(existing[k]) != fmt.Sprint(r[k]) {
				return false
			}
		}
		return true
	})
}

type subscription struct {
	store  *Store
	table  string
	filter storage.Predicate
	events chan storage.ChangeEvent
	once   sync.Once
}

func (s *subscription) Events() <-chan storage.ChangeEvent { return s.events }

func (s *subscription) Close() error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.subs = slices.DeleteFunc(s.store.subs, func(o *subscription) bool { return o == s })
	s.end()
	return nil
}

func (s *subscription) end() {
	s.once.Do(func() { close(s.events) })
}

func copyRow(r storage.Row) storage.Row {
	c := make(storage.Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

func copyRows(rows []storage.Row) []storage.Row {
	out := make([]storage.Row, len(rows))
	for i, r := range rows {
		out[i] = copyRow(r)
	}
	return out
}
