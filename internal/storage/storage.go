package storage

import (
	"context"
	"errors"
	"fmt"
	"forensiai/backend/internal/models"
	"sort"

	"gorm.io/gorm"
)

var (
	ErrUnknownTable = errors.New("unknown table")
	ErrNoFeed       = errors.New("no change feed configured")
)

// Row is a flat column -> value record.
type Row = map[string]any

const (
	OpInsert = "INSERT"
)

// ChangeEvent is one row change pushed by a feed.
type ChangeEvent struct {
	Table     string `json:"table"`
	Operation string `json:"operation"`
	Row       Row    `json:"row"`
}

// Subscription delivers change events until closed. The events channel is
// closed when the underlying stream ends.
type Subscription interface {
	Events() <-chan ChangeEvent
	Close() error
}

// RemoteStore is the contract every persistence collaborator satisfies.
// Calls are independent: there is no transaction spanning two of them.
type RemoteStore interface {
	Insert(ctx context.Context, table string, rows []Row) error
	Upsert(ctx context.Context, table string, rows []Row, conflictKey ...string) error
	DeleteWhere(ctx context.Context, table string, where Predicate) error
	SelectWhere(ctx context.Context, table string, where Predicate) ([]Row, error)
	SubscribeInsert(ctx context.Context, table string, filter Predicate) (Subscription, error)
}

// ChangeFeed carries insert notifications between processes.
type ChangeFeed interface {
	Publish(ctx context.Context, ev ChangeEvent) error
	Subscribe(ctx context.Context, table string, filter Predicate) (Subscription, error)
}

// Service implements RemoteStore on top of GORM plus an optional change feed.
type Service struct {
	DB   *gorm.DB
	Feed ChangeFeed

	tables map[string]any
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, feed ChangeFeed) *Service {
	tables := make(map[string]any)
	for _, m := range models.AllRows() {
		if t, ok := m.(interface{ TableName() string }); ok {
			tables[t.TableName()] = m
		}
	}
	return &Service{DB: db, Feed: feed, tables: tables}
}

func (s *Service) model(table string) (any, error) {
	m, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	return m, nil
}

// Predicate is a conjunction of column equality and inequality tests.
type Predicate struct {
	Eq    map[string]any
	NotEq map[string]any
}

// Where starts a predicate with column = value.
func Where(column string, value any) Predicate {
	return Predicate{}.And(column, value)
}

func (p Predicate) And(column string, value any) Predicate {
	eq := make(map[string]any, len(p.Eq)+1)
	for k, v := range p.Eq {
		eq[k] = v
	}
	eq[column] = value
	p.Eq = eq
	return p
}

func (p Predicate) AndNot(column string, value any) Predicate {
	neq := make(map[string]any, len(p.NotEq)+1)
	for k, v := range p.NotEq {
		neq[k] = v
	}
	neq[column] = value
	p.NotEq = neq
	return p
}

// Empty reports whether the predicate has no terms.
func (p Predicate) Empty() bool {
	return len(p.Eq) == 0 && len(p.NotEq) == 0
}

// Matches evaluates p against r. Values are compared by their printed form
// since rows decoded from JSON carry float64 where the database had integers.
func (p Predicate) Matches(r Row) bool {
	for k, v := range p.Eq {
		if fmt.Sprint(r[k]) != fmt.Sprint(v) {
			return false
		}
	}
	for k, v := range p.NotEq {
		if fmt.Sprint(r[k]) == fmt.Sprint(v) {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
