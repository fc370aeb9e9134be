package storage

import (
	"context"
	"fmt"
	"log"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Insert appends rows and publishes one INSERT event per row.
func (s *Service) Insert(ctx context.Context, table string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	model, err := s.model(table)
	if err != nil {
		return err
	}

	if err := s.DB.WithContext(ctx).Model(model).Create(copyRows(rows)).Error; err != nil {
		log.Printf("ERROR: Failed to insert %d rows into %s: %v", len(rows), table, err)
		return fmt.Errorf("insert %s: %w", table, err)
	}

	s.publish(ctx, table, rows)
	return nil
}

// Upsert writes rows, updating every non-key column present in the rows
// when conflictKey already exists.
func (s *Service) Upsert(ctx context.Context, table string, rows []Row, conflictKey ...string) error {
	if len(rows) == 0 {
		return nil
	}
	model, err := s.model(table)
	if err != nil {
		return err
	}
	if len(conflictKey) == 0 {
		conflictKey = []string{"id"}
	}

	onConflict := clause.OnConflict{}
	for _, k := range conflictKey {
		onConflict.Columns = append(onConflict.Columns, clause.Column{Name: k})
	}
	if updates := updateColumns(rows, conflictKey); len(updates) > 0 {
		onConflict.DoUpdates = clause.AssignmentColumns(updates)
	} else {
		onConflict.DoNothing = true
	}

	err = s.DB.WithContext(ctx).Model(model).Clauses(onConflict).Create(copyRows(rows)).Error
	if err != nil {
		log.Printf("ERROR: Failed to upsert %d rows into %s: %v", len(rows), table, err)
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	return nil
}

// DeleteWhere removes every row matching where. An empty predicate is
// rejected rather than clearing the table.
func (s *Service) DeleteWhere(ctx context.Context, table string, where Predicate) error {
	model, err := s.model(table)
	if err != nil {
		return err
	}
	if where.Empty() {
		return fmt.Errorf("delete %s: %w", table, gorm.ErrMissingWhereClause)
	}

	if err := applyPredicate(s.DB.WithContext(ctx), where).Delete(model).Error; err != nil {
		log.Printf("ERROR: Failed to delete from %s: %v", table, err)
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

// SelectWhere returns matching rows in storage order.
func (s *Service) SelectWhere(ctx context.Context, table string, where Predicate) ([]Row, error) {
	model, err := s.model(table)
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	if err := applyPredicate(s.DB.WithContext(ctx).Model(model), where).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	return out, nil
}

// SubscribeInsert opens an insert stream for table via the change feed.
func (s *Service) SubscribeInsert(ctx context.Context, table string, filter Predicate) (Subscription, error) {
	if s.Feed == nil {
		return nil, ErrNoFeed
	}
	if _, err := s.model(table); err != nil {
		return nil, err
	}
	return s.Feed.Subscribe(ctx, table, filter)
}

func (s *Service) publish(ctx context.Context, table string, rows []Row) {
	if s.Feed == nil {
		return
	}
	for _, r := range rows {
		ev := ChangeEvent{Table: table, Operation: OpInsert, Row: r}
		if err := s.Feed.Publish(ctx, ev); err != nil {
			// The row is stored; only live listeners miss it.
			log.Printf("WARNING: Failed to publish insert on %s: %v", table, err)
		}
	}
}

func applyPredicate(db *gorm.DB, where Predicate) *gorm.DB {
	for _, k := range sortedKeys(where.Eq) {
		db = db.Where(clause.Eq{Column: clause.Column{Name: k}, Value: where.Eq[k]})
	}
	for _, k := range sortedKeys(where.NotEq) {
		db = db.Where(clause.Neq{Column: clause.Column{Name: k}, Value: where.NotEq[k]})
	}
	return db
}

// updateColumns is the union of row columns minus the conflict key.
func updateColumns(rows []Row, conflictKey []string) []string {
	seen := make(map[string]any)
	for _, r := range rows {
		for k := range r {
			if !slices.Contains(conflictKey, k) {
				seen[k] = nil
			}
		}
	}
	return sortedKeys(seen)
}

// GORM may write defaults back into map rows; callers keep their own.
func copyRows(rows []Row) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		c := make(map[string]any, len(r))
		for k, v := range r {
			c[k] = v
		}
		out[i] = c
	}
	return out
}
