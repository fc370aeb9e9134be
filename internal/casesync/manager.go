// Package casesync reconciles in-memory case snapshots with the remote store.
package casesync

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"forensiai/backend/internal/config"
	"forensiai/backend/internal/models"
	"forensiai/backend/internal/storage"
	"log"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	ErrCaseNotFound = errors.New("case not found")
	// ErrCaseIDExhausted means every generated case id drawn was taken.
	ErrCaseIDExhausted = errors.New("no unused case id")
)

// Strategy selects how evidence tables are replaced on re-ingest.
type Strategy string

const (
	// StrategyReplace deletes a case's rows then writes the new set. A crash
	// in between leaves the table empty for that case.
	StrategyReplace Strategy = "replace"
	// StrategyVersioned writes rows tagged with a new sync version, then
	// prunes rows carrying any other version. Re-running it is safe.
	StrategyVersioned Strategy = "versioned"
)

// ParseStrategy maps a config value to a Strategy, defaulting to replace.
func ParseStrategy(s string) Strategy {
	if Strategy(s) == StrategyVersioned {
		return StrategyVersioned
	}
	return StrategyReplace
}

// MediaUploader moves media bytes to durable storage and returns their URL.
type MediaUploader interface {
	Upload(ctx context.Context, caseID string, m models.MediaRecord, data []byte) (string, error)
}

// Indexer keeps a search index in step with synced cases.
type Indexer interface {
	IndexCase(ctx context.Context, c *models.Case) error
	DeleteCase(ctx context.Context, caseID string) error
}

type Option func(*Manager)

func WithStrategy(s Strategy) Option      { return func(m *Manager) { m.strategy = s } }
func WithUploader(u MediaUploader) Option { return func(m *Manager) { m.uploader = u } }
func WithIndexer(i Indexer) Option        { return func(m *Manager) { m.indexer = i } }

// WithCaseIDs replaces the generator used for cases created without an id.
func WithCaseIDs(next func(time.Time) string) Option {
	return func(m *Manager) { m.newCaseID = next }
}

// Manager creates, loads and deletes cases. With a nil remote store it runs
// offline and the in-process cache is the only copy of each case.
type Manager struct {
	remote    storage.RemoteStore
	uploader  MediaUploader
	indexer   Indexer
	strategy  Strategy
	newCaseID func(time.Time) string

	mu    sync.RWMutex
	cache map[string]*models.Case
}

func NewManager(remote storage.RemoteStore, opts ...Option) *Manager {
	m := &Manager{
		remote:    remote,
		strategy:  StrategyReplace,
		newCaseID: models.NewCaseID,
		cache:     make(map[string]*models.Case),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Offline reports whether the manager has no remote store.
func (m *Manager) Offline() bool { return m.remote == nil }

// Strategy returns the configured replace strategy.
func (m *Manager) Strategy() Strategy { return m.strategy }

// Create writes c to the remote store. It assigns a case id and any missing
// evidence ids in place and replaces durable-uploaded media URLs on c.
// A generated case id is never one already stored.
// The case row is written first; if it fails nothing else is attempted.
// Each evidence table is then written independently and failures are
// collected in the report rather than aborting the others.
func (m *Manager) Create(ctx context.Context, c *models.Case, actor models.Officer) SyncReport {
	ctx, cancel := context.WithTimeout(ctx, config.WriteTimeout)
	defer cancel()

	if c.ID == "" {
		id, err := m.allocateCaseID(ctx)
		if err != nil {
			log.Printf("ERROR: Failed to allocate a case id: %v", err)
			report := SyncReport{Written: make(map[string]int), Offline: m.Offline()}
			report.fail(models.TableCases, StepMetadata, err)
			return report
		}
		c.ID = id
	}
	// Counting restarts per snapshot, so re-ingesting the same extraction
	// yields the same ids.
	models.AssignMissingIDs(c, models.NewIDGenerator())
	report := SyncReport{CaseID: c.ID, Written: make(map[string]int)}

	if m.Offline() {
		report.Offline = true
		m.remember(c)
		return report
	}

	caseRow := models.CaseToRow(c, actor.ID)
	var version int64
	if m.strategy == StrategyVersioned {
		v, err := m.nextVersion(ctx, c.ID)
		if err != nil {
			log.Printf("ERROR: Failed to read sync version for case %s: %v", c.ID, err)
			report.fail(models.TableCases, StepVersion, err)
			m.remember(c)
			return report
		}
		version = v
		caseRow["sync_version"] = version
	}
	if err := m.remote.Upsert(ctx, models.TableCases, []storage.Row{caseRow}, "id"); err != nil {
		log.Printf("ERROR: Failed to write case %s metadata: %v", c.ID, err)
		report.fail(models.TableCases, StepMetadata, err)
		m.remember(c)
		return report
	}

	m.resolveMediaURLs(ctx, c)

	for _, t := range evidenceTables(c) {
		report.Written[t.name] = len(t.rows)
		if err := m.replaceTable(ctx, c.ID, t.name, t.rows, version, &report); err != nil {
			log.Printf("ERROR: Failed to sync %s for case %s: %v", t.name, c.ID, err)
		}
	}

	m.remember(c)

	if m.indexer != nil {
		if err := m.indexer.IndexCase(ctx, c); err != nil {
			log.Printf("WARNING: Failed to index case %s: %v", c.ID, err)
		}
	}
	return report
}

// allocateCaseID draws ids until one is unused.
func (m *Manager) allocateCaseID(ctx context.Context) (string, error) {
	for range config.CaseIDAttempts {
		id := m.newCaseID(time.Now())
		taken, err := m.caseExists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("check case id %s: %w", id, err)
		}
		if !taken {
			return id, nil
		}
		log.Printf("WARNING: Generated case id %s is taken, drawing another", id)
	}
	return "", fmt.Errorf("%w after %d attempts", ErrCaseIDExhausted, config.CaseIDAttempts)
}

func (m *Manager) caseExists(ctx context.Context, caseID string) (bool, error) {
	if m.Offline() {
		_, ok := m.cached(caseID)
		return ok, nil
	}
	rows, err := m.remote.SelectWhere(ctx, models.TableCases, storage.Where("id", caseID))
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Import creates c and records the import in its activity log. source names
// the extraction the snapshot came from.
func (m *Manager) Import(ctx context.Context, c *models.Case, actor models.Officer, source string) SyncReport {
	report := m.Create(ctx, c, actor)
	if report.MetadataFailed() {
		return report
	}
	_, err := m.LogActivity(ctx, c.ID, models.ActivityLogEntry{
		UserID:   actor.ID,
		UserName: actor.Name,
		Action:   config.ActivityActions["import"],
		Target:   source,
		Type:     models.ActivitySystem,
	})
	if err != nil {
		log.Printf("WARNING: Import of case %s not recorded in activity log: %v", c.ID, err)
	}
	return report
}

type tableRows struct {
	name string
	rows []storage.Row
}

func evidenceTables(c *models.Case) []tableRows {
	tables := []tableRows{
		{name: models.TableCalls},
		{name: models.TableMessages},
		{name: models.TableLocations},
		{name: models.TableMedia},
	}
	for _, r := range c.Calls {
		tables[0].rows = append(tables[0].rows, models.CallToRow(c.ID, r))
	}
	for _, r := range c.Messages {
		tables[1].rows = append(tables[1].rows, models.MessageToRow(c.ID, r))
	}
	for _, r := range c.Locations {
		tables[2].rows = append(tables[2].rows, models.LocationToRow(c.ID, r))
	}
	for _, r := range c.Media {
		r.URL = storedURL(r.URL)
		tables[3].rows = append(tables[3].rows, models.MediaToRow(c.ID, r))
	}
	return tables
}

// nextVersion returns the version to tag a versioned sync with.
func (m *Manager) nextVersion(ctx context.Context, caseID string) (int64, error) {
	rows, err := m.remote.SelectWhere(ctx, models.TableCases, storage.Where("id", caseID))
	if err != nil {
		return 0, err
	}
	var current int64
	if len(rows) > 0 {
		current = models.SyncVersionFromRow(rows[0])
	}
	return current + 1, nil
}

func (m *Manager) replaceTable(ctx context.Context, caseID, table string, rows []storage.Row, version int64, report *SyncReport) error {
	scope := storage.Where("case_id", caseID)

	if m.strategy == StrategyVersioned {
		for _, r := range rows {
			r["sync_version"] = version
		}
		if err := m.remote.Upsert(ctx, table, rows, models.EvidenceKey...); err != nil {
			report.fail(table, StepWrite, err)
			return err
		}
		if err := m.remote.DeleteWhere(ctx, table, scope.AndNot("sync_version", version)); err != nil {
			// Stale rows remain until the next sync prunes them.
			report.fail(table, StepPrune, err)
			return err
		}
		return nil
	}

	if err := m.remote.DeleteWhere(ctx, table, scope); err != nil {
		report.fail(table, StepDelete, err)
		return err
	}
	if err := m.remote.Upsert(ctx, table, rows, models.EvidenceKey...); err != nil {
		report.fail(table, StepWrite, err)
		return err
	}
	return nil
}

// Load fetches a case and all its collections. Metadata is required; any
// collection that fails to load is logged and left empty. When the metadata
// read itself fails, the last snapshot this process synced is served.
func (m *Manager) Load(ctx context.Context, caseID string) (*models.Case, error) {
	if m.Offline() {
		if c, ok := m.cached(caseID); ok {
			return c, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrCaseNotFound, caseID)
	}

	ctx, cancel := context.WithTimeout(ctx, config.LoadTimeout)
	defer cancel()

	meta, err := m.remote.SelectWhere(ctx, models.TableCases, storage.Where("id", caseID))
	if err != nil {
		if c, ok := m.cached(caseID); ok {
			log.Printf("WARNING: Failed to load case %s, serving local snapshot: %v", caseID, err)
			return c, nil
		}
		return nil, fmt.Errorf("load case %s: %w", caseID, err)
	}
	if len(meta) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrCaseNotFound, caseID)
	}
	c := models.CaseFromRow(meta[0])

	scope := storage.Where("case_id", caseID)
	var g errgroup.Group
	g.Go(func() error {
		c.Calls = decodeAll(m.fetch(ctx, caseID, models.TableCalls, scope), models.CallFromRow)
		return nil
	})
	g.Go(func() error {
		c.Messages = decodeAll(m.fetch(ctx, caseID, models.TableMessages, scope), models.MessageFromRow)
		return nil
	})
	g.Go(func() error {
		c.Locations = decodeAll(m.fetch(ctx, caseID, models.TableLocations, scope), models.LocationFromRow)
		return nil
	})
	g.Go(func() error {
		c.Media = decodeAll(m.fetch(ctx, caseID, models.TableMedia, scope), mediaFromStoredRow)
		return nil
	})
	g.Go(func() error {
		c.TeamMessages = decodeAll(m.fetch(ctx, caseID, models.TableTeamMessages, scope), models.TeamMessageFromRow)
		return nil
	})
	g.Go(func() error {
		c.ActivityLog = decodeAll(m.fetch(ctx, caseID, models.TableActivity, scope), models.ActivityFromRow)
		return nil
	})
	_ = g.Wait()

	slices.SortStableFunc(c.TeamMessages, func(a, b models.TeamMessage) int {
		return compareTimestamps(a.Timestamp, b.Timestamp)
	})
	slices.SortStableFunc(c.ActivityLog, func(a, b models.ActivityLogEntry) int {
		return compareTimestamps(b.Timestamp, a.Timestamp)
	})

	models.AssignMissingIDs(c, models.NewIDGenerator())
	m.remember(c)
	return c, nil
}

// fetch returns nil on failure after logging it.
func (m *Manager) fetch(ctx context.Context, caseID, table string, where storage.Predicate) []storage.Row {
	rows, err := m.remote.SelectWhere(ctx, table, where)
	if err != nil {
		log.Printf("WARNING: Failed to load %s for case %s, showing none: %v", table, caseID, err)
		return nil
	}
	return rows
}

func decodeAll[T any](rows []storage.Row, decode func(map[string]any) T) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		out = append(out, decode(r))
	}
	return out
}

// mediaFromStoredRow flags media whose bytes never reached durable storage.
func mediaFromStoredRow(r map[string]any) models.MediaRecord {
	media := models.MediaFromRow(r)
	switch models.ClassifyURL(media.URL) {
	case models.URLTransient, models.URLEmpty:
		media.NeedsReextraction = true
		media.URL = ""
	}
	return media
}

func compareTimestamps(a, b string) int {
	ta, okA := models.ParseTimestamp(a)
	tb, okB := models.ParseTimestamp(b)
	if okA && okB {
		return ta.Compare(tb)
	}
	return cmp.Compare(a, b)
}

// Delete removes the case row. Evidence goes with it through the store's
// cascade; nothing is deleted table by table here. The local snapshot is
// dropped only once the store has deleted the case.
func (m *Manager) Delete(ctx context.Context, caseID string) error {
	if m.Offline() {
		m.forget(caseID)
		return nil
	}
	if err := m.remote.DeleteWhere(ctx, models.TableCases, storage.Where("id", caseID)); err != nil {
		log.Printf("ERROR: Failed to delete case %s: %v", caseID, err)
		return fmt.Errorf("delete case %s: %w", caseID, err)
	}
	m.forget(caseID)
	if m.indexer != nil {
		if err := m.indexer.DeleteCase(ctx, caseID); err != nil {
			log.Printf("WARNING: Failed to drop case %s from search index: %v", caseID, err)
		}
	}
	return nil
}

// List returns every stored case, newest extraction first.
func (m *Manager) List(ctx context.Context) ([]models.CaseSummary, error) {
	var out []models.CaseSummary
	if m.Offline() {
		m.mu.RLock()
		for _, c := range m.cache {
			out = append(out, models.CaseSummary{ID: c.ID, Name: c.Name, Device: c.Device, ExtractionDate: c.ExtractionDate})
		}
		m.mu.RUnlock()
	} else {
		rows, err := m.remote.SelectWhere(ctx, models.TableCases, storage.Predicate{})
		if err != nil {
			return nil, fmt.Errorf("list cases: %w", err)
		}
		out = decodeAll(rows, models.CaseSummaryFromRow)
	}
	slices.SortFunc(out, func(a, b models.CaseSummary) int {
		if c := compareTimestamps(b.ExtractionDate, a.ExtractionDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// LogActivity appends an audit entry. Missing id and timestamp are filled.
func (m *Manager) LogActivity(ctx context.Context, caseID string, entry models.ActivityLogEntry) (models.ActivityLogEntry, error) {
	if entry.ID == "" {
		entry.ID = models.NewActivityID()
	}
	if entry.Timestamp == "" {
		entry.Timestamp = models.Now()
	}

	m.mu.Lock()
	if c, ok := m.cache[caseID]; ok {
		c.ActivityLog = append([]models.ActivityLogEntry{entry}, c.ActivityLog...)
	}
	m.mu.Unlock()

	if m.Offline() {
		return entry, nil
	}
	if err := m.remote.Insert(ctx, models.TableActivity, []storage.Row{models.ActivityToRow(caseID, entry)}); err != nil {
		log.Printf("ERROR: Failed to log activity %q for case %s: %v", entry.Action, caseID, err)
		return entry, fmt.Errorf("log activity: %w", err)
	}
	return entry, nil
}

func (m *Manager) remember(c *models.Case) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[c.ID] = c.Clone()
}

func (m *Manager) forget(caseID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, caseID)
}

func (m *Manager) cached(caseID string) (*models.Case, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cache[caseID]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}
