package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"forensiai/backend/internal/models"
	"log"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const idxEvidence = "evidence"

var ErrUnavailable = errors.New("search index unavailable")

// Meili indexes evidence in Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili connects and configures the evidence index. An unreachable
// server is retried in the background; callers proceed without search.
func NewMeili(url, apiKey string) *Meili {
	m := &Meili{
		client: meili.New(url, meili.WithAPIKey(apiKey)),
		done:   make(chan struct{}),
	}

	if _, err := m.client.Health(); err != nil {
		log.Printf("WARNING: Meilisearch unavailable at %s: %v", url, err)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{Uid: idxEvidence, PrimaryKey: "id"}); err != nil {
		log.Printf("INFO: create index %s (may already exist): %v", idxEvidence, err)
	}

	index := m.client.Index(idxEvidence)
	filterable := []interface{}{"caseId", "kind"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("WARNING: update filterable attrs for %s: %v", idxEvidence, err)
	}
	searchable := []string{"title", "body"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("WARNING: update searchable attrs for %s: %v", idxEvidence, err)
	}
	sortable := []string{"timestamp"}
	if _, err := index.UpdateSortableAttributes(&sortable); err != nil {
		log.Printf("WARNING: update sortable attrs for %s: %v", idxEvidence, err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("INFO: Meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// IndexCase replaces the indexed documents of c with its current evidence.
func (m *Meili) IndexCase(ctx context.Context, c *models.Case) error {
	if !m.Healthy() {
		return ErrUnavailable
	}
	if err := m.DeleteCase(ctx, c.ID); err != nil {
		return err
	}
	docs := Documents(c)
	if len(docs) == 0 {
		return nil
	}
	if _, err := m.client.Index(idxEvidence).AddDocuments(docs, nil); err != nil {
		return fmt.Errorf("index case %s: %w", c.ID, err)
	}
	return nil
}

// DeleteCase removes the documents of caseID, up to the index's hit cap.
func (m *Meili) DeleteCase(ctx context.Context, caseID string) error {
	if !m.Healthy() {
		return ErrUnavailable
	}
	index := m.client.Index(idxEvidence)
	resp, err := index.Search("", &meili.SearchRequest{
		Filter:               caseFilter(caseID),
		Limit:                1000,
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return fmt.Errorf("list case %s documents: %w", caseID, err)
	}
	for _, hit := range resp.Hits {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := index.DeleteDocument(decodeString(hit, "id"), nil); err != nil {
			return fmt.Errorf("delete case %s documents: %w", caseID, err)
		}
	}
	return nil
}

// Search finds evidence in caseID matching text, oldest first.
func (m *Meili) Search(ctx context.Context, caseID, text string, limit int) ([]Result, error) {
	if !m.Healthy() {
		return nil, ErrUnavailable
	}
	if limit <= 0 {
		limit = 20
	}
	resp, err := m.client.Index(idxEvidence).Search(text, &meili.SearchRequest{
		Filter:                caseFilter(caseID),
		Limit:                 int64(limit),
		AttributesToHighlight: []string{"title", "body"},
		HighlightPreTag:       "<mark>",
		HighlightPostTag:      "</mark>",
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	results := make([]Result, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		results = append(results, hitToResult(hit))
	}
	return results, nil
}

func caseFilter(caseID string) string {
	return fmt.Sprintf("caseId = %q", caseID)
}

func hitToResult(hit meili.Hit) Result {
	return Result{
		CaseID:     decodeString(hit, "caseId"),
		Kind:       decodeString(hit, "kind"),
		EvidenceID: decodeString(hit, "evidenceId"),
		Timestamp:  decodeString(hit, "timestamp"),
		Title:      firstNonBlank(decodeFormattedString(hit, "title"), decodeString(hit, "title")),
		Snippet:    firstNonBlank(decodeFormattedString(hit, "body"), decodeString(hit, "body")),
	}
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeFormattedString(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]string
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	return strings.TrimSpace(formatted[key])
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
