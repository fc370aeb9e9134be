// Package search indexes case evidence for full-text lookup.
package search

import (
	"fmt"
	"forensiai/backend/internal/models"
	"forensiai/backend/internal/timeline"
	"regexp"
	"strings"
)

// Document is one indexed evidence item.
type Document struct {
	ID         string `json:"id"`
	CaseID     string `json:"caseId"`
	Kind       string `json:"kind"`
	EvidenceID string `json:"evidenceId"`
	Timestamp  string `json:"timestamp"`
	Title      string `json:"title"`
	Body       string `json:"body"`
}

// Result is one search hit.
type Result struct {
	CaseID     string `json:"caseId"`
	Kind       string `json:"kind"`
	EvidenceID string `json:"evidenceId"`
	Timestamp  string `json:"timestamp"`
	Title      string `json:"title"`
	Snippet    string `json:"snippet"`
}

var invalidIDChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// DocumentID derives an index-safe primary key.
func DocumentID(caseID string, kind models.Kind, evidenceID string) string {
	return invalidIDChars.ReplaceAllString(caseID+"_"+string(kind)+"_"+evidenceID, "-")
}

// Documents flattens a case's timeline into index documents.
func Documents(c *models.Case) []Document {
	var docs []Document
	for ev := range timeline.Assemble(c) {
		doc := Document{
			ID:         DocumentID(c.ID, ev.Kind, ev.ID()),
			CaseID:     c.ID,
			Kind:       string(ev.Kind),
			EvidenceID: ev.ID(),
			Timestamp:  ev.Timestamp,
		}
		switch {
		case ev.Call != nil:
			doc.Title = fmt.Sprintf("%s call %s → %s", ev.Call.Type, ev.Call.From, ev.Call.To)
		case ev.Message != nil:
			doc.Title = fmt.Sprintf("%s %s → %s", ev.Message.App, ev.Message.From, ev.Message.To)
			doc.Body = ev.Message.Content
		case ev.Location != nil:
			doc.Title = ev.Location.Label
			doc.Body = fmt.Sprintf("%.5f, %.5f", ev.Location.Lat, ev.Location.Lng)
		case ev.Media != nil:
			doc.Title = ev.Media.FileName
			doc.Body = mediaText(ev.Media)
		}
		docs = append(docs, doc)
	}
	return docs
}

func mediaText(m *models.MediaRecord) string {
	var parts []string
	if m.Metadata != nil {
		for _, v := range []string{m.Metadata.Device, m.Metadata.Location, m.Metadata.Dimensions} {
			if v != "" {
				parts = append(parts, v)
			}
		}
	}
	for _, c := range m.Comments {
		parts = append(parts, c.Content)
	}
	return strings.Join(parts, "\n")
}
