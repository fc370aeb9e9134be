package models

import "slices"

// Table names in the remote store.
const (
	TableCases        = "cases"
	TableCalls        = "evidence_calls"
	TableMessages     = "evidence_messages"
	TableLocations    = "evidence_locations"
	TableMedia        = "evidence_media"
	TableTeamMessages = "team_messages"
	TableActivity     = "activity_logs"
	TableOfficers     = "officers"
	TableInsights     = "ai_insights"
	TableAIChat       = "ai_chat_logs"
)

// Case is the in-memory snapshot of one investigation.
type Case struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Device         string `json:"device"`
	Owner          string `json:"owner"`
	ExtractionDate string `json:"extractionDate"`

	Calls        []CallRecord       `json:"calls"`
	Messages     []MessageRecord    `json:"messages"`
	Locations    []LocationRecord   `json:"locations"`
	Media        []MediaRecord      `json:"media"`
	TeamMessages []TeamMessage      `json:"teamMessages"`
	ActivityLog  []ActivityLogEntry `json:"activityLog"`
}

// CaseSummary is the listing view of a case.
type CaseSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Device         string `json:"device"`
	ExtractionDate string `json:"extractionDate"`
}

// MediaByID returns a pointer into c.Media, or nil.
func (c *Case) MediaByID(id string) *MediaRecord {
	for i := range c.Media {
		if c.Media[i].ID == id {
			return &c.Media[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the snapshot so callers can read it
// without holding the owner's lock.
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	out := *c
	out.Calls = slices.Clone(c.Calls)
	out.Messages = slices.Clone(c.Messages)
	out.Locations = slices.Clone(c.Locations)
	out.TeamMessages = slices.Clone(c.TeamMessages)
	out.ActivityLog = slices.Clone(c.ActivityLog)
	if c.Media == nil {
		return &out
	}
	out.Media = make([]MediaRecord, len(c.Media))
	for i, m := range c.Media {
		m.Comments = slices.Clone(m.Comments)
		if m.Metadata != nil {
			meta := *m.Metadata
			m.Metadata = &meta
		}
		out.Media[i] = m
	}
	return &out
}
