package models

// CaseComment is an investigator note attached to one evidence item.
// Comments are never edited or deleted, only appended.
type CaseComment struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	Content    string `json:"content"`
	Timestamp  string `json:"timestamp"`
	EvidenceID string `json:"evidenceId"`
}
