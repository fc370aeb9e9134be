package models

const (
	ActivityAccess = "access"
	ActivityEdit   = "edit"
	ActivityFlag   = "flag"
	ActivitySystem = "system"
)

// ActivityLogEntry is an append-only audit record.
type ActivityLogEntry struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Action    string `json:"action"`
	Target    string `json:"target"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
}
