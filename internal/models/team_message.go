package models

const (
	TeamMessageText  = "text"
	TeamMessageFile  = "file"
	TeamMessageAlert = "alert"
)

// TeamMessage is a case-scoped chat message between investigators.
// ID is generated by the sender and is the deduplication key for echoes
// coming back through the change feed.
type TeamMessage struct {
	ID        string `json:"id"`
	SenderID  string `json:"senderId"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"` // "text", "file", "alert"
	FileName  string `json:"fileName,omitempty"`
}
