package models

const (
	InsightReport   = "report"
	InsightAnalysis = "analysis"
	InsightSummary  = "summary"
)

// Insight is a persisted AI-generated report or analysis for a case.
type Insight struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	GeneratedBy string `json:"generatedBy"`
	Timestamp   string `json:"timestamp"`
}

// AIChatMessage is one turn of the case assistant conversation.
type AIChatMessage struct {
	ID        string `json:"id"`
	Role      string `json:"role"` // "user" or "model"
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}
