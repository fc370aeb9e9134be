package config

import "time"

const (
	// Media
	MediaBucket        = "evidence-media"
	MaxInlineURLLength = 500000
	MediaUploadTimeout = 30 * time.Second

	// Realtime
	ChangeChannelPrefix = "changes:"
	PostgresNotifyName  = "evidence_changes"
	FeedBufferSize      = 64
	ClientBufferSize    = 256

	// Sync
	LoadTimeout  = 20 * time.Second
	WriteTimeout = 15 * time.Second
	// CaseIDAttempts bounds the draws for an unused generated case id.
	CaseIDAttempts = 8

	// Session
	TokenTTL      = 12 * time.Hour
	TokenIssuer   = "forensiai-backend"
	SystemActorID = "system"

	// AI
	AnalysisTemperature = 0.2
	ReportTemperature   = 0.3
)

// ActivityActions are the audit labels written by the sync layer.
var ActivityActions = map[string]string{
	"import": "Imported UFDR",
	"open":   "Opened Case",
	"report": "Generated Report",
}
