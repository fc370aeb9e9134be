package models

import "gorm.io/datatypes"

// The row models below describe the remote schema. Reads and writes go
// through flat key-value rows (see codec.go); these structs exist so the
// store can migrate tables and resolve columns.

// EvidenceKey is the primary key of every evidence table. Evidence ids are
// unique only within a case, so the case id is part of the key.
var EvidenceKey = []string{"case_id", "id"}

type CaseRow struct {
	ID             string `gorm:"primaryKey"`
	Name           string `gorm:"type:text;not null"`
	Device         string
	Owner          string
	ExtractionDate string
	CreatedBy      string
	SyncVersion    int64 `gorm:"not null;default:0"`
}

func (CaseRow) TableName() string { return TableCases }

type CallRow struct {
	CaseID      string `gorm:"primaryKey"`
	ID          string `gorm:"primaryKey"`
	SyncVersion int64  `gorm:"not null;default:0;index"`
	Timestamp   string `gorm:"not null"`
	FromParty   string
	ToParty     string
	Duration    int
	Type        string

	Case *CaseRow `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE"`
}

func (CallRow) TableName() string { return TableCalls }

type MessageRow struct {
	CaseID      string `gorm:"primaryKey"`
	ID          string `gorm:"primaryKey"`
	SyncVersion int64  `gorm:"not null;default:0;index"`
	Timestamp   string `gorm:"not null"`
	FromParty   string
	ToParty     string
	Content     string `gorm:"type:text"`
	App         string

	Case *CaseRow `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE"`
}

func (MessageRow) TableName() string { return TableMessages }

type LocationRow struct {
	CaseID      string `gorm:"primaryKey"`
	ID          string `gorm:"primaryKey"`
	SyncVersion int64  `gorm:"not null;default:0;index"`
	Timestamp   string `gorm:"not null"`
	Lat         float64
	Lng         float64
	Label       string

	Case *CaseRow `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE"`
}

func (LocationRow) TableName() string { return TableLocations }

type MediaRow struct {
	CaseID      string `gorm:"primaryKey"`
	ID          string `gorm:"primaryKey"`
	SyncVersion int64  `gorm:"not null;default:0;index"`
	Timestamp   string
	Type        string
	FileName    string
	// URL is NULL when the bytes never reached durable storage.
	URL      *string `gorm:"type:text"`
	Size     string
	MimeType string
	Metadata datatypes.JSON
	Comments datatypes.JSON

	Case *CaseRow `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE"`
}

func (MediaRow) TableName() string { return TableMedia }

type TeamMessageRow struct {
	ID        string `gorm:"primaryKey"`
	CaseID    string `gorm:"not null;index:idx_team_case_ts"`
	SenderID  string `gorm:"not null"`
	Content   string `gorm:"type:text;not null"`
	Timestamp string `gorm:"index:idx_team_case_ts"`
	Type      string `gorm:"not null"`
	FileName  string

	Case *CaseRow `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE"`
}

func (TeamMessageRow) TableName() string { return TableTeamMessages }

type ActivityRow struct {
	ID        string `gorm:"primaryKey"`
	CaseID    string `gorm:"not null;index"`
	UserID    string
	UserName  string
	Action    string
	Target    string
	Timestamp string
	Type      string

	Case *CaseRow `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE"`
}

func (ActivityRow) TableName() string { return TableActivity }

type InsightRow struct {
	ID          string `gorm:"primaryKey"`
	CaseID      string `gorm:"not null;index"`
	Type        string
	Title       string
	Content     string `gorm:"type:text"`
	GeneratedBy string
	Timestamp   string

	Case *CaseRow `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE"`
}

func (InsightRow) TableName() string { return TableInsights }

type AIChatRow struct {
	ID        string `gorm:"primaryKey"`
	CaseID    string `gorm:"not null;index"`
	Role      string
	Text      string `gorm:"type:text"`
	Timestamp string

	Case *CaseRow `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE"`
}

func (AIChatRow) TableName() string { return TableAIChat }

// AllRows lists every row model in migration order.
func AllRows() []any {
	return []any{
		&CaseRow{},
		&OfficerRow{},
		&CallRow{},
		&MessageRow{},
		&LocationRow{},
		&MediaRow{},
		&TeamMessageRow{},
		&ActivityRow{},
		&InsightRow{},
		&AIChatRow{},
	}
}
