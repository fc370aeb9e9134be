package models

import (
	"strings"
	"time"
)

// Kind identifies an evidence stream.
type Kind string

const (
	KindCall     Kind = "call"
	KindMessage  Kind = "message"
	KindLocation Kind = "location"
	KindMedia    Kind = "media"
)

// Rank is the tie-break precedence used when two records share a timestamp.
func (k Kind) Rank() int {
	switch k {
	case KindCall:
		return 0
	case KindMessage:
		return 1
	case KindLocation:
		return 2
	case KindMedia:
		return 3
	default:
		return 4
	}
}

// Evidence is the identity and ordering contract shared by every evidence kind.
type Evidence interface {
	EvidenceID() string
	EvidenceTimestamp() string
	Kind() Kind
}

// CallRecord is a single call log entry from the extracted device.
type CallRecord struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	From      string `json:"from"`
	To        string `json:"to"`
	// Duration is in seconds.
	Duration int    `json:"duration"`
	Type     string `json:"type"` // "incoming", "outgoing", "missed"
}

func (c CallRecord) EvidenceID() string        { return c.ID }
func (c CallRecord) EvidenceTimestamp() string { return c.Timestamp }
func (c CallRecord) Kind() Kind                { return KindCall }

// MessageRecord is an SMS or messenger message from the extracted device.
type MessageRecord struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	From      string `json:"from"`
	To        string `json:"to"`
	Content   string `json:"content"`
	App       string `json:"app"` // "whatsapp", "sms", "telegram"
}

func (m MessageRecord) EvidenceID() string        { return m.ID }
func (m MessageRecord) EvidenceTimestamp() string { return m.Timestamp }
func (m MessageRecord) Kind() Kind                { return KindMessage }

type LocationRecord struct {
	ID        string  `json:"id"`
	Timestamp string  `json:"timestamp"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Label     string  `json:"label"`
}

func (l LocationRecord) EvidenceID() string        { return l.ID }
func (l LocationRecord) EvidenceTimestamp() string { return l.Timestamp }
func (l LocationRecord) Kind() Kind                { return KindLocation }

// MediaMetadata is the EXIF-style detail block kept as an opaque JSON column.
type MediaMetadata struct {
	Dimensions   string `json:"dimensions,omitempty"`
	Duration     string `json:"duration,omitempty"`
	Device       string `json:"device,omitempty"`
	Location     string `json:"location,omitempty"`
	Aperture     string `json:"aperture,omitempty"`
	ISO          string `json:"iso,omitempty"`
	ShutterSpeed string `json:"shutterSpeed,omitempty"`
	FocalLength  string `json:"focalLength,omitempty"`
	Codec        string `json:"codec,omitempty"`
}

// MediaRecord is an image, video or audio file recovered from the device.
// Comments are append-only.
type MediaRecord struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"`
	Type      string         `json:"type"` // "image", "video", "audio"
	FileName  string         `json:"fileName"`
	URL       string         `json:"url"`
	Size      string         `json:"size"`
	MimeType  string         `json:"mimeType,omitempty"`
	Metadata  *MediaMetadata `json:"metadata,omitempty"`
	Comments  []CaseComment  `json:"comments"`

	// NeedsReextraction is set on load when the stored URL was a
	// process-local handle that can no longer be resolved.
	NeedsReextraction bool `json:"needsReextraction,omitempty"`
	// Blob holds the extracted bytes for the current process only.
	Blob []byte `json:"-"`
}

func (m MediaRecord) EvidenceID() string        { return m.ID }
func (m MediaRecord) EvidenceTimestamp() string { return m.Timestamp }
func (m MediaRecord) Kind() Kind                { return KindMedia }

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses an ISO-8601 evidence timestamp.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
