package models

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"gorm.io/datatypes"
)

// Rows are flat column -> value maps, the shape the remote store speaks.
// Decoders accept whatever scalar representation the driver hands back.

func CaseToRow(c *Case, createdBy string) map[string]any {
	return map[string]any{
		"id":              c.ID,
		"name":            c.Name,
		"device":          c.Device,
		"owner":           c.Owner,
		"extraction_date": c.ExtractionDate,
		"created_by":      createdBy,
	}
}

func CaseFromRow(r map[string]any) *Case {
	return &Case{
		ID:             rowString(r, "id"),
		Name:           rowString(r, "name"),
		Device:         rowString(r, "device"),
		Owner:          rowString(r, "owner"),
		ExtractionDate: rowString(r, "extraction_date"),
	}
}

func CaseSummaryFromRow(r map[string]any) CaseSummary {
	return CaseSummary{
		ID:             rowString(r, "id"),
		Name:           rowString(r, "name"),
		Device:         rowString(r, "device"),
		ExtractionDate: rowString(r, "extraction_date"),
	}
}

// SyncVersionFromRow reads the sync_version column of a case row.
func SyncVersionFromRow(r map[string]any) int64 {
	return rowInt64(r, "sync_version")
}

func CallToRow(caseID string, c CallRecord) map[string]any {
	return map[string]any{
		"id":         c.ID,
		"case_id":    caseID,
		"timestamp":  c.Timestamp,
		"from_party": c.From,
		"to_party":   c.To,
		"duration":   c.Duration,
		"type":       c.Type,
	}
}

func CallFromRow(r map[string]any) CallRecord {
	return CallRecord{
		ID:        rowString(r, "id"),
		Timestamp: rowString(r, "timestamp"),
		From:      rowString(r, "from_party"),
		To:        rowString(r, "to_party"),
		Duration:  int(rowInt64(r, "duration")),
		Type:      rowString(r, "type"),
	}
}

func MessageToRow(caseID string, m MessageRecord) map[string]any {
	return map[string]any{
		"id":         m.ID,
		"case_id":    caseID,
		"timestamp":  m.Timestamp,
		"from_party": m.From,
		"to_party":   m.To,
		"content":    m.Content,
		"app":        m.App,
	}
}

func MessageFromRow(r map[string]any) MessageRecord {
	return MessageRecord{
		ID:        rowString(r, "id"),
		Timestamp: rowString(r, "timestamp"),
		From:      rowString(r, "from_party"),
		To:        rowString(r, "to_party"),
		Content:   rowString(r, "content"),
		App:       rowString(r, "app"),
	}
}

func LocationToRow(caseID string, l LocationRecord) map[string]any {
	return map[string]any{
		"id":        l.ID,
		"case_id":   caseID,
		"timestamp": l.Timestamp,
		"lat":       l.Lat,
		"lng":       l.Lng,
		"label":     l.Label,
	}
}

func LocationFromRow(r map[string]any) LocationRecord {
	return LocationRecord{
		ID:        rowString(r, "id"),
		Timestamp: rowString(r, "timestamp"),
		Lat:       rowFloat64(r, "lat"),
		Lng:       rowFloat64(r, "lng"),
		Label:     rowString(r, "label"),
	}
}

// MediaToRow encodes m. The caller decides the stored URL; an empty URL is
// written as NULL.
func MediaToRow(caseID string, m MediaRecord) map[string]any {
	var url any
	if m.URL != "" {
		url = m.URL
	}
	var metadata any
	if m.Metadata != nil {
		metadata = mustJSON(m.Metadata)
	}
	comments := m.Comments
	if comments == nil {
		comments = []CaseComment{}
	}
	return map[string]any{
		"id":        m.ID,
		"case_id":   caseID,
		"timestamp": m.Timestamp,
		"type":      m.Type,
		"file_name": m.FileName,
		"url":       url,
		"size":      m.Size,
		"mime_type": m.MimeType,
		"metadata":  metadata,
		"comments":  mustJSON(comments),
	}
}

func MediaFromRow(r map[string]any) MediaRecord {
	m := MediaRecord{
		ID:        rowString(r, "id"),
		Timestamp: rowString(r, "timestamp"),
		Type:      rowString(r, "type"),
		FileName:  rowString(r, "file_name"),
		URL:       rowString(r, "url"),
		Size:      rowString(r, "size"),
		MimeType:  rowString(r, "mime_type"),
		Comments:  []CaseComment{},
	}
	var meta MediaMetadata
	if ok, err := rowJSON(r, "metadata", &meta); err != nil {
		log.Printf("WARNING: media %s has unreadable metadata: %v", m.ID, err)
	} else if ok {
		m.Metadata = &meta
	}
	if _, err := rowJSON(r, "comments", &m.Comments); err != nil {
		log.Printf("WARNING: media %s has unreadable comments, treating as empty: %v", m.ID, err)
		m.Comments = []CaseComment{}
	}
	if m.Comments == nil {
		m.Comments = []CaseComment{}
	}
	return m
}

// MediaCommentsRow is the partial row used to overwrite a media item's
// comment list.
func MediaCommentsRow(caseID, mediaID string, comments []CaseComment) map[string]any {
	if comments == nil {
		comments = []CaseComment{}
	}
	return map[string]any{
		"id":       mediaID,
		"case_id":  caseID,
		"comments": mustJSON(comments),
	}
}

func TeamMessageToRow(caseID string, m TeamMessage) map[string]any {
	return map[string]any{
		"id":        m.ID,
		"case_id":   caseID,
		"sender_id": m.SenderID,
		"content":   m.Content,
		"timestamp": m.Timestamp,
		"type":      m.Type,
		"file_name": m.FileName,
	}
}

func TeamMessageFromRow(r map[string]any) TeamMessage {
	return TeamMessage{
		ID:        rowString(r, "id"),
		SenderID:  rowString(r, "sender_id"),
		Content:   rowString(r, "content"),
		Timestamp: rowString(r, "timestamp"),
		Type:      rowString(r, "type"),
		FileName:  rowString(r, "file_name"),
	}
}

func ActivityToRow(caseID string, a ActivityLogEntry) map[string]any {
	return map[string]any{
		"id":        a.ID,
		"case_id":   caseID,
		"user_id":   a.UserID,
		"user_name": a.UserName,
		"action":    a.Action,
		"target":    a.Target,
		"timestamp": a.Timestamp,
		"type":      a.Type,
	}
}

func ActivityFromRow(r map[string]any) ActivityLogEntry {
	return ActivityLogEntry{
		ID:        rowString(r, "id"),
		UserID:    rowString(r, "user_id"),
		UserName:  rowString(r, "user_name"),
		Action:    rowString(r, "action"),
		Target:    rowString(r, "target"),
		Timestamp: rowString(r, "timestamp"),
		Type:      rowString(r, "type"),
	}
}

func OfficerFromRow(r map[string]any) Officer {
	return Officer{
		ID:     rowString(r, "id"),
		Name:   rowString(r, "name"),
		Role:   rowString(r, "role"),
		Avatar: rowString(r, "avatar"),
		Online: rowBool(r, "online"),
	}
}

// OfficerTokenHashFromRow reads the stored access token hash.
func OfficerTokenHashFromRow(r map[string]any) string {
	return rowString(r, "token_hash")
}

func InsightToRow(caseID string, in Insight) map[string]any {
	return map[string]any{
		"id":           in.ID,
		"case_id":      caseID,
		"type":         in.Type,
		"title":        in.Title,
		"content":      in.Content,
		"generated_by": in.GeneratedBy,
		"timestamp":    in.Timestamp,
	}
}

func InsightFromRow(r map[string]any) Insight {
	return Insight{
		ID:          rowString(r, "id"),
		Type:        rowString(r, "type"),
		Title:       rowString(r, "title"),
		Content:     rowString(r, "content"),
		GeneratedBy: rowString(r, "generated_by"),
		Timestamp:   rowString(r, "timestamp"),
	}
}

func AIChatToRow(caseID string, m AIChatMessage) map[string]any {
	return map[string]any{
		"id":        m.ID,
		"case_id":   caseID,
		"role":      m.Role,
		"text":      m.Text,
		"timestamp": m.Timestamp,
	}
}

func AIChatFromRow(r map[string]any) AIChatMessage {
	return AIChatMessage{
		ID:        rowString(r, "id"),
		Role:      rowString(r, "role"),
		Text:      rowString(r, "text"),
		Timestamp: rowString(r, "timestamp"),
	}
}

func mustJSON(v any) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		// Only plain structs and slices reach here.
		panic(fmt.Sprintf("models: encode json column: %v", err))
	}
	return datatypes.JSON(data)
}

func rowString(r map[string]any, key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func rowInt64(r map[string]any, key string) int64 {
	switch v := r[key].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case uint:
		return int64(v)
	case uint64:
		return int64(v)
	case float32:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case []byte:
		n, _ := strconv.ParseInt(string(v), 10, 64)
		return n
	default:
		return 0
	}
}

func rowFloat64(r map[string]any, key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	case []byte:
		f, _ := strconv.ParseFloat(string(v), 64)
		return f
	default:
		return 0
	}
}

func rowBool(r map[string]any, key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// rowJSON decodes a JSON column into dst. It reports false when the column
// is absent or NULL.
func rowJSON(r map[string]any, key string, dst any) (bool, error) {
	var raw []byte
	switch v := r[key].(type) {
	case nil:
		return false, nil
	case datatypes.JSON:
		raw = v
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		// pgx hands jsonb back already decoded.
		encoded, err := json.Marshal(v)
		if err != nil {
			return false, err
		}
		raw = encoded
	}
	if len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}
