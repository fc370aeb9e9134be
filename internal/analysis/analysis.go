// Package analysis runs case questions and report requests through a text
// completion backend and keeps the resulting chat turns and insights with
// the case.
package analysis

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"forensiai/backend/internal/config"
	"forensiai/backend/internal/models"
	"forensiai/backend/internal/storage"
	"log"
	"slices"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotConfigured = errors.New("analysis backend not configured")
	ErrEmptyQuery    = errors.New("query is empty")
)

const (
	RoleUser  = "user"
	RoleModel = "model"

	reportTarget = "AI Summary"
)

// Request is one completion call.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
}

// Completer turns a prompt into text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ActivityLogger records audit entries for a case.
type ActivityLogger interface {
	LogActivity(ctx context.Context, caseID string, entry models.ActivityLogEntry) (models.ActivityLogEntry, error)
}

// Service answers investigator questions about a case. With a nil remote
// store nothing is persisted; with a nil completer every request fails
// with ErrNotConfigured.
type Service struct {
	completer Completer
	remote    storage.RemoteStore
	activity  ActivityLogger
}

func NewService(completer Completer, remote storage.RemoteStore, activity ActivityLogger) *Service {
	return &Service{completer: completer, remote: remote, activity: activity}
}

// Configured reports whether a completion backend is available.
func (s *Service) Configured() bool { return s.completer != nil }

// AnalyzeCase answers query against c and records both turns in the case's
// chat log. Persistence failures are logged; the answer is still returned.
func (s *Service) AnalyzeCase(ctx context.Context, c *models.Case, query string) (models.AIChatMessage, error) {
	if !s.Configured() {
		return models.AIChatMessage{}, ErrNotConfigured
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return models.AIChatMessage{}, ErrEmptyQuery
	}

	s.saveTurn(ctx, c.ID, models.AIChatMessage{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Text:      query,
		Timestamp: models.Now(),
	})

	prompt, err := analysisPrompt(c, query)
	if err != nil {
		return models.AIChatMessage{}, err
	}
	text, err := s.completer.Complete(ctx, Request{
		System:      systemInstruction,
		Prompt:      prompt,
		Temperature: config.AnalysisTemperature,
	})
	if err != nil {
		log.Printf("ERROR: Analysis of case %s failed: %v", c.ID, err)
		return models.AIChatMessage{}, fmt.Errorf("analyze case %s: %w", c.ID, err)
	}
	if strings.TrimSpace(text) == "" {
		text = "No analysis generated."
	}

	answer := models.AIChatMessage{
		ID:        uuid.NewString(),
		Role:      RoleModel,
		Text:      text,
		Timestamp: models.Now(),
	}
	s.saveTurn(ctx, c.ID, answer)
	return answer, nil
}

// GenerateReport produces an investigator report for c, stores it as an
// insight and records the request in the activity log.
func (s *Service) GenerateReport(ctx context.Context, c *models.Case, actor models.Officer) (models.Insight, error) {
	if !s.Configured() {
		return models.Insight{}, ErrNotConfigured
	}
	prompt, err := reportPrompt(c)
	if err != nil {
		return models.Insight{}, err
	}
	text, err := s.completer.Complete(ctx, Request{
		System:      systemInstruction,
		Prompt:      prompt,
		Temperature: config.ReportTemperature,
	})
	if err != nil {
		log.Printf("ERROR: Report generation for case %s failed: %v", c.ID, err)
		return models.Insight{}, fmt.Errorf("generate report for %s: %w", c.ID, err)
	}

	insight := models.Insight{
		ID:          uuid.NewString(),
		Type:        models.InsightReport,
		Title:       "AI Case Report - " + c.Name,
		Content:     text,
		GeneratedBy: actor.ID,
		Timestamp:   models.Now(),
	}
	if s.remote != nil {
		row := models.InsightToRow(c.ID, insight)
		if err := s.remote.Insert(ctx, models.TableInsights, []storage.Row{row}); err != nil {
			log.Printf("ERROR: Failed to save report %s for case %s: %v", insight.ID, c.ID, err)
		}
	}
	if s.activity != nil {
		_, err := s.activity.LogActivity(ctx, c.ID, models.ActivityLogEntry{
			UserID:   actor.ID,
			UserName: actor.Name,
			Action:   config.ActivityActions["report"],
			Target:   reportTarget,
			Type:     models.ActivitySystem,
		})
		if err != nil {
			log.Printf("WARNING: Report for case %s not recorded in activity log: %v", c.ID, err)
		}
	}
	return insight, nil
}

// History returns the case's chat log, oldest first. A failed read yields
// an empty history.
func (s *Service) History(ctx context.Context, caseID string) []models.AIChatMessage {
	out := []models.AIChatMessage{}
	if s.remote == nil {
		return out
	}
	rows, err := s.remote.SelectWhere(ctx, models.TableAIChat, storage.Where("case_id", caseID))
	if err != nil {
		log.Printf("WARNING: Failed to load %s for case %s, showing none: %v", models.TableAIChat, caseID, err)
		return out
	}
	for _, r := range rows {
		out = append(out, models.AIChatFromRow(r))
	}
	slices.SortStableFunc(out, func(a, b models.AIChatMessage) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})
	return out
}

// Insights returns stored reports for the case, newest first.
func (s *Service) Insights(ctx context.Context, caseID string) []models.Insight {
	out := []models.Insight{}
	if s.remote == nil {
		return out
	}
	rows, err := s.remote.SelectWhere(ctx, models.TableInsights, storage.Where("case_id", caseID))
	if err != nil {
		log.Printf("WARNING: Failed to load %s for case %s, showing none: %v", models.TableInsights, caseID, err)
		return out
	}
	for _, r := range rows {
		out = append(out, models.InsightFromRow(r))
	}
	slices.SortStableFunc(out, func(a, b models.Insight) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})
	return out
}

func (s *Service) saveTurn(ctx context.Context, caseID string, m models.AIChatMessage) {
	if s.remote == nil {
		return
	}
	if err := s.remote.Insert(ctx, models.TableAIChat, []storage.Row{models.AIChatToRow(caseID, m)}); err != nil {
		log.Printf("ERROR: Failed to save %s chat turn for case %s: %v", m.Role, caseID, err)
	}
}
