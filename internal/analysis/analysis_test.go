package analysis_test

import (
	"context"
	"errors"
	"forensiai/backend/internal/analysis"
	"forensiai/backend/internal/casesync"
	"forensiai/backend/internal/config"
	"forensiai/backend/internal/models"
	"forensiai/backend/internal/storage"
	"forensiai/backend/internal/storage/storagetest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, req analysis.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

var investigator = models.Officer{ID: "off-7", Name: "Sgt. Ruiz"}

func caseWithMedia() *models.Case {
	return &models.Case{
		ID:   "CASE-2025-4411",
		Name: "Harbor phone",
		Messages: []models.MessageRecord{
			{ID: "m1", Timestamp: "2025-01-02T10:00:00Z", From: "+1", To: "+2", Content: "meet at pier 4"},
		},
		Media: []models.MediaRecord{
			{ID: "p1", FileName: "IMG_1.jpg", URL: "data:image/jpeg;base64," + strings.Repeat("A", 4096)},
		},
	}
}

func TestAnalyzeCase_PersistsBothTurns(t *testing.T) {
	// Arrange
	store := storagetest.New()
	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, mock.MatchedBy(func(r analysis.Request) bool {
		return r.Temperature == config.AnalysisTemperature &&
			strings.Contains(r.Prompt, "meet at pier 4") &&
			strings.Contains(r.Prompt, "who was at the pier?") &&
			r.System != ""
	})).Return("Contact +2 was told to meet at pier 4.", nil).Once()
	svc := analysis.NewService(completer, store, nil)

	// Act
	answer, err := svc.AnalyzeCase(context.Background(), caseWithMedia(), "  who was at the pier?  ")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, analysis.RoleModel, answer.Role)
	assert.Equal(t, "Contact +2 was told to meet at pier 4.", answer.Text)
	rows := store.Rows(models.TableAIChat)
	require.Len(t, rows, 2)
	assert.Equal(t, analysis.RoleUser, rows[0]["role"])
	assert.Equal(t, "who was at the pier?", rows[0]["text"])
	assert.Equal(t, analysis.RoleModel, rows[1]["role"])
	assert.Equal(t, "CASE-2025-4411", rows[1]["case_id"])
	completer.AssertExpectations(t)
}

func TestAnalyzeCase_PromptOmitsInlineMediaPayload(t *testing.T) {
	// Arrange
	completer := new(MockCompleter)
	var prompt string
	completer.On("Complete", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		prompt = args.Get(1).(analysis.Request).Prompt
	}).Return("ok", nil)
	svc := analysis.NewService(completer, nil, nil)
	c := caseWithMedia()

	// Act
	_, err := svc.AnalyzeCase(context.Background(), c, "summarize media")

	// Assert
	require.NoError(t, err)
	assert.Contains(t, prompt, "IMG_1.jpg")
	assert.NotContains(t, prompt, "base64")
	assert.True(t, strings.HasPrefix(c.Media[0].URL, "data:"), "the caller's snapshot must not change")
}

func TestAnalyzeCase_Errors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		svc := analysis.NewService(nil, storagetest.New(), nil)
		_, err := svc.AnalyzeCase(context.Background(), caseWithMedia(), "anything")
		assert.ErrorIs(t, err, analysis.ErrNotConfigured)
	})

	t.Run("blank query", func(t *testing.T) {
		completer := new(MockCompleter)
		svc := analysis.NewService(completer, storagetest.New(), nil)
		_, err := svc.AnalyzeCase(context.Background(), caseWithMedia(), "   ")
		assert.ErrorIs(t, err, analysis.ErrEmptyQuery)
		completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	})

	t.Run("backend failure keeps only the question", func(t *testing.T) {
		store := storagetest.New()
		completer := new(MockCompleter)
		backendErr := errors.New("quota exceeded")
		completer.On("Complete", mock.Anything, mock.Anything).Return("", backendErr)
		svc := analysis.NewService(completer, store, nil)

		_, err := svc.AnalyzeCase(context.Background(), caseWithMedia(), "anything")

		assert.ErrorIs(t, err, backendErr)
		rows := store.Rows(models.TableAIChat)
		require.Len(t, rows, 1)
		assert.Equal(t, analysis.RoleUser, rows[0]["role"])
	})

	t.Run("chat log write failure still answers", func(t *testing.T) {
		store := storagetest.New()
		store.Fail(storagetest.OpInsert, models.TableAIChat, errors.New("permission denied"))
		completer := new(MockCompleter)
		completer.On("Complete", mock.Anything, mock.Anything).Return("answer", nil)
		svc := analysis.NewService(completer, store, nil)

		answer, err := svc.AnalyzeCase(context.Background(), caseWithMedia(), "anything")

		require.NoError(t, err)
		assert.Equal(t, "answer", answer.Text)
	})
}

func TestGenerateReport_StoresInsightAndLogsActivity(t *testing.T) {
	// Arrange
	store := storagetest.New()
	manager := casesync.NewManager(store)
	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, mock.MatchedBy(func(r analysis.Request) bool {
		return r.Temperature == config.ReportTemperature &&
			strings.Contains(r.Prompt, "Executive Summary") &&
			strings.Contains(r.Prompt, "Potential Anomalies")
	})).Return("# Report", nil).Once()
	svc := analysis.NewService(completer, store, manager)

	// Act
	insight, err := svc.GenerateReport(context.Background(), caseWithMedia(), investigator)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "AI Case Report - Harbor phone", insight.Title)
	assert.Equal(t, models.InsightReport, insight.Type)
	assert.Equal(t, investigator.ID, insight.GeneratedBy)

	stored := store.Rows(models.TableInsights)
	require.Len(t, stored, 1)
	assert.Equal(t, "# Report", stored[0]["content"])

	activity := store.Rows(models.TableActivity)
	require.Len(t, activity, 1)
	assert.Equal(t, "Generated Report", activity[0]["action"])
	assert.Equal(t, "AI Summary", activity[0]["target"])
	assert.Equal(t, investigator.Name, activity[0]["user_name"])
}

func TestGenerateReport_FailureWritesNothing(t *testing.T) {
	// Arrange
	store := storagetest.New()
	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("timeout"))
	svc := analysis.NewService(completer, store, casesync.NewManager(store))

	// Act
	_, err := svc.GenerateReport(context.Background(), caseWithMedia(), investigator)

	// Assert
	require.Error(t, err)
	assert.Empty(t, store.Rows(models.TableInsights))
	assert.Empty(t, store.Rows(models.TableActivity))
}

func TestHistoryAndInsights_Ordering(t *testing.T) {
	// Arrange
	store := storagetest.New()
	store.Seed(models.TableAIChat,
		storage.Row{"id": "b", "case_id": "C1", "role": "model", "text": "second", "timestamp": "2025-01-02T10:00:05Z"},
		storage.Row{"id": "a", "case_id": "C1", "role": "user", "text": "first", "timestamp": "2025-01-02T10:00:00Z"},
		storage.Row{"id": "x", "case_id": "C2", "role": "user", "text": "other case", "timestamp": "2025-01-01T00:00:00Z"},
	)
	store.Seed(models.TableInsights,
		storage.Row{"id": "old", "case_id": "C1", "title": "old", "timestamp": "2025-01-01T00:00:00Z"},
		storage.Row{"id": "new", "case_id": "C1", "title": "new", "timestamp": "2025-02-01T00:00:00Z"},
	)
	svc := analysis.NewService(nil, store, nil)

	// Act
	history := svc.History(context.Background(), "C1")
	insights := svc.Insights(context.Background(), "C1")

	// Assert
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Text)
	assert.Equal(t, "second", history[1].Text)
	require.Len(t, insights, 2)
	assert.Equal(t, "new", insights[0].ID)
}

func TestHistory_DegradesToEmpty(t *testing.T) {
	store := storagetest.New()
	store.Fail(storagetest.OpSelect, models.TableAIChat, errors.New("relation does not exist"))
	store.Fail(storagetest.OpSelect, models.TableInsights, errors.New("relation does not exist"))
	svc := analysis.NewService(nil, store, nil)

	assert.Empty(t, svc.History(context.Background(), "C1"))
	assert.NotNil(t, svc.History(context.Background(), "C1"))
	assert.Empty(t, svc.Insights(context.Background(), "C1"))
	assert.Empty(t, analysis.NewService(nil, nil, nil).History(context.Background(), "C1"))
}
