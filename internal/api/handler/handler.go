// Package handler exposes the case workspace over HTTP and WebSocket.
package handler

import (
	"context"
	"errors"
	"forensiai/backend/internal/analysis"
	"forensiai/backend/internal/annotation"
	"forensiai/backend/internal/casesync"
	"forensiai/backend/internal/chathub"
	"forensiai/backend/internal/search"
	"forensiai/backend/internal/session"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Searcher runs full-text queries over a case's evidence.
type Searcher interface {
	Search(ctx context.Context, caseID, text string, limit int) ([]search.Result, error)
}

// Handler holds the services behind the API. Search may be nil.
type Handler struct {
	Cases    *casesync.Manager
	Sessions *session.Registry
	Officers *session.Directory
	Analysis *analysis.Service
	Search   Searcher

	secret []byte
}

func NewHandler(cases *casesync.Manager, sessions *session.Registry, officers *session.Directory, ai *analysis.Service, searcher Searcher, jwtSecret string) *Handler {
	return &Handler{
		Cases:    cases,
		Sessions: sessions,
		Officers: officers,
		Analysis: ai,
		Search:   searcher,
		secret:   []byte(jwtSecret),
	}
}

// Router wires every route onto a new gin engine.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.POST("/api/auth/token", h.IssueToken)

	api := r.Group("/api", h.RequireOfficer)
	api.GET("/officers", h.ListOfficers)
	api.GET("/cases", h.ListCases)
	api.POST("/cases", h.CreateCase)

	one := api.Group("/cases/:caseId")
	one.GET("", h.GetCase)
	one.DELETE("", h.DeleteCase)
	one.DELETE("/session", h.CloseSession)
	one.GET("/timeline", h.Timeline)
	one.GET("/search", h.SearchEvidence)
	one.GET("/evidence/:evidenceId/comments", h.ListComments)
	one.POST("/evidence/:evidenceId/comments", h.AddComment)
	one.GET("/chat", h.ChatMessages)
	one.POST("/chat", h.SendChat)
	one.POST("/chat/read", h.MarkChatRead)
	one.GET("/chat/ws", h.ServeWebSocket)
	one.POST("/analysis", h.Analyze)
	one.GET("/analysis", h.AnalysisHistory)
	one.POST("/report", h.GenerateReport)
	one.GET("/insights", h.ListInsights)
	return r
}

// openSession returns the caller's session for the case in the path,
// writing the error response itself when it fails.
func (h *Handler) openSession(c *gin.Context) (*session.Session, bool) {
	s, err := h.Sessions.Open(c.Request.Context(), actor(c), c.Param("caseId"))
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	return s, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, casesync.ErrCaseNotFound),
		errors.Is(err, annotation.ErrEvidenceNotFound),
		errors.Is(err, session.ErrNoSession):
		return http.StatusNotFound
	case errors.Is(err, annotation.ErrEmptyComment),
		errors.Is(err, analysis.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, chathub.ErrNotActive):
		return http.StatusConflict
	case errors.Is(err, analysis.ErrNotConfigured),
		errors.Is(err, search.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, session.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}
