package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type analysisRequest struct {
	Query string `json:"query"`
}

func (h *Handler) Analyze(c *gin.Context) {
	var req analysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, ok := h.openSession(c)
	if !ok {
		return
	}
	answer, err := h.Analysis.AnalyzeCase(c.Request.Context(), s.Snapshot(), req.Query)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

func (h *Handler) AnalysisHistory(c *gin.Context) {
	c.JSON(http.StatusOK, h.Analysis.History(c.Request.Context(), c.Param("caseId")))
}

func (h *Handler) GenerateReport(c *gin.Context) {
	s, ok := h.openSession(c)
	if !ok {
		return
	}
	insight, err := h.Analysis.GenerateReport(c.Request.Context(), s.Snapshot(), actor(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, insight)
}

func (h *Handler) ListInsights(c *gin.Context) {
	c.JSON(http.StatusOK, h.Analysis.Insights(c.Request.Context(), c.Param("caseId")))
}
