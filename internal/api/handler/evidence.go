package handler

import (
	"forensiai/backend/internal/search"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const defaultSearchLimit = 20

type commentRequest struct {
	Content string `json:"content"`
}

func (h *Handler) ListComments(c *gin.Context) {
	s, ok := h.openSession(c)
	if !ok {
		return
	}
	comments, err := s.Comments.Comments(c.Param("evidenceId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// AddComment appends to the item's comments. The write to the store
// happens in the background; the response does not wait for it.
func (h *Handler) AddComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, ok := h.openSession(c)
	if !ok {
		return
	}
	comment, err := s.Comments.AddComment(c.Request.Context(), c.Param("evidenceId"), actor(c), req.Content)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *Handler) SearchEvidence(c *gin.Context) {
	if h.Search == nil {
		abortWithError(c, search.ErrUnavailable)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultSearchLimit)))
	if err != nil || limit <= 0 {
		limit = defaultSearchLimit
	}
	results, err := h.Search.Search(c.Request.Context(), c.Param("caseId"), c.Query("q"), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	c.JSON(http.StatusOK, results)
}
