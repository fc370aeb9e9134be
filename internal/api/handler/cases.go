package handler

import (
	"forensiai/backend/internal/casesync"
	"forensiai/backend/internal/models"
	"forensiai/backend/internal/timeline"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

type tableFailure struct {
	Table string `json:"table"`
	Step  string `json:"step"`
	Error string `json:"error"`
}

type syncResponse struct {
	CaseID  string         `json:"caseId"`
	Written map[string]int `json:"written"`
	Failed  []tableFailure `json:"failed"`
	Offline bool           `json:"offline"`
}

func newSyncResponse(r casesync.SyncReport) syncResponse {
	out := syncResponse{CaseID: r.CaseID, Written: r.Written, Failed: []tableFailure{}, Offline: r.Offline}
	for _, f := range r.Failed {
		out.Failed = append(out.Failed, tableFailure{Table: f.Table, Step: f.Step, Error: f.Err.Error()})
	}
	return out
}

func (h *Handler) ListOfficers(c *gin.Context) {
	c.JSON(http.StatusOK, h.Officers.Officers(c.Request.Context()))
}

func (h *Handler) ListCases(c *gin.Context) {
	cases, err := h.Cases.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	if cases == nil {
		cases = []models.CaseSummary{}
	}
	c.JSON(http.StatusOK, cases)
}

// CreateCase stores an extracted snapshot. With ?source= the import is
// recorded in the case's activity log. Evidence tables that failed are
// listed in the response; only a metadata failure fails the request.
func (h *Handler) CreateCase(c *gin.Context) {
	var snapshot models.Case
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var report casesync.SyncReport
	if source := c.Query("source"); source != "" {
		report = h.Cases.Import(c.Request.Context(), &snapshot, actor(c), source)
	} else {
		report = h.Cases.Create(c.Request.Context(), &snapshot, actor(c))
	}

	status := http.StatusCreated
	if report.MetadataFailed() {
		status = http.StatusBadGateway
	}
	c.JSON(status, newSyncResponse(report))
}

// GetCase opens the caller's session on the case and returns the snapshot.
func (h *Handler) GetCase(c *gin.Context) {
	s, ok := h.openSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// DeleteCase removes the case and ends every open session on it.
func (h *Handler) DeleteCase(c *gin.Context) {
	caseID := c.Param("caseId")
	if err := h.Cases.Delete(c.Request.Context(), caseID); err != nil {
		abortWithError(c, err)
		return
	}
	h.Sessions.CloseCase(c.Request.Context(), caseID)
	c.Status(http.StatusNoContent)
}

func (h *Handler) CloseSession(c *gin.Context) {
	h.Sessions.Close(c.Request.Context(), actor(c).ID, c.Param("caseId"))
	c.Status(http.StatusNoContent)
}

// Timeline returns the merged evidence stream, optionally narrowed with
// repeated ?kind= parameters.
func (h *Handler) Timeline(c *gin.Context) {
	s, ok := h.openSession(c)
	if !ok {
		return
	}
	seq := timeline.Assemble(s.Snapshot())
	if kinds := c.QueryArray("kind"); len(kinds) > 0 {
		wanted := make([]models.Kind, 0, len(kinds))
		for _, k := range kinds {
			wanted = append(wanted, models.Kind(k))
		}
		seq = timeline.Filter(seq, wanted...)
	}
	events := slices.Collect(seq)
	if events == nil {
		events = []timeline.Event{}
	}
	c.JSON(http.StatusOK, events)
}
