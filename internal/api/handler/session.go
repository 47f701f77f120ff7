package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/vodhub/internal/service"
	"github.com/timmy/vodhub/internal/source"
)

// SessionHandler exposes browse sessions, each driving one incremental loader.
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type queryRequest struct {
	SourceID string `json:"source_id" binding:"required"`
	FilterID string `json:"filter_id"`
	Keyword  string `json:"keyword"`
}

func (r queryRequest) toQuery() source.ListQuery {
	return source.ListQuery{SourceID: r.SourceID, FilterID: r.FilterID, Keyword: r.Keyword}
}

type openSessionRequest struct {
	queryRequest
	Prefetch bool `json:"prefetch"`
}

// Open handles POST /api/v1/sessions.
func (h *SessionHandler) Open(c *gin.Context) {
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	view, err := h.sessions.Open(c.Request.Context(), req.toQuery(), req.Prefetch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Get handles GET /api/v1/sessions/:id.
func (h *SessionHandler) Get(c *gin.Context) {
	view, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Next handles POST /api/v1/sessions/:id/next. Gateway failures do not
// fail the request; they show up as status "error" in the session state.
func (h *SessionHandler) Next(c *gin.Context) {
	outcome, view, err := h.sessions.Next(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"outcome": outcome,
		"session": view,
	})
}

// Scroll handles POST /api/v1/sessions/:id/scroll. It answers 202 when a
// background fetch was started and 200 when the signal was ignored.
func (h *SessionHandler) Scroll(c *gin.Context) {
	started, view, err := h.sessions.Scroll(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if started {
		status = http.StatusAccepted
	}
	c.JSON(status, gin.H{
		"started": started,
		"session": view,
	})
}

// UpdateQuery handles PUT /api/v1/sessions/:id/query.
func (h *SessionHandler) UpdateQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	changed, view, err := h.sessions.Reset(c.Param("id"), req.toQuery())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reset":   changed,
		"session": view,
	})
}

// Close handles DELETE /api/v1/sessions/:id.
func (h *SessionHandler) Close(c *gin.Context) {
	if err := h.sessions.Close(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
