package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/timmy/vodhub/internal/api/middleware"
	"github.com/timmy/vodhub/internal/domain"
	"github.com/timmy/vodhub/internal/service"
)

// LibraryHandler serves favorites and continue-watching for the client
// named by the X-Client-ID header.
type LibraryHandler struct {
	library *service.LibraryService
}

// NewLibraryHandler creates a new library handler.
func NewLibraryHandler(library *service.LibraryService) *LibraryHandler {
	return &LibraryHandler{library: library}
}

// clientID returns the owner of library entries, answering 400 if absent.
func clientID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.GetHeader(middleware.ClientIDHeader))
	if id == "" {
		badRequest(c, "Missing "+middleware.ClientIDHeader+" header")
		return "", false
	}
	return id, true
}

type favoriteRequest struct {
	SourceID string `json:"source_id" binding:"required"`
	VideoID  string `json:"video_id" binding:"required"`
	Title    string `json:"title"`
	Poster   string `json:"poster"`
	Year     string `json:"year"`
}

// ListFavorites handles GET /api/v1/favorites.
func (h *LibraryHandler) ListFavorites(c *gin.Context) {
	owner, ok := clientID(c)
	if !ok {
		return
	}
	favs, err := h.library.ListFavorites(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": favs})
}

// CheckFavorite handles GET /api/v1/favorites/:source/:video.
func (h *LibraryHandler) CheckFavorite(c *gin.Context) {
	owner, ok := clientID(c)
	if !ok {
		return
	}
	fav, err := h.library.IsFavorite(c.Request.Context(), owner, c.Param("source"), c.Param("video"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorite": fav})
}

// AddFavorite handles POST /api/v1/favorites.
func (h *LibraryHandler) AddFavorite(c *gin.Context) {
	owner, ok := clientID(c)
	if !ok {
		return
	}
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	fav := &domain.Favorite{
		OwnerID:  owner,
		SourceID: req.SourceID,
		VideoID:  req.VideoID,
		Title:    req.Title,
		Poster:   req.Poster,
		Year:     req.Year,
	}
	stored, err := h.library.AddFavorite(c.Request.Context(), fav)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, stored)
}

// RemoveFavorite handles DELETE /api/v1/favorites/:source/:video.
func (h *LibraryHandler) RemoveFavorite(c *gin.Context) {
	owner, ok := clientID(c)
	if !ok {
		return
	}
	removed, err := h.library.RemoveFavorite(c.Request.Context(), owner, c.Param("source"), c.Param("video"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "favorite not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

type playRecordRequest struct {
	Title           string `json:"title"`
	Poster          string `json:"poster"`
	Episode         int    `json:"episode"`
	TotalEpisodes   int    `json:"total_episodes"`
	ProgressSeconds int    `json:"progress_seconds"`
	DurationSeconds int    `json:"duration_seconds"`
}

// ContinueWatching handles GET /api/v1/history.
func (h *LibraryHandler) ContinueWatching(c *gin.Context) {
	owner, ok := clientID(c)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	recs, err := h.library.ContinueWatching(c.Request.Context(), owner, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": recs})
}

// SavePlayRecord handles PUT /api/v1/history/:source/:video.
func (h *LibraryHandler) SavePlayRecord(c *gin.Context) {
	owner, ok := clientID(c)
	if !ok {
		return
	}
	var req playRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	rec := &domain.PlayRecord{
		OwnerID:         owner,
		SourceID:        c.Param("source"),
		VideoID:         c.Param("video"),
		Title:           req.Title,
		Poster:          req.Poster,
		Episode:         req.Episode,
		TotalEpisodes:   req.TotalEpisodes,
		ProgressSeconds: req.ProgressSeconds,
		DurationSeconds: req.DurationSeconds,
	}
	if err := h.library.SavePlayRecord(c.Request.Context(), rec); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// DeletePlayRecord handles DELETE /api/v1/history/:source/:video.
func (h *LibraryHandler) DeletePlayRecord(c *gin.Context) {
	owner, ok := clientID(c)
	if !ok {
		return
	}
	removed, err := h.library.DeletePlayRecord(c.Request.Context(), owner, c.Param("source"), c.Param("video"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "play record not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
