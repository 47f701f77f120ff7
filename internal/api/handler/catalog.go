package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/vodhub/internal/service"
	"github.com/timmy/vodhub/internal/source"
)

// CatalogHandler serves the read-only catalog routes.
type CatalogHandler struct {
	catalog  *service.CatalogService
	pageSize int
}

// NewCatalogHandler creates a new catalog handler.
// Parameters:
//   - catalog: catalog service instance.
//   - pageSize: page size used when a video request omits one.
//
// Returns:
//   - *CatalogHandler: initialized handler.
func NewCatalogHandler(catalog *service.CatalogService, pageSize int) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, pageSize: pageSize}
}

// ListSources handles GET /api/v1/sources.
func (h *CatalogHandler) ListSources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sources": h.catalog.Sources()})
}

// GetCategories handles GET /api/v1/sources/:id/categories.
func (h *CatalogHandler) GetCategories(c *gin.Context) {
	groups, err := h.catalog.Categories(c.Request.Context(), c.Param("id"), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// ListVideos handles GET /api/v1/sources/:id/videos.
// Query: t (category id), wd (keyword), pg (page, default 1), pagesize.
func (h *CatalogHandler) ListVideos(c *gin.Context) {
	page, ok := queryInt(c, "pg", 1)
	if !ok {
		return
	}
	pageSize, ok := queryInt(c, "pagesize", h.pageSize)
	if !ok {
		return
	}

	res, err := h.catalog.Videos(c.Request.Context(), source.PageRequest{
		Query: source.ListQuery{
			SourceID: c.Param("id"),
			FilterID: c.Query("t"),
			Keyword:  c.Query("wd"),
		},
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":      res.Items,
		"page":       res.RequestedPage,
		"page_size":  res.PageSize,
		"page_count": res.PageCount,
		"total":      res.Total,
		"has_more":   res.IsFull(),
	})
}

// Home handles GET /api/v1/home.
func (h *CatalogHandler) Home(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	shelves := h.catalog.Latest(c.Request.Context(), limit)
	for _, s := range shelves {
		if s.Error != "" {
			noStore(c)
			break
		}
	}
	c.JSON(http.StatusOK, gin.H{"shelves": shelves})
}

// Feed handles GET /api/v1/feed.
func (h *CatalogHandler) Feed(c *gin.Context) {
	limit, ok := queryInt(c, "limit", service.DefaultFeedLimit)
	if !ok {
		return
	}
	start, ok := queryInt(c, "start", 0)
	if !ok {
		return
	}

	items, err := h.catalog.Feed(c.Request.Context(), service.FeedRequest{
		Kind:     c.Query("kind"),
		Category: c.Query("category"),
		Tag:      c.Query("type"),
		Limit:    limit,
		Start:    start,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "ok",
		"list":    items,
	})
}
