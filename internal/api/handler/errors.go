package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/timmy/vodhub/internal/api/middleware"
	"github.com/timmy/vodhub/internal/logger"
	"github.com/timmy/vodhub/internal/service"
	"github.com/timmy/vodhub/internal/source"
)

// statusFor maps service and gateway errors to HTTP statuses.
func statusFor(err error) int {
	var gwErr *source.GatewayError
	switch {
	case errors.Is(err, source.ErrSourceNotFound),
		errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrTooManySessions):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrInvalidFeedRequest),
		errors.Is(err, service.ErrInvalidPageRequest),
		errors.Is(err, service.ErrInvalidLibraryEntry):
		return http.StatusBadRequest
	case errors.As(err, &gwErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// noStore overrides the cache headers set on catalog routes. Failures and
// partial results must never reach a CDN.
func noStore(c *gin.Context) {
	c.Writer.Header().Del("CDN-Cache-Control")
	c.Header("Cache-Control", "no-store")
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	noStore(c)

	body := gin.H{"error": err.Error()}
	switch {
	case status == http.StatusInternalServerError:
		_ = c.Error(err)
		logger.CtxError(c.Request.Context(), "Handler failed: path=%s, error=%v", c.FullPath(), err)
		body["request_id"] = logger.GetRequestID(c.Request.Context())
	case status > http.StatusInternalServerError:
		_ = c.Error(err)
		middleware.GetLogger(c).WithError(err).Warnf("Upstream failure: path=%s", c.FullPath())
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	noStore(c)
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// queryInt reads an optional integer query parameter.
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "Invalid query parameter '"+name+"': must be an integer")
		return 0, false
	}
	return v, true
}
