package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/timmy/vodhub/internal/domain"
)

// MaxPageSize is the largest page an upstream site is asked for.
const MaxPageSize = 100

// ErrSourceNotFound is returned for unknown or disabled source keys.
var ErrSourceNotFound = errors.New("source not found or disabled")

// ListQuery identifies what is being paged through. Two queries are equal
// iff all fields match; any change invalidates paged state for the old one.
type ListQuery struct {
	SourceID string `json:"source_id"`
	FilterID string `json:"filter_id,omitempty"`
	Keyword  string `json:"keyword,omitempty"`
}

// String renders the query for logs.
func (q ListQuery) String() string {
	s := q.SourceID
	if q.FilterID != "" {
		s += "/t=" + q.FilterID
	}
	if q.Keyword != "" {
		s += "/wd=" + q.Keyword
	}
	return s
}

// PageRequest is one gateway call.
type PageRequest struct {
	Query    ListQuery
	Page     int
	PageSize int
}

// Validate checks the request against the gateway contract.
func (r PageRequest) Validate() error {
	if r.Query.SourceID == "" {
		return errors.New("source id is required")
	}
	if r.Page < 1 {
		return fmt.Errorf("page must be >= 1, got %d", r.Page)
	}
	if r.PageSize < 1 || r.PageSize > MaxPageSize {
		return fmt.Errorf("page size must be within 1..%d, got %d", MaxPageSize, r.PageSize)
	}
	return nil
}

// PageResult is one fetch outcome.
type PageResult struct {
	Items         []domain.VideoRecord `json:"items"`
	RequestedPage int                  `json:"page"`
	PageSize      int                  `json:"page_size"`
	// PageCount and Total are whatever the upstream reported; they are not trusted.
	PageCount int `json:"page_count,omitempty"`
	Total     int `json:"total,omitempty"`
}

// IsFull is the "more data likely exists" heuristic: the page came back
// with exactly as many items as were asked for. An exactly-full last page
// therefore costs one extra, empty request.
func (r *PageResult) IsFull() bool {
	return len(r.Items) == r.PageSize
}

// Gateway is the capability every upstream video API is reached through.
type Gateway interface {
	// Sites returns the enabled source sites in configured order.
	Sites() []domain.SourceSite

	// Site looks up one enabled site by key.
	Site(id string) (domain.SourceSite, bool)

	// FetchPage fetches one page of videos for the request's query.
	// All failures are reported as *GatewayError or ErrSourceNotFound.
	FetchPage(ctx context.Context, req PageRequest) (*PageResult, error)

	// FetchCategories returns the category listing of one site.
	FetchCategories(ctx context.Context, sourceID string) ([]domain.Category, error)
}

// GatewayError is the single opaque failure kind of an upstream call.
// Timeouts, HTTP statuses and malformed JSON are not distinguished by callers.
type GatewayError struct {
	SourceID   string
	Op         string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway %s %s: status %d: %v", e.SourceID, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("gateway %s %s: %v", e.SourceID, e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
