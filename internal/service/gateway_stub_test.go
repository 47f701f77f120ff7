package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/timmy/vodhub/internal/domain"
	"github.com/timmy/vodhub/internal/source"
)

// stubGateway serves generated pages: every site has total items split
// into pages of the requested size.
type stubGateway struct {
	mu         sync.Mutex
	sites      []domain.SourceSite
	total      map[string]int
	failing    map[string]error
	categories []domain.Category
	requests   []source.PageRequest
	block      chan struct{}
}

func newStubGateway(keys ...string) *stubGateway {
	g := &stubGateway{total: map[string]int{}, failing: map[string]error{}}
	for _, k := range keys {
		g.sites = append(g.sites, domain.SourceSite{Key: k, Name: "Site " + k, API: "http://" + k})
		g.total[k] = 45
	}
	return g
}

func (g *stubGateway) Sites() []domain.SourceSite {
	return g.sites
}

func (g *stubGateway) Site(id string) (domain.SourceSite, bool) {
	for _, s := range g.sites {
		if s.Key == id {
			return s, true
		}
	}
	return domain.SourceSite{}, false
}

func (g *stubGateway) FetchPage(ctx context.Context, req source.PageRequest) (*source.PageResult, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	block := g.block
	err := g.failing[req.Query.SourceID]
	total, known := g.total[req.Query.SourceID]
	g.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, &source.GatewayError{SourceID: req.Query.SourceID, Op: "videolist", Err: ctx.Err()}
		}
	}
	if !known {
		return nil, source.ErrSourceNotFound
	}
	if err != nil {
		return nil, err
	}

	var items []domain.VideoRecord
	for i := (req.Page - 1) * req.PageSize; i < total && len(items) < req.PageSize; i++ {
		items = append(items, domain.VideoRecord{
			ID:       fmt.Sprintf("%d", i),
			Title:    fmt.Sprintf("%s video %d", req.Query.SourceID, i),
			Year:     "2024",
			Rating:   "8.1",
			SourceID: req.Query.SourceID,
		})
	}
	return &source.PageResult{Items: items, RequestedPage: req.Page, PageSize: req.PageSize}, nil
}

func (g *stubGateway) FetchCategories(_ context.Context, sourceID string) ([]domain.Category, error) {
	if _, ok := g.Site(sourceID); !ok {
		return nil, source.ErrSourceNotFound
	}
	if err := g.failing[sourceID]; err != nil {
		return nil, err
	}
	return g.categories, nil
}

func (g *stubGateway) lastRequest() source.PageRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

func (g *stubGateway) requestCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}
