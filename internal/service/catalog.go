package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/timmy/vodhub/internal/domain"
	"github.com/timmy/vodhub/internal/logger"
	"github.com/timmy/vodhub/internal/source"
)

var (
	// ErrInvalidFeedRequest is returned when feed parameters are out of range.
	ErrInvalidFeedRequest = errors.New("invalid feed request")
	// ErrInvalidPageRequest is returned for page requests the gateway would reject.
	ErrInvalidPageRequest = errors.New("invalid page request")
)

const (
	defaultHomeLimit  = 8
	maxConcurrentHome = 8
)

// DefaultFeedLimit is the feed page size when a client sends none.
const DefaultFeedLimit = 20

// Feed tags that mean "no keyword".
var unfilteredTags = []string{"全部", "热门"}

// CatalogConfig holds configuration for the catalog service.
type CatalogConfig struct {
	// HomeLimit is the number of items per home shelf.
	HomeLimit int
	// HomeSources caps how many sites get a home shelf; 0 means all of them.
	HomeSources int
	// FeedSource is the site the tag feed reads; empty means the first enabled site.
	FeedSource string
	// CategoryMap maps feed category names to upstream type ids.
	CategoryMap map[string]string
}

// CatalogService serves the stateless, read-only catalog views.
type CatalogService struct {
	gateway     source.Gateway
	homeLimit   int
	homeSources int
	feedSource  string
	categoryMap map[string]string
}

// NewCatalogService creates a new catalog service.
// Parameters:
//   - gateway: upstream gateway for every configured site.
//   - cfg: catalog configuration; nil uses defaults.
//
// Returns:
//   - *CatalogService: initialized service.
func NewCatalogService(gateway source.Gateway, cfg *CatalogConfig) *CatalogService {
	s := &CatalogService{
		gateway:     gateway,
		homeLimit:   defaultHomeLimit,
		categoryMap: map[string]string{},
	}
	if cfg != nil {
		if cfg.HomeLimit > 0 {
			s.homeLimit = cfg.HomeLimit
		}
		if cfg.HomeSources > 0 {
			s.homeSources = cfg.HomeSources
		}
		s.feedSource = cfg.FeedSource
		if cfg.CategoryMap != nil {
			s.categoryMap = cfg.CategoryMap
		}
	}
	return s
}

// Sources returns the enabled sites in configured order.
func (s *CatalogService) Sources() []domain.SourceSite {
	return s.gateway.Sites()
}

// Categories fetches a site's categories and splits them into top-level
// and child groups. A non-empty nameFilter keeps only categories whose
// name fuzzily matches it.
// Parameters:
//   - ctx: request context.
//   - sourceID: site key.
//   - nameFilter: optional fuzzy filter on category names.
//
// Returns:
//   - *domain.CategoryGroups: partitioned categories.
//   - error: source.ErrSourceNotFound or *source.GatewayError.
func (s *CatalogService) Categories(ctx context.Context, sourceID, nameFilter string) (*domain.CategoryGroups, error) {
	cats, err := s.gateway.FetchCategories(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	if q := strings.TrimSpace(nameFilter); q != "" {
		cats = lo.Filter(cats, func(c domain.Category, _ int) bool {
			return fuzzy.MatchNormalizedFold(q, c.Name)
		})
	}

	primary, secondary := lo.FilterReject(cats, func(c domain.Category, _ int) bool {
		return c.IsTopLevel()
	})
	return &domain.CategoryGroups{
		Primary:   nonNil(primary),
		Secondary: nonNil(secondary),
	}, nil
}

// Videos fetches one page for clients that page on their own.
func (s *CatalogService) Videos(ctx context.Context, req source.PageRequest) (*source.PageResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPageRequest, err)
	}
	return s.gateway.FetchPage(ctx, req)
}

// Latest builds the home page: the first page of the leading enabled
// sites (all of them unless capped by HomeSources), fetched concurrently. A failing site yields an empty shelf carrying its
// error; it never fails the whole page.
// Parameters:
//   - ctx: request context.
//   - limit: items per shelf; <= 0 uses the configured home limit.
//
// Returns:
//   - []domain.Shelf: one shelf per site, in configured order.
func (s *CatalogService) Latest(ctx context.Context, limit int) []domain.Shelf {
	if limit <= 0 {
		limit = s.homeLimit
	}
	if limit > source.MaxPageSize {
		limit = source.MaxPageSize
	}

	sites := s.gateway.Sites()
	if s.homeSources > 0 && len(sites) > s.homeSources {
		sites = sites[:s.homeSources]
	}
	shelves := make([]domain.Shelf, len(sites))
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(maxConcurrentHome)
	for i, site := range sites {
		g.Go(func() error {
			shelf := domain.Shelf{Source: site, Items: []domain.VideoRecord{}}
			res, err := s.gateway.FetchPage(ctx, source.PageRequest{
				Query:    source.ListQuery{SourceID: site.Key},
				Page:     1,
				PageSize: limit,
			})
			if err != nil {
				logger.With(logger.Fields{logger.FieldSource: site.Key}).
					Warn(ctx, "Home shelf fetch failed: error=%v", err)
				shelf.Error = err.Error()
			} else if res != nil {
				shelf.Items = nonNil(res.Items)
			}
			shelves[i] = shelf
			return nil
		})
	}
	_ = g.Wait()

	logger.With(logger.Fields{
		logger.FieldComponent:  "catalog",
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
		logger.FieldCount:      len(shelves),
	}).Debug(ctx, "Home shelves built")

	return shelves
}

// FeedRequest selects a slice of the tag feed.
type FeedRequest struct {
	// Kind is "movie" or "tv"; empty means "movie".
	Kind string
	// Category is a display name resolved through the category map.
	Category string
	// Tag becomes the search keyword unless it is one of the catch-all tags.
	Tag string
	// Limit is the page size, 1..100.
	Limit int
	// Start is a zero-based item offset; it is rounded down to a page boundary.
	Start int
}

// Feed serves the tag feed: an offset-addressed view over one site's
// video list, projected to compact items.
// Parameters:
//   - ctx: request context.
//   - req: feed selection.
//
// Returns:
//   - []domain.FeedItem: items of the page containing req.Start.
//   - error: ErrInvalidFeedRequest, source.ErrSourceNotFound or *source.GatewayError.
func (s *CatalogService) Feed(ctx context.Context, req FeedRequest) ([]domain.FeedItem, error) {
	if req.Kind == "" {
		req.Kind = "movie"
	}
	if req.Kind != "movie" && req.Kind != "tv" {
		return nil, fmt.Errorf("%w: kind must be movie or tv", ErrInvalidFeedRequest)
	}
	if req.Category == "" || req.Tag == "" {
		return nil, fmt.Errorf("%w: category and type are required", ErrInvalidFeedRequest)
	}
	if req.Limit < 1 || req.Limit > source.MaxPageSize {
		return nil, fmt.Errorf("%w: limit must be within 1..%d", ErrInvalidFeedRequest, source.MaxPageSize)
	}
	if req.Start < 0 {
		return nil, fmt.Errorf("%w: start must not be negative", ErrInvalidFeedRequest)
	}

	sourceID := s.feedSource
	if sourceID == "" {
		sites := s.gateway.Sites()
		if len(sites) == 0 {
			return nil, source.ErrSourceNotFound
		}
		sourceID = sites[0].Key
	}

	query := source.ListQuery{SourceID: sourceID, FilterID: s.categoryMap[req.Category]}
	if !lo.Contains(unfilteredTags, req.Tag) {
		query.Keyword = req.Tag
	}

	res, err := s.gateway.FetchPage(ctx, source.PageRequest{
		Query:    query,
		Page:     req.Start/req.Limit + 1,
		PageSize: req.Limit,
	})
	if err != nil {
		return nil, err
	}

	return lo.Map(res.Items, func(v domain.VideoRecord, _ int) domain.FeedItem {
		return domain.FeedItem{
			ID:     v.ID,
			Title:  v.Title,
			Poster: v.Poster,
			Rate:   v.Rating,
			Year:   v.Year,
		}
	}), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
