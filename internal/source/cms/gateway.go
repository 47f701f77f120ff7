// Package cms reaches CMS-style video API sites (the "?ac=videolist" /
// "?ac=list" JSON contract) through one configuration-driven gateway.
package cms

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/timmy/vodhub/internal/domain"
	"github.com/timmy/vodhub/internal/logger"
	"github.com/timmy/vodhub/internal/source"
)

const (
	actionVideos     = "videolist"
	actionCategories = "list"

	defaultTimeout = 10 * time.Second
	acceptHeader   = "application/json, text/plain, */*"
)

// Config holds configuration for the gateway.
type Config struct {
	Timeout    time.Duration
	RetryCount int
	UserAgent  string
}

// Gateway implements source.Gateway for every configured site.
type Gateway struct {
	client   *resty.Client
	sites    []domain.SourceSite
	byKey    map[string]domain.SourceSite
	limiters map[string]*rate.Limiter
}

var _ source.Gateway = (*Gateway)(nil)

// NewGateway creates a gateway over the given sites. Disabled sites are
// kept out of the catalog entirely.
func NewGateway(cfg *Config, sites []domain.SourceSite) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Accept", acceptHeader)
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	if cfg.RetryCount > 0 {
		client.SetRetryCount(cfg.RetryCount)
		client.SetRetryWaitTime(500 * time.Millisecond)
		client.SetRetryMaxWaitTime(5 * time.Second)
	}

	g := &Gateway{
		client:   client,
		byKey:    make(map[string]domain.SourceSite, len(sites)),
		limiters: make(map[string]*rate.Limiter),
	}
	for _, s := range sites {
		if s.Disabled {
			continue
		}
		g.sites = append(g.sites, s)
		g.byKey[s.Key] = s
		if s.RateLimit > 0 {
			burst := int(math.Ceil(s.RateLimit))
			g.limiters[s.Key] = rate.NewLimiter(rate.Limit(s.RateLimit), burst)
		}
	}
	return g
}

// Sites returns the enabled sites in configured order.
func (g *Gateway) Sites() []domain.SourceSite {
	out := make([]domain.SourceSite, len(g.sites))
	copy(out, g.sites)
	return out
}

// Site looks up one enabled site by key.
func (g *Gateway) Site(id string) (domain.SourceSite, bool) {
	s, ok := g.byKey[id]
	return s, ok
}

// FetchPage fetches one page of the site's video list.
func (g *Gateway) FetchPage(ctx context.Context, req source.PageRequest) (*source.PageResult, error) {
	if err := req.Validate(); err != nil {
		return nil, &source.GatewayError{SourceID: req.Query.SourceID, Op: actionVideos, Err: err}
	}

	size := strconv.Itoa(req.PageSize)
	params := map[string]string{
		"pg":       strconv.Itoa(req.Page),
		"pagesize": size,
		"limit":    size,
	}
	if req.Query.FilterID != "" {
		params["t"] = req.Query.FilterID
	}
	if req.Query.Keyword != "" {
		params["wd"] = req.Query.Keyword
	}

	start := time.Now()
	payload, err := g.call(ctx, req.Query.SourceID, actionVideos, params)
	if err != nil {
		return nil, err
	}

	items := make([]domain.VideoRecord, 0, len(payload.List))
	for _, v := range payload.List {
		items = append(items, v.toRecord(req.Query.SourceID))
	}

	if len(items) == 0 {
		// Some sites report query problems only through code/msg on an empty list.
		logger.With(logger.Fields{logger.FieldSource: req.Query.SourceID}).
			Debug(ctx, "Upstream returned empty page: query=%s, code=%d, msg=%q, upstream_page=%d, upstream_limit=%s",
				req.Query, payload.Code, payload.Msg, payload.Page, payload.Limit)
	}

	logger.With(logger.Fields{
		logger.FieldSource:     req.Query.SourceID,
		logger.FieldPage:       req.Page,
		logger.FieldCount:      len(items),
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Debug(ctx, "Fetched video page: query=%s, page_size=%d", req.Query, req.PageSize)

	return &source.PageResult{
		Items:         items,
		RequestedPage: req.Page,
		PageSize:      req.PageSize,
		PageCount:     int(payload.PageCount),
		Total:         int(payload.Total),
	}, nil
}

// FetchCategories returns the site's category listing in upstream order.
func (g *Gateway) FetchCategories(ctx context.Context, sourceID string) ([]domain.Category, error) {
	payload, err := g.call(ctx, sourceID, actionCategories, nil)
	if err != nil {
		return nil, err
	}

	categories := make([]domain.Category, 0, len(payload.Class))
	for _, c := range payload.Class {
		categories = append(categories, c.toCategory())
	}
	return categories, nil
}

// call performs one upstream request and decodes the JSON body. Every
// failure mode collapses into *source.GatewayError.
func (g *Gateway) call(ctx context.Context, sourceID, action string, extra map[string]string) (*listResponse, error) {
	site, ok := g.byKey[sourceID]
	if !ok {
		return nil, source.ErrSourceNotFound
	}

	if lim := g.limiters[sourceID]; lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return nil, &source.GatewayError{SourceID: sourceID, Op: action, Err: err}
		}
	}

	params := map[string]string{
		"ac": action,
		"at": "json",
	}
	for k, v := range extra {
		params[k] = v
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(site.API)
	if err != nil {
		return nil, &source.GatewayError{SourceID: sourceID, Op: action, Err: err}
	}

	if !resp.IsSuccess() {
		logger.CtxWarn(ctx, "Upstream returned HTTP error: source=%s, action=%s, status=%d",
			sourceID, action, resp.StatusCode())
		return nil, &source.GatewayError{
			SourceID:   sourceID,
			Op:         action,
			StatusCode: resp.StatusCode(),
			Err:        errors.New(resp.Status()),
		}
	}

	var payload listResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, &source.GatewayError{SourceID: sourceID, Op: action, Err: err}
	}

	return &payload, nil
}
