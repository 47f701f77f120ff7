package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/vodhub/internal/domain"
	"github.com/timmy/vodhub/internal/source"
)

func TestCatalogCategories(t *testing.T) {
	gw := newStubGateway("s1")
	gw.categories = []domain.Category{
		{TypeID: 1, ParentTypeID: 0, Name: "电影"},
		{TypeID: 2, ParentTypeID: 0, Name: "连续剧"},
		{TypeID: 6, ParentTypeID: 1, Name: "喜剧片"},
		{TypeID: 7, ParentTypeID: 1, Name: "爱情片"},
	}
	svc := NewCatalogService(gw, nil)

	groups, err := svc.Categories(context.Background(), "s1", "")
	require.NoError(t, err)
	assert.Len(t, groups.Primary, 2)
	assert.Len(t, groups.Secondary, 2)
	assert.Equal(t, 1, groups.Primary[0].TypeID)
	assert.Equal(t, 6, groups.Secondary[0].TypeID)

	groups, err = svc.Categories(context.Background(), "s1", "喜剧")
	require.NoError(t, err)
	assert.Empty(t, groups.Primary)
	require.Len(t, groups.Secondary, 1)
	assert.Equal(t, "喜剧片", groups.Secondary[0].Name)

	_, err = svc.Categories(context.Background(), "nope", "")
	assert.ErrorIs(t, err, source.ErrSourceNotFound)
}

func TestCatalogVideosValidates(t *testing.T) {
	gw := newStubGateway("s1")
	svc := NewCatalogService(gw, nil)

	_, err := svc.Videos(context.Background(), source.PageRequest{
		Query: source.ListQuery{SourceID: "s1"}, Page: 0, PageSize: 20,
	})
	assert.ErrorIs(t, err, ErrInvalidPageRequest)
	assert.Zero(t, gw.requestCount())

	res, err := svc.Videos(context.Background(), source.PageRequest{
		Query: source.ListQuery{SourceID: "s1"}, Page: 3, PageSize: 20,
	})
	require.NoError(t, err)
	assert.Len(t, res.Items, 5)
	assert.False(t, res.IsFull())
}

func TestCatalogLatestIsolatesFailures(t *testing.T) {
	gw := newStubGateway("s1", "s2", "s3")
	gw.failing["s2"] = &source.GatewayError{SourceID: "s2", Op: "videolist", Err: errors.New("boom")}
	svc := NewCatalogService(gw, &CatalogConfig{HomeLimit: 8})

	shelves := svc.Latest(context.Background(), 0)
	require.Len(t, shelves, 3)

	assert.Equal(t, "s1", shelves[0].Source.Key)
	assert.Len(t, shelves[0].Items, 8)
	assert.Empty(t, shelves[0].Error)

	assert.Equal(t, "s2", shelves[1].Source.Key)
	assert.NotNil(t, shelves[1].Items)
	assert.Empty(t, shelves[1].Items)
	assert.Contains(t, shelves[1].Error, "boom")

	assert.Equal(t, "s3", shelves[2].Source.Key)
	assert.Len(t, shelves[2].Items, 8)
}

func TestCatalogLatestCapsSources(t *testing.T) {
	gw := newStubGateway("s1", "s2", "s3", "s4")
	svc := NewCatalogService(gw, &CatalogConfig{HomeLimit: 5, HomeSources: 3})

	shelves := svc.Latest(context.Background(), 0)
	require.Len(t, shelves, 3)
	assert.Equal(t, "s3", shelves[2].Source.Key)
	assert.Equal(t, 3, gw.requestCount())
	assert.Len(t, shelves[0].Items, 5)
}

func TestCatalogFeed(t *testing.T) {
	gw := newStubGateway("s1", "s2")
	svc := NewCatalogService(gw, &CatalogConfig{
		CategoryMap: map[string]string{"喜剧": "6"},
	})
	ctx := context.Background()

	items, err := svc.Feed(ctx, FeedRequest{Category: "喜剧", Tag: "热门", Limit: 20, Start: 40})
	require.NoError(t, err)
	assert.Len(t, items, 5)
	assert.Equal(t, "8.1", items[0].Rate)
	assert.Equal(t, "2024", items[0].Year)

	req := gw.lastRequest()
	assert.Equal(t, "s1", req.Query.SourceID)
	assert.Equal(t, "6", req.Query.FilterID)
	assert.Empty(t, req.Query.Keyword)
	assert.Equal(t, 3, req.Page)
	assert.Equal(t, 20, req.PageSize)

	_, err = svc.Feed(ctx, FeedRequest{Kind: "tv", Category: "未知", Tag: "港剧", Limit: 10, Start: 15})
	require.NoError(t, err)
	req = gw.lastRequest()
	assert.Empty(t, req.Query.FilterID)
	assert.Equal(t, "港剧", req.Query.Keyword)
	assert.Equal(t, 2, req.Page)
}

func TestCatalogFeedValidation(t *testing.T) {
	svc := NewCatalogService(newStubGateway("s1"), nil)
	ctx := context.Background()

	cases := []FeedRequest{
		{Category: "喜剧", Tag: "全部", Limit: 20, Start: -1},
		{Category: "喜剧", Tag: "全部", Limit: 0},
		{Category: "喜剧", Tag: "全部", Limit: 101},
		{Category: "喜剧", Tag: "全部", Limit: -5},
		{Category: "", Tag: "全部"},
		{Category: "喜剧", Tag: ""},
		{Kind: "anime", Category: "喜剧", Tag: "全部"},
	}
	for _, c := range cases {
		_, err := svc.Feed(ctx, c)
		assert.ErrorIs(t, err, ErrInvalidFeedRequest, "%+v", c)
	}
}

func TestCatalogFeedUsesConfiguredSource(t *testing.T) {
	gw := newStubGateway("s1", "s2")
	svc := NewCatalogService(gw, &CatalogConfig{FeedSource: "s2"})

	_, err := svc.Feed(context.Background(), FeedRequest{Category: "全部", Tag: "全部", Limit: DefaultFeedLimit})
	require.NoError(t, err)
	req := gw.lastRequest()
	assert.Equal(t, "s2", req.Query.SourceID)
	assert.Equal(t, 20, req.PageSize)
	assert.Equal(t, 1, req.Page)
}
