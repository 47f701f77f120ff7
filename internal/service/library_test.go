package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/vodhub/internal/domain"
)

type memoryLibrary struct {
	mu        sync.Mutex
	favorites map[string]domain.Favorite
	records   map[string]domain.PlayRecord
}

func newMemoryLibrary() *memoryLibrary {
	return &memoryLibrary{
		favorites: map[string]domain.Favorite{},
		records:   map[string]domain.PlayRecord{},
	}
}

func libraryKey(owner, src, video string) string {
	return owner + "|" + src + "|" + video
}

type memoryFavorites struct{ *memoryLibrary }

// Upsert keeps the first CreatedAt, like the gorm conflict clause.
func (m memoryFavorites) Upsert(_ context.Context, fav *domain.Favorite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := libraryKey(fav.OwnerID, fav.SourceID, fav.VideoID)
	row := *fav
	if prev, ok := m.favorites[k]; ok {
		row.CreatedAt = prev.CreatedAt
	} else if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	m.favorites[k] = row
	return nil
}

func (m memoryFavorites) Get(_ context.Context, owner, src, video string) (*domain.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.favorites[libraryKey(owner, src, video)]
	if !ok {
		return nil, errors.New("record not found")
	}
	return &f, nil
}

func (m memoryFavorites) Delete(_ context.Context, owner, src, video string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := libraryKey(owner, src, video)
	_, ok := m.favorites[k]
	delete(m.favorites, k)
	return ok, nil
}

func (m memoryFavorites) Exists(_ context.Context, owner, src, video string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.favorites[libraryKey(owner, src, video)]
	return ok, nil
}

func (m memoryFavorites) ListByOwner(_ context.Context, owner string) ([]domain.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Favorite
	for _, f := range m.favorites {
		if f.OwnerID == owner {
			out = append(out, f)
		}
	}
	return out, nil
}

type memoryRecords struct{ *memoryLibrary }

func (m memoryRecords) Upsert(_ context.Context, rec *domain.PlayRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[libraryKey(rec.OwnerID, rec.SourceID, rec.VideoID)] = *rec
	return nil
}

func (m memoryRecords) Delete(_ context.Context, owner, src, video string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := libraryKey(owner, src, video)
	_, ok := m.records[k]
	delete(m.records, k)
	return ok, nil
}

func (m memoryRecords) ListRecent(_ context.Context, owner string, limit int) ([]domain.PlayRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PlayRecord
	for _, r := range m.records {
		if r.OwnerID == owner {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func newTestLibrary() *LibraryService {
	m := newMemoryLibrary()
	return NewLibraryService(memoryFavorites{m}, memoryRecords{m})
}

func TestLibraryFavorites(t *testing.T) {
	svc := newTestLibrary()
	ctx := context.Background()

	first, err := svc.AddFavorite(ctx, &domain.Favorite{OwnerID: "c1", SourceID: "s1", VideoID: "1", Title: "A"})
	require.NoError(t, err)

	again, err := svc.AddFavorite(ctx, &domain.Favorite{
		OwnerID: "c1", SourceID: "s1", VideoID: "1", Title: "A2", CreatedAt: first.CreatedAt.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "A2", again.Title)
	assert.True(t, first.CreatedAt.Equal(again.CreatedAt))

	ok, err := svc.IsFavorite(ctx, "c1", "s1", "1")
	require.NoError(t, err)
	assert.True(t, ok)

	favs, err := svc.ListFavorites(ctx, "c2")
	require.NoError(t, err)
	assert.NotNil(t, favs)
	assert.Empty(t, favs)

	removed, err := svc.RemoveFavorite(ctx, "c1", "s1", "1")
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = svc.AddFavorite(ctx, &domain.Favorite{SourceID: "s1", VideoID: "1"})
	assert.ErrorIs(t, err, ErrInvalidLibraryEntry)
	_, err = svc.AddFavorite(ctx, &domain.Favorite{OwnerID: "c1", SourceID: "s1"})
	assert.ErrorIs(t, err, ErrInvalidLibraryEntry)
}

func TestLibraryContinueWatching(t *testing.T) {
	svc := newTestLibrary()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	save := func(video string, ep, total, progress, duration int, at time.Duration) {
		require.NoError(t, svc.SavePlayRecord(ctx, &domain.PlayRecord{
			OwnerID: "c1", SourceID: "s1", VideoID: video,
			Episode: ep, TotalEpisodes: total,
			ProgressSeconds: progress, DurationSeconds: duration,
			UpdatedAt: base.Add(at),
		}))
	}
	save("movie-done", 1, 1, 5900, 6000, 3*time.Minute)
	save("series-mid", 3, 10, 1400, 1400, 2*time.Minute)
	save("movie-half", 1, 1, 1000, 6000, 1*time.Minute)
	save("unknown-duration", 1, 0, 50, 0, 4*time.Minute)

	recs, err := svc.ContinueWatching(ctx, "c1", 0)
	require.NoError(t, err)
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.VideoID
	}
	assert.Equal(t, []string{"unknown-duration", "series-mid", "movie-half"}, ids)

	recs, err = svc.ContinueWatching(ctx, "c1", 2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	removed, err := svc.DeletePlayRecord(ctx, "c1", "s1", "series-mid")
	require.NoError(t, err)
	assert.True(t, removed)

	err = svc.SavePlayRecord(ctx, &domain.PlayRecord{OwnerID: "c1", SourceID: "s1", VideoID: "x", ProgressSeconds: -1})
	assert.ErrorIs(t, err, ErrInvalidLibraryEntry)

	_, err = svc.ContinueWatching(ctx, " ", 0)
	assert.ErrorIs(t, err, ErrInvalidLibraryEntry)
}
