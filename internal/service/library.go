package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/timmy/vodhub/internal/domain"
	"github.com/timmy/vodhub/internal/logger"
)

// ErrInvalidLibraryEntry is returned when an entry lacks its owner or keys.
var ErrInvalidLibraryEntry = errors.New("invalid library entry")

// FavoriteStore persists favorites.
type FavoriteStore interface {
	Upsert(ctx context.Context, fav *domain.Favorite) error
	Get(ctx context.Context, ownerID, sourceID, videoID string) (*domain.Favorite, error)
	Delete(ctx context.Context, ownerID, sourceID, videoID string) (bool, error)
	Exists(ctx context.Context, ownerID, sourceID, videoID string) (bool, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Favorite, error)
}

// PlayRecordStore persists playback progress.
type PlayRecordStore interface {
	Upsert(ctx context.Context, rec *domain.PlayRecord) error
	Delete(ctx context.Context, ownerID, sourceID, videoID string) (bool, error)
	ListRecent(ctx context.Context, ownerID string, limit int) ([]domain.PlayRecord, error)
}

// LibraryService manages per-client favorites and continue-watching records.
type LibraryService struct {
	favorites FavoriteStore
	records   PlayRecordStore
}

// NewLibraryService creates a new library service.
func NewLibraryService(favorites FavoriteStore, records PlayRecordStore) *LibraryService {
	return &LibraryService{favorites: favorites, records: records}
}

func checkKeys(ownerID, sourceID, videoID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return fmt.Errorf("%w: client id is required", ErrInvalidLibraryEntry)
	}
	if sourceID == "" || videoID == "" {
		return fmt.Errorf("%w: source id and video id are required", ErrInvalidLibraryEntry)
	}
	return nil
}

// AddFavorite bookmarks a video; adding it again refreshes its title and
// poster but keeps the original creation time. It returns the stored row.
func (s *LibraryService) AddFavorite(ctx context.Context, fav *domain.Favorite) (*domain.Favorite, error) {
	if err := checkKeys(fav.OwnerID, fav.SourceID, fav.VideoID); err != nil {
		return nil, err
	}
	if err := s.favorites.Upsert(ctx, fav); err != nil {
		return nil, fmt.Errorf("failed to save favorite: %w", err)
	}
	stored, err := s.favorites.Get(ctx, fav.OwnerID, fav.SourceID, fav.VideoID)
	if err != nil {
		return nil, fmt.Errorf("failed to read favorite: %w", err)
	}
	logger.With(logger.Fields{
		logger.FieldClientID: fav.OwnerID,
		logger.FieldSource:   fav.SourceID,
	}).Debug(ctx, "Favorite saved: video_id=%s", fav.VideoID)
	return stored, nil
}

// RemoveFavorite deletes a bookmark. It reports whether one existed.
func (s *LibraryService) RemoveFavorite(ctx context.Context, ownerID, sourceID, videoID string) (bool, error) {
	if err := checkKeys(ownerID, sourceID, videoID); err != nil {
		return false, err
	}
	removed, err := s.favorites.Delete(ctx, ownerID, sourceID, videoID)
	if err != nil {
		return false, fmt.Errorf("failed to delete favorite: %w", err)
	}
	return removed, nil
}

// IsFavorite checks one bookmark.
func (s *LibraryService) IsFavorite(ctx context.Context, ownerID, sourceID, videoID string) (bool, error) {
	if err := checkKeys(ownerID, sourceID, videoID); err != nil {
		return false, err
	}
	return s.favorites.Exists(ctx, ownerID, sourceID, videoID)
}

// ListFavorites returns the owner's bookmarks, newest first.
func (s *LibraryService) ListFavorites(ctx context.Context, ownerID string) ([]domain.Favorite, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: client id is required", ErrInvalidLibraryEntry)
	}
	favs, err := s.favorites.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return nonNil(favs), nil
}

// SavePlayRecord stores the latest playback position.
func (s *LibraryService) SavePlayRecord(ctx context.Context, rec *domain.PlayRecord) error {
	if err := checkKeys(rec.OwnerID, rec.SourceID, rec.VideoID); err != nil {
		return err
	}
	if rec.Episode < 0 || rec.ProgressSeconds < 0 || rec.DurationSeconds < 0 {
		return fmt.Errorf("%w: progress values must not be negative", ErrInvalidLibraryEntry)
	}
	if err := s.records.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("failed to save play record: %w", err)
	}
	return nil
}

// DeletePlayRecord forgets one video's progress. It reports whether a record existed.
func (s *LibraryService) DeletePlayRecord(ctx context.Context, ownerID, sourceID, videoID string) (bool, error) {
	if err := checkKeys(ownerID, sourceID, videoID); err != nil {
		return false, err
	}
	removed, err := s.records.Delete(ctx, ownerID, sourceID, videoID)
	if err != nil {
		return false, fmt.Errorf("failed to delete play record: %w", err)
	}
	return removed, nil
}

// ContinueWatching returns unfinished records, most recently played first.
// Parameters:
//   - ctx: request context.
//   - ownerID: client id.
//   - limit: maximum records returned; <= 0 means all.
//
// Returns:
//   - []domain.PlayRecord: unfinished records.
//   - error: non-nil if the owner is missing or the store fails.
func (s *LibraryService) ContinueWatching(ctx context.Context, ownerID string, limit int) ([]domain.PlayRecord, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: client id is required", ErrInvalidLibraryEntry)
	}
	// Finished records are filtered after the query, so fetch them all.
	recs, err := s.records.ListRecent(ctx, ownerID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list play records: %w", err)
	}
	unfinished := lo.Reject(recs, func(r domain.PlayRecord, _ int) bool {
		return r.Finished()
	})
	if limit > 0 && len(unfinished) > limit {
		unfinished = unfinished[:limit]
	}
	return nonNil(unfinished), nil
}
