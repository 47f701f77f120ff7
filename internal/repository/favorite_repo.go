package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/timmy/vodhub/internal/domain"
)

// FavoriteRepository handles favorite bookmarks.
type FavoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository creates a new FavoriteRepository.
func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Upsert creates a favorite or refreshes its display fields.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - fav: favorite keyed by owner, source and video.
//
// Returns:
//   - error: non-nil if the write fails.
func (r *FavoriteRepository) Upsert(ctx context.Context, fav *domain.Favorite) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}, {Name: "source_id"}, {Name: "video_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "poster", "year", "updated_at"}),
	}).Create(fav).Error
}

// Get retrieves one favorite; gorm.ErrRecordNotFound when absent.
func (r *FavoriteRepository) Get(ctx context.Context, ownerID, sourceID, videoID string) (*domain.Favorite, error) {
	var fav domain.Favorite
	err := r.db.WithContext(ctx).
		First(&fav, "owner_id = ? AND source_id = ? AND video_id = ?", ownerID, sourceID, videoID).Error
	if err != nil {
		return nil, err
	}
	return &fav, nil
}

// Delete removes a favorite. It reports whether a row was removed.
func (r *FavoriteRepository) Delete(ctx context.Context, ownerID, sourceID, videoID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("owner_id = ? AND source_id = ? AND video_id = ?", ownerID, sourceID, videoID).
		Delete(&domain.Favorite{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Exists checks whether the owner has favorited the video.
func (r *FavoriteRepository) Exists(ctx context.Context, ownerID, sourceID, videoID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Favorite{}).
		Where("owner_id = ? AND source_id = ? AND video_id = ?", ownerID, sourceID, videoID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByOwner returns the owner's favorites, newest first.
func (r *FavoriteRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Favorite, error) {
	var favs []domain.Favorite
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&favs).Error
	return favs, err
}
