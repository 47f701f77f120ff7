package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/timmy/vodhub/internal/domain"
)

// PlayRecordRepository handles playback progress records.
type PlayRecordRepository struct {
	db *gorm.DB
}

// NewPlayRecordRepository creates a new PlayRecordRepository.
func NewPlayRecordRepository(db *gorm.DB) *PlayRecordRepository {
	return &PlayRecordRepository{db: db}
}

// Upsert stores the latest progress for (owner, source, video).
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - rec: progress record; an existing row for the same key is overwritten.
//
// Returns:
//   - error: non-nil if the write fails.
func (r *PlayRecordRepository) Upsert(ctx context.Context, rec *domain.PlayRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_id"}, {Name: "source_id"}, {Name: "video_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "poster", "episode", "total_episodes",
			"progress_seconds", "duration_seconds", "updated_at",
		}),
	}).Create(rec).Error
}

// Get retrieves one record; gorm.ErrRecordNotFound when absent.
func (r *PlayRecordRepository) Get(ctx context.Context, ownerID, sourceID, videoID string) (*domain.PlayRecord, error) {
	var rec domain.PlayRecord
	err := r.db.WithContext(ctx).
		First(&rec, "owner_id = ? AND source_id = ? AND video_id = ?", ownerID, sourceID, videoID).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes a record. It reports whether a row was removed.
func (r *PlayRecordRepository) Delete(ctx context.Context, ownerID, sourceID, videoID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("owner_id = ? AND source_id = ? AND video_id = ?", ownerID, sourceID, videoID).
		Delete(&domain.PlayRecord{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListRecent returns the owner's records, most recently updated first.
// A limit <= 0 returns all of them.
func (r *PlayRecordRepository) ListRecent(ctx context.Context, ownerID string, limit int) ([]domain.PlayRecord, error) {
	var recs []domain.PlayRecord
	q := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&recs).Error
	return recs, err
}
