package domain

import "time"

// Favorite is a video a client has bookmarked.
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	OwnerID   string    `gorm:"type:text;not null;uniqueIndex:idx_favorites_owner_video" json:"-"`
	SourceID  string    `gorm:"type:text;not null;uniqueIndex:idx_favorites_owner_video" json:"source_id"`
	VideoID   string    `gorm:"type:text;not null;uniqueIndex:idx_favorites_owner_video" json:"video_id"`
	Title     string    `gorm:"type:text" json:"title"`
	Poster    string    `gorm:"type:text" json:"poster"`
	Year      string    `gorm:"type:text" json:"year,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Favorite.
func (Favorite) TableName() string {
	return "favorites"
}

// PlayRecord tracks playback progress for continue-watching.
type PlayRecord struct {
	ID              uint      `gorm:"primaryKey" json:"-"`
	OwnerID         string    `gorm:"type:text;not null;uniqueIndex:idx_play_records_owner_video" json:"-"`
	SourceID        string    `gorm:"type:text;not null;uniqueIndex:idx_play_records_owner_video" json:"source_id"`
	VideoID         string    `gorm:"type:text;not null;uniqueIndex:idx_play_records_owner_video" json:"video_id"`
	Title           string    `gorm:"type:text" json:"title"`
	Poster          string    `gorm:"type:text" json:"poster"`
	Episode         int       `json:"episode"`
	TotalEpisodes   int       `json:"total_episodes"`
	ProgressSeconds int       `json:"progress_seconds"`
	DurationSeconds int       `json:"duration_seconds"`
	UpdatedAt       time.Time `gorm:"index:idx_play_records_updated" json:"updated_at"`
}

// TableName returns the database table name for PlayRecord.
func (PlayRecord) TableName() string {
	return "play_records"
}

// finishedRatio is the progress fraction past which a record counts as watched.
const finishedRatio = 0.95

// Finished reports whether playback reached the end of the last episode.
// Records with unknown duration are never finished.
func (p PlayRecord) Finished() bool {
	if p.DurationSeconds <= 0 {
		return false
	}
	if p.TotalEpisodes > 0 && p.Episode < p.TotalEpisodes {
		return false
	}
	return float64(p.ProgressSeconds) >= finishedRatio*float64(p.DurationSeconds)
}
