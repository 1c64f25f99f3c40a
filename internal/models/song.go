package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// Song is the system-of-record row for a track. The search_vector tsvector
// column is generated by the database (see database.EnsureSchema) and is
// intentionally absent from the model.
type Song struct {
	SongID            string            `gorm:"type:uuid;primaryKey;column:song_id" json:"song_id"`
	Filename          string            `gorm:"type:varchar(512)" json:"filename"`
	Artist            string            `gorm:"type:varchar(255);index" json:"artist"`
	Title             string            `gorm:"type:varchar(255)" json:"title"`
	Duration          *float64          `json:"duration"`
	Genre             *string           `gorm:"type:varchar(100);index" json:"genre"`
	PreviewURL        *string           `gorm:"type:text" json:"preview_url"`
	TrackID           *int64            `json:"track_id"`
	CollectionID      *int64            `json:"collection_id"`
	CollectionName    string            `gorm:"type:varchar(255)" json:"collection_name"`
	ArtistViewURL     string            `gorm:"type:text" json:"artist_view_url"`
	CollectionViewURL string            `gorm:"type:text" json:"collection_view_url"`
	TrackViewURL      string            `gorm:"type:text" json:"track_view_url"`
	ArtworkURL        string            `gorm:"type:text" json:"artwork_url"`
	ReleaseDate       string            `gorm:"type:varchar(64)" json:"release_date"`
	TrackTimeMillis   *int64            `json:"track_time_millis"`
	Metadata          datatypes.JSONMap `gorm:"type:jsonb" json:"metadata"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`

	// SearchScore is populated by the ranking queries only.
	SearchScore float64 `gorm:"->;-:migration" json:"search_score,omitempty"`
}

// SongMetadata holds supplementary file-level fields kept 1:1 with a Song.
type SongMetadata struct {
	SongID        string    `gorm:"type:uuid;primaryKey;column:song_id" json:"song_id"`
	Path          string    `gorm:"type:text;index" json:"path"`
	EmbeddingPath string    `gorm:"type:text" json:"embedding_path"`
	SampleRate    *int      `json:"sample_rate"`
	FileSize      *int64    `json:"file_size"`
	FileHash      string    `gorm:"type:varchar(128)" json:"file_hash"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (SongMetadata) TableName() string { return "metadata" }

// Embedding is one stored vector for a song. A song may accumulate several
// rows over time (re-embedding with a newer model); readers always take the
// most recently created one. The vector column is sized from EMBEDDING_DIM by
// database.EnsureSchema rather than a tag, so the dimension stays a single
// config knob.
type Embedding struct {
	EmbeddingID string          `gorm:"type:uuid;primaryKey;column:embedding_id" json:"embedding_id"`
	SongID      string          `gorm:"type:uuid;index;not null;column:song_id" json:"song_id"`
	Embedding   pgvector.Vector `gorm:"-:migration;column:embedding" json:"-"`
	ModelName   string          `gorm:"type:varchar(255)" json:"model_name"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Genre is an append-only lookup set so enumerating distinct genres never
// scans the songs table.
type Genre struct {
	Genre string `gorm:"type:varchar(100);primaryKey" json:"genre"`
}

func (Genre) TableName() string { return "genres" }
