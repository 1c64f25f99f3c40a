// Package repository defines the storage backend contract and its Postgres
// implementation.
package repository

import (
	"context"
	"errors"

	"github.com/gwarren3210/song-recommender/internal/models"
)

var (
	ErrSongNotFound  = errors.New("song not found")
	ErrNoEmbedding   = errors.New("no embedding stored for song")
	ErrInvalidSongID = errors.New("invalid song id")
)

// ListFilters narrows ListSongs results. Artist and Genre are equality
// matches; Title is a case-insensitive substring match.
type ListFilters struct {
	Artist string
	Genre  string
	Title  string
}

// SearchMode selects the ranking strategy for SearchSongs.
type SearchMode string

const (
	SearchModeFTS          SearchMode = "fts"
	SearchModeTrigram      SearchMode = "trigram"
	SearchModeAutocomplete SearchMode = "autocomplete"
	SearchModeHybrid       SearchMode = "hybrid"
)

// ParseSearchMode maps a caller-supplied string to a mode, defaulting to
// hybrid for anything unrecognized.
func ParseSearchMode(s string) SearchMode {
	switch SearchMode(s) {
	case SearchModeFTS, SearchModeTrigram, SearchModeAutocomplete, SearchModeHybrid:
		return SearchMode(s)
	default:
		return SearchModeHybrid
	}
}

// SongUpsert carries every field StoreMetadata can write: the core song row,
// its provenance fields, the free-form metadata map, and the supplementary
// 1:1 metadata record.
type SongUpsert struct {
	Filename          string                 `json:"filename"`
	Artist            string                 `json:"artist"`
	Title             string                 `json:"title"`
	Duration          *float64               `json:"duration"`
	Genre             *string                `json:"genre"`
	PreviewURL        *string                `json:"preview_url"`
	TrackID           *int64                 `json:"track_id"`
	CollectionID      *int64                 `json:"collection_id"`
	CollectionName    string                 `json:"collection_name"`
	ArtistViewURL     string                 `json:"artist_view_url"`
	CollectionViewURL string                 `json:"collection_view_url"`
	TrackViewURL      string                 `json:"track_view_url"`
	ArtworkURL        string                 `json:"artwork_url"`
	ReleaseDate       string                 `json:"release_date"`
	TrackTimeMillis   *int64                 `json:"track_time_millis"`
	Extra             map[string]interface{} `json:"metadata"`

	Path          string `json:"path"`
	EmbeddingPath string `json:"embedding_path"`
	SampleRate    *int   `json:"sample_rate"`
	FileSize      *int64 `json:"file_size"`
	FileHash      string `json:"file_hash"`
}

// SongRepository is the persistence contract every storage backend must
// satisfy. Not-found conditions surface as sentinel errors here; the service
// layer maps them to empty results.
type SongRepository interface {
	// UploadAudio registers an audio reference as a song row, deriving
	// artist/title from the filename. An empty songID generates one; an
	// existing songID is an idempotent no-op.
	UploadAudio(ctx context.Context, localPath, songID string) (string, error)

	// StoreEmbedding appends a new embedding row for the song. The vector
	// must be non-zero and match the configured dimension, and the song
	// must already exist.
	StoreEmbedding(ctx context.Context, songID string, vector []float32, modelName string) error

	// GetEmbedding returns the most recently stored vector for the song.
	GetEmbedding(ctx context.Context, songID string) ([]float32, error)

	// StoreMetadata upserts the song row, its supplementary metadata
	// record, and the genre lookup set as one atomic unit.
	StoreMetadata(ctx context.Context, songID string, meta SongUpsert) error

	GetMetadata(ctx context.Context, songID string) (*models.Song, error)
	ListSongs(ctx context.Context, f ListFilters, limit, skip int) ([]models.Song, error)

	// FindSongID resolves a human query to a song id. A path match takes
	// precedence over a name match when both are supplied.
	FindSongID(ctx context.Context, name, path string) (string, error)

	DeleteSong(ctx context.Context, songID string) error

	// SearchSimilar returns up to k songs ordered by descending cosine
	// similarity, each enriched with its song row via one batched lookup.
	// threshold, when non-nil, is an inclusive lower bound.
	SearchSimilar(ctx context.Context, vector []float32, k int, threshold *float64) ([]models.SimilarSong, error)

	// SearchSongs runs the advanced text search. queryVec, when non-nil,
	// adds the vector component to hybrid fusion.
	SearchSongs(ctx context.Context, query string, limit int, mode SearchMode, queryVec []float32) ([]models.Song, error)

	GetDistinctGenres(ctx context.Context) ([]string, error)
	GetDatabaseStats(ctx context.Context) (*models.DatabaseStats, error)

	// SupportsAdvancedSearch reports whether the trigram/FTS/HNSW schema
	// objects are available. When false, searches use the degraded paths.
	SupportsAdvancedSearch() bool
}
