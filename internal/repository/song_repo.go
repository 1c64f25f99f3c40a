package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gwarren3210/song-recommender/internal/config"
	"github.com/gwarren3210/song-recommender/internal/models"
	"github.com/gwarren3210/song-recommender/internal/similarity"
)

type songRepo struct {
	db       *gorm.DB
	cfg      *config.Config
	advanced bool
}

// NewSongRepository wires the Postgres implementation over an injected
// connection pool. advanced comes from database.EnsureSchema and gates the
// trigram/FTS/HNSW query paths.
func NewSongRepository(db *gorm.DB, cfg *config.Config, advanced bool) SongRepository {
	return &songRepo{db: db, cfg: cfg, advanced: advanced}
}

func (r *songRepo) SupportsAdvancedSearch() bool {
	return r.advanced
}

// parseArtistTitle splits an "Artist - Title.ext" filename the same way the
// import tooling names downloaded previews.
func parseArtistTitle(filename string) (artist, title string) {
	name := filename
	for _, ext := range []string{".m4a", ".mp3", ".wav", ".flac"} {
		name = strings.TrimSuffix(name, ext)
	}
	parts := strings.SplitN(name, " - ", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "Unknown", filename
}

func (r *songRepo) UploadAudio(ctx context.Context, localPath, songID string) (string, error) {
	if songID == "" {
		songID = uuid.NewString()
	} else if _, err := uuid.Parse(songID); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidSongID, songID)
	}

	filename := filepath.Base(localPath)
	artist, title := parseArtistTitle(filename)

	song := models.Song{
		SongID:   songID,
		Filename: filename,
		Artist:   artist,
		Title:    title,
		Metadata: datatypes.JSONMap{},
	}

	// Re-uploading an existing id must not fail or duplicate.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "song_id"}},
			DoNothing: true,
		}).
		Create(&song).Error
	if err != nil {
		return "", fmt.Errorf("failed to upload audio reference: %w", err)
	}
	return songID, nil
}

func (r *songRepo) StoreEmbedding(ctx context.Context, songID string, vector []float32, modelName string) error {
	if _, err := uuid.Parse(songID); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidSongID, songID)
	}
	if len(vector) != r.cfg.EmbeddingDim {
		return fmt.Errorf("%w: got %d, want %d", similarity.ErrDimensionMismatch, len(vector), r.cfg.EmbeddingDim)
	}
	if similarity.IsZero(vector) {
		return similarity.ErrZeroVector
	}

	// Orphan embeddings are rejected: an embedding with no song row can
	// never be joined back to a result.
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Song{}).
		Where("song_id = ?", songID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check song existence: %w", err)
	}
	if count == 0 {
		return ErrSongNotFound
	}

	emb := models.Embedding{
		EmbeddingID: uuid.NewString(),
		SongID:      songID,
		Embedding:   pgvector.NewVector(vector),
		ModelName:   modelName,
	}
	if err := r.db.WithContext(ctx).Create(&emb).Error; err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	return nil
}

func (r *songRepo) GetEmbedding(ctx context.Context, songID string) ([]float32, error) {
	if _, err := uuid.Parse(songID); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSongID, songID)
	}

	var emb models.Embedding
	err := r.db.WithContext(ctx).
		Where("song_id = ?", songID).
		Order("created_at DESC").
		First(&emb).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoEmbedding
		}
		return nil, fmt.Errorf("failed to get embedding: %w", err)
	}
	return emb.Embedding.Slice(), nil
}

// songColumns are the updatable song fields for upsert-by-id.
var songColumns = []string{
	"filename", "artist", "title", "duration", "genre", "preview_url",
	"track_id", "collection_id", "collection_name", "artist_view_url",
	"collection_view_url", "track_view_url", "artwork_url", "release_date",
	"track_time_millis", "metadata", "updated_at",
}

func (r *songRepo) StoreMetadata(ctx context.Context, songID string, meta SongUpsert) error {
	if _, err := uuid.Parse(songID); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidSongID, songID)
	}

	extra := meta.Extra
	if extra == nil {
		extra = map[string]interface{}{}
	}
	now := time.Now().UTC()

	song := models.Song{
		SongID:            songID,
		Filename:          meta.Filename,
		Artist:            meta.Artist,
		Title:             meta.Title,
		Duration:          meta.Duration,
		Genre:             meta.Genre,
		PreviewURL:        meta.PreviewURL,
		TrackID:           meta.TrackID,
		CollectionID:      meta.CollectionID,
		CollectionName:    meta.CollectionName,
		ArtistViewURL:     meta.ArtistViewURL,
		CollectionViewURL: meta.CollectionViewURL,
		TrackViewURL:      meta.TrackViewURL,
		ArtworkURL:        meta.ArtworkURL,
		ReleaseDate:       meta.ReleaseDate,
		TrackTimeMillis:   meta.TrackTimeMillis,
		Metadata:          datatypes.JSONMap(extra),
		UpdatedAt:         now,
	}
	record := models.SongMetadata{
		SongID:        songID,
		Path:          meta.Path,
		EmbeddingPath: meta.EmbeddingPath,
		SampleRate:    meta.SampleRate,
		FileSize:      meta.FileSize,
		FileHash:      meta.FileHash,
		UpdatedAt:     now,
	}

	// Song and its metadata record land together or not at all.
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "song_id"}},
			DoUpdates: clause.AssignmentColumns(songColumns),
		}).Create(&song).Error; err != nil {
			return err
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "song_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"path", "embedding_path", "sample_rate", "file_size", "file_hash", "updated_at",
			}),
		}).Create(&record).Error; err != nil {
			return err
		}

		// Genre set write-through keeps getDistinctGenres off the songs
		// table.
		if meta.Genre != nil && *meta.Genre != "" {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.Genre{Genre: *meta.Genre}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store metadata: %w", err)
	}
	return nil
}

func (r *songRepo) GetMetadata(ctx context.Context, songID string) (*models.Song, error) {
	if _, err := uuid.Parse(songID); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSongID, songID)
	}

	var song models.Song
	err := r.db.WithContext(ctx).First(&song, "song_id = ?", songID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSongNotFound
		}
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}
	return &song, nil
}

func (r *songRepo) ListSongs(ctx context.Context, f ListFilters, limit, skip int) ([]models.Song, error) {
	if limit <= 0 {
		limit = 20
	}
	if skip < 0 {
		skip = 0
	}

	q := r.db.WithContext(ctx).Model(&models.Song{})
	if f.Artist != "" {
		q = q.Where("artist = ?", f.Artist)
	}
	if f.Genre != "" {
		q = q.Where("genre = ?", f.Genre)
	}
	if f.Title != "" {
		q = q.Where("title ILIKE ?", "%"+f.Title+"%")
	}

	var songs []models.Song
	err := q.Order("created_at DESC, song_id ASC").
		Offset(skip).
		Limit(limit).
		Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	if songs == nil {
		songs = []models.Song{}
	}
	return songs, nil
}

func (r *songRepo) FindSongID(ctx context.Context, name, path string) (string, error) {
	db := r.db.WithContext(ctx)

	if path != "" {
		var id string
		err := db.Model(&models.SongMetadata{}).
			Where("path = ?", path).
			Limit(1).
			Pluck("song_id", &id).Error
		if err != nil {
			return "", fmt.Errorf("failed to resolve song by path: %w", err)
		}
		if id != "" {
			return id, nil
		}

		err = db.Model(&models.Song{}).
			Where("preview_url = ?", path).
			Limit(1).
			Pluck("song_id", &id).Error
		if err != nil {
			return "", fmt.Errorf("failed to resolve song by preview url: %w", err)
		}
		if id != "" {
			return id, nil
		}
	}

	if name != "" {
		pattern := "%" + strings.ToLower(name) + "%"
		var id string
		err := db.Model(&models.Song{}).
			Where("LOWER(filename) LIKE ? OR LOWER(title) LIKE ? OR LOWER(artist) LIKE ?",
				pattern, pattern, pattern).
			Limit(1).
			Pluck("song_id", &id).Error
		if err != nil {
			return "", fmt.Errorf("failed to resolve song by name: %w", err)
		}
		if id != "" {
			return id, nil
		}
	}

	return "", ErrSongNotFound
}

func (r *songRepo) DeleteSong(ctx context.Context, songID string) error {
	if _, err := uuid.Parse(songID); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidSongID, songID)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("song_id = ?", songID).Delete(&models.Embedding{}).Error; err != nil {
			return err
		}
		if err := tx.Where("song_id = ?", songID).Delete(&models.SongMetadata{}).Error; err != nil {
			return err
		}
		res := tx.Where("song_id = ?", songID).Delete(&models.Song{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSongNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSongNotFound) {
			return ErrSongNotFound
		}
		return fmt.Errorf("failed to delete song: %w", err)
	}
	return nil
}

func (r *songRepo) GetDistinctGenres(ctx context.Context) ([]string, error) {
	var genres []string
	err := r.db.WithContext(ctx).Model(&models.Genre{}).
		Order("genre").
		Pluck("genre", &genres).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get genres: %w", err)
	}
	if genres == nil {
		genres = []string{}
	}
	return genres, nil
}

func (r *songRepo) GetDatabaseStats(ctx context.Context) (*models.DatabaseStats, error) {
	stats := &models.DatabaseStats{
		TopArtists:  []models.ArtistCount{},
		TopGenres:   []models.GenreCount{},
		RecentSongs: []models.Song{},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		type base struct {
			TotalSongs    int64
			UniqueArtists int64
			UniqueGenres  int64
			TotalDuration float64
		}
		var b base
		err := r.db.WithContext(gctx).Raw(`
			SELECT
				COUNT(*) AS total_songs,
				COUNT(DISTINCT artist) AS unique_artists,
				COUNT(DISTINCT genre) AS unique_genres,
				COALESCE(SUM(duration), 0) AS total_duration
			FROM songs`).Scan(&b).Error
		if err != nil {
			return err
		}
		stats.TotalSongs = b.TotalSongs
		stats.UniqueArtists = b.UniqueArtists
		stats.UniqueGenres = b.UniqueGenres
		stats.TotalDuration = b.TotalDuration
		return nil
	})

	g.Go(func() error {
		return r.db.WithContext(gctx).Raw(`
			SELECT artist, COUNT(*) AS count
			FROM songs
			WHERE artist IS NOT NULL AND artist != ''
			GROUP BY artist
			ORDER BY count DESC, artist ASC
			LIMIT 10`).Scan(&stats.TopArtists).Error
	})

	g.Go(func() error {
		return r.db.WithContext(gctx).Raw(`
			SELECT genre, COUNT(*) AS count
			FROM songs
			WHERE genre IS NOT NULL AND genre != ''
			GROUP BY genre
			ORDER BY count DESC, genre ASC
			LIMIT 10`).Scan(&stats.TopGenres).Error
	})

	g.Go(func() error {
		return r.db.WithContext(gctx).Model(&models.Song{}).
			Order("created_at DESC, song_id ASC").
			Limit(10).
			Find(&stats.RecentSongs).Error
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to get database stats: %w", err)
	}
	return stats, nil
}
