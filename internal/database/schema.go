package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/gwarren3210/song-recommender/internal/config"
	"github.com/gwarren3210/song-recommender/internal/models"
)

// EnsureSchema bootstraps tables, extensions, the generated search document
// column, and the accelerating indexes. Every step is idempotent: objects
// that already exist are left alone.
//
// The returned bool reports whether the advanced search objects (pg_trgm,
// tsvector column, trigram/GIN/HNSW indexes) are all available. When they are
// not, search degrades to ILIKE matching and in-process vector scans instead
// of failing.
func EnsureSchema(db *gorm.DB, cfg *config.Config) (bool, error) {
	advanced := true

	// vector and uuid-ossp must exist before AutoMigrate touches the
	// embeddings and songs tables.
	for _, ext := range []string{"vector", "uuid-ossp", "pg_trgm"} {
		if err := db.Exec(fmt.Sprintf(`CREATE EXTENSION IF NOT EXISTS %q`, ext)).Error; err != nil {
			log.Printf("[Schema] could not create extension %s: %v", ext, err)
			advanced = false
		}
	}

	if err := db.AutoMigrate(
		&models.Song{},
		&models.SongMetadata{},
		&models.Embedding{},
		&models.Genre{},
	); err != nil {
		return false, fmt.Errorf("failed to migrate schema: %w", err)
	}

	// The embedding column carries the configured dimension, which a model
	// tag cannot express, so it is added by hand after AutoMigrate. Writes
	// validate against the same cfg.EmbeddingDim, keeping the column and the
	// boundary checks in agreement.
	if err := db.Exec(embeddingColumnDDL(cfg.EmbeddingDim)).Error; err != nil {
		return false, fmt.Errorf("failed to create embedding column: %w", err)
	}

	if err := ensureSearchVectorColumn(db); err != nil {
		log.Printf("[Schema] search_vector column unavailable: %v", err)
		advanced = false
	}

	indexes := []struct {
		name string
		sql  string
	}{
		{"idx_songs_search_vector", `
			CREATE INDEX IF NOT EXISTS idx_songs_search_vector
			ON songs USING GIN (search_vector)`},
		{"idx_song_title_trgm", `
			CREATE INDEX IF NOT EXISTS idx_song_title_trgm
			ON songs USING GIN (title gin_trgm_ops)`},
		{"idx_song_artist_trgm", `
			CREATE INDEX IF NOT EXISTS idx_song_artist_trgm
			ON songs USING GIN (artist gin_trgm_ops)`},
		{"idx_song_title_artist_trgm", `
			CREATE INDEX IF NOT EXISTS idx_song_title_artist_trgm
			ON songs USING GIN ((title || ' ' || COALESCE(artist, '')) gin_trgm_ops)`},
		{"idx_embeddings_embedding_hnsw", `
			CREATE INDEX IF NOT EXISTS idx_embeddings_embedding_hnsw
			ON embeddings USING hnsw (embedding vector_cosine_ops)`},
	}
	for _, idx := range indexes {
		if err := db.Exec(idx.sql).Error; err != nil {
			log.Printf("[Schema] could not create index %s: %v", idx.name, err)
			advanced = false
		}
	}

	return advanced, nil
}

// embeddingColumnDDL sizes the vector column from the configured embedding
// dimension. Non-positive dimensions fall back to 512, matching the config
// default.
func embeddingColumnDDL(dim int) string {
	if dim <= 0 {
		dim = 512
	}
	return fmt.Sprintf(`ALTER TABLE embeddings ADD COLUMN IF NOT EXISTS embedding vector(%d)`, dim)
}

// ensureSearchVectorColumn adds the generated tsvector document weighted
// title (A) over artist (B). Generated columns cannot be expressed as a GORM
// model field, so the column is added by hand after AutoMigrate.
func ensureSearchVectorColumn(db *gorm.DB) error {
	var exists bool
	err := db.Raw(`
		SELECT EXISTS(
			SELECT 1 FROM information_schema.columns
			WHERE table_name = 'songs' AND column_name = 'search_vector'
		)`).Scan(&exists).Error
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = db.Exec(`
		ALTER TABLE songs
		ADD COLUMN search_vector tsvector
			GENERATED ALWAYS AS (
				setweight(to_tsvector('english', COALESCE(title, '')), 'A') ||
				setweight(to_tsvector('english', COALESCE(artist, '')), 'B')
			) STORED`).Error
	if err != nil {
		return err
	}
	log.Println("[Schema] created search_vector column")
	return nil
}
