package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/gwarren3210/song-recommender/internal/models"
	"github.com/gwarren3210/song-recommender/internal/similarity"
)

func (r *songRepo) SearchSimilar(ctx context.Context, vector []float32, k int, threshold *float64) ([]models.SimilarSong, error) {
	if len(vector) != r.cfg.EmbeddingDim {
		return nil, fmt.Errorf("%w: got %d, want %d", similarity.ErrDimensionMismatch, len(vector), r.cfg.EmbeddingDim)
	}
	if similarity.IsZero(vector) {
		return nil, similarity.ErrZeroVector
	}
	if k <= 0 {
		k = 5
	}

	qv := pgvector.NewVector(vector)

	query := `
		SELECT
			e.embedding_id,
			e.song_id,
			1 - (e.embedding <=> ?::vector) AS similarity
		FROM embeddings e
		WHERE e.embedding IS NOT NULL`
	args := []interface{}{qv}

	if threshold != nil {
		query += ` AND 1 - (e.embedding <=> ?::vector) >= ?`
		args = append(args, qv, *threshold)
	}

	query += `
		ORDER BY e.embedding <=> ?::vector, e.song_id ASC
		LIMIT ?`
	args = append(args, qv, k)

	var hits []models.SimilarSong
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&hits).Error; err != nil {
		// Degraded path: the HNSW operator is unavailable, so score every
		// stored embedding in process. Linear in the embedding count.
		log.Printf("[SearchSimilar] index-accelerated search failed, scanning in process: %v", err)
		return r.searchSimilarFallback(ctx, vector, k, threshold)
	}

	return r.enrichSimilar(ctx, hits)
}

// searchSimilarFallback loads every embedding and computes cosine similarity
// in process. Unsuitable for large corpora; callers see it only when the
// vector index path fails.
func (r *songRepo) searchSimilarFallback(ctx context.Context, vector []float32, k int, threshold *float64) ([]models.SimilarSong, error) {
	var embeddings []models.Embedding
	if err := r.db.WithContext(ctx).Find(&embeddings).Error; err != nil {
		return nil, fmt.Errorf("failed to load embeddings for fallback scan: %w", err)
	}

	return r.enrichSimilar(ctx, rankEmbeddings(embeddings, vector, k, threshold))
}

// rankEmbeddings scores candidates against the query vector in process. When
// a song has accumulated several embeddings, only its most recently created
// one is scored, mirroring what GetEmbedding returns.
func rankEmbeddings(embeddings []models.Embedding, vector []float32, k int, threshold *float64) []models.SimilarSong {
	latest := make(map[string]models.Embedding, len(embeddings))
	for _, emb := range embeddings {
		cur, ok := latest[emb.SongID]
		if !ok || emb.CreatedAt.After(cur.CreatedAt) {
			latest[emb.SongID] = emb
		}
	}

	scored := make([]similarity.Scored, 0, len(latest))
	embeddingIDs := make(map[string]string, len(latest))
	for songID, emb := range latest {
		candidate := emb.Embedding.Slice()
		if len(candidate) != len(vector) {
			continue
		}
		score, err := similarity.Cosine(vector, candidate)
		if err != nil {
			continue
		}
		if threshold != nil && score < *threshold {
			continue
		}
		scored = append(scored, similarity.Scored{ID: songID, Score: score})
		embeddingIDs[songID] = emb.EmbeddingID
	}

	top := similarity.TopK(scored, k)
	hits := make([]models.SimilarSong, 0, len(top))
	for _, s := range top {
		hits = append(hits, models.SimilarSong{
			EmbeddingID: embeddingIDs[s.ID],
			SongID:      s.ID,
			Similarity:  s.Score,
		})
	}
	return hits
}

// enrichSimilar attaches song rows to hits with one batched lookup, never a
// per-hit fetch.
func (r *songRepo) enrichSimilar(ctx context.Context, hits []models.SimilarSong) ([]models.SimilarSong, error) {
	if len(hits) == 0 {
		return []models.SimilarSong{}, nil
	}

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.SongID)
	}

	var songs []models.Song
	if err := r.db.WithContext(ctx).Where("song_id IN ?", ids).Find(&songs).Error; err != nil {
		return nil, fmt.Errorf("failed to batch load song metadata: %w", err)
	}

	byID := make(map[string]*models.Song, len(songs))
	for i := range songs {
		byID[songs[i].SongID] = &songs[i]
	}
	for i := range hits {
		hits[i].Song = byID[hits[i].SongID]
	}
	return hits, nil
}

func (r *songRepo) SearchSongs(ctx context.Context, query string, limit int, mode SearchMode, queryVec []float32) ([]models.Song, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Song{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	if !r.advanced {
		log.Printf("[SearchSongs] advanced search unavailable, using substring fallback for %q", query)
		return r.fallbackSearch(ctx, query, limit)
	}

	var songs []models.Song
	var err error

	switch mode {
	case SearchModeAutocomplete:
		err = r.db.WithContext(ctx).Raw(`
			SELECT s.*,
				GREATEST(
					similarity(s.title, ?),
					similarity(s.artist, ?),
					similarity(s.title || ' ' || COALESCE(s.artist, ''), ?)
				) AS search_score
			FROM songs s
			WHERE
				similarity(s.title, ?) > ? OR
				similarity(s.artist, ?) > ? OR
				similarity(s.title || ' ' || COALESCE(s.artist, ''), ?) > ?
			ORDER BY search_score DESC, s.song_id ASC
			LIMIT ?`,
			query, query, query,
			query, r.cfg.AutocompleteThreshold,
			query, r.cfg.AutocompleteThreshold,
			query, r.cfg.AutocompleteThreshold,
			limit,
		).Scan(&songs).Error

	case SearchModeTrigram:
		err = r.db.WithContext(ctx).Raw(`
			SELECT s.*,
				GREATEST(
					similarity(s.title, ?),
					similarity(s.artist, ?)
				) AS search_score
			FROM songs s
			WHERE
				similarity(s.title, ?) > ? OR
				similarity(s.artist, ?) > ?
			ORDER BY search_score DESC, s.song_id ASC
			LIMIT ?`,
			query, query,
			query, r.cfg.TrigramThreshold,
			query, r.cfg.TrigramThreshold,
			limit,
		).Scan(&songs).Error

	case SearchModeFTS:
		err = r.db.WithContext(ctx).Raw(`
			SELECT s.*,
				ts_rank(s.search_vector, plainto_tsquery('english', ?)) AS search_score
			FROM songs s
			WHERE s.search_vector @@ plainto_tsquery('english', ?)
			ORDER BY search_score DESC, s.song_id ASC
			LIMIT ?`,
			query, query, limit,
		).Scan(&songs).Error

	default: // hybrid
		if queryVec != nil {
			songs, err = r.hybridSearchWithVector(ctx, query, limit, queryVec)
		} else {
			err = r.db.WithContext(ctx).Raw(`
				SELECT s.*,
					COALESCE(? * ts_rank(s.search_vector, plainto_tsquery('english', ?)), 0) +
					COALESCE(? * GREATEST(
						similarity(s.title, ?),
						similarity(s.artist, ?)
					), 0) AS search_score
				FROM songs s
				WHERE
					s.search_vector @@ plainto_tsquery('english', ?) OR
					similarity(s.title, ?) > ? OR
					similarity(s.artist, ?) > ?
				ORDER BY search_score DESC, s.song_id ASC
				LIMIT ?`,
				r.cfg.TextFTSWeight, query,
				r.cfg.TextTrigramWeight, query, query,
				query,
				query, r.cfg.TrigramThreshold,
				query, r.cfg.TrigramThreshold,
				limit,
			).Scan(&songs).Error
		}
	}

	if err != nil {
		// Invalid input is rejected at the boundary; only capability
		// failures degrade to the fallback.
		if errors.Is(err, similarity.ErrDimensionMismatch) || errors.Is(err, similarity.ErrZeroVector) {
			return nil, err
		}
		log.Printf("[SearchSongs] %s search failed (%v), using substring fallback", mode, err)
		return r.fallbackSearch(ctx, query, limit)
	}
	if songs == nil {
		songs = []models.Song{}
	}
	return songs, nil
}

// hybridSearchWithVector fuses text and vector scores. Candidates must match
// the text predicate; the vector component is a left-join bonus over the top
// 2k nearest embeddings, so a text match with no embedding still scores.
func (r *songRepo) hybridSearchWithVector(ctx context.Context, query string, limit int, queryVec []float32) ([]models.Song, error) {
	if len(queryVec) != r.cfg.EmbeddingDim {
		return nil, fmt.Errorf("%w: got %d, want %d", similarity.ErrDimensionMismatch, len(queryVec), r.cfg.EmbeddingDim)
	}
	if similarity.IsZero(queryVec) {
		return nil, similarity.ErrZeroVector
	}
	qv := pgvector.NewVector(queryVec)

	var songs []models.Song
	err := r.db.WithContext(ctx).Raw(`
		WITH text_matches AS (
			SELECT s.*,
				COALESCE(? * ts_rank(s.search_vector, plainto_tsquery('english', ?)), 0) +
				COALESCE(? * GREATEST(
					similarity(s.title, ?),
					similarity(s.artist, ?)
				), 0) AS text_score
			FROM songs s
			WHERE
				s.search_vector @@ plainto_tsquery('english', ?) OR
				similarity(s.title, ?) > ? OR
				similarity(s.artist, ?) > ?
		),
		vector_matches AS (
			SELECT
				e.song_id,
				1 - (e.embedding <=> ?::vector) AS vector_score
			FROM embeddings e
			WHERE e.embedding IS NOT NULL
			ORDER BY e.embedding <=> ?::vector
			LIMIT ?
		)
		SELECT tm.*,
			COALESCE(tm.text_score, 0) +
			COALESCE(vm.vector_score * ?, 0) AS search_score
		FROM text_matches tm
		LEFT JOIN vector_matches vm ON tm.song_id = vm.song_id
		ORDER BY search_score DESC, tm.song_id ASC
		LIMIT ?`,
		r.cfg.FTSWeight, query,
		r.cfg.TrigramWeight, query, query,
		query,
		query, r.cfg.TrigramThreshold,
		query, r.cfg.TrigramThreshold,
		qv, qv, limit*2,
		r.cfg.VectorWeight,
		limit,
	).Scan(&songs).Error
	return songs, err
}

// fallbackSearch is the degraded path: plain case-insensitive substring
// match over title and artist.
func (r *songRepo) fallbackSearch(ctx context.Context, query string, limit int) ([]models.Song, error) {
	pattern := "%" + query + "%"
	var songs []models.Song
	err := r.db.WithContext(ctx).
		Where("title ILIKE ? OR artist ILIKE ?", pattern, pattern).
		Order("song_id ASC").
		Limit(limit).
		Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("fallback search failed: %w", err)
	}
	if songs == nil {
		songs = []models.Song{}
	}
	return songs, nil
}
