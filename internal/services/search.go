package services

import (
	"context"

	"github.com/gwarren3210/song-recommender/internal/cache"
	"github.com/gwarren3210/song-recommender/internal/models"
	"github.com/gwarren3210/song-recommender/internal/repository"
)

// maxPageSize caps list and search responses.
const maxPageSize = 20

// SearchService fronts the repository's list/search paths with the LFU song
// cache. The cache is read-accelerating only: writes always go to the
// repository, and mutating callers invalidate through InvalidateSong.
type SearchService interface {
	Search(ctx context.Context, query string, limit int, mode repository.SearchMode, queryVec []float32) ([]models.Song, error)
	ListSongs(ctx context.Context, f repository.ListFilters, page, pageSize int) ([]models.Song, error)
	GetSong(ctx context.Context, songID string) (*models.Song, error)
	InvalidateSong(songID string)
}

type searchService struct {
	songRepo  repository.SongRepository
	songCache *cache.LFUCache[models.Song]
}

func NewSearchService(songRepo repository.SongRepository, songCache *cache.LFUCache[models.Song]) SearchService {
	return &searchService{songRepo: songRepo, songCache: songCache}
}

func (s *searchService) Search(ctx context.Context, query string, limit int, mode repository.SearchMode, queryVec []float32) ([]models.Song, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}

	songs, err := s.songRepo.SearchSongs(ctx, query, limit, mode, queryVec)
	if err != nil {
		return nil, err
	}
	s.cacheSongs(songs)
	return songs, nil
}

func (s *searchService) ListSongs(ctx context.Context, f repository.ListFilters, page, pageSize int) ([]models.Song, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	skip := (page - 1) * pageSize

	songs, err := s.songRepo.ListSongs(ctx, f, pageSize, skip)
	if err != nil {
		return nil, err
	}
	s.cacheSongs(songs)
	return songs, nil
}

// GetSong serves a single lookup from the cache when possible. Cache hits
// may be stale until the next write-through; the repository remains the
// system of record.
func (s *searchService) GetSong(ctx context.Context, songID string) (*models.Song, error) {
	if song, ok := s.songCache.Get(songID); ok {
		return &song, nil
	}

	song, err := s.songRepo.GetMetadata(ctx, songID)
	if err != nil {
		return nil, err
	}
	s.songCache.Put(song.SongID, *song)
	return song, nil
}

func (s *searchService) InvalidateSong(songID string) {
	s.songCache.Remove(songID)
}

func (s *searchService) cacheSongs(songs []models.Song) {
	for _, song := range songs {
		if song.SongID != "" {
			s.songCache.Put(song.SongID, song)
		}
	}
}
