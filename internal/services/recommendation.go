package services

import (
	"context"
	"errors"
	"log"

	"github.com/gwarren3210/song-recommender/internal/models"
	"github.com/gwarren3210/song-recommender/internal/repository"
)

// RecommendQuery identifies the seed song. SongID takes precedence; name and
// path are resolved through the repository when no id is given.
type RecommendQuery struct {
	SongID   string
	SongName string
	SongPath string
	K        int
}

type RecommendationService interface {
	Recommend(ctx context.Context, q RecommendQuery) ([]models.SimilarSong, error)
}

type recommendationService struct {
	songRepo repository.SongRepository
}

func NewRecommendationService(songRepo repository.SongRepository) RecommendationService {
	return &recommendationService{songRepo: songRepo}
}

// Recommend returns up to K songs similar to the seed. An unresolvable seed,
// a seed without an embedding, or an empty search all yield an empty list,
// never an error: not-found is a normal outcome for this path.
func (s *recommendationService) Recommend(ctx context.Context, q RecommendQuery) ([]models.SimilarSong, error) {
	k := q.K
	if k <= 0 {
		k = 5
	}

	songID := q.SongID
	if songID == "" {
		id, err := s.songRepo.FindSongID(ctx, q.SongName, q.SongPath)
		if err != nil {
			if errors.Is(err, repository.ErrSongNotFound) {
				log.Printf("[Recommend] song %q not found", q.SongName+q.SongPath)
				return []models.SimilarSong{}, nil
			}
			return nil, err
		}
		songID = id
	}

	queryEmbedding, err := s.songRepo.GetEmbedding(ctx, songID)
	if err != nil {
		if errors.Is(err, repository.ErrNoEmbedding) || errors.Is(err, repository.ErrInvalidSongID) {
			log.Printf("[Recommend] no embedding for song_id %s", songID)
			return []models.SimilarSong{}, nil
		}
		return nil, err
	}

	// Ask for one extra so the seed itself can be dropped if the store
	// returns it.
	similar, err := s.songRepo.SearchSimilar(ctx, queryEmbedding, k+1, nil)
	if err != nil {
		return nil, err
	}

	recommendations := make([]models.SimilarSong, 0, k)
	for _, item := range similar {
		if item.SongID == songID {
			continue
		}
		recommendations = append(recommendations, item)
	}
	if len(recommendations) > k {
		recommendations = recommendations[:k]
	}
	return recommendations, nil
}
