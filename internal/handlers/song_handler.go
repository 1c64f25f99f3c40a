package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gwarren3210/song-recommender/internal/repository"
	"github.com/gwarren3210/song-recommender/internal/services"
	"github.com/gwarren3210/song-recommender/internal/similarity"
)

type SongHandler struct {
	songRepo      repository.SongRepository
	searchService services.SearchService
}

func NewSongHandler(songRepo repository.SongRepository, searchService services.SearchService) *SongHandler {
	return &SongHandler{
		songRepo:      songRepo,
		searchService: searchService,
	}
}

type uploadAudioRequest struct {
	LocalPath string `json:"local_path" binding:"required"`
	SongID    string `json:"song_id"`
}

func (h *SongHandler) UploadAudio(c *gin.Context) {
	var req uploadAudioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "local_path is required",
		})
		return
	}

	songID, err := h.songRepo.UploadAudio(c.Request.Context(), req.LocalPath, req.SongID)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidSongID) {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": "Invalid song ID format",
			})
			return
		}
		log.Printf("[UploadAudio] ERROR: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to upload audio reference",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Audio reference stored",
		"data":    gin.H{"song_id": songID},
	})
}

type storeEmbeddingRequest struct {
	Embedding []float32 `json:"embedding" binding:"required"`
	ModelName string    `json:"model_name"`
}

func (h *SongHandler) StoreEmbedding(c *gin.Context) {
	songID := c.Param("id")

	var req storeEmbeddingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "embedding is required",
		})
		return
	}

	err := h.songRepo.StoreEmbedding(c.Request.Context(), songID, req.Embedding, req.ModelName)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSongNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "error",
				"message": "Song not found",
			})
		case errors.Is(err, repository.ErrInvalidSongID),
			errors.Is(err, similarity.ErrDimensionMismatch),
			errors.Is(err, similarity.ErrZeroVector):
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": err.Error(),
			})
		default:
			log.Printf("[StoreEmbedding] ERROR: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": "Failed to store embedding",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Embedding stored",
	})
}

func (h *SongHandler) GetEmbedding(c *gin.Context) {
	songID := c.Param("id")

	vector, err := h.songRepo.GetEmbedding(c.Request.Context(), songID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNoEmbedding):
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "error",
				"message": "No embedding stored for song",
			})
		case errors.Is(err, repository.ErrInvalidSongID):
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": "Invalid song ID format",
			})
		default:
			log.Printf("[GetEmbedding] ERROR: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": "Failed to fetch embedding",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Embedding fetched",
		"data":    gin.H{"song_id": songID, "embedding": vector},
	})
}

func (h *SongHandler) StoreMetadata(c *gin.Context) {
	songID := c.Param("id")

	var meta repository.SongUpsert
	if err := c.ShouldBindJSON(&meta); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid metadata payload",
		})
		return
	}

	if err := h.songRepo.StoreMetadata(c.Request.Context(), songID, meta); err != nil {
		if errors.Is(err, repository.ErrInvalidSongID) {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": "Invalid song ID format",
			})
			return
		}
		log.Printf("[StoreMetadata] ERROR: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to store metadata",
		})
		return
	}

	// The cached copy is stale now.
	h.searchService.InvalidateSong(songID)

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Metadata stored",
	})
}

func (h *SongHandler) GetSong(c *gin.Context) {
	songID := c.Param("id")

	if _, err := uuid.Parse(songID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid song ID format",
		})
		return
	}

	song, err := h.searchService.GetSong(c.Request.Context(), songID)
	if err != nil {
		if errors.Is(err, repository.ErrSongNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "error",
				"message": "Song not found",
			})
			return
		}
		log.Printf("[GetSong] ERROR: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to fetch song",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Song fetched",
		"data":    song,
	})
}

func (h *SongHandler) ListSongs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filters := repository.ListFilters{
		Artist: c.Query("artist"),
		Genre:  c.Query("genre"),
		Title:  c.Query("title"),
	}

	songs, err := h.searchService.ListSongs(c.Request.Context(), filters, page, pageSize)
	if err != nil {
		log.Printf("[ListSongs] ERROR: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to list songs",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Songs fetched",
		"data": gin.H{
			"songs": songs,
			"metadata": gin.H{
				"page":  page,
				"total": len(songs),
			},
		},
	})
}

func (h *SongHandler) SearchSongs(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Search query is required",
		})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	mode := repository.ParseSearchMode(c.DefaultQuery("mode", "hybrid"))

	songs, err := h.searchService.Search(c.Request.Context(), query, limit, mode, nil)
	if err != nil {
		log.Printf("[SearchSongs] ERROR: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to search songs",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Search completed",
		"data":    songs,
	})
}

func (h *SongHandler) ResolveSong(c *gin.Context) {
	name := c.Query("name")
	path := c.Query("path")
	if name == "" && path == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "name or path is required",
		})
		return
	}

	songID, err := h.songRepo.FindSongID(c.Request.Context(), name, path)
	if err != nil {
		if errors.Is(err, repository.ErrSongNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "error",
				"message": "Song not found",
			})
			return
		}
		log.Printf("[ResolveSong] ERROR: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to resolve song",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Song resolved",
		"data":    gin.H{"song_id": songID},
	})
}

func (h *SongHandler) DeleteSong(c *gin.Context) {
	songID := c.Param("id")

	err := h.songRepo.DeleteSong(c.Request.Context(), songID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSongNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "error",
				"message": "Song not found",
			})
		case errors.Is(err, repository.ErrInvalidSongID):
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": "Invalid song ID format",
			})
		default:
			log.Printf("[DeleteSong] ERROR: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": "Failed to delete song",
			})
		}
		return
	}

	h.searchService.InvalidateSong(songID)

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Song deleted",
	})
}

func (h *SongHandler) GetGenres(c *gin.Context) {
	genres, err := h.songRepo.GetDistinctGenres(c.Request.Context())
	if err != nil {
		log.Printf("[GetGenres] ERROR: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to fetch genres",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Genres fetched",
		"data":    genres,
	})
}

func (h *SongHandler) GetStats(c *gin.Context) {
	stats, err := h.songRepo.GetDatabaseStats(c.Request.Context())
	if err != nil {
		log.Printf("[GetStats] ERROR: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to fetch database stats",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Stats fetched",
		"data":    stats,
	})
}
