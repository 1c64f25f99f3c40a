package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gwarren3210/song-recommender/internal/services"
)

type RecommendationHandler struct {
	recService services.RecommendationService
}

func NewRecommendationHandler(recService services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recService: recService}
}

// GetRecommendations resolves the seed song from song_id, name, or path
// (in that order) and returns up to k similar songs. An unresolvable seed
// yields an empty list, not an error.
func (h *RecommendationHandler) GetRecommendations(c *gin.Context) {
	query := services.RecommendQuery{
		SongID:   c.Query("song_id"),
		SongName: c.Query("name"),
		SongPath: c.Query("path"),
	}

	if query.SongID == "" && query.SongName == "" && query.SongPath == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "song_id, name, or path is required",
		})
		return
	}

	if kStr := c.Query("k"); kStr != "" {
		k, err := strconv.Atoi(kStr)
		if err != nil || k <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"status":  "error",
				"message": "k must be a positive integer",
			})
			return
		}
		query.K = k
	}

	recs, err := h.recService.Recommend(c.Request.Context(), query)
	if err != nil {
		log.Printf("[GetRecommendations] ERROR: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Failed to compute recommendations",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Recommendations computed",
		"data": gin.H{
			"count":           len(recs),
			"recommendations": recs,
		},
	})
}
