package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwarren3210/song-recommender/internal/cache"
	"github.com/gwarren3210/song-recommender/internal/models"
	"github.com/gwarren3210/song-recommender/internal/repository"
	"github.com/gwarren3210/song-recommender/internal/services"
)

const (
	testSongID  = "11111111-1111-1111-1111-111111111111"
	testOtherID = "22222222-2222-2222-2222-222222222222"
)

// stubSongRepo backs the handlers with in-memory state.
type stubSongRepo struct {
	songs      map[string]models.Song
	embeddings map[string][]float32
	pathIndex  map[string]string
	statsErr   error
}

func newStubSongRepo() *stubSongRepo {
	return &stubSongRepo{
		songs:      map[string]models.Song{},
		embeddings: map[string][]float32{},
		pathIndex:  map[string]string{},
	}
}

func (s *stubSongRepo) UploadAudio(_ context.Context, localPath, songID string) (string, error) {
	if songID == "" {
		songID = testSongID
	}
	s.songs[songID] = models.Song{SongID: songID, Filename: localPath}
	return songID, nil
}

func (s *stubSongRepo) StoreEmbedding(_ context.Context, songID string, vector []float32, _ string) error {
	if _, ok := s.songs[songID]; !ok {
		return repository.ErrSongNotFound
	}
	s.embeddings[songID] = vector
	return nil
}

func (s *stubSongRepo) GetEmbedding(_ context.Context, songID string) ([]float32, error) {
	v, ok := s.embeddings[songID]
	if !ok {
		return nil, repository.ErrNoEmbedding
	}
	return v, nil
}

func (s *stubSongRepo) StoreMetadata(_ context.Context, songID string, meta repository.SongUpsert) error {
	s.songs[songID] = models.Song{SongID: songID, Artist: meta.Artist, Title: meta.Title}
	return nil
}

func (s *stubSongRepo) GetMetadata(_ context.Context, songID string) (*models.Song, error) {
	song, ok := s.songs[songID]
	if !ok {
		return nil, repository.ErrSongNotFound
	}
	return &song, nil
}

func (s *stubSongRepo) ListSongs(_ context.Context, _ repository.ListFilters, _, _ int) ([]models.Song, error) {
	out := make([]models.Song, 0, len(s.songs))
	for _, song := range s.songs {
		out = append(out, song)
	}
	return out, nil
}

func (s *stubSongRepo) FindSongID(_ context.Context, _, path string) (string, error) {
	if id, ok := s.pathIndex[path]; ok {
		return id, nil
	}
	return "", repository.ErrSongNotFound
}

func (s *stubSongRepo) DeleteSong(_ context.Context, songID string) error {
	if _, ok := s.songs[songID]; !ok {
		return repository.ErrSongNotFound
	}
	delete(s.songs, songID)
	return nil
}

func (s *stubSongRepo) SearchSimilar(_ context.Context, _ []float32, _ int, _ *float64) ([]models.SimilarSong, error) {
	return []models.SimilarSong{}, nil
}

func (s *stubSongRepo) SearchSongs(_ context.Context, _ string, _ int, _ repository.SearchMode, _ []float32) ([]models.Song, error) {
	out := make([]models.Song, 0, len(s.songs))
	for _, song := range s.songs {
		out = append(out, song)
	}
	return out, nil
}

func (s *stubSongRepo) GetDistinctGenres(_ context.Context) ([]string, error) {
	return []string{"electronic", "rock"}, nil
}

func (s *stubSongRepo) GetDatabaseStats(_ context.Context) (*models.DatabaseStats, error) {
	if s.statsErr != nil {
		return nil, s.statsErr
	}
	return &models.DatabaseStats{TotalSongs: int64(len(s.songs))}, nil
}

func (s *stubSongRepo) SupportsAdvancedSearch() bool { return true }

func newTestRouter(repo repository.SongRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)

	searchService := services.NewSearchService(repo, cache.NewLFU[models.Song](16))
	handler := NewSongHandler(repo, searchService)

	router := gin.New()
	api := router.Group("/api")
	songs := api.Group("/songs")
	{
		songs.GET("", handler.ListSongs)
		songs.GET("/search", handler.SearchSongs)
		songs.GET("/resolve", handler.ResolveSong)
		songs.GET("/:id", handler.GetSong)
		songs.GET("/:id/embedding", handler.GetEmbedding)
		songs.POST("", handler.UploadAudio)
		songs.POST("/:id/embedding", handler.StoreEmbedding)
		songs.POST("/:id/metadata", handler.StoreMetadata)
		songs.DELETE("/:id", handler.DeleteSong)
	}
	api.GET("/genres", handler.GetGenres)
	api.GET("/stats", handler.GetStats)
	return router
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestUploadAudioRequiresLocalPath(t *testing.T) {
	router := newTestRouter(newStubSongRepo())

	rec, env := doJSON(t, router, http.MethodPost, "/api/songs", gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", env.Status)
}

func TestUploadAudioReturnsSongID(t *testing.T) {
	router := newTestRouter(newStubSongRepo())

	rec, env := doJSON(t, router, http.MethodPost, "/api/songs", gin.H{
		"local_path": "/music/Artist - Title.mp3",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", env.Status)

	var data struct {
		SongID string `json:"song_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, testSongID, data.SongID)
}

func TestStoreEmbeddingUnknownSongIs404(t *testing.T) {
	router := newTestRouter(newStubSongRepo())

	rec, env := doJSON(t, router, http.MethodPost, "/api/songs/"+testSongID+"/embedding", gin.H{
		"embedding": []float32{0.1, 0.2},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "error", env.Status)
}

func TestGetEmbeddingRoundTrip(t *testing.T) {
	repo := newStubSongRepo()
	repo.songs[testSongID] = models.Song{SongID: testSongID}
	router := newTestRouter(repo)

	rec, _ := doJSON(t, router, http.MethodPost, "/api/songs/"+testSongID+"/embedding", gin.H{
		"embedding": []float32{0.1, 0.2, 0.3},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := doJSON(t, router, http.MethodGet, "/api/songs/"+testSongID+"/embedding", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Embedding []float32 `json:"embedding"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, data.Embedding)
}

func TestGetEmbeddingMissingIs404(t *testing.T) {
	repo := newStubSongRepo()
	repo.songs[testSongID] = models.Song{SongID: testSongID}
	router := newTestRouter(repo)

	rec, _ := doJSON(t, router, http.MethodGet, "/api/songs/"+testSongID+"/embedding", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSongRejectsMalformedID(t *testing.T) {
	router := newTestRouter(newStubSongRepo())

	rec, env := doJSON(t, router, http.MethodGet, "/api/songs/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", env.Status)
}

func TestGetSongNotFound(t *testing.T) {
	router := newTestRouter(newStubSongRepo())

	rec, _ := doJSON(t, router, http.MethodGet, "/api/songs/"+testSongID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStoreMetadataThenGetSong(t *testing.T) {
	router := newTestRouter(newStubSongRepo())

	rec, _ := doJSON(t, router, http.MethodPost, "/api/songs/"+testSongID+"/metadata", gin.H{
		"artist": "The Chainsmokers",
		"title":  "Closer",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := doJSON(t, router, http.MethodGet, "/api/songs/"+testSongID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var song models.Song
	require.NoError(t, json.Unmarshal(env.Data, &song))
	assert.Equal(t, "Closer", song.Title)
}

func TestSearchRequiresQuery(t *testing.T) {
	router := newTestRouter(newStubSongRepo())

	rec, env := doJSON(t, router, http.MethodGet, "/api/songs/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", env.Status)
}

func TestSearchReturnsSongs(t *testing.T) {
	repo := newStubSongRepo()
	repo.songs[testSongID] = models.Song{SongID: testSongID, Title: "Closer"}
	router := newTestRouter(repo)

	rec, env := doJSON(t, router, http.MethodGet, "/api/songs/search?q=closer&mode=fts", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var songs []models.Song
	require.NoError(t, json.Unmarshal(env.Data, &songs))
	assert.Len(t, songs, 1)
}

func TestResolveSongByPath(t *testing.T) {
	repo := newStubSongRepo()
	repo.pathIndex["/music/closer.mp3"] = testSongID
	router := newTestRouter(repo)

	rec, env := doJSON(t, router, http.MethodGet, "/api/songs/resolve?path=/music/closer.mp3", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		SongID string `json:"song_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, testSongID, data.SongID)
}

func TestResolveSongRequiresNameOrPath(t *testing.T) {
	router := newTestRouter(newStubSongRepo())

	rec, _ := doJSON(t, router, http.MethodGet, "/api/songs/resolve", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteSongEvictsCachedCopy(t *testing.T) {
	repo := newStubSongRepo()
	repo.songs[testSongID] = models.Song{SongID: testSongID, Title: "Closer"}
	router := newTestRouter(repo)

	// Prime the cache, then delete.
	rec, _ := doJSON(t, router, http.MethodGet, "/api/songs/"+testSongID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, router, http.MethodDelete, "/api/songs/"+testSongID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, router, http.MethodGet, "/api/songs/"+testSongID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteSongNotFound(t *testing.T) {
	router := newTestRouter(newStubSongRepo())

	rec, _ := doJSON(t, router, http.MethodDelete, "/api/songs/"+testOtherID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetGenres(t *testing.T) {
	router := newTestRouter(newStubSongRepo())

	rec, env := doJSON(t, router, http.MethodGet, "/api/genres", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var genres []string
	require.NoError(t, json.Unmarshal(env.Data, &genres))
	assert.Equal(t, []string{"electronic", "rock"}, genres)
}

func TestGetStatsErrorIs500(t *testing.T) {
	repo := newStubSongRepo()
	repo.statsErr = assert.AnError
	router := newTestRouter(repo)

	rec, env := doJSON(t, router, http.MethodGet, "/api/stats", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "error", env.Status)
}
