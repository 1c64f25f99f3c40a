package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwarren3210/song-recommender/internal/config"
	"github.com/gwarren3210/song-recommender/internal/similarity"
)

// newTestRepo builds a repository with no live connection; only paths that
// reject input before touching the database are exercised here.
func newTestRepo() SongRepository {
	return NewSongRepository(nil, &config.Config{EmbeddingDim: 4}, true)
}

func TestParseArtistTitle(t *testing.T) {
	tests := []struct {
		filename string
		artist   string
		title    string
	}{
		{"The Chainsmokers - Closer.m4a", "The Chainsmokers", "Closer"},
		{"Odesza - Say My Name.mp3", "Odesza", "Say My Name"},
		{"Artist - Title - With Dash.mp3", "Artist", "Title - With Dash"},
		{"no_separator.mp3", "Unknown", "no_separator.mp3"},
		{"plain.flac", "Unknown", "plain.flac"},
	}
	for _, tt := range tests {
		artist, title := parseArtistTitle(tt.filename)
		assert.Equal(t, tt.artist, artist, tt.filename)
		assert.Equal(t, tt.title, title, tt.filename)
	}
}

func TestParseSearchMode(t *testing.T) {
	assert.Equal(t, SearchModeFTS, ParseSearchMode("fts"))
	assert.Equal(t, SearchModeTrigram, ParseSearchMode("trigram"))
	assert.Equal(t, SearchModeAutocomplete, ParseSearchMode("autocomplete"))
	assert.Equal(t, SearchModeHybrid, ParseSearchMode("hybrid"))
	assert.Equal(t, SearchModeHybrid, ParseSearchMode(""))
	assert.Equal(t, SearchModeHybrid, ParseSearchMode("vector"))
}

func TestUploadAudioRejectsMalformedID(t *testing.T) {
	r := newTestRepo()
	_, err := r.UploadAudio(context.Background(), "a.mp3", "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidSongID)
}

func TestStoreEmbeddingRejectsMalformedID(t *testing.T) {
	r := newTestRepo()
	err := r.StoreEmbedding(context.Background(), "nope", []float32{1, 0, 0, 0}, "m")
	assert.ErrorIs(t, err, ErrInvalidSongID)
}

func TestStoreEmbeddingRejectsDimensionMismatch(t *testing.T) {
	r := newTestRepo()
	err := r.StoreEmbedding(context.Background(), "4d8d1aa5-6d5c-4f21-9f9c-1a2b3c4d5e6f", []float32{1, 2}, "m")
	assert.ErrorIs(t, err, similarity.ErrDimensionMismatch)
}

func TestStoreEmbeddingRejectsZeroVector(t *testing.T) {
	r := newTestRepo()
	err := r.StoreEmbedding(context.Background(), "4d8d1aa5-6d5c-4f21-9f9c-1a2b3c4d5e6f", []float32{0, 0, 0, 0}, "m")
	assert.ErrorIs(t, err, similarity.ErrZeroVector)
}

func TestGetEmbeddingRejectsMalformedID(t *testing.T) {
	r := newTestRepo()
	_, err := r.GetEmbedding(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidSongID)
}

func TestSearchSimilarRejectsBadVectors(t *testing.T) {
	r := newTestRepo()

	_, err := r.SearchSimilar(context.Background(), []float32{1, 2}, 5, nil)
	assert.ErrorIs(t, err, similarity.ErrDimensionMismatch)

	_, err = r.SearchSimilar(context.Background(), []float32{0, 0, 0, 0}, 5, nil)
	assert.ErrorIs(t, err, similarity.ErrZeroVector)
}

func TestSearchSongsEmptyQueryReturnsEmpty(t *testing.T) {
	r := newTestRepo()
	songs, err := r.SearchSongs(context.Background(), "   ", 10, SearchModeHybrid, nil)
	require.NoError(t, err)
	assert.Empty(t, songs)
}
