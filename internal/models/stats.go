package models

type ArtistCount struct {
	Artist string `json:"artist"`
	Count  int64  `json:"count"`
}

type GenreCount struct {
	Genre string `json:"genre"`
	Count int64  `json:"count"`
}

// DatabaseStats is the aggregate summary shown on the dashboard.
type DatabaseStats struct {
	TotalSongs    int64         `json:"total_songs"`
	UniqueArtists int64         `json:"unique_artists"`
	UniqueGenres  int64         `json:"unique_genres"`
	TotalDuration float64       `json:"total_duration"`
	TopArtists    []ArtistCount `json:"top_artists"`
	TopGenres     []GenreCount  `json:"top_genres"`
	RecentSongs   []Song        `json:"recent_songs"`
}

// SimilarSong is one hit from a vector similarity search, enriched with the
// song row in a single batched lookup.
type SimilarSong struct {
	EmbeddingID string  `json:"embedding_id"`
	SongID      string  `json:"song_id"`
	Similarity  float64 `json:"similarity"`
	Song        *Song   `gorm:"-" json:"song,omitempty"`
}
