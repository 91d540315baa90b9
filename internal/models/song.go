package models

import (
	"strings"
	"time"
)

// Song is a read-only snapshot of a library track.
type Song struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Artist     string     `json:"artist"`
	ArtistID   string     `json:"artist_id,omitempty"`
	Album      string     `json:"album,omitempty"`
	AlbumID    string     `json:"album_id,omitempty"`
	Genre      string     `json:"genre,omitempty"`  // Single tag or delimiter-joined list
	Genres     []string   `json:"genres,omitempty"` // Multi-valued tags when the server reports them
	Year       int        `json:"year,omitempty"`
	Duration   int        `json:"duration"` // Duration in seconds
	BPM        int        `json:"bpm,omitempty"`
	PlayCount  int        `json:"play_count"`
	Starred    bool       `json:"starred"`
	LastPlayed *time.Time `json:"last_played,omitempty"`
	BitRate    int        `json:"bit_rate,omitempty"`
	Track      int        `json:"track,omitempty"`
	Disc       int        `json:"disc,omitempty"`
}

// HasBPM reports whether the catalog supplied tempo metadata.
//
// Servers report a missing tempo as 0, so any positive value counts as present.
func (s Song) HasBPM() bool {
	return s.BPM > 0
}

// HasYear reports whether the release year is known.
func (s Song) HasYear() bool {
	return s.Year > 0
}

// ArtistKey identifies the artist for spacing rules, falling back to the normalized name.
func (s Song) ArtistKey() string {
	if s.ArtistID != "" {
		return s.ArtistID
	}
	return normalizeKey(s.Artist)
}

// AlbumKey identifies the album for spacing rules, falling back to the normalized name.
func (s Song) AlbumKey() string {
	if s.AlbumID != "" {
		return s.AlbumID
	}
	return normalizeKey(s.Album)
}

// GenreTokens returns the lowercased genre tags of the song, split on delimiters,
// deduplicated and in first-seen order.
func (s Song) GenreTokens() []string {
	var tokens []string
	seen := map[string]bool{}
	add := func(raw string) {
		for _, tok := range SplitGenres(raw) {
			if !seen[tok] {
				seen[tok] = true
				tokens = append(tokens, tok)
			}
		}
	}

	for _, g := range s.Genres {
		add(g)
	}
	add(s.Genre)
	return tokens
}

// SplitGenres tokenizes a raw genre tag on , ; / and | delimiters.
func SplitGenres(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '/' || r == '|'
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if tok := NormalizeGenre(f); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// NormalizeGenre lowercases a genre and collapses internal whitespace.
func NormalizeGenre(g string) string {
	return strings.Join(strings.Fields(strings.ToLower(g)), " ")
}

func normalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// RemotePlaylist is a playlist as reported by the server.
type RemotePlaylist struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SongCount int       `json:"song_count"`
	Duration  int       `json:"duration"`
	Owner     string    `json:"owner,omitempty"`
	Public    bool      `json:"public"`
	Created   time.Time `json:"created"`
	Changed   time.Time `json:"changed"`
}
