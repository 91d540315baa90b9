// package services defines the catalog and publishing interfaces for a Subsonic-compatible server
package services

import (
	"context"

	"github.com/desertthunder/daylist/internal/models"
)

// Catalog supplies the candidate pool a run curates from.
type Catalog interface {
	// Ping checks connectivity and credentials.
	Ping(ctx context.Context) error

	// FetchPool retrieves a candidate pool, deduplicated by song ID in first-seen order.
	FetchPool(ctx context.Context, opts PoolOptions) ([]models.Song, error)
}

// Publisher writes generated playlists back to the server.
type Publisher interface {
	// Playlists lists the playlists owned by the authenticated user.
	Playlists(ctx context.Context) ([]models.RemotePlaylist, error)

	// Publish creates a playlist, first deleting existing playlists matched by req.Replaces.
	Publish(ctx context.Context, req PublishRequest) (*PublishResult, error)
}

// PoolOptions controls how a candidate pool is assembled.
type PoolOptions struct {
	Size     int      // Total random songs requested; in diverse mode half of this is random
	Diverse  bool     // Supplement random songs with per-genre fetches
	Genres   []string // Genre seeds for diverse mode
	PerGenre int      // Songs requested per genre seed
}

// PublishRequest describes one playlist to create.
type PublishRequest struct {
	Name     string
	SongIDs  []string
	Replaces func(name string) bool // Reports whether an existing playlist should be deleted first
}

// PublishResult reports what Publish changed on the server.
type PublishResult struct {
	PlaylistID string   `json:"playlist_id"`
	Name       string   `json:"name"`
	Deleted    []string `json:"deleted,omitempty"` // IDs of replaced playlists
	SongCount  int      `json:"song_count"`
}
