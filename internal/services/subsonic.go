// Subsonic API implementation of [Catalog] and [Publisher]
//
// Response types follow http://www.subsonic.org/pages/api.jsp and the OpenSubsonic extensions.
package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/daylist/internal/models"
	"github.com/desertthunder/daylist/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultClientName = "daylist"
	defaultAPIVersion = "1.16.1"

	// AuthToken sends a salted md5 token with each request.
	AuthToken = "token"
	// AuthPassword sends the hex-encoded password for servers without token support.
	AuthPassword = "password"

	// maxRandomSongs is the largest size getRandomSongs accepts per call.
	maxRandomSongs = 500
	// minPerGenre is the floor on songs requested per genre seed.
	minPerGenre = 10

	errCodeWrongCredentials = 40
	errCodeTokenUnsupported = 41
	errCodeNotFound         = 70
)

var (
	_ Catalog   = (*SubsonicClient)(nil)
	_ Publisher = (*SubsonicClient)(nil)
)

// SubsonicError is a failed-status response from the server.
type SubsonicError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *SubsonicError) Error() string {
	return fmt.Sprintf("subsonic error %d: %s", e.Code, e.Message)
}

// Is matches [shared.ErrAPIRequest] for every code, and [shared.ErrAuthFailed] for credential errors.
func (e *SubsonicError) Is(target error) bool {
	switch target {
	case shared.ErrAPIRequest:
		return true
	case shared.ErrAuthFailed:
		return e.Code == errCodeWrongCredentials || e.Code == errCodeTokenUnsupported
	default:
		return false
	}
}

type subsonicEnvelope struct {
	Response subsonicResponse `json:"subsonic-response"`
}

type subsonicResponse struct {
	Status        string         `json:"status"`
	Version       string         `json:"version"`
	Type          string         `json:"type,omitempty"`
	ServerVersion string         `json:"serverVersion,omitempty"`
	Error         *SubsonicError `json:"error,omitempty"`

	RandomSongs *struct {
		Song []SubsonicSong `json:"song"`
	} `json:"randomSongs,omitempty"`
	Playlists *struct {
		Playlist []SubsonicPlaylist `json:"playlist"`
	} `json:"playlists,omitempty"`
	Playlist *SubsonicPlaylist `json:"playlist,omitempty"`
}

type subsonicGenre struct {
	Name string `json:"name"`
}

// SubsonicSong is a song (Child) element.
type SubsonicSong struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Artist      string          `json:"artist"`
	ArtistID    string          `json:"artistId"`
	Album       string          `json:"album"`
	AlbumID     string          `json:"albumId"`
	Genre       string          `json:"genre"`
	Genres      []subsonicGenre `json:"genres"` // OpenSubsonic
	Year        int             `json:"year"`
	Duration    int             `json:"duration"` // Duration in seconds
	BPM         int             `json:"bpm"`      // OpenSubsonic
	PlayCount   int             `json:"playCount"`
	Played      string          `json:"played"` // Last played timestamp, OpenSubsonic
	Starred     string          `json:"starred"`
	BitRate     int             `json:"bitRate"`
	Track       int             `json:"track"`
	DiscNumber  int             `json:"discNumber"`
	ContentType string          `json:"contentType"`
}

// SubsonicPlaylist is a playlist element.
type SubsonicPlaylist struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SongCount int    `json:"songCount"`
	Duration  int    `json:"duration"`
	Owner     string `json:"owner"`
	Public    bool   `json:"public"`
	Created   string `json:"created"`
	Changed   string `json:"changed"`
}

// ToSong converts a response song into a [models.Song].
func (s SubsonicSong) ToSong() models.Song {
	song := models.Song{
		ID:        s.ID,
		Title:     s.Title,
		Artist:    s.Artist,
		ArtistID:  s.ArtistID,
		Album:     s.Album,
		AlbumID:   s.AlbumID,
		Genre:     s.Genre,
		Year:      s.Year,
		Duration:  s.Duration,
		BPM:       s.BPM,
		PlayCount: s.PlayCount,
		Starred:   s.Starred != "",
		BitRate:   s.BitRate,
		Track:     s.Track,
		Disc:      s.DiscNumber,
	}
	for _, g := range s.Genres {
		if g.Name != "" {
			song.Genres = append(song.Genres, g.Name)
		}
	}
	if t, ok := parseTime(s.Played); ok {
		song.LastPlayed = &t
	}
	return song
}

// ToRemote converts a response playlist into a [models.RemotePlaylist].
func (p SubsonicPlaylist) ToRemote() models.RemotePlaylist {
	created, _ := parseTime(p.Created)
	changed, _ := parseTime(p.Changed)
	return models.RemotePlaylist{
		ID:        p.ID,
		Name:      p.Name,
		SongCount: p.SongCount,
		Duration:  p.Duration,
		Owner:     p.Owner,
		Public:    p.Public,
		Created:   created,
		Changed:   changed,
	}
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SubsonicClient talks to a Subsonic-compatible server over its REST API.
type SubsonicClient struct {
	baseURL    string
	username   string
	password   string
	clientName string
	version    string
	auth       string
	httpClient *http.Client
	logger     *log.Logger
	workers    int
	limiter    *rate.Limiter
	salt       func() string
}

// ClientOption customizes a [SubsonicClient].
type ClientOption func(*SubsonicClient)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *SubsonicClient) { c.httpClient = client }
}

// WithLogger sets the logger used for request tracing and skipped genre fetches.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *SubsonicClient) { c.logger = logger }
}

// WithConcurrency bounds concurrent genre fetches and the rate of every request the
// client sends. A rate of 0 or less disables rate limiting.
func WithConcurrency(workers int, requestsPerSecond float64) ClientOption {
	return func(c *SubsonicClient) {
		c.workers = max(workers, 1)
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
		} else {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
		}
	}
}

// NewSubsonicClient creates a client from the subsonic config section.
func NewSubsonicClient(cfg shared.SubsonicConfig, opts ...ClientOption) (*SubsonicClient, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" || cfg.Username == "" {
		return nil, fmt.Errorf("%w: base_url and username are required", shared.ErrMissingCredentials)
	}

	c := &SubsonicClient{
		baseURL:    baseURL,
		username:   cfg.Username,
		password:   cfg.Password,
		clientName: cfg.Client,
		version:    cfg.APIVersion,
		auth:       strings.ToLower(cfg.Auth),
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		logger:     log.New(io.Discard),
		workers:    1,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		salt:       newSalt,
	}
	if c.clientName == "" {
		c.clientName = defaultClientName
	}
	if c.version == "" {
		c.version = defaultAPIVersion
	}
	switch c.auth {
	case "":
		c.auth = AuthToken
	case AuthToken, AuthPassword:
	default:
		return nil, fmt.Errorf("%w: unknown auth mode %q", shared.ErrInvalidConfig, cfg.Auth)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func newSalt() string {
	return strings.ReplaceAll(shared.GenerateID(), "-", "")[:16]
}

// authParams returns the query parameters every request carries.
func (c *SubsonicClient) authParams() url.Values {
	params := url.Values{}
	params.Set("u", c.username)
	params.Set("v", c.version)
	params.Set("c", c.clientName)
	params.Set("f", "json")

	if c.auth == AuthPassword {
		params.Set("p", "enc:"+hex.EncodeToString([]byte(c.password)))
		return params
	}

	salt := c.salt()
	sum := md5.Sum([]byte(c.password + salt))
	params.Set("t", hex.EncodeToString(sum[:]))
	params.Set("s", salt)
	return params
}

func (c *SubsonicClient) doRequest(ctx context.Context, endpoint string, query url.Values) (*subsonicResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait for %s: %w", endpoint, err)
	}

	params := c.authParams()
	for key, values := range query {
		for _, v := range values {
			params.Add(key, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rest/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug("subsonic request", "endpoint", endpoint, "params", len(query))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrServiceUnavailable, endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %s returned status %d", shared.ErrAuthFailed, endpoint, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: %s returned status %d", shared.ErrAPIRequest, endpoint, resp.StatusCode)
	}

	var envelope subsonicEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s response: %v", shared.ErrAPIRequest, endpoint, err)
	}

	r := envelope.Response
	if r.Status != "ok" {
		if r.Error != nil {
			return nil, r.Error
		}
		return nil, &SubsonicError{Message: fmt.Sprintf("%s returned status %q", endpoint, r.Status)}
	}
	return &r, nil
}

// Ping checks connectivity and credentials.
func (c *SubsonicClient) Ping(ctx context.Context) error {
	_, err := c.doRequest(ctx, "ping", nil)
	return err
}

// RandomSongs requests size random songs, optionally restricted to genre.
// Sizes above the server's per-call maximum are split across several calls.
func (c *SubsonicClient) RandomSongs(ctx context.Context, size int, genre string) ([]models.Song, error) {
	var songs []models.Song
	for remaining := size; remaining > 0; remaining -= maxRandomSongs {
		query := url.Values{}
		query.Set("size", strconv.Itoa(min(remaining, maxRandomSongs)))
		if genre != "" {
			query.Set("genre", genre)
		}

		r, err := c.doRequest(ctx, "getRandomSongs", query)
		if err != nil {
			return nil, err
		}
		if r.RandomSongs == nil || len(r.RandomSongs.Song) == 0 {
			break
		}
		for _, s := range r.RandomSongs.Song {
			songs = append(songs, s.ToSong())
		}
	}
	return songs, nil
}

// FetchPool assembles a candidate pool per opts.
func (c *SubsonicClient) FetchPool(ctx context.Context, opts PoolOptions) ([]models.Song, error) {
	if opts.Size <= 0 {
		return nil, fmt.Errorf("%w: pool size must be positive, got %d", shared.ErrInvalidArgument, opts.Size)
	}

	if !opts.Diverse || len(opts.Genres) == 0 {
		songs, err := c.RandomSongs(ctx, opts.Size, "")
		if err != nil {
			return nil, err
		}
		return DedupeSongs(songs), nil
	}

	base, err := c.RandomSongs(ctx, opts.Size/2, "")
	if err != nil {
		return nil, err
	}
	c.logger.Debug("fetched random base set", "songs", len(base))

	perGenre := max(opts.PerGenre, minPerGenre)
	byGenre := make([][]models.Song, len(opts.Genres))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, genre := range opts.Genres {
		g.Go(func() error {
			songs, err := c.RandomSongs(gctx, perGenre, genre)
			switch {
			case errors.Is(err, shared.ErrAuthFailed):
				return err
			case gctx.Err() != nil:
				return gctx.Err()
			case err != nil:
				c.logger.Warn("skipping genre", "genre", genre, "error", err)
				return nil
			}

			c.logger.Debug("fetched genre", "genre", genre, "songs", len(songs))
			byGenre[i] = songs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := base
	for _, songs := range byGenre {
		all = append(all, songs...)
	}
	return DedupeSongs(all), nil
}

// DedupeSongs removes repeated song IDs, keeping the first occurrence.
func DedupeSongs(songs []models.Song) []models.Song {
	seen := make(map[string]bool, len(songs))
	out := make([]models.Song, 0, len(songs))
	for _, s := range songs {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	return out
}

// Playlists lists the playlists visible to the authenticated user.
func (c *SubsonicClient) Playlists(ctx context.Context) ([]models.RemotePlaylist, error) {
	r, err := c.doRequest(ctx, "getPlaylists", nil)
	if err != nil {
		return nil, err
	}
	if r.Playlists == nil {
		return []models.RemotePlaylist{}, nil
	}

	playlists := make([]models.RemotePlaylist, len(r.Playlists.Playlist))
	for i, p := range r.Playlists.Playlist {
		playlists[i] = p.ToRemote()
	}
	return playlists, nil
}

// CreatePlaylist creates a playlist holding songIDs in order.
func (c *SubsonicClient) CreatePlaylist(ctx context.Context, name string, songIDs []string) (*models.RemotePlaylist, error) {
	query := url.Values{}
	query.Set("name", name)
	for _, id := range songIDs {
		query.Add("songId", id)
	}

	r, err := c.doRequest(ctx, "createPlaylist", query)
	if err != nil {
		return nil, err
	}
	if r.Playlist == nil {
		return nil, fmt.Errorf("%w: no playlist returned for %q", shared.ErrAPIRequest, name)
	}

	remote := r.Playlist.ToRemote()
	return &remote, nil
}

// DeletePlaylist deletes the playlist with the given ID.
func (c *SubsonicClient) DeletePlaylist(ctx context.Context, playlistID string) error {
	query := url.Values{}
	query.Set("id", playlistID)

	if _, err := c.doRequest(ctx, "deletePlaylist", query); err != nil {
		var serr *SubsonicError
		if errors.As(err, &serr) && serr.Code == errCodeNotFound {
			return fmt.Errorf("%w: %s: %v", shared.ErrPlaylistNotFound, playlistID, err)
		}
		return err
	}
	return nil
}

// Publish replaces matching playlists with a new one.
func (c *SubsonicClient) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: playlist name is required", shared.ErrInvalidArgument)
	}

	result := &PublishResult{Name: req.Name}
	if req.Replaces != nil {
		existing, err := c.Playlists(ctx)
		if err != nil {
			c.logger.Warn("could not list existing playlists", "error", err)
		}
		for _, pl := range existing {
			if !req.Replaces(pl.Name) {
				continue
			}
			if err := c.DeletePlaylist(ctx, pl.ID); err != nil {
				c.logger.Warn("could not delete playlist", "name", pl.Name, "id", pl.ID, "error", err)
				continue
			}
			c.logger.Debug("deleted playlist", "name", pl.Name, "id", pl.ID)
			result.Deleted = append(result.Deleted, pl.ID)
		}
	}

	created, err := c.CreatePlaylist(ctx, req.Name, req.SongIDs)
	if err != nil {
		return nil, fmt.Errorf("create playlist %q: %w", req.Name, err)
	}

	result.PlaylistID = created.ID
	result.SongCount = len(req.SongIDs)
	return result, nil
}
