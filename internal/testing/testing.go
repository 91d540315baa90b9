// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/daylist/internal/models"
	"github.com/desertthunder/daylist/internal/services"
)

var (
	_ services.Catalog   = (*MockCatalog)(nil)
	_ services.Publisher = (*MockPublisher)(nil)
)

// MockCatalog is a test double for [services.Catalog]
type MockCatalog struct {
	Songs   []models.Song
	Err     error
	PingErr error

	mu    sync.Mutex
	Calls []services.PoolOptions
}

func (m *MockCatalog) Ping(ctx context.Context) error { return m.PingErr }

func (m *MockCatalog) FetchPool(ctx context.Context, opts services.PoolOptions) ([]models.Song, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, opts)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	return m.Songs, nil
}

// MockPublisher is a test double for [services.Publisher] that records published playlists
type MockPublisher struct {
	Existing  []models.RemotePlaylist
	Err       error
	FailNames map[string]bool // Names whose publish fails with Err (or a generic error)

	mu        sync.Mutex
	Published []services.PublishRequest
	Deleted   []string
}

func (m *MockPublisher) Playlists(ctx context.Context) ([]models.RemotePlaylist, error) {
	if m.Err != nil && m.FailNames == nil {
		return nil, m.Err
	}
	return m.Existing, nil
}

func (m *MockPublisher) Publish(ctx context.Context, req services.PublishRequest) (*services.PublishResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailNames[req.Name] || (m.Err != nil && m.FailNames == nil) {
		if m.Err != nil {
			return nil, m.Err
		}
		return nil, errors.New("publish failed")
	}

	result := &services.PublishResult{
		PlaylistID: fmt.Sprintf("pl-%d", len(m.Published)+1),
		Name:       req.Name,
		SongCount:  len(req.SongIDs),
	}
	for _, pl := range m.Existing {
		if req.Replaces != nil && req.Replaces(pl.Name) {
			result.Deleted = append(result.Deleted, pl.ID)
			m.Deleted = append(m.Deleted, pl.ID)
		}
	}

	m.Published = append(m.Published, req)
	return result, nil
}

// PublishedNames returns the names of published playlists in call order.
func (m *MockPublisher) PublishedNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, len(m.Published))
	for i, req := range m.Published {
		names[i] = req.Name
	}
	return names
}

// SongOption customizes a fixture built by [NewSong].
type SongOption func(*models.Song)

// NewSong builds a plausible song fixture. Each id gets its own artist and album unless overridden.
func NewSong(id string, opts ...SongOption) models.Song {
	s := models.Song{
		ID:       id,
		Title:    "Song " + id,
		Artist:   "Artist " + id,
		ArtistID: "ar-" + id,
		Album:    "Album " + id,
		AlbumID:  "al-" + id,
		Genre:    "rock",
		Year:     2000,
		Duration: 210,
		BPM:      120,
		BitRate:  320,
		Track:    1,
		Disc:     1,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func WithTitle(title string) SongOption { return func(s *models.Song) { s.Title = title } }

func WithArtist(id string) SongOption {
	return func(s *models.Song) { s.ArtistID, s.Artist = id, "Artist "+id }
}

func WithAlbum(id string) SongOption {
	return func(s *models.Song) { s.AlbumID, s.Album = id, "Album "+id }
}

func WithGenre(genre string) SongOption { return func(s *models.Song) { s.Genre = genre } }
func WithBPM(bpm int) SongOption { return func(s *models.Song) { s.BPM = bpm } }
func WithYear(year int) SongOption { return func(s *models.Song) { s.Year = year } }
func WithPlays(count int) SongOption { return func(s *models.Song) { s.PlayCount = count } }
func WithDuration(secs int) SongOption { return func(s *models.Song) { s.Duration = secs } }
func WithStarred() SongOption { return func(s *models.Song) { s.Starred = true } }

func WithLastPlayed(t time.Time) SongOption {
	return func(s *models.Song) { s.LastPlayed = &t }
}

// NewPool builds n songs with ids "1".."n", applying opts to every song.
func NewPool(n int, opts ...SongOption) []models.Song {
	pool := make([]models.Song, n)
	for i := range pool {
		pool[i] = NewSong(fmt.Sprint(i+1), opts...)
	}
	return pool
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
