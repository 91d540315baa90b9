package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/daylist/internal/curation"
	"github.com/desertthunder/daylist/internal/formatter"
	"github.com/desertthunder/daylist/internal/models"
	"github.com/desertthunder/daylist/internal/services"
	"github.com/desertthunder/daylist/internal/shared"
	tu "github.com/desertthunder/daylist/internal/testing"
)

var runNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// testPool has 10 jazz and 10 rock songs plus two tracks too short to be songs.
func testPool() []models.Song {
	var pool []models.Song
	for i := range 10 {
		pool = append(pool, tu.NewSong(fmt.Sprintf("j%d", i), tu.WithGenre("jazz"), tu.WithPlays(i)))
	}
	for i := range 10 {
		pool = append(pool, tu.NewSong(fmt.Sprintf("r%d", i), tu.WithGenre("rock"), tu.WithPlays(i)))
	}
	pool = append(pool,
		tu.NewSong("short1", tu.WithDuration(12)),
		tu.NewSong("short2", tu.WithDuration(5)),
	)
	return pool
}

func testSpecs() []curation.PlaylistSpec {
	jazz := curation.DefaultSpec("Jazz")
	jazz.TargetLength = 5
	jazz.AcceptableGenres = []string{"jazz"}

	rock := curation.DefaultSpec("Rock")
	rock.TargetLength = 5
	rock.GenreSuffix = 1
	rock.AcceptableGenres = []string{"rock"}

	polka := curation.DefaultSpec("Polka")
	polka.AcceptableGenres = []string{"polka"}

	return []curation.PlaylistSpec{jazz, rock, polka}
}

func drain(ch chan ProgressUpdate) []ProgressUpdate {
	var updates []ProgressUpdate
	for {
		select {
		case u := <-ch:
			updates = append(updates, u)
		default:
			return updates
		}
	}
}

func TestPlaylistEngine_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("dry run generates without publishing", func(t *testing.T) {
		catalog := &tu.MockCatalog{Songs: testPool()}
		publisher := &tu.MockPublisher{}
		engine := NewPlaylistEngine(catalog, publisher, nil)

		opts := RunOptions{
			Pool:   services.PoolOptions{Size: 50},
			Seed:   7,
			DryRun: true,
			Now:    runNow,
		}
		run, err := engine.Run(ctx, nil, testSpecs(), opts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if run.RunID == "" || run.Seed != 7 || !run.DryRun {
			t.Errorf("unexpected run metadata: %+v", run)
		}
		if run.PoolSize != 22 || run.Classification.Kept != 20 || run.Classification.Excluded() != 2 {
			t.Errorf("unexpected pool accounting: size %d, %+v", run.PoolSize, run.Classification)
		}
		if len(catalog.Calls) != 1 || catalog.Calls[0].Size != 50 {
			t.Errorf("expected one pool fetch with size 50, got %+v", catalog.Calls)
		}

		names := make([]string, len(run.Playlists))
		for i, p := range run.Playlists {
			names[i] = p.Result.Name
		}
		if want := []string{"Jazz", "Rock - Rock", "Polka"}; !reflect.DeepEqual(names, want) {
			t.Errorf("expected playlists %v in spec order, got %v", want, names)
		}
		if run.Count(curation.OutcomeComplete) != 2 || run.Count(curation.OutcomeEmpty) != 1 {
			t.Errorf("unexpected outcomes: %d complete, %d empty",
				run.Count(curation.OutcomeComplete), run.Count(curation.OutcomeEmpty))
		}
		if len(publisher.Published) != 0 || run.Published != 0 {
			t.Errorf("dry run should not publish, got %v", publisher.PublishedNames())
		}
	})

	t.Run("publishes and replaces by base name", func(t *testing.T) {
		catalog := &tu.MockCatalog{Songs: testPool()}
		publisher := &tu.MockPublisher{
			Existing: []models.RemotePlaylist{
				{ID: "old-jazz", Name: "Jazz"},
				{ID: "old-rock", Name: "Rock - Indie"},
				{ID: "other", Name: "Rockabilly"},
			},
		}
		engine := NewPlaylistEngine(catalog, publisher, nil)

		run, err := engine.Run(ctx, nil, testSpecs(), RunOptions{Seed: 3, Now: runNow})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := publisher.PublishedNames(); !reflect.DeepEqual(got, []string{"Jazz", "Rock - Rock"}) {
			t.Errorf("expected Jazz and Rock - Rock to be published, got %v", got)
		}
		if run.Published != 2 || run.PublishFailed != 0 {
			t.Errorf("unexpected publish counts: %d published, %d failed", run.Published, run.PublishFailed)
		}
		if !reflect.DeepEqual(publisher.Deleted, []string{"old-jazz", "old-rock"}) {
			t.Errorf("expected old-jazz and old-rock to be replaced, got %v", publisher.Deleted)
		}

		jazz := run.Playlists[0]
		if !jazz.Published || jazz.RemoteID != "pl-1" || !reflect.DeepEqual(jazz.Deleted, []string{"old-jazz"}) {
			t.Errorf("unexpected jazz outcome: %+v", jazz)
		}
		if got := publisher.Published[0].SongIDs; !reflect.DeepEqual(got, jazz.Result.SongIDs()) {
			t.Errorf("published song IDs %v differ from the playlist %v", got, jazz.Result.SongIDs())
		}
		if run.Playlists[2].Published {
			t.Errorf("empty playlist should not be published")
		}
	})

	t.Run("publish failure does not stop other playlists", func(t *testing.T) {
		publisher := &tu.MockPublisher{FailNames: map[string]bool{"Jazz": true}}
		engine := NewPlaylistEngine(&tu.MockCatalog{Songs: testPool()}, publisher, nil)

		run, err := engine.Run(ctx, nil, testSpecs(), RunOptions{Seed: 3, Now: runNow})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.Published != 1 || run.PublishFailed != 1 {
			t.Errorf("expected 1 published and 1 failed, got %d and %d", run.Published, run.PublishFailed)
		}
		if run.Playlists[0].PublishError == "" || run.Playlists[0].Published {
			t.Errorf("expected jazz to record the failure: %+v", run.Playlists[0])
		}
	})

	t.Run("nothing published", func(t *testing.T) {
		publisher := &tu.MockPublisher{Err: shared.ErrAPIRequest}
		engine := NewPlaylistEngine(&tu.MockCatalog{Songs: testPool()}, publisher, nil)

		run, err := engine.Run(ctx, nil, testSpecs(), RunOptions{Now: runNow})
		if !errors.Is(err, shared.ErrNoPlaylistsCreated) {
			t.Fatalf("expected ErrNoPlaylistsCreated, got %v", err)
		}
		if run == nil || len(run.Playlists) != 3 {
			t.Fatalf("expected the run result alongside the error")
		}
		if run.Seed == 0 {
			t.Errorf("expected a drawn seed to be recorded")
		}
	})

	t.Run("only empty playlists", func(t *testing.T) {
		engine := NewPlaylistEngine(&tu.MockCatalog{Songs: testPool()}, &tu.MockPublisher{}, nil)
		specs := testSpecs()[2:]

		if _, err := engine.Run(ctx, nil, specs, RunOptions{Now: runNow}); !errors.Is(err, shared.ErrNoPlaylistsCreated) {
			t.Errorf("expected ErrNoPlaylistsCreated, got %v", err)
		}
	})

	t.Run("invalid spec fails alone", func(t *testing.T) {
		specs := testSpecs()
		specs[1].TargetLength = 0
		engine := NewPlaylistEngine(&tu.MockCatalog{Songs: testPool()}, &tu.MockPublisher{}, nil)

		run, err := engine.Run(ctx, nil, specs, RunOptions{Now: runNow})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.Playlists[1].Result.Outcome != curation.OutcomeFailed {
			t.Errorf("expected the invalid spec to fail, got %s", run.Playlists[1].Result.Outcome)
		}
		if run.Published != 1 {
			t.Errorf("expected the valid spec to be published, got %d", run.Published)
		}
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name    string
			engine  *PlaylistEngine
			specs   []curation.PlaylistSpec
			opts    RunOptions
			wantErr error
		}{
			{
				name:    "no specs",
				engine:  NewPlaylistEngine(&tu.MockCatalog{}, &tu.MockPublisher{}, nil),
				wantErr: shared.ErrInvalidArgument,
			},
			{
				name:    "missing publisher",
				engine:  NewPlaylistEngine(&tu.MockCatalog{}, nil, nil),
				specs:   testSpecs(),
				wantErr: shared.ErrServiceUnavailable,
			},
			{
				name:    "missing catalog",
				engine:  NewPlaylistEngine(nil, nil, nil),
				specs:   testSpecs(),
				opts:    RunOptions{DryRun: true},
				wantErr: shared.ErrServiceUnavailable,
			},
			{
				name:    "pool fetch fails",
				engine:  NewPlaylistEngine(&tu.MockCatalog{Err: shared.ErrAuthFailed}, nil, nil),
				specs:   testSpecs(),
				opts:    RunOptions{DryRun: true},
				wantErr: shared.ErrAuthFailed,
			},
			{
				name:    "bad export format",
				engine:  NewPlaylistEngine(&tu.MockCatalog{}, nil, nil),
				specs:   testSpecs(),
				opts:    RunOptions{DryRun: true, ExportDir: "out", Format: "xml"},
				wantErr: shared.ErrUnsupportedFormat,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := tt.engine.Run(ctx, nil, tt.specs, tt.opts)
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
			})
		}
	})

	t.Run("exports playlists and a manifest", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out")
		engine := NewPlaylistEngine(&tu.MockCatalog{Songs: testPool()}, nil, nil)

		opts := RunOptions{DryRun: true, Seed: 1, Now: runNow, ExportDir: dir, Format: "md"}
		run, err := engine.Run(ctx, nil, testSpecs(), opts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dir, "jazz.md"))
		tu.AssertFileExists(t, filepath.Join(dir, "rock-rock.md"))
		if _, err := os.Stat(filepath.Join(dir, "polka.md")); !os.IsNotExist(err) {
			t.Errorf("empty playlist should not be exported")
		}
		if run.Playlists[0].ExportFile != filepath.Join(dir, "jazz.md") {
			t.Errorf("unexpected export file %q", run.Playlists[0].ExportFile)
		}

		var manifest formatter.Manifest
		if err := json.Unmarshal([]byte(tu.MustReadFile(t, run.ManifestPath)), &manifest); err != nil {
			t.Fatalf("invalid manifest: %v", err)
		}
		if manifest.RunID != run.RunID || manifest.Format != formatter.FormatMarkdown || len(manifest.Playlists) != 3 {
			t.Errorf("unexpected manifest: %+v", manifest)
		}
		if manifest.Playlists[2].Outcome != "empty" || manifest.Playlists[2].File != "" {
			t.Errorf("unexpected empty entry: %+v", manifest.Playlists[2])
		}
	})

	t.Run("same seed reproduces the run", func(t *testing.T) {
		engine := NewPlaylistEngine(&tu.MockCatalog{Songs: testPool()}, nil, nil)
		opts := RunOptions{DryRun: true, Seed: 1234, Now: runNow}

		a, err := engine.Run(ctx, nil, testSpecs(), opts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b, err := engine.Run(ctx, nil, testSpecs(), opts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for i := range a.Playlists {
			x, y := a.Playlists[i].Result.SongIDs(), b.Playlists[i].Result.SongIDs()
			if !reflect.DeepEqual(x, y) {
				t.Errorf("playlist %d differs: %v vs %v", i, x, y)
			}
		}
		if a.RunID == b.RunID {
			t.Errorf("expected distinct run IDs")
		}
	})

	t.Run("reports progress", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 64)
		engine := NewPlaylistEngine(&tu.MockCatalog{Songs: testPool()}, &tu.MockPublisher{}, nil)

		if _, err := engine.Run(ctx, progress, testSpecs(), RunOptions{Seed: 1, Now: runNow}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		seen := map[Phase]int{}
		var messages []string
		for _, u := range drain(progress) {
			seen[u.Phase]++
			messages = append(messages, u.Message)
		}
		if seen[FetchPool] != 2 || seen[ClassifyPool] != 1 || seen[GeneratePlaylists] != 3 || seen[PublishPlaylists] != 4 {
			t.Errorf("unexpected phase counts: %v", seen)
		}
		if !strings.Contains(strings.Join(messages, "\n"), "Kept 20 of 22 tracks") {
			t.Errorf("expected a classification message, got %v", messages)
		}
	})
}

func TestPlaylistEngine_Pool(t *testing.T) {
	catalog := &tu.MockCatalog{Songs: testPool()}
	engine := NewPlaylistEngine(catalog, nil, nil)

	opts := services.PoolOptions{Size: 100, Diverse: true, Genres: []string{"jazz"}, PerGenre: 20}
	pool, err := engine.Pool(context.Background(), nil, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.Fetched != 22 || len(pool.Songs) != 20 {
		t.Errorf("expected 20 of 22 songs kept, got %d of %d", len(pool.Songs), pool.Fetched)
	}
	if pool.Report.ByReason[curation.ReasonTooShort] != 2 {
		t.Errorf("expected 2 short exclusions, got %v", pool.Report.ByReason)
	}
	if !reflect.DeepEqual(catalog.Calls, []services.PoolOptions{opts}) {
		t.Errorf("expected options to be passed through, got %+v", catalog.Calls)
	}
}

func TestSendProgress(t *testing.T) {
	t.Run("nil channel", func(t *testing.T) {
		sendProgress(nil, ProgressUpdate{Message: "ignored"})
	})

	t.Run("full channel does not block", func(t *testing.T) {
		ch := make(chan ProgressUpdate, 1)
		sendProgress(ch, ProgressUpdate{Message: "first"})
		sendProgress(ch, ProgressUpdate{Message: "second"})

		if got := drain(ch); len(got) != 1 || got[0].Message != "first" {
			t.Errorf("expected only the first update, got %v", got)
		}
	})
}

func TestPhase_String(t *testing.T) {
	tc := []struct {
		phase Phase
		want  string
	}{
		{FetchPool, "fetch_pool"},
		{ClassifyPool, "classify_pool"},
		{GeneratePlaylists, "generate_playlists"},
		{PublishPlaylists, "publish_playlists"},
		{ExportPlaylists, "export_playlists"},
		{Phase(99), ""},
	}
	for _, c := range tc {
		if got := c.phase.String(); got != c.want {
			t.Errorf("Phase(%d).String() = %q, want %q", c.phase, got, c.want)
		}
	}
}

func TestPlaylistEngine_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes a reviewed dry run once", func(t *testing.T) {
		publisher := &tu.MockPublisher{}
		engine := NewPlaylistEngine(&tu.MockCatalog{Songs: testPool()}, publisher, nil)

		run, err := engine.Run(ctx, nil, testSpecs(), RunOptions{DryRun: true, Seed: 9, Now: runNow})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := engine.Publish(ctx, nil, run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.DryRun || run.Published != 2 {
			t.Errorf("expected 2 published, got %d (dry run %v)", run.Published, run.DryRun)
		}

		if err := engine.Publish(ctx, nil, run); err != nil {
			t.Fatalf("unexpected error on republish: %v", err)
		}
		if got := len(publisher.PublishedNames()); got != 2 {
			t.Errorf("expected already published playlists to be skipped, got %d publishes", got)
		}
	})

	t.Run("retries failures", func(t *testing.T) {
		publisher := &tu.MockPublisher{FailNames: map[string]bool{"Jazz": true}}
		engine := NewPlaylistEngine(&tu.MockCatalog{Songs: testPool()}, publisher, nil)

		run, err := engine.Run(ctx, nil, testSpecs(), RunOptions{Seed: 9, Now: runNow})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		publisher.FailNames = map[string]bool{}
		if err := engine.Publish(ctx, nil, run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !run.Playlists[0].Published || run.Playlists[0].PublishError != "" {
			t.Errorf("expected jazz to be published on retry: %+v", run.Playlists[0])
		}
		if got := publisher.PublishedNames(); !reflect.DeepEqual(got, []string{"Rock - Rock", "Jazz"}) {
			t.Errorf("unexpected publish order %v", got)
		}
	})

	t.Run("errors", func(t *testing.T) {
		if err := NewPlaylistEngine(nil, nil, nil).Publish(ctx, nil, &RunResult{}); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
		if err := NewPlaylistEngine(nil, &tu.MockPublisher{}, nil).Publish(ctx, nil, nil); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
