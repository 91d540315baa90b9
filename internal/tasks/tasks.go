// package tasks implements curation runs against a Subsonic-compatible server.
//
// The core abstraction is Curator, which fetches a candidate pool, generates playlists from specs and publishes them.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/daylist/internal/curation"
	"github.com/desertthunder/daylist/internal/formatter"
	"github.com/desertthunder/daylist/internal/models"
	"github.com/desertthunder/daylist/internal/services"
	"github.com/desertthunder/daylist/internal/shared"
)

// manifestFile is written to the export directory after every exporting run.
const manifestFile = "manifest.json"

// RunOptions configures a curation run.
type RunOptions struct {
	Pool      services.PoolOptions // How the candidate pool is fetched
	Seed      uint64               // Base jitter seed; 0 draws one and records it in the result
	Workers   int                  // Concurrent generators
	DryRun    bool                 // Generate without publishing
	Now       time.Time            // Reference time for recency rules; zero means time.Now()
	ExportDir string               // When set, every generated playlist is exported here
	Format    string               // Export format: json, csv, markdown, txt
}

// PoolResult is a fetched and classified candidate pool.
type PoolResult struct {
	Fetched int                           // Songs returned by the catalog
	Songs   []models.Song                 // Songs that classify as real songs
	Report  curation.ClassificationReport // Exclusions by reason
}

// PlaylistOutcome is the result of one spec within a run.
type PlaylistOutcome struct {
	Result       curation.Result `json:"result"`
	Published    bool            `json:"published"`
	RemoteID     string          `json:"remote_id,omitempty"`
	Deleted      []string        `json:"deleted,omitempty"` // Replaced remote playlist IDs
	ExportFile   string          `json:"export_file,omitempty"`
	PublishError string          `json:"publish_error,omitempty"`
}

// RunResult contains all data from a curation run.
type RunResult struct {
	RunID          string                        `json:"run_id"`
	StartedAt      time.Time                     `json:"started_at"`
	Seed           uint64                        `json:"seed"`
	DryRun         bool                          `json:"dry_run"`
	PoolSize       int                           `json:"pool_size"`
	Classification curation.ClassificationReport `json:"classification"`
	Playlists      []PlaylistOutcome             `json:"playlists"`
	Published      int                           `json:"published"`
	PublishFailed  int                           `json:"publish_failed"`
	ManifestPath   string                        `json:"manifest_path,omitempty"`
}

// Count returns how many playlists ended with outcome o.
func (r *RunResult) Count(o curation.Outcome) int {
	n := 0
	for _, p := range r.Playlists {
		if p.Result.Outcome == o {
			n++
		}
	}
	return n
}

// Curator defines curation operations against a catalog.
type Curator interface {
	// Run fetches the pool once, generates every spec from it and publishes the non-empty results.
	Run(ctx context.Context, progress chan<- ProgressUpdate, specs []curation.PlaylistSpec, opts RunOptions) (*RunResult, error)

	// Pool fetches and classifies the candidate pool without generating anything.
	Pool(ctx context.Context, progress chan<- ProgressUpdate, opts services.PoolOptions) (*PoolResult, error)

	// Publish uploads the playlists of a finished run that have songs and are not yet published.
	Publish(ctx context.Context, progress chan<- ProgressUpdate, run *RunResult) error
}

// PlaylistEngine implements Curator.
// Contains dependencies on the catalog and publisher collaborators.
type PlaylistEngine struct {
	catalog   services.Catalog
	publisher services.Publisher
	logger    *log.Logger
}

// NewPlaylistEngine creates a new PlaylistEngine. The publisher may be nil for dry runs; a nil logger discards output.
func NewPlaylistEngine(catalog services.Catalog, publisher services.Publisher, logger *log.Logger) *PlaylistEngine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &PlaylistEngine{
		catalog:   catalog,
		publisher: publisher,
		logger:    logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Pool fetches the candidate pool and drops tracks that are not real songs.
func (e *PlaylistEngine) Pool(ctx context.Context, progress chan<- ProgressUpdate, opts services.PoolOptions) (*PoolResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	sendProgress(progress, fetchingPoolUpdate(opts))
	songs, err := e.catalog.FetchPool(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidate pool: %w", err)
	}
	sendProgress(progress, fetchedPoolUpdate(len(songs)))
	e.logger.Debug("fetched pool", "songs", len(songs), "diverse", opts.Diverse)

	kept, report := curation.ClassifyPool(songs)
	sendProgress(progress, classifiedUpdate(report))
	e.logger.Debug("classified pool", "kept", report.Kept, "excluded", report.Excluded())

	return &PoolResult{Fetched: len(songs), Songs: kept, Report: report}, nil
}

// Run performs a full curation run.
//
// Every spec is generated from the same classified pool. A spec that fails validation or matches
// nothing is recorded in its outcome and does not stop the others. Outside dry runs, a run that
// publishes nothing returns [shared.ErrNoPlaylistsCreated] alongside the result.
func (e *PlaylistEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, specs []curation.PlaylistSpec, opts RunOptions) (*RunResult, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: no playlist specs to generate", shared.ErrInvalidArgument)
	}
	if !opts.DryRun && e.publisher == nil {
		return nil, fmt.Errorf("%w: publisher not initialized", shared.ErrServiceUnavailable)
	}
	if opts.ExportDir != "" {
		format, err := formatter.ParseFormat(opts.Format)
		if err != nil {
			return nil, err
		}
		opts.Format = format
	}

	if opts.Seed == 0 {
		opts.Seed = rand.Uint64()
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	run := &RunResult{
		RunID:     shared.GenerateID(),
		StartedAt: opts.Now,
		Seed:      opts.Seed,
		DryRun:    opts.DryRun,
	}
	logger := shared.WithLogger(e.logger, "run_id", run.RunID)
	logger.Debug("starting run", "specs", len(specs), "seed", run.Seed, "dry_run", run.DryRun)

	pool, err := e.Pool(ctx, progress, opts.Pool)
	if err != nil {
		return run, err
	}
	run.PoolSize = pool.Fetched
	run.Classification = pool.Report

	results := GenerateAll(ctx, progress, pool.Songs, specs, GenerateOptions{
		Seed:    opts.Seed,
		Workers: opts.Workers,
		Now:     opts.Now,
	})

	run.Playlists = make([]PlaylistOutcome, len(results))
	for i, r := range results {
		run.Playlists[i] = PlaylistOutcome{Result: r}
		logResult(shared.WithLogger(logger, "playlist", r.Spec.Name), r)
	}

	if err := ctx.Err(); err != nil {
		return run, err
	}

	if opts.ExportDir != "" {
		if err := e.export(progress, run, opts); err != nil {
			return run, err
		}
	}

	if opts.DryRun {
		return run, nil
	}
	return run, e.Publish(ctx, progress, run)
}

// Publish uploads a finished run, typically one generated as a dry run and then reviewed.
//
// Playlists without songs and those already published are skipped. Returns
// [shared.ErrNoPlaylistsCreated] when the run ends with nothing published.
func (e *PlaylistEngine) Publish(ctx context.Context, progress chan<- ProgressUpdate, run *RunResult) error {
	if e.publisher == nil {
		return fmt.Errorf("%w: publisher not initialized", shared.ErrServiceUnavailable)
	}
	if run == nil {
		return fmt.Errorf("%w: no run to publish", shared.ErrInvalidArgument)
	}

	run.DryRun = false
	e.publish(ctx, progress, shared.WithLogger(e.logger, "run_id", run.RunID), run)
	if run.Published == 0 {
		return fmt.Errorf("%w: %d specs generated, none published", shared.ErrNoPlaylistsCreated, len(run.Playlists))
	}
	return nil
}

func logResult(logger *log.Logger, r curation.Result) {
	switch r.Outcome {
	case curation.OutcomeFailed:
		logger.Error("generation failed", "err", r.Error)
	case curation.OutcomeEmpty:
		logger.Warn("no songs matched", "eligible", r.Filter.Eligible)
	default:
		logger.Info("generated", "name", r.Name, "songs", len(r.Songs), "target", r.Spec.TargetLength,
			"quality", fmt.Sprintf("%.1f", r.Quality.Score))
		for _, w := range r.Warnings {
			logger.Warn(w)
		}
	}
}

// publish replaces each non-empty playlist on the server, continuing past individual failures.
func (e *PlaylistEngine) publish(ctx context.Context, progress chan<- ProgressUpdate, logger *log.Logger, run *RunResult) {
	pending := func(p PlaylistOutcome) bool { return len(p.Result.Songs) > 0 && !p.Published }

	total := 0
	for _, p := range run.Playlists {
		if pending(p) {
			total++
		}
	}

	step := 0
	for i := range run.Playlists {
		out := &run.Playlists[i]
		if !pending(*out) {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		step++
		result := out.Result
		sendProgress(progress, publishingUpdate(step, total, result.Name))

		base := result.BaseName()
		res, err := e.publisher.Publish(ctx, services.PublishRequest{
			Name:     result.Name,
			SongIDs:  result.SongIDs(),
			Replaces: func(name string) bool { return curation.MatchesBaseName(name, base) },
		})
		if err != nil {
			run.PublishFailed++
			out.PublishError = err.Error()
			logger.Error("publish failed", "playlist", result.Name, "err", err)
			sendProgress(progress, publishFailedUpdate(step, total, result.Name, err))
			continue
		}

		run.Published++
		out.Published = true
		out.PublishError = ""
		out.RemoteID = res.PlaylistID
		out.Deleted = res.Deleted
		logger.Info("published", "playlist", res.Name, "id", res.PlaylistID, "replaced", len(res.Deleted))
		sendProgress(progress, publishedUpdate(step, total, res))
	}
}

// export writes each non-empty playlist and a manifest covering every spec in the run.
func (e *PlaylistEngine) export(progress chan<- ProgressUpdate, run *RunResult, opts RunOptions) error {
	if err := os.MkdirAll(opts.ExportDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	manifest := &formatter.Manifest{
		RunID:     run.RunID,
		CreatedAt: run.StartedAt,
		Format:    opts.Format,
		Seed:      run.Seed,
		Playlists: make([]formatter.ManifestEntry, 0, len(run.Playlists)),
	}

	total := len(run.Playlists)
	for i := range run.Playlists {
		out := &run.Playlists[i]
		if len(out.Result.Songs) == 0 {
			manifest.Playlists = append(manifest.Playlists, formatter.NewManifestEntry(&out.Result, "", nil))
			continue
		}

		path, err := formatter.WriteExport(&out.Result, opts.ExportDir, opts.Format)
		manifest.Playlists = append(manifest.Playlists, formatter.NewManifestEntry(&out.Result, path, err))
		if err != nil {
			sendProgress(progress, exportFailedUpdate(i+1, total, out.Result.Name, err))
			continue
		}
		out.ExportFile = path
		sendProgress(progress, exportedUpdate(i+1, total, out.Result.Name, path))
	}

	manifestPath := filepath.Join(opts.ExportDir, manifestFile)
	if err := formatter.WriteManifest(manifest, manifestPath); err != nil {
		return fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	run.ManifestPath = manifestPath
	return nil
}
