package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/daylist/internal/curation"
	"github.com/desertthunder/daylist/internal/models"
	"github.com/desertthunder/daylist/internal/shared"
	"github.com/urfave/cli/v3"
)

// Ping checks that the server is reachable and accepts the configured credentials.
func (r *Runner) Ping(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd, true); err != nil {
		return err
	}

	if err := r.catalog.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	r.writePlain("✓ Connected to %s as %s\n", r.config.Subsonic.BaseURL, r.config.Subsonic.Username)
	return nil
}

// Playlists lists the playlists on the server, optionally only those a run would replace.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd, true); err != nil {
		return err
	}
	if r.publisher == nil {
		return fmt.Errorf("%w: publisher not initialized", shared.ErrServiceUnavailable)
	}

	playlists, err := r.publisher.Playlists(ctx)
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}

	if base := cmd.String("match"); base != "" {
		matched := make([]models.RemotePlaylist, 0, len(playlists))
		for _, pl := range playlists {
			if curation.MatchesBaseName(pl.Name, base) {
				matched = append(matched, pl)
			}
		}
		playlists = matched
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Playlists (%d)", len(playlists)))
	for _, pl := range playlists {
		r.writePlain("%-40s %4d songs  %8s  (ID: %s)\n", pl.Name, pl.SongCount, shared.FormatDuration(pl.Duration), pl.ID)
	}
	return nil
}

// Pool fetches and classifies the candidate pool, printing exclusion statistics.
func (r *Runner) Pool(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd, true); err != nil {
		return err
	}

	pool, err := r.engine.Pool(ctx, nil, r.poolOptions(cmd))
	if err != nil {
		return err
	}

	report := pool.Report
	if !cmd.Bool("excluded") {
		report.Exclusions = nil
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Candidate Pool")
	r.writePlain("Fetched %d tracks, kept %d\n", report.Total, report.Kept)
	r.writeReasons(report)

	if len(report.Exclusions) > 0 {
		r.writePlainln("Excluded tracks:")
		for _, ex := range report.Exclusions {
			r.writePlain("  - %s - %s [%s] (%s)\n", ex.Song.Artist, ex.Song.Title, ex.Classification.Reason,
				shared.FormatDuration(ex.Song.Duration))
		}
	}
	return nil
}
