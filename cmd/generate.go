package main

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/desertthunder/daylist/internal/curation"
	"github.com/desertthunder/daylist/internal/formatter"
	"github.com/desertthunder/daylist/internal/shared"
	"github.com/desertthunder/daylist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Generate fetches the candidate pool once, generates every spec and publishes the results.
//
// With --debug nothing is uploaded and each playlist is printed instead. Outside debug mode
// the command fails with [shared.ErrNoPlaylistsCreated] when nothing was published.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd, true); err != nil {
		return err
	}

	specs, err := r.loadSpecs(cmd)
	if err != nil {
		return err
	}

	opts := r.runOptions(cmd)
	opts.DryRun = cmd.Bool("debug")
	opts.ExportDir = cmd.String("export")
	opts.Format = cmd.String("format")

	progress := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Debug(update.Message, "phase", update.Phase)
		}
	}()

	run, runErr := r.engine.Run(ctx, progress, specs, opts)
	close(progress)
	<-done

	if run == nil || (runErr != nil && len(run.Playlists) == 0) {
		return runErr
	}

	if cmd.Bool("json") {
		if err := r.writeJSON(run, cmd.Bool("pretty")); err != nil {
			return err
		}
		return runErr
	}

	if run.DryRun {
		for i := range run.Playlists {
			text, err := formatter.ExportToText(&run.Playlists[i].Result)
			if err != nil {
				return err
			}
			r.writePlain("\n%s", text)
		}
	}

	r.printRun(run)
	return runErr
}

// printRun writes one line per playlist followed by the run summary.
func (r *Runner) printRun(run *tasks.RunResult) {
	title := "Generation Summary"
	if run.DryRun {
		title = "Generation Summary (debug, nothing uploaded)"
	}
	r.writePlain("\n")
	r.writePlainHeader(title)

	for _, p := range run.Playlists {
		res := p.Result
		switch {
		case res.Outcome == curation.OutcomeFailed:
			r.writePlain("✗ %s: %s\n", res.Spec.Name, res.ErrorMessage)
		case res.Outcome == curation.OutcomeEmpty:
			r.writePlain("✗ %s: no songs matched\n", res.Name)
		case p.PublishError != "":
			r.writePlain("✗ %s (%d/%d songs): publish failed: %s\n", res.Name, len(res.Songs), res.Spec.TargetLength, p.PublishError)
		default:
			mark := "✓"
			if res.Outcome == curation.OutcomePartial {
				mark = "~"
			}
			r.writePlain("%s %s (%d/%d songs, %s, quality %.1f)", mark, res.Name, len(res.Songs), res.Spec.TargetLength,
				shared.FormatDuration(res.Quality.Stats.TotalDuration), res.Quality.Score)
			if p.Published {
				r.writePlain(" → %s", p.RemoteID)
			}
			r.writePlain("\n")
		}
		for _, w := range res.Warnings {
			r.writePlain("    warning: %s\n", w)
		}
	}

	r.writePlainln("Run %s (seed %d)", run.RunID, run.Seed)
	r.writePlain("Pool: %d fetched, %d kept\n", run.PoolSize, run.Classification.Kept)
	r.writeReasons(run.Classification)
	r.writePlain("Playlists: %d complete, %d partial, %d empty, %d failed\n",
		run.Count(curation.OutcomeComplete), run.Count(curation.OutcomePartial),
		run.Count(curation.OutcomeEmpty), run.Count(curation.OutcomeFailed))
	if !run.DryRun {
		r.writePlain("Published: %d, failed: %d\n", run.Published, run.PublishFailed)
	}
	if run.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", run.ManifestPath)
	}
}

// writeReasons prints exclusion counts by reason in name order.
func (r *Runner) writeReasons(report curation.ClassificationReport) {
	if report.Excluded() == 0 {
		return
	}
	r.writePlain("Excluded %d non-songs:\n", report.Excluded())
	for _, reason := range slices.Sorted(maps.Keys(report.ByReason)) {
		r.writePlain("  %-20s %d\n", reason, report.ByReason[reason])
	}
}

type specStatus struct {
	Name  string `json:"name"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Validate loads the playlist specs and reports each one's status without contacting the server.
func (r *Runner) Validate(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd, false); err != nil {
		return err
	}

	specs, err := r.loadSpecs(cmd)
	if err != nil {
		return err
	}

	statuses := make([]specStatus, len(specs))
	invalid := 0
	for i, s := range specs {
		statuses[i] = specStatus{Name: s.Name, Valid: true}
		if err := s.Validate(); err != nil {
			statuses[i] = specStatus{Name: s.Name, Error: err.Error()}
			invalid++
		}
	}

	if cmd.Bool("json") {
		if err := r.writeJSON(statuses, true); err != nil {
			return err
		}
	} else {
		for i, st := range statuses {
			if st.Valid {
				r.writePlain("✓ %s (target %d)\n", st.Name, specs[i].TargetLength)
			} else {
				r.writePlain("✗ %s\n", st.Error)
			}
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%w: %d of %d playlist specs are invalid", shared.ErrInvalidConfig, invalid, len(specs))
	}
	return nil
}
