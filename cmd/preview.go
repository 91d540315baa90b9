package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/daylist/internal/shared"
	"github.com/desertthunder/daylist/internal/ui"
	"github.com/urfave/cli/v3"
)

// previewLogPath receives log output while the preview owns the terminal.
const previewLogPath = "./tmp/daylist-preview.log"

// Preview generates playlists in dry-run mode and opens the interactive preview,
// where the reviewed playlists can be published.
func (r *Runner) Preview(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd, true); err != nil {
		return err
	}

	specs, err := r.loadSpecs(cmd)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(previewLogPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, r.engine, specs, r.runOptions(cmd))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running preview: %w", err)
	}

	if run := model.Run(); run != nil && run.Published > 0 {
		r.writePlain("✓ Published %d playlists (run %s)\n", run.Published, run.RunID)
	}
	return nil
}
