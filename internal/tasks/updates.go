package tasks

import (
	"fmt"

	"github.com/desertthunder/daylist/internal/curation"
	"github.com/desertthunder/daylist/internal/services"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPool Phase = iota
	ClassifyPool
	GeneratePlaylists
	PublishPlaylists
	ExportPlaylists
)

func (p Phase) String() string {
	switch p {
	case FetchPool:
		return "fetch_pool"
	case ClassifyPool:
		return "classify_pool"
	case GeneratePlaylists:
		return "generate_playlists"
	case PublishPlaylists:
		return "publish_playlists"
	case ExportPlaylists:
		return "export_playlists"
	default:
		return ""
	}
}

func fetchingPoolUpdate(opts services.PoolOptions) ProgressUpdate {
	msg := fmt.Sprintf("Fetching %d random songs...", opts.Size)
	if opts.Diverse {
		msg = fmt.Sprintf("Fetching a diverse pool (%d songs, %d genre seeds)...", opts.Size, len(opts.Genres))
	}
	return ProgressUpdate{Phase: FetchPool, Step: 0, Total: 1, Message: msg}
}

func fetchedPoolUpdate(size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPool,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetched %d candidate songs", size),
	}
}

func classifiedUpdate(report curation.ClassificationReport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ClassifyPool,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Kept %d of %d tracks (%d excluded as non-songs)", report.Kept, report.Total, report.Excluded()),
		Data:    report,
	}
}

func generatedUpdate(step, total int, r *curation.Result) ProgressUpdate {
	mark := "✓"
	switch r.Outcome {
	case curation.OutcomePartial:
		mark = "~"
	case curation.OutcomeEmpty, curation.OutcomeFailed:
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   GeneratePlaylists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s (%d/%d songs, %s)", step, total, mark, r.Name, len(r.Songs), r.Spec.TargetLength, r.Outcome),
		Data:    r,
	}
}

func publishingUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PublishPlaylists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Publishing: %s...", step, total, name),
	}
}

func publishedUpdate(step, total int, res *services.PublishResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PublishPlaylists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (ID: %s, replaced %d)", step, total, res.Name, res.PlaylistID, len(res.Deleted)),
		Data:    res,
	}
}

func publishFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PublishPlaylists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func exportedUpdate(step, total int, name, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s → %s", step, total, name, path),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
