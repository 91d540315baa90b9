// package formatter provides functions to export generated playlists to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/daylist/internal/curation"
	"github.com/desertthunder/daylist/internal/shared"
)

// Export formats
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
	FormatJSON     = "json"
)

// ParseFormat normalizes a format flag value, accepting "md" and "text" as aliases.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatText, "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: %q (expected csv, markdown, txt or json)", shared.ErrUnsupportedFormat, s)
	}
}

// Extension returns the file extension for a format, without the dot.
func Extension(format string) string {
	if format == FormatMarkdown {
		return "md"
	}
	return format
}

// ExportToCSV converts a generated playlist to CSV with one row per song in playlist order
func ExportToCSV(result *curation.Result) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Title", "Artist", "Album", "Year", "Genre", "BPM", "Duration", "Plays", "Starred"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, song := range result.Songs {
		record := []string{
			strconv.Itoa(i + 1),
			song.ID,
			song.Title,
			song.Artist,
			song.Album,
			strconv.Itoa(song.Year),
			song.Genre,
			strconv.Itoa(song.BPM),
			strconv.Itoa(song.Duration),
			strconv.Itoa(song.PlayCount),
			strconv.FormatBool(song.Starred),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a generated playlist to Markdown with a stats table and track list
func ExportToMarkdown(result *curation.Result) ([]byte, error) {
	var buf bytes.Buffer
	stats := result.Quality.Stats

	buf.WriteString(fmt.Sprintf("# %s\n\n", result.Name))
	buf.WriteString(fmt.Sprintf("**Outcome**: %s\n", result.Outcome))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d of %d\n", len(result.Songs), result.Spec.TargetLength))
	buf.WriteString(fmt.Sprintf("**Duration**: %s\n", shared.FormatDuration(stats.TotalDuration)))
	buf.WriteString(fmt.Sprintf("**Quality**: %.1f/100\n\n", result.Quality.Score))

	buf.WriteString("| Metric | Value |\n|---|---|\n")
	buf.WriteString(fmt.Sprintf("| Unique artists | %d |\n", stats.UniqueArtists))
	if stats.MaxBPM > 0 {
		buf.WriteString(fmt.Sprintf("| BPM | %d-%d (avg %.0f) |\n", stats.MinBPM, stats.MaxBPM, stats.AverageBPM))
	}
	if stats.MaxYear > 0 {
		buf.WriteString(fmt.Sprintf("| Years | %d-%d |\n", stats.MinYear, stats.MaxYear))
	}
	if genres := genreList(stats.TopGenres); genres != "" {
		buf.WriteString(fmt.Sprintf("| Top genres | %s |\n", genres))
	}
	buf.WriteString("\n## Tracks\n\n")

	for i, song := range result.Songs {
		albumPart := ""
		if song.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", song.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]\n", i+1, song.Artist, song.Title, albumPart, shared.FormatDuration(song.Duration)))
	}

	if len(result.Warnings) > 0 {
		buf.WriteString("\n## Warnings\n\n")
		for _, w := range result.Warnings {
			buf.WriteString(fmt.Sprintf("- %s\n", w))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText renders a generated playlist as plain text: numbered tracks, then stats and the quality score.
func ExportToText(result *curation.Result) ([]byte, error) {
	var buf bytes.Buffer
	q := result.Quality

	buf.WriteString(fmt.Sprintf("Playlist: %s (%s)\n", result.Name, result.Outcome))
	buf.WriteString(fmt.Sprintf("Tracks: %d of %d\n\n", len(result.Songs), result.Spec.TargetLength))

	for i, song := range result.Songs {
		buf.WriteString(fmt.Sprintf("%3d. %s - %s", i+1, song.Artist, song.Title))
		var details []string
		if song.Album != "" {
			details = append(details, song.Album)
		}
		if song.HasYear() {
			details = append(details, strconv.Itoa(song.Year))
		}
		if song.HasBPM() {
			details = append(details, fmt.Sprintf("%d BPM", song.BPM))
		}
		if song.Genre != "" {
			details = append(details, song.Genre)
		}
		if len(details) > 0 {
			buf.WriteString(" [" + strings.Join(details, " | ") + "]")
		}
		buf.WriteString("\n")
	}

	if len(result.Songs) > 0 {
		buf.WriteString("\n")
		buf.WriteString(fmt.Sprintf("Duration: %s\n", shared.FormatDuration(q.Stats.TotalDuration)))
		buf.WriteString(fmt.Sprintf("Unique artists: %d (diversity %.2f)\n", q.Stats.UniqueArtists, q.ArtistDiversity))
		if q.Stats.MaxBPM > 0 {
			buf.WriteString(fmt.Sprintf("BPM: %d-%d, avg %.1f\n", q.Stats.MinBPM, q.Stats.MaxBPM, q.Stats.AverageBPM))
		}
		if q.Stats.MaxYear > 0 {
			buf.WriteString(fmt.Sprintf("Years: %d-%d\n", q.Stats.MinYear, q.Stats.MaxYear))
		}
		if genres := genreList(q.Stats.TopGenres); genres != "" {
			buf.WriteString(fmt.Sprintf("Top genres: %s\n", genres))
		}
		buf.WriteString(fmt.Sprintf("Artist violations: %d, BPM violations: %d\n", q.ArtistViolations, q.BPMViolations))
		buf.WriteString(fmt.Sprintf("Quality score: %.1f/100\n", q.Score))
	}

	for _, w := range result.Warnings {
		buf.WriteString(fmt.Sprintf("Warning: %s\n", w))
	}
	if result.ErrorMessage != "" {
		buf.WriteString(fmt.Sprintf("Error: %s\n", result.ErrorMessage))
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders the full generation result, including reports, as indented JSON.
func ExportToJSON(result *curation.Result) ([]byte, error) {
	return shared.MarshalJSON(result, true)
}

// Export renders result in the given format.
func Export(result *curation.Result, format string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(result)
	case FormatMarkdown:
		return ExportToMarkdown(result)
	case FormatText:
		return ExportToText(result)
	case FormatJSON:
		return ExportToJSON(result)
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnsupportedFormat, format)
	}
}

// WriteExport writes result to {dir}/{slug}.{ext} and returns the file path.
//
// The slug is derived from the display name, falling back to the spec name.
func WriteExport(result *curation.Result, dir, format string) (string, error) {
	data, err := Export(result, format)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	slug := shared.Slugify(result.Name)
	if slug == "" {
		slug = shared.Slugify(result.Spec.Name)
	}
	if slug == "" {
		slug = "playlist"
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.%s", slug, Extension(format)))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// ManifestEntry summarizes one exported playlist.
type ManifestEntry struct {
	Name      string  `json:"name"`
	Outcome   string  `json:"outcome"`
	SongCount int     `json:"song_count"`
	Target    int     `json:"target"`
	Score     float64 `json:"quality_score"`
	File      string  `json:"file,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// Manifest describes the exports written by one run.
type Manifest struct {
	RunID     string          `json:"run_id"`
	CreatedAt time.Time       `json:"created_at"`
	Format    string          `json:"format"`
	Seed      uint64          `json:"seed"`
	Playlists []ManifestEntry `json:"playlists"`
}

// NewManifestEntry builds the manifest line for a result and the file it was written to.
func NewManifestEntry(result *curation.Result, file string, err error) ManifestEntry {
	entry := ManifestEntry{
		Name:      result.Name,
		Outcome:   result.Outcome.String(),
		SongCount: len(result.Songs),
		Target:    result.Spec.TargetLength,
		Score:     result.Quality.Score,
		File:      file,
	}
	if err != nil {
		entry.Error = err.Error()
	} else if result.ErrorMessage != "" {
		entry.Error = result.ErrorMessage
	}
	return entry
}

// WriteManifest writes m as indented JSON to path.
func WriteManifest(m *Manifest, path string) error {
	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func genreList(genres []curation.GenreCount) string {
	names := make([]string, len(genres))
	for i, g := range genres {
		names[i] = fmt.Sprintf("%s (%d)", g.Genre, g.Count)
	}
	return strings.Join(names, ", ")
}
