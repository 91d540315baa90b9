package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/daylist/internal/models"
	"github.com/desertthunder/daylist/internal/tasks"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = songItem{}
)

// playlistItem wraps [tasks.PlaylistOutcome] to implement [list.Item].
type playlistItem struct {
	outcome tasks.PlaylistOutcome
}

func (i playlistItem) FilterValue() string { return i.outcome.Result.Name }
func (i playlistItem) Title() string       { return i.outcome.Result.Name }
func (i playlistItem) Description() string {
	r := i.outcome.Result
	desc := fmt.Sprintf("%d/%d songs • %s", len(r.Songs), r.Spec.TargetLength, r.Outcome)
	if len(r.Songs) > 0 {
		desc = fmt.Sprintf("%s • quality %.1f", desc, r.Quality.Score)
	}
	if i.outcome.Published {
		desc += " • published"
	}
	return desc
}

// songItem wraps [models.Song] with its playlist position to implement [list.Item].
type songItem struct {
	position int
	song     models.Song
}

func (i songItem) FilterValue() string { return i.song.Title + " " + i.song.Artist }
func (i songItem) Title() string       { return fmt.Sprintf("%d. %s", i.position, i.song.Title) }
func (i songItem) Description() string {
	parts := []string{i.song.Artist}
	if i.song.Album != "" {
		parts = append(parts, i.song.Album)
	}
	if i.song.HasYear() {
		parts = append(parts, fmt.Sprint(i.song.Year))
	}
	if i.song.HasBPM() {
		parts = append(parts, fmt.Sprintf("%d BPM", i.song.BPM))
	}
	if i.song.Genre != "" {
		parts = append(parts, i.song.Genre)
	}
	return strings.Join(parts, " • ")
}

func playlistItems(run *tasks.RunResult) []list.Item {
	items := make([]list.Item, len(run.Playlists))
	for i, p := range run.Playlists {
		items[i] = playlistItem{outcome: p}
	}
	return items
}

func songItems(songs []models.Song) []list.Item {
	items := make([]list.Item, len(songs))
	for i, s := range songs {
		items[i] = songItem{position: i + 1, song: s}
	}
	return items
}
