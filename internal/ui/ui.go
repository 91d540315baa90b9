package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/daylist/internal/curation"
	"github.com/desertthunder/daylist/internal/shared"
	"github.com/desertthunder/daylist/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	PlaylistListView
	TrackListView
	ConfirmView
	PublishView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       tasks.Curator
	specs        []curation.PlaylistSpec
	opts         tasks.RunOptions
	width        int
	height       int
	playlistList list.Model
	trackList    list.Model
	selected     *tasks.PlaylistOutcome
	progressChan chan tasks.ProgressUpdate
	doneChan     chan Msg
	progress     tasks.ProgressUpdate
	run          *tasks.RunResult
	err          error
	publishErr   error
	help         help.Model
	keys         keyMap
}

// NewModel creates a preview model that generates specs as a dry run and can publish the result.
func NewModel(ctx context.Context, engine tasks.Curator, specs []curation.PlaylistSpec, opts tasks.RunOptions) *Model {
	opts.DryRun = true
	return &Model{
		ctx:          ctx,
		view:         LoadingView,
		engine:       engine,
		specs:        specs,
		opts:         opts,
		playlistList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		trackList:    list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Run returns the generated run once loading has finished.
func (m *Model) Run() *tasks.RunResult {
	return m.run
}

// Init starts the dry run.
func (m *Model) Init() tea.Cmd {
	return m.start(func(progress chan<- tasks.ProgressUpdate) Msg {
		run, err := m.engine.Run(m.ctx, progress, m.specs, m.opts)
		return runCompleteMsg(run, err)
	})
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoadingView, PublishView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgRunComplete:
		done := msg.data.(runComplete)
		m.finish()
		m.run = done.run
		if done.err != nil {
			m.err = done.err
			return m, nil
		}
		m.playlistList = list.New(playlistItems(done.run), list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = fmt.Sprintf("Generated Playlists (seed %d)", done.run.Seed)
		m.resize()
		m.view = PlaylistListView
		return m, nil

	case MsgPublishComplete:
		done := msg.data.(runComplete)
		m.finish()
		m.publishErr = done.err
		m.playlistList.SetItems(playlistItems(m.run))
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case LoadingView:
		return m.renderProgress("Generating Playlists")
	case PlaylistListView:
		return m.renderPlaylistList()
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case PublishView:
		return m.renderProgress("Publishing Playlists")
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.playlistList, cmd = m.playlistList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.publish):
		if m.publishable() > 0 {
			m.view = ConfirmView
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			outcome := item.outcome
			m.selected = &outcome
			m.trackList = list.New(songItems(outcome.Result.Songs), list.NewDefaultDelegate(), 0, 0)
			m.trackList.Title = outcome.Result.Name
			m.resize()
			m.view = TrackListView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		m.selected = nil
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.view = PublishView
		m.progress = tasks.ProgressUpdate{}
		run := m.run
		return m, m.start(func(progress chan<- tasks.ProgressUpdate) Msg {
			return publishCompleteMsg(run, m.engine.Publish(m.ctx, progress, run))
		})
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = PlaylistListView
		m.publishErr = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

// resize fits both lists to the window, leaving room for the report and help lines.
func (m *Model) resize() {
	w, h := max(m.width-4, 0), max(m.height-8, 0)
	m.playlistList.SetSize(w, h)
	m.trackList.SetSize(w, h)
}

// publishable counts generated playlists that have songs and are not yet published.
func (m *Model) publishable() int {
	if m.run == nil {
		return 0
	}
	n := 0
	for _, p := range m.run.Playlists {
		if len(p.Result.Songs) > 0 && !p.Published {
			n++
		}
	}
	return n
}

// start runs op in a goroutine, relaying its progress updates until it completes.
func (m *Model) start(op func(progress chan<- tasks.ProgressUpdate) Msg) tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan Msg, 1)
	m.progressChan = progress
	m.doneChan = done

	go func() {
		done <- op(progress)
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) finish() {
	m.progressChan = nil
	m.doneChan = nil
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.doneChan
	if progress == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderProgress(title string) string {
	phase := "Starting..."
	switch m.progress.Phase {
	case tasks.FetchPool:
		phase = "Fetching candidate pool..."
	case tasks.ClassifyPool:
		phase = "Classifying tracks..."
	case tasks.GeneratePlaylists:
		phase = fmt.Sprintf("Generating playlists (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.ExportPlaylists:
		phase = fmt.Sprintf("Exporting playlists (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.PublishPlaylists:
		phase = fmt.Sprintf("Publishing playlists (%d/%d)", m.progress.Step, m.progress.Total)
	}
	return fmt.Sprintf("%s\n\n%s\n%s", styles.title.Render(title), phase, m.progress.Message)
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.publish, m.keys.quit}
	summary := ""
	if m.run != nil {
		c := m.run.Classification
		summary = styles.help.Render(fmt.Sprintf("Pool: %d fetched, %d kept, %d excluded as non-songs", m.run.PoolSize, c.Kept, c.Excluded()))
	}
	return fmt.Sprintf("%s\n%s\n\n%s", m.playlistList.View(), summary, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n\n%s", m.trackList.View(), m.renderReport(), m.help.ShortHelpView(helpKeys))
}

// renderReport summarizes the selected playlist's quality report.
func (m *Model) renderReport() string {
	if m.selected == nil {
		return ""
	}
	r := m.selected.Result
	q := r.Quality

	var b strings.Builder
	b.WriteString(styles.outcome(r.Outcome).Render(r.Outcome.String()))
	b.WriteString(fmt.Sprintf(" • %d/%d songs • %s", len(r.Songs), r.Spec.TargetLength, shared.FormatDuration(q.Stats.TotalDuration)))
	if len(r.Songs) > 0 {
		b.WriteString(" • quality ")
		b.WriteString(styles.score(q.Score).Render(fmt.Sprintf("%.1f", q.Score)))
		b.WriteString(fmt.Sprintf("\nartists %.0f • bpm %.0f • genre %.0f • era %.0f",
			q.Breakdown.ArtistSpacing, q.Breakdown.BPMSmoothness, q.Breakdown.GenreCoherence, q.Breakdown.EraCohesion))
	}
	for _, w := range r.Warnings {
		b.WriteString("\n" + styles.warn.Render("! "+w))
	}
	if r.ErrorMessage != "" {
		b.WriteString("\n" + styles.err.Render(r.ErrorMessage))
	}
	return b.String()
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Publish %d playlists?", m.publishable()))

	var info strings.Builder
	for _, p := range m.run.Playlists {
		if len(p.Result.Songs) > 0 && !p.Published {
			info.WriteString(fmt.Sprintf("\n  • %s (%d songs)", p.Result.Name, len(p.Result.Songs)))
		}
	}
	info.WriteString("\n\nExisting playlists with the same base name will be replaced.\n")

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	return fmt.Sprintf("%s%s\n%s", title, info.String(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderResult() string {
	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	var title string
	if m.publishErr != nil {
		title = styles.err.Render(fmt.Sprintf("Publish failed: %v", m.publishErr))
	} else {
		title = styles.ok.Render(fmt.Sprintf("✓ Published %d playlists", m.run.Published))
	}

	var lines strings.Builder
	for _, p := range m.run.Playlists {
		switch {
		case p.Published:
			lines.WriteString(fmt.Sprintf("\n  %s %s (ID: %s, replaced %d)", styles.ok.Render("✓"), p.Result.Name, p.RemoteID, len(p.Deleted)))
		case p.PublishError != "":
			lines.WriteString(fmt.Sprintf("\n  %s %s: %s", styles.err.Render("✗"), p.Result.Name, p.PublishError))
		}
	}

	return fmt.Sprintf("%s\n%s\n\n%s", title, lines.String(), helpView)
}
