// Package ui implements an interactive preview of generated playlists using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for reviewing a dry run before publishing it:
//  1. [LoadingView] : Monitor the pool fetch and generation progress
//  2. [PlaylistListView] : Browse generated playlists with outcome and quality score
//  3. [TrackListView] : Inspect one playlist's songs and quality report
//  4. [ConfirmView] : Confirm publishing every non-empty playlist
//  5. [PublishView] : Monitor real-time publish progress
//  6. [ResultView] : Display remote IDs, replaced playlists and failures
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the [tasks.Curator], and the previewed run is published as-is,
// so what was reviewed is exactly what is uploaded.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, p, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
