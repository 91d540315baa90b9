// Package tasks orchestrates curation runs with real-time progress reporting.
//
// # Core Operations
//
// The [Curator] interface defines two operations:
//
//  1. [Curator.Run] : Full curation run
//     - Fetches the candidate pool once from the catalog
//     - Drops tracks that are not real songs (skits, interludes, speech)
//     - Generates every spec concurrently from the shared pool
//     - Optionally exports each playlist and a manifest
//     - Publishes non-empty playlists, replacing those with the same base name
//
//  2. [Curator.Pool] : Fetch and classify the candidate pool only
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Determinism
//
// A run has a single base seed, drawn at random when none is configured and recorded in
// [RunResult]. Spec i is generated with its own source seeded from base+i, so replaying a
// run with the same seed and pool reproduces every playlist regardless of worker scheduling.
//
// # Implementation
//
// [PlaylistEngine] implements [Curator] with dependencies on:
//   - [services.Catalog] : candidate pool source
//   - [services.Publisher] : playlist writer (unused in dry runs)
package tasks
