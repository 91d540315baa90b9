// Package curation builds playlists from an in-memory song pool and a declarative [PlaylistSpec].
//
// # Pipeline
//
// Data flows strictly forward through five stages:
//
//  1. [Classify] : drops tracks that are not real songs (interludes, spoken word, fragments, extreme durations)
//  2. [Filter] : applies a spec's genre, BPM, recency and play-count rules
//  3. [Score] : assigns each eligible song an inclusion priority from the spec's preference weights
//  4. [Sequence] : greedily fills the playlist one slot at a time under transition constraints
//  5. [Report] : computes statistics and a 0-100 quality score for the finished playlist
//
// [Generate] runs stages 2 to 5 for one spec. Classification runs once per pool, since every
// spec shares the same candidates.
//
// # Determinism
//
// Nothing in this package reads the clock or a global random source. The current time and a
// *rand.Rand are passed in through [Options], so a seeded generator reproduces the same playlist.
// Each call owns its generator and its sequencing state, which makes concurrent generation of
// different specs against one pool safe without locks.
//
// # Outcomes
//
// Invalid specs fail with a [ConfigurationError]. An empty eligible pool or a short playlist are
// not errors: they are reported through [Result.Outcome] and [Result.Warnings].
package curation
