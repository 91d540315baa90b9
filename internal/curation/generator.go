package curation

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/desertthunder/daylist/internal/models"
	"github.com/desertthunder/daylist/internal/shared"
)

// Outcome classifies a generation result.
type Outcome int

const (
	OutcomeComplete Outcome = iota
	OutcomePartial
	OutcomeEmpty
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeComplete:
		return "complete"
	case OutcomePartial:
		return "partial"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFailed:
		return "failed"
	default:
		return ""
	}
}

// MarshalText renders the outcome by name in JSON output.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Options carries the collaborators a generation call needs from outside the core.
type Options struct {
	Now  time.Time  // Reference time for recency rules; zero means time.Now()
	Rand *rand.Rand // Jitter source owned by this call; nil disables jitter
}

// NewRand returns a generator for one generation call. A zero seed draws a random one.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Result is the output of generating one spec.
type Result struct {
	Spec         PlaylistSpec   `json:"spec"`
	Name         string         `json:"name"` // Suggested display name
	Songs        []models.Song  `json:"songs"`
	Outcome      Outcome        `json:"outcome"`
	Warnings     []string       `json:"warnings,omitempty"`
	Filter       FilterReport   `json:"filter"`
	Sequence     SequenceReport `json:"sequence"`
	Quality      QualityReport  `json:"quality"`
	Error        error          `json:"-"`
	ErrorMessage string         `json:"error,omitempty"`
}

// BaseName is the name prior playlists must match to be replaced.
func (r Result) BaseName() string {
	return r.Spec.Name
}

// SongIDs returns the identifiers of the playlist in order.
func (r Result) SongIDs() []string {
	ids := make([]string, len(r.Songs))
	for i, s := range r.Songs {
		ids[i] = s.ID
	}
	return ids
}

// Err returns the failure, or a wrapped sentinel for empty and partial outcomes.
func (r Result) Err() error {
	switch r.Outcome {
	case OutcomeFailed:
		return r.Error
	case OutcomeEmpty:
		return fmt.Errorf("%w: %s", shared.ErrEmptyPool, r.Spec.Name)
	case OutcomePartial:
		return fmt.Errorf("%w: %s placed %d of %d", shared.ErrPartialFulfillment, r.Spec.Name, len(r.Songs), r.Spec.TargetLength)
	default:
		return nil
	}
}

// Generate builds one playlist from a classified pool.
//
// It validates spec, filters, scores and sequences the pool, then reports on the result.
// Only an invalid spec produces OutcomeFailed.
func Generate(pool []models.Song, spec PlaylistSpec, opts Options) Result {
	result := Result{Spec: spec, Name: spec.Name}
	fail := func(err error) Result {
		result.Outcome = OutcomeFailed
		result.Error = err
		result.ErrorMessage = err.Error()
		return result
	}

	if err := spec.Validate(); err != nil {
		return fail(err)
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	eligible, filterReport, err := Filter(pool, spec, now)
	result.Filter = filterReport
	if err != nil {
		return fail(err)
	}

	if len(eligible) == 0 {
		result.Outcome = OutcomeEmpty
		result.Warnings = append(result.Warnings, fmt.Sprintf("no songs survived filtering (%d candidates)", len(pool)))
		result.Quality = Report(nil, spec)
		return result
	}

	stats := NewPoolStats(eligible)
	candidates := ScorePool(eligible, spec, stats, now, opts.Rand)
	songs, seqReport := Sequence(candidates, spec, stats)

	result.Songs = songs
	result.Sequence = seqReport
	result.Quality = Report(songs, spec)
	result.Name = DisplayName(spec, songs)

	if len(songs) < spec.TargetLength {
		result.Outcome = OutcomePartial
		result.Warnings = append(result.Warnings, fmt.Sprintf("placed %d of %d songs", len(songs), spec.TargetLength))
	}
	if n := seqReport.ArtistRelaxations; n > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("artist spacing relaxed for %d slot(s)", n))
	}
	if n := seqReport.AlbumRelaxations; n > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("album spacing relaxed for %d slot(s)", n))
	}
	if n := seqReport.BPMJumpRelaxations; n > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("BPM jump limit relaxed for %d slot(s)", n))
	}

	return result
}
