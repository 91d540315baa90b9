package curation

import (
	"fmt"
	"strings"

	"github.com/desertthunder/daylist/internal/shared"
)

// Default values applied when a spec omits a field.
const (
	DefaultTargetLength = 20

	DefaultStarredBoost         = 100.0
	DefaultPlayCountWeight      = 20.0
	DefaultRecencyPenaltyWeight = 5.0
	DefaultRandomnessFactor     = 0.2

	DefaultMaxBPMJump               = 20
	DefaultPreferredBPMChange       = 0
	DefaultAvoidArtistRepeatsWithin = 3
	DefaultAvoidAlbumRepeatsWithin  = 0

	DefaultArtistDiversity         = 0.30
	DefaultBPMTransitionSmoothness = 0.25
	DefaultGenreCoherence          = 0.20
	DefaultPopularityBalance       = 0.25
	DefaultEraCohesion             = 0.20
)

// PlaylistSpec declares what one generated playlist should contain.
type PlaylistSpec struct {
	Name                 string            `json:"name"`
	TargetLength         int               `json:"target_length"`
	GenreSuffix          int               `json:"genre_suffix"` // Number of top genres (0-2) appended to the display name
	AcceptableGenres     []string          `json:"acceptable_genres,omitempty"`
	UnacceptableGenres   []string          `json:"unacceptable_genres,omitempty"`
	BPM                  *BPMRange         `json:"bpm_thresholds,omitempty"`
	MinDaysSinceLastPlay int               `json:"min_days_since_last_play,omitempty"`
	Preferences          PreferenceWeights `json:"preference_weights"`
	Transitions          TransitionRules   `json:"transition_rules"`
	Quality              QualityWeights    `json:"quality_weights"`

	loadErr error // Set when the spec file held a value that has no typed form
}

// BPMRange is an inclusive tempo window.
type BPMRange struct {
	Min int `json:"min_bpm"`
	Max int `json:"max_bpm"`
}

// Contains reports whether bpm lies within the range.
func (r BPMRange) Contains(bpm int) bool {
	return bpm >= r.Min && bpm <= r.Max
}

// PreferenceWeights bias which songs are included.
type PreferenceWeights struct {
	StarredBoost         float64         `json:"starred_boost"`
	PlayCountWeight      float64         `json:"play_count_weight"`
	RecencyPenaltyWeight float64         `json:"recency_penalty_weight"`
	RandomnessFactor     float64         `json:"randomness_factor"`
	DiscoveryMode        bool            `json:"discovery_mode"`
	PlayCountFilter      PlayCountFilter `json:"play_count_filter,omitempty"`
}

// TransitionRules constrain adjacent songs.
//
// A MaxBPMJump of 0 disables the tempo jump limit. Window sizes of 0 disable the matching spacing rule.
type TransitionRules struct {
	MaxBPMJump               int `json:"max_bpm_jump"`
	PreferredBPMChange       int `json:"preferred_bpm_change"`
	AvoidArtistRepeatsWithin int `json:"avoid_artist_repeats_within"`
	AvoidAlbumRepeatsWithin  int `json:"avoid_album_repeats_within"`
}

// QualityWeights bias where songs are placed, each in [0, 1].
type QualityWeights struct {
	ArtistDiversity         float64 `json:"artist_diversity"`
	BPMTransitionSmoothness float64 `json:"bpm_transition_smoothness"`
	GenreCoherence          float64 `json:"genre_coherence"`
	PopularityBalance       float64 `json:"popularity_balance"`
	EraCohesion             float64 `json:"era_cohesion"`
}

// DefaultSpec returns a spec named name with every default applied.
func DefaultSpec(name string) PlaylistSpec {
	return PlaylistSpec{
		Name:         name,
		TargetLength: DefaultTargetLength,
		Preferences: PreferenceWeights{
			StarredBoost:         DefaultStarredBoost,
			PlayCountWeight:      DefaultPlayCountWeight,
			RecencyPenaltyWeight: DefaultRecencyPenaltyWeight,
			RandomnessFactor:     DefaultRandomnessFactor,
		},
		Transitions: TransitionRules{
			MaxBPMJump:               DefaultMaxBPMJump,
			PreferredBPMChange:       DefaultPreferredBPMChange,
			AvoidArtistRepeatsWithin: DefaultAvoidArtistRepeatsWithin,
			AvoidAlbumRepeatsWithin:  DefaultAvoidAlbumRepeatsWithin,
		},
		Quality: QualityWeights{
			ArtistDiversity:         DefaultArtistDiversity,
			BPMTransitionSmoothness: DefaultBPMTransitionSmoothness,
			GenreCoherence:          DefaultGenreCoherence,
			PopularityBalance:       DefaultPopularityBalance,
			EraCohesion:             DefaultEraCohesion,
		},
	}
}

// ConfigurationError reports a malformed or self-contradictory spec.
type ConfigurationError struct {
	Spec   string
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("playlist %q: %s", e.Spec, e.Reason)
	}
	return fmt.Sprintf("playlist %q: %s: %s", e.Spec, e.Field, e.Reason)
}

// Unwrap lets callers match with errors.Is(err, shared.ErrInvalidConfig).
func (e *ConfigurationError) Unwrap() error {
	return shared.ErrInvalidConfig
}

// Validate checks the spec for values that cannot produce a playlist.
func (s PlaylistSpec) Validate() error {
	bad := func(field, format string, args ...any) error {
		return &ConfigurationError{Spec: s.Name, Field: field, Reason: fmt.Sprintf(format, args...)}
	}

	if s.loadErr != nil {
		return s.loadErr
	}
	if strings.TrimSpace(s.Name) == "" {
		return bad("name", "must not be empty")
	}
	if s.TargetLength <= 0 {
		return bad("target_length", "must be positive, got %d", s.TargetLength)
	}
	if s.GenreSuffix < 0 || s.GenreSuffix > 2 {
		return bad("genre_suffix", "must be 0, 1 or 2, got %d", s.GenreSuffix)
	}
	if s.MinDaysSinceLastPlay < 0 {
		return bad("min_days_since_last_play", "must not be negative")
	}

	if r := s.BPM; r != nil {
		if r.Min < 0 || r.Max < 0 {
			return bad("bpm_thresholds", "bounds must not be negative")
		}
		if r.Min > r.Max {
			return bad("bpm_thresholds", "min_bpm %d exceeds max_bpm %d", r.Min, r.Max)
		}
	}

	p := s.Preferences
	if p.StarredBoost < 0 {
		return bad("starred_boost", "must not be negative")
	}
	if p.RandomnessFactor < 0 || p.RandomnessFactor > 1 {
		return bad("randomness_factor", "must be within [0, 1], got %g", p.RandomnessFactor)
	}
	if p.PlayCountFilter != nil {
		if err := p.PlayCountFilter.validate(); err != nil {
			return bad("play_count_filter", "%v", err)
		}
	}

	t := s.Transitions
	if t.MaxBPMJump < 0 {
		return bad("max_bpm_jump", "must not be negative")
	}
	if t.AvoidArtistRepeatsWithin < 0 || t.AvoidAlbumRepeatsWithin < 0 {
		return bad("transition_rules", "repeat windows must not be negative")
	}

	for field, w := range map[string]float64{
		"artist_diversity":          s.Quality.ArtistDiversity,
		"bpm_transition_smoothness": s.Quality.BPMTransitionSmoothness,
		"genre_coherence":           s.Quality.GenreCoherence,
		"popularity_balance":        s.Quality.PopularityBalance,
		"era_cohesion":              s.Quality.EraCohesion,
	} {
		if w < 0 || w > 1 {
			return bad(field, "must be within [0, 1], got %g", w)
		}
	}

	return nil
}
