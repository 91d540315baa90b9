package curation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/daylist/internal/shared"
	"gopkg.in/yaml.v3"
)

// openMaxBPM stands in for an omitted max_bpm.
const openMaxBPM = 999

// Spec file formats understood by [ParseSpecs].
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// specFile is the document shape for every format. TOML files use [[playlist]] tables;
// YAML and JSON use a playlists list or a bare top-level list.
type specFile struct {
	Playlist  []rawSpec `json:"-" toml:"playlist" yaml:"-"`
	Playlists []rawSpec `json:"playlists" toml:"playlists" yaml:"playlists"`
}

type rawSpec struct {
	Name                 string         `json:"name" toml:"name" yaml:"name"`
	TargetLength         *int           `json:"target_length" toml:"target_length" yaml:"target_length"`
	GenreSuffix          *int           `json:"genre_suffix" toml:"genre_suffix" yaml:"genre_suffix"`
	AcceptableGenres     []string       `json:"acceptable_genres" toml:"acceptable_genres" yaml:"acceptable_genres"`
	UnacceptableGenres   []string       `json:"unacceptable_genres" toml:"unacceptable_genres" yaml:"unacceptable_genres"`
	BPMThresholds        *rawBPM        `json:"bpm_thresholds" toml:"bpm_thresholds" yaml:"bpm_thresholds"`
	MinDaysSinceLastPlay *int           `json:"min_days_since_last_play" toml:"min_days_since_last_play" yaml:"min_days_since_last_play"`
	PreferenceWeights    rawPreferences `json:"preference_weights" toml:"preference_weights" yaml:"preference_weights"`
	TransitionRules      rawTransitions `json:"transition_rules" toml:"transition_rules" yaml:"transition_rules"`
	QualityWeights       rawQuality     `json:"quality_weights" toml:"quality_weights" yaml:"quality_weights"`
}

type rawBPM struct {
	MinBPM *int `json:"min_bpm" toml:"min_bpm" yaml:"min_bpm"`
	MaxBPM *int `json:"max_bpm" toml:"max_bpm" yaml:"max_bpm"`
}

type rawPreferences struct {
	StarredBoost         *float64               `json:"starred_boost" toml:"starred_boost" yaml:"starred_boost"`
	PlayCountWeight      *float64               `json:"play_count_weight" toml:"play_count_weight" yaml:"play_count_weight"`
	RecencyPenaltyWeight *float64               `json:"recency_penalty_weight" toml:"recency_penalty_weight" yaml:"recency_penalty_weight"`
	RandomnessFactor     *float64               `json:"randomness_factor" toml:"randomness_factor" yaml:"randomness_factor"`
	DiscoveryMode        bool                   `json:"discovery_mode" toml:"discovery_mode" yaml:"discovery_mode"`
	PlayCountFilter      *PlayCountFilterConfig `json:"play_count_filter" toml:"play_count_filter" yaml:"play_count_filter"`
}

type rawTransitions struct {
	MaxBPMJump               *int `json:"max_bpm_jump" toml:"max_bpm_jump" yaml:"max_bpm_jump"`
	PreferredBPMChange       *int `json:"preferred_bpm_change" toml:"preferred_bpm_change" yaml:"preferred_bpm_change"`
	AvoidArtistRepeatsWithin *int `json:"avoid_artist_repeats_within" toml:"avoid_artist_repeats_within" yaml:"avoid_artist_repeats_within"`
	AvoidAlbumRepeatsWithin  *int `json:"avoid_album_repeats_within" toml:"avoid_album_repeats_within" yaml:"avoid_album_repeats_within"`
}

type rawQuality struct {
	ArtistDiversity         *float64 `json:"artist_diversity" toml:"artist_diversity" yaml:"artist_diversity"`
	BPMTransitionSmoothness *float64 `json:"bpm_transition_smoothness" toml:"bpm_transition_smoothness" yaml:"bpm_transition_smoothness"`
	GenreCoherence          *float64 `json:"genre_coherence" toml:"genre_coherence" yaml:"genre_coherence"`
	PopularityBalance       *float64 `json:"popularity_balance" toml:"popularity_balance" yaml:"popularity_balance"`
	EraCohesion             *float64 `json:"era_cohesion" toml:"era_cohesion" yaml:"era_cohesion"`
}

// PlayCountFilterConfig is the tagged-table form of a [PlayCountFilter] in spec files.
type PlayCountFilterConfig struct {
	Type      string   `json:"type" toml:"type" yaml:"type"` // exact | range | percentile | threshold
	Count     *int     `json:"count,omitempty" toml:"count" yaml:"count,omitempty"`
	Min       *int     `json:"min,omitempty" toml:"min" yaml:"min,omitempty"`
	Max       *int     `json:"max,omitempty" toml:"max" yaml:"max,omitempty"`
	Direction string   `json:"direction,omitempty" toml:"direction" yaml:"direction,omitempty"`
	Fraction  *float64 `json:"fraction,omitempty" toml:"fraction" yaml:"fraction,omitempty"`
	Percent   *float64 `json:"percent,omitempty" toml:"percent" yaml:"percent,omitempty"` // Alias for fraction; values above 1 are read as percentages
	Operator  string   `json:"operator,omitempty" toml:"operator" yaml:"operator,omitempty"`
}

// Resolve converts the config into its [PlayCountFilter] variant.
func (c *PlayCountFilterConfig) Resolve() (PlayCountFilter, error) {
	if c == nil {
		return nil, nil
	}

	var f PlayCountFilter
	switch strings.ToLower(strings.TrimSpace(c.Type)) {
	case "exact":
		f = ExactPlays{Count: c.Count}
	case "range":
		f = PlayRange{Min: c.Min, Max: c.Max}
	case "percentile":
		fraction := 0.0
		switch {
		case c.Fraction != nil:
			fraction = *c.Fraction
		case c.Percent != nil && *c.Percent > 1:
			fraction = *c.Percent / 100
		case c.Percent != nil:
			fraction = *c.Percent
		}
		f = PlayPercentile{Direction: Direction(strings.ToLower(c.Direction)), Fraction: fraction}
	case "threshold":
		count := 0
		if c.Count != nil {
			count = *c.Count
		}
		f = PlayThreshold{Operator: Operator(strings.ToLower(c.Operator)), Count: count}
	default:
		return nil, fmt.Errorf("unknown play count filter type %q", c.Type)
	}

	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// FormatFromPath infers the spec format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: playlist spec file %s", shared.ErrUnsupportedFormat, path)
	}
}

// LoadSpecs reads playlist specs from path, choosing the decoder by extension.
//
// Specs are returned in file order with defaults applied. Individual specs are not
// validated here, so one bad spec never prevents the others from loading.
func LoadSpecs(path string) ([]PlaylistSpec, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read playlist specs: %v", shared.ErrMissingConfig, err)
	}

	return ParseSpecs(data, format)
}

// ParseSpecs decodes playlist specs in the given format.
func ParseSpecs(data []byte, format string) ([]PlaylistSpec, error) {
	var raws []rawSpec

	switch format {
	case FormatTOML:
		var doc specFile
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: failed to parse TOML specs: %v", shared.ErrInvalidConfig, err)
		}
		raws = append(doc.Playlist, doc.Playlists...)
	case FormatYAML:
		var doc specFile
		if err := yaml.Unmarshal(data, &doc); err != nil {
			if listErr := yaml.Unmarshal(data, &raws); listErr != nil {
				return nil, fmt.Errorf("%w: failed to parse YAML specs: %v", shared.ErrInvalidConfig, err)
			}
		} else {
			raws = doc.Playlists
		}
	case FormatJSON:
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &raws); err != nil {
				return nil, fmt.Errorf("%w: failed to parse JSON specs: %v", shared.ErrInvalidConfig, err)
			}
		} else {
			var doc specFile
			if err := json.Unmarshal(trimmed, &doc); err != nil {
				return nil, fmt.Errorf("%w: failed to parse JSON specs: %v", shared.ErrInvalidConfig, err)
			}
			raws = doc.Playlists
		}
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnsupportedFormat, format)
	}

	if len(raws) == 0 {
		return nil, fmt.Errorf("%w: no playlist specs found", shared.ErrInvalidConfig)
	}

	specs := make([]PlaylistSpec, len(raws))
	for i, raw := range raws {
		specs[i] = raw.spec()
	}
	return specs, nil
}

func (r rawSpec) spec() PlaylistSpec {
	s := DefaultSpec(strings.TrimSpace(r.Name))
	setInt(&s.TargetLength, r.TargetLength)
	setInt(&s.GenreSuffix, r.GenreSuffix)
	setInt(&s.MinDaysSinceLastPlay, r.MinDaysSinceLastPlay)
	s.AcceptableGenres = r.AcceptableGenres
	s.UnacceptableGenres = r.UnacceptableGenres

	if b := r.BPMThresholds; b != nil {
		s.BPM = &BPMRange{Max: openMaxBPM}
		setInt(&s.BPM.Min, b.MinBPM)
		setInt(&s.BPM.Max, b.MaxBPM)
	}

	p := r.PreferenceWeights
	setFloat(&s.Preferences.StarredBoost, p.StarredBoost)
	setFloat(&s.Preferences.PlayCountWeight, p.PlayCountWeight)
	setFloat(&s.Preferences.RecencyPenaltyWeight, p.RecencyPenaltyWeight)
	setFloat(&s.Preferences.RandomnessFactor, p.RandomnessFactor)
	s.Preferences.DiscoveryMode = p.DiscoveryMode
	if f, err := p.PlayCountFilter.Resolve(); err != nil {
		s.loadErr = &ConfigurationError{Spec: s.Name, Field: "play_count_filter", Reason: err.Error()}
	} else {
		s.Preferences.PlayCountFilter = f
	}

	t := r.TransitionRules
	setInt(&s.Transitions.MaxBPMJump, t.MaxBPMJump)
	setInt(&s.Transitions.PreferredBPMChange, t.PreferredBPMChange)
	setInt(&s.Transitions.AvoidArtistRepeatsWithin, t.AvoidArtistRepeatsWithin)
	setInt(&s.Transitions.AvoidAlbumRepeatsWithin, t.AvoidAlbumRepeatsWithin)

	q := r.QualityWeights
	setFloat(&s.Quality.ArtistDiversity, q.ArtistDiversity)
	setFloat(&s.Quality.BPMTransitionSmoothness, q.BPMTransitionSmoothness)
	setFloat(&s.Quality.GenreCoherence, q.GenreCoherence)
	setFloat(&s.Quality.PopularityBalance, q.PopularityBalance)
	setFloat(&s.Quality.EraCohesion, q.EraCohesion)

	return s
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
