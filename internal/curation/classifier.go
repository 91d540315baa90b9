package curation

import (
	"regexp"
	"strings"

	"github.com/desertthunder/daylist/internal/models"
)

// Duration limits, in seconds, for tracks considered real songs.
const (
	MinSongDuration        = 30
	MaxSongDuration        = 15 * 60
	ShortInstrumentalLimit = 90
)

// Reason names why a track was classified as a non-song.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonTransition        Reason = "transition"
	ReasonFragment          Reason = "fragment"
	ReasonSpoken            Reason = "spoken"
	ReasonAmbient           Reason = "ambient"
	ReasonUntitled          Reason = "untitled"
	ReasonNumericTitle      Reason = "numeric_title"
	ReasonPlaceholderTitle  Reason = "placeholder_title"
	ReasonShortInstrumental Reason = "short_instrumental"
	ReasonTooShort          Reason = "too_short"
	ReasonTooLong           Reason = "too_long"
)

// Markers are matched as whole words, so "Song About Speaking" is not caught by "speech".
var markerRules = []struct {
	reason  Reason
	pattern *regexp.Regexp
}{
	{ReasonTransition, wordPattern("interlude", "intro", "outro", "bridge", "transition", "prelude", "postlude", "segue", "intermission")},
	{ReasonFragment, wordPattern("sketch", "fragment", "snippet", "bits", "skit")},
	{ReasonSpoken, wordPattern("monologue", "dialogue", "speech", "interview", "conversation")},
	{ReasonAmbient, wordPattern("atmosphere", "soundscape", "field recording", "rain", "ocean", "silence", "test", "announcement", "tuning")},
}

var (
	numericTitle     = regexp.MustCompile(`^[\d\s.\-]+$`)
	placeholderTitle = regexp.MustCompile(`(?i)^(?:track|untitled)\s*#?\s*\d*$`)
	instrumentalTag  = regexp.MustCompile(`(?i)\(\s*instrumental\s*\)`)
)

func wordPattern(words ...string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(w), " ", `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// Classification is the verdict for one track.
type Classification struct {
	Song   bool   `json:"song"`
	Reason Reason `json:"reason,omitempty"`
	Marker string `json:"marker,omitempty"` // Matched title text, when a marker rule fired
}

// Classify decides whether s is a genuine song. It depends only on the title and duration.
func Classify(s models.Song) Classification {
	title := strings.TrimSpace(s.Title)

	if title == "" {
		return Classification{Reason: ReasonUntitled}
	}

	for _, rule := range markerRules {
		if m := rule.pattern.FindString(title); m != "" {
			return Classification{Reason: rule.reason, Marker: strings.ToLower(m)}
		}
	}

	if numericTitle.MatchString(title) && strings.ContainsAny(title, "0123456789") {
		return Classification{Reason: ReasonNumericTitle}
	}
	if placeholderTitle.MatchString(title) {
		return Classification{Reason: ReasonPlaceholderTitle}
	}

	if instrumentalTag.MatchString(title) && s.Duration > 0 && s.Duration < ShortInstrumentalLimit {
		return Classification{Reason: ReasonShortInstrumental}
	}

	// An unknown duration (0) is not evidence either way.
	switch {
	case s.Duration > 0 && s.Duration < MinSongDuration:
		return Classification{Reason: ReasonTooShort}
	case s.Duration > MaxSongDuration:
		return Classification{Reason: ReasonTooLong}
	}

	return Classification{Song: true}
}

// Exclusion pairs a rejected track with its classification.
type Exclusion struct {
	Song           models.Song    `json:"song"`
	Classification Classification `json:"classification"`
}

// ClassificationReport summarizes a classified pool.
type ClassificationReport struct {
	Total      int            `json:"total"`
	Kept       int            `json:"kept"`
	ByReason   map[Reason]int `json:"by_reason"`
	Exclusions []Exclusion    `json:"exclusions,omitempty"`
}

// Excluded returns the number of tracks rejected.
func (r ClassificationReport) Excluded() int {
	return r.Total - r.Kept
}

// ClassifyPool returns the songs of pool that classify as real songs, in input order.
func ClassifyPool(pool []models.Song) ([]models.Song, ClassificationReport) {
	report := ClassificationReport{Total: len(pool), ByReason: map[Reason]int{}}
	kept := make([]models.Song, 0, len(pool))

	for _, s := range pool {
		c := Classify(s)
		if c.Song {
			kept = append(kept, s)
			continue
		}
		report.ByReason[c.Reason]++
		report.Exclusions = append(report.Exclusions, Exclusion{Song: s, Classification: c})
	}

	report.Kept = len(kept)
	return kept, report
}
