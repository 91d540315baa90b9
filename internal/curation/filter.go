package curation

import (
	"time"

	"github.com/desertthunder/daylist/internal/models"
)

// FilterReport counts how many songs each predicate removed.
type FilterReport struct {
	Input           int `json:"input"`
	NotAcceptable   int `json:"not_acceptable"`
	Unacceptable    int `json:"unacceptable"`
	OutsideBPM      int `json:"outside_bpm"`
	PlayedRecently  int `json:"played_recently"`
	PlayCountFilter int `json:"play_count_filter"`
	Eligible        int `json:"eligible"`
}

// Filter applies the spec's inclusion and exclusion rules to pool, preserving input order.
//
// The predicates run in sequence: acceptable genres, unacceptable genres, BPM range,
// recency floor, then the play-count filter. A percentile filter is computed over the
// songs that survive the earlier predicates.
func Filter(pool []models.Song, spec PlaylistSpec, now time.Time) ([]models.Song, FilterReport, error) {
	report := FilterReport{Input: len(pool)}

	accept := normalizeGenres(spec.AcceptableGenres)
	reject := normalizeGenres(spec.UnacceptableGenres)
	floor := time.Duration(spec.MinDaysSinceLastPlay) * 24 * time.Hour

	eligible := make([]models.Song, 0, len(pool))
	for _, s := range pool {
		tokens := s.GenreTokens()

		if len(accept) > 0 && !anyGenreMatch(tokens, accept) {
			report.NotAcceptable++
			continue
		}
		if len(reject) > 0 && anyGenreMatch(tokens, reject) {
			report.Unacceptable++
			continue
		}
		if spec.BPM != nil && (!s.HasBPM() || !spec.BPM.Contains(s.BPM)) {
			report.OutsideBPM++
			continue
		}
		if floor > 0 && s.LastPlayed != nil && now.Sub(*s.LastPlayed) < floor {
			report.PlayedRecently++
			continue
		}
		eligible = append(eligible, s)
	}

	before := len(eligible)
	eligible, err := applyPlayCountFilter(eligible, spec.Preferences.PlayCountFilter)
	if err != nil {
		return nil, report, &ConfigurationError{Spec: spec.Name, Field: "play_count_filter", Reason: err.Error()}
	}
	report.PlayCountFilter = before - len(eligible)
	report.Eligible = len(eligible)

	return eligible, report, nil
}

func normalizeGenres(genres []string) []string {
	out := make([]string, 0, len(genres))
	for _, g := range genres {
		if n := models.NormalizeGenre(g); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func anyGenreMatch(tokens, patterns []string) bool {
	for _, tok := range tokens {
		for _, p := range patterns {
			if genreMatches(tok, p) {
				return true
			}
		}
	}
	return false
}

// genreMatches reports whether pattern equals token or appears in it as a whole word,
// so "rock" matches "indie rock" and "k-pop" contains "pop", but "rock" misses "rockabilly".
func genreMatches(token, pattern string) bool {
	if token == pattern {
		return true
	}
	for i := 0; i+len(pattern) <= len(token); i++ {
		if token[i:i+len(pattern)] != pattern {
			continue
		}
		end := i + len(pattern)
		if (i == 0 || !isWordByte(token[i-1])) && (end == len(token) || !isWordByte(token[end])) {
			return true
		}
	}
	return false
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b >= 0x80
}
