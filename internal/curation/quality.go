package curation

import (
	"math"
	"sort"

	"github.com/desertthunder/daylist/internal/models"
)

// Fixed weights combining the quality components into the overall score.
const (
	qualityArtistWeight = 0.3
	qualityBPMWeight    = 0.3
	qualityGenreWeight  = 0.2
	qualityEraWeight    = 0.2

	topGenreLimit = 5
)

// GenreCount is a genre and how many songs in a playlist carry it.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// PlaylistStats are descriptive statistics for a finished playlist.
type PlaylistStats struct {
	SongCount     int          `json:"song_count"`
	TotalDuration int          `json:"total_duration"` // Seconds
	AverageBPM    float64      `json:"average_bpm"`
	MinBPM        int          `json:"min_bpm"`
	MaxBPM        int          `json:"max_bpm"`
	UniqueArtists int          `json:"unique_artists"`
	MinYear       int          `json:"min_year"`
	MaxYear       int          `json:"max_year"`
	TopGenres     []GenreCount `json:"top_genres"`
}

// QualityBreakdown holds the 0-100 components of the quality score.
type QualityBreakdown struct {
	ArtistSpacing  float64 `json:"artist_spacing"`
	BPMSmoothness  float64 `json:"bpm_smoothness"`
	GenreCoherence float64 `json:"genre_coherence"`
	EraCohesion    float64 `json:"era_cohesion"`
}

// QualityReport describes a finished playlist. It never influences selection.
type QualityReport struct {
	Score            float64          `json:"score"`
	Stats            PlaylistStats    `json:"stats"`
	Breakdown        QualityBreakdown `json:"breakdown"`
	ArtistViolations int              `json:"artist_violations"`
	BPMViolations    int              `json:"bpm_violations"`
	ArtistDiversity  float64          `json:"artist_diversity"`  // Unique artists per song, 0-1
	PopularitySpread float64          `json:"popularity_spread"` // Coefficient of variation of play counts
}

// Report computes statistics and a 0-100 quality score for playlist under spec's rules.
func Report(playlist []models.Song, spec PlaylistSpec) QualityReport {
	report := QualityReport{Stats: playlistStats(playlist)}
	if len(playlist) == 0 {
		return report
	}

	report.ArtistViolations = artistViolations(playlist, spec.Transitions.AvoidArtistRepeatsWithin)
	report.BPMViolations, report.Breakdown.BPMSmoothness = bpmSmoothness(playlist, spec.Transitions.MaxBPMJump)
	report.Breakdown.ArtistSpacing = 100
	if n := len(playlist) - 1; n > 0 {
		report.Breakdown.ArtistSpacing = 100 * (1 - float64(report.ArtistViolations)/float64(n))
	}

	report.Breakdown.GenreCoherence = 100 * (1 - math.Abs(GenreCoherence(playlist)-spec.Quality.GenreCoherence))
	report.Breakdown.EraCohesion = 100 * (1 - math.Abs(EraCohesion(report.Stats.MinYear, report.Stats.MaxYear)-spec.Quality.EraCohesion))

	report.Score = clamp(qualityArtistWeight*report.Breakdown.ArtistSpacing+
		qualityBPMWeight*report.Breakdown.BPMSmoothness+
		qualityGenreWeight*report.Breakdown.GenreCoherence+
		qualityEraWeight*report.Breakdown.EraCohesion, 0, 100)

	report.ArtistDiversity = float64(report.Stats.UniqueArtists) / float64(len(playlist))
	report.PopularitySpread = coefficientOfVariation(playlist)
	return report
}

func playlistStats(playlist []models.Song) PlaylistStats {
	stats := PlaylistStats{SongCount: len(playlist)}
	artists := map[string]bool{}
	genres := map[string]int{}
	bpmSum, bpmCount := 0, 0

	for _, s := range playlist {
		stats.TotalDuration += s.Duration
		artists[s.ArtistKey()] = true

		if s.HasBPM() {
			if bpmCount == 0 || s.BPM < stats.MinBPM {
				stats.MinBPM = s.BPM
			}
			stats.MaxBPM = max(stats.MaxBPM, s.BPM)
			bpmSum += s.BPM
			bpmCount++
		}
		if s.HasYear() {
			if stats.MinYear == 0 || s.Year < stats.MinYear {
				stats.MinYear = s.Year
			}
			stats.MaxYear = max(stats.MaxYear, s.Year)
		}
		for _, g := range s.GenreTokens() {
			genres[g]++
		}
	}

	stats.UniqueArtists = len(artists)
	if bpmCount > 0 {
		stats.AverageBPM = float64(bpmSum) / float64(bpmCount)
	}
	stats.TopGenres = TopGenres(genres, topGenreLimit)
	return stats
}

// TopGenres returns up to limit genres by descending count, ties in alphabetical order.
func TopGenres(counts map[string]int, limit int) []GenreCount {
	out := make([]GenreCount, 0, len(counts))
	for g, c := range counts {
		out = append(out, GenreCount{Genre: g, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Genre < out[j].Genre
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// artistViolations counts songs whose artist already appeared within the previous window songs.
// A window of 0 still checks adjacent pairs.
func artistViolations(playlist []models.Song, window int) int {
	window = max(window, 1)
	violations := 0
	for i := 1; i < len(playlist); i++ {
		key := playlist[i].ArtistKey()
		for j := max(0, i-window); j < i; j++ {
			if playlist[j].ArtistKey() == key {
				violations++
				break
			}
		}
	}
	return violations
}

// bpmSmoothness counts adjacent pairs over maxJump and scores the share within it.
// Without a limit, the score follows the average jump with 60 BPM scoring zero.
func bpmSmoothness(playlist []models.Song, maxJump int) (int, float64) {
	pairs, violations, jumpSum := 0, 0, 0
	for i := 1; i < len(playlist); i++ {
		a, b := playlist[i-1], playlist[i]
		if !a.HasBPM() || !b.HasBPM() {
			continue
		}
		jump := absInt(a.BPM - b.BPM)
		pairs++
		jumpSum += jump
		if maxJump > 0 && jump > maxJump {
			violations++
		}
	}

	if pairs == 0 {
		return 0, 100
	}
	if maxJump > 0 {
		return violations, 100 * (1 - float64(violations)/float64(pairs))
	}
	avg := float64(jumpSum) / float64(pairs)
	return 0, 100 * clamp((60-avg)/60, 0, 1)
}

// GenreCoherence is 1 minus the normalized entropy of primary genres: 1 for a single genre,
// approaching 0 as songs spread evenly over many genres. Songs without genres are ignored.
func GenreCoherence(playlist []models.Song) float64 {
	counts := map[string]int{}
	total := 0
	for _, s := range playlist {
		if tokens := s.GenreTokens(); len(tokens) > 0 {
			counts[tokens[0]]++
			total++
		}
	}
	if len(counts) <= 1 {
		return 1
	}

	entropy := 0.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return 1 - entropy/math.Log2(float64(len(counts)))
}

// EraCohesion maps a year span to 0-1: 1 for a span of 2 years or less, falling through
// 0.8-0.5 over a decade and 0.5-0.2 over two, toward 0 for wider spans. Unknown years give 0.5.
func EraCohesion(minYear, maxYear int) float64 {
	if minYear <= 0 || maxYear <= 0 {
		return neutralTerm
	}
	span := float64(maxYear - minYear)
	switch {
	case span <= 2:
		return 1
	case span <= 10:
		return 0.8 - (span-2)/8*0.3
	case span <= 20:
		return 0.5 - (span-10)/10*0.3
	default:
		return math.Max(0.2-(span-20)/50*0.2, 0)
	}
}

func coefficientOfVariation(playlist []models.Song) float64 {
	if len(playlist) < 2 {
		return 0
	}
	mean := 0.0
	for _, s := range playlist {
		mean += float64(s.PlayCount)
	}
	mean /= float64(len(playlist))
	if mean == 0 {
		return 0
	}

	variance := 0.0
	for _, s := range playlist {
		d := float64(s.PlayCount) - mean
		variance += d * d
	}
	variance /= float64(len(playlist))
	return math.Sqrt(variance) / mean
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
