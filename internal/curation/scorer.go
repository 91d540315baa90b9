package curation

import (
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/desertthunder/daylist/internal/models"
)

const (
	// JitterAmplitude scales randomness_factor into score units.
	JitterAmplitude = 10.0
	// RecencyDecayDays is the time constant of the recency penalty's exponential decay.
	RecencyDecayDays = 7.0
)

// PoolStats holds the pool-wide figures scoring and sequencing normalize against.
type PoolStats struct {
	Size             int     `json:"size"`
	MinPlayCount     int     `json:"min_play_count"`
	MaxPlayCount     int     `json:"max_play_count"`
	MedianPopularity float64 `json:"median_popularity"` // Median of normalized play counts
}

// NewPoolStats computes statistics for an eligible pool.
func NewPoolStats(pool []models.Song) PoolStats {
	stats := PoolStats{Size: len(pool)}
	if len(pool) == 0 {
		return stats
	}

	stats.MinPlayCount, stats.MaxPlayCount = pool[0].PlayCount, pool[0].PlayCount
	for _, s := range pool[1:] {
		stats.MinPlayCount = min(stats.MinPlayCount, s.PlayCount)
		stats.MaxPlayCount = max(stats.MaxPlayCount, s.PlayCount)
	}

	normalized := make([]float64, len(pool))
	for i, s := range pool {
		normalized[i] = stats.Popularity(s.PlayCount)
	}
	sort.Float64s(normalized)

	mid := len(normalized) / 2
	if len(normalized)%2 == 0 {
		stats.MedianPopularity = (normalized[mid-1] + normalized[mid]) / 2
	} else {
		stats.MedianPopularity = normalized[mid]
	}
	return stats
}

// Popularity normalizes a play count against the pool maximum.
// It is 0 for every song when the pool has no play-count variance.
func (p PoolStats) Popularity(playCount int) float64 {
	if p.MaxPlayCount <= 0 || p.MaxPlayCount == p.MinPlayCount {
		return 0
	}
	return float64(playCount) / float64(p.MaxPlayCount)
}

// RecencyFactor is 1 for a song played just now and decays toward 0 with time.
// Songs that were never played get 0.
func RecencyFactor(s models.Song, now time.Time) float64 {
	if s.LastPlayed == nil {
		return 0
	}
	days := max(now.Sub(*s.LastPlayed).Hours()/24, 0)
	return math.Exp(-days / RecencyDecayDays)
}

// Score computes the inclusion priority of s. It never excludes a song.
//
// rng supplies the jitter term; a nil rng contributes no jitter.
func Score(s models.Song, spec PlaylistSpec, stats PoolStats, now time.Time, rng *rand.Rand) float64 {
	w := spec.Preferences
	score := 0.0

	if s.Starred {
		score += w.StarredBoost
	}

	popularity := stats.Popularity(s.PlayCount)
	if w.DiscoveryMode {
		popularity = -popularity
	}
	score += w.PlayCountWeight * popularity

	score -= w.RecencyPenaltyWeight * RecencyFactor(s, now)

	if rng != nil && w.RandomnessFactor > 0 {
		score += rng.Float64() * w.RandomnessFactor * JitterAmplitude
	}

	return score
}

// Candidate is an eligible song with its inclusion score.
type Candidate struct {
	Song  models.Song `json:"song"`
	Score float64     `json:"score"`
	Index int         `json:"index"` // Position in the eligible pool, used for stable tie-breaks
}

// ScorePool scores every song in pool, drawing jitter in input order, and returns the
// candidates ordered by descending score with ties kept in input order.
func ScorePool(pool []models.Song, spec PlaylistSpec, stats PoolStats, now time.Time, rng *rand.Rand) []Candidate {
	candidates := make([]Candidate, len(pool))
	for i, s := range pool {
		candidates[i] = Candidate{Song: s, Score: Score(s, spec, stats, now, rng), Index: i}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Score > candidates[b].Score
	})
	return candidates
}
