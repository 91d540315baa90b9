package curation

import (
	"math"

	"github.com/desertthunder/daylist/internal/models"
)

const (
	// recentGenreWindow is how many placed songs the genre coherence term looks back over.
	recentGenreWindow = 3
	// eraSpanYears is the year distance at which the era term bottoms out.
	eraSpanYears = 20.0
	// defaultBPMScale replaces max_bpm_jump as the smoothness scale when no jump limit is set.
	defaultBPMScale = 40.0
	// neutralTerm is used when a coherence term has nothing to compare against.
	neutralTerm = 0.5
)

// SequenceReport records how the sequence was built.
type SequenceReport struct {
	Placed             int `json:"placed"`
	ArtistRelaxations  int `json:"artist_relaxations"`
	AlbumRelaxations   int `json:"album_relaxations"`
	BPMJumpRelaxations int `json:"bpm_jump_relaxations"`
}

// Relaxations returns the total number of slots where a hard constraint was waived.
func (r SequenceReport) Relaxations() int {
	return r.ArtistRelaxations + r.AlbumRelaxations + r.BPMJumpRelaxations
}

// sequenceState is owned by a single [Sequence] call and discarded when it returns.
type sequenceState struct {
	artistWindow  []string
	albumWindow   []string
	prevBPM       int // 0 when there is no previous song or it lacked tempo metadata
	recentGenres  [][]string
	genreCounts   map[string]int
	placedArtists map[string]bool
	placed        int
	yearSum       int
	yearCount     int
}

func newSequenceState() *sequenceState {
	return &sequenceState{
		genreCounts:   map[string]int{},
		placedArtists: map[string]bool{},
	}
}

func (st *sequenceState) place(s models.Song, rules TransitionRules) {
	st.artistWindow = pushWindow(st.artistWindow, s.ArtistKey(), rules.AvoidArtistRepeatsWithin)
	st.albumWindow = pushWindow(st.albumWindow, s.AlbumKey(), rules.AvoidAlbumRepeatsWithin)
	st.prevBPM = s.BPM

	tokens := s.GenreTokens()
	st.recentGenres = append(st.recentGenres, tokens)
	if len(st.recentGenres) > recentGenreWindow {
		st.recentGenres = st.recentGenres[1:]
	}
	for _, tok := range tokens {
		st.genreCounts[tok]++
	}

	st.placedArtists[s.ArtistKey()] = true
	if s.HasYear() {
		st.yearSum += s.Year
		st.yearCount++
	}
	st.placed++
}

func pushWindow(window []string, key string, size int) []string {
	if size <= 0 {
		return nil
	}
	window = append(window, key)
	if len(window) > size {
		window = window[len(window)-size:]
	}
	return window
}

func contains(window []string, key string) bool {
	for _, k := range window {
		if k == key {
			return true
		}
	}
	return false
}

// Sequence orders up to spec.TargetLength candidates into a playlist.
//
// Each slot is filled greedily: the remaining candidates are narrowed by the artist window,
// the album window and the BPM jump limit, in that order. A constraint that would remove
// every candidate is relaxed for that slot only and counted in the report. Repeat windows
// relax by dropping their oldest entries first, so the previous song's artist or album is
// only repeated when nothing else is left. The survivor with
// the highest composite score wins; ties go to the higher inclusion score, then to the
// earlier position in the eligible pool.
func Sequence(candidates []Candidate, spec PlaylistSpec, stats PoolStats) ([]models.Song, SequenceReport) {
	var report SequenceReport
	target := min(spec.TargetLength, len(candidates))
	if target <= 0 {
		return nil, report
	}

	remaining := make([]Candidate, len(candidates))
	copy(remaining, candidates)
	lo, hi := scoreBounds(candidates)

	st := newSequenceState()
	rules := spec.Transitions
	playlist := make([]models.Song, 0, target)

	for len(playlist) < target && len(remaining) > 0 {
		slot := remaining

		if len(st.artistWindow) > 0 {
			slot = narrowWindow(slot, st.artistWindow, models.Song.ArtistKey, &report.ArtistRelaxations)
		}
		if len(st.albumWindow) > 0 {
			slot = narrowWindow(slot, st.albumWindow, models.Song.AlbumKey, &report.AlbumRelaxations)
		}
		if rules.MaxBPMJump > 0 && st.prevBPM > 0 {
			slot = narrow(slot, func(c Candidate) bool {
				return !c.Song.HasBPM() || absInt(c.Song.BPM-st.prevBPM) <= rules.MaxBPMJump
			}, &report.BPMJumpRelaxations)
		}

		best, bestScore := -1, math.Inf(-1)
		for i, c := range slot {
			composite := normalizeScore(c.Score, lo, hi) + st.coherence(c.Song, spec, stats)
			if best < 0 || better(composite, c, bestScore, slot[best]) {
				best, bestScore = i, composite
			}
		}

		chosen := slot[best]
		playlist = append(playlist, chosen.Song)
		st.place(chosen.Song, rules)
		remaining = removeCandidate(remaining, chosen.Index)
	}

	report.Placed = len(playlist)
	return playlist, report
}

// narrow keeps candidates satisfying keep, unless none do, in which case it counts a relaxation.
func narrow(slot []Candidate, keep func(Candidate) bool, relaxations *int) []Candidate {
	kept := make([]Candidate, 0, len(slot))
	for _, c := range slot {
		if keep(c) {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		*relaxations++
		return slot
	}
	return kept
}

// narrowWindow applies a repeat window to slot. When no candidate clears the whole window,
// the oldest entries are dropped one at a time until one does; any shrinking counts as a
// single relaxation.
func narrowWindow(slot []Candidate, window []string, key func(models.Song) string, relaxations *int) []Candidate {
	for start := range window {
		recent := window[start:]
		kept := make([]Candidate, 0, len(slot))
		for _, c := range slot {
			if !contains(recent, key(c.Song)) {
				kept = append(kept, c)
			}
		}
		if len(kept) > 0 {
			if start > 0 {
				*relaxations++
			}
			return kept
		}
	}
	*relaxations++
	return slot
}

func better(composite float64, c Candidate, bestComposite float64, best Candidate) bool {
	if composite != bestComposite {
		return composite > bestComposite
	}
	if c.Score != best.Score {
		return c.Score > best.Score
	}
	return c.Index < best.Index
}

func removeCandidate(remaining []Candidate, index int) []Candidate {
	for i, c := range remaining {
		if c.Index == index {
			return append(remaining[:i:i], remaining[i+1:]...)
		}
	}
	return remaining
}

// coherence sums the QualityWeights-weighted placement terms for s in the current state.
func (st *sequenceState) coherence(s models.Song, spec PlaylistSpec, stats PoolStats) float64 {
	q := spec.Quality
	total := 0.0

	if q.BPMTransitionSmoothness > 0 {
		total += q.BPMTransitionSmoothness * st.bpmTerm(s, spec.Transitions)
	}
	if q.GenreCoherence > 0 {
		total += q.GenreCoherence * st.genreTerm(s)
	}
	if q.EraCohesion > 0 {
		total += q.EraCohesion * st.eraTerm(s)
	}
	if q.PopularityBalance > 0 {
		total += q.PopularityBalance * (1 - math.Abs(stats.Popularity(s.PlayCount)-stats.MedianPopularity))
	}
	if q.ArtistDiversity > 0 && !st.placedArtists[s.ArtistKey()] {
		total += q.ArtistDiversity
	}
	return total
}

// bpmTerm rewards tempos close to the previous tempo plus the preferred change.
func (st *sequenceState) bpmTerm(s models.Song, rules TransitionRules) float64 {
	if st.prevBPM <= 0 || !s.HasBPM() {
		return neutralTerm
	}
	scale := defaultBPMScale
	if rules.MaxBPMJump > 0 {
		scale = float64(rules.MaxBPMJump)
	}
	deviation := math.Abs(float64(s.BPM - (st.prevBPM + rules.PreferredBPMChange)))
	return 1 - math.Min(deviation/scale, 1)
}

// genreTerm rewards sharing genres with the last few placed songs, and to a lesser degree
// with the playlist so far.
func (st *sequenceState) genreTerm(s models.Song) float64 {
	if st.placed == 0 {
		return neutralTerm
	}
	tokens := s.GenreTokens()
	if len(tokens) == 0 {
		return 0
	}

	shared := 0
	for _, recent := range st.recentGenres {
		if overlaps(tokens, recent) {
			shared++
		}
	}
	recentShare := float64(shared) / float64(len(st.recentGenres))

	overall := 0
	for _, tok := range tokens {
		overall = max(overall, st.genreCounts[tok])
	}
	overallShare := math.Min(float64(overall)/float64(st.placed), 1)

	return 0.7*recentShare + 0.3*overallShare
}

// eraTerm rewards release years close to the running average.
func (st *sequenceState) eraTerm(s models.Song) float64 {
	if st.yearCount == 0 || !s.HasYear() {
		return neutralTerm
	}
	avg := float64(st.yearSum) / float64(st.yearCount)
	return 1 - math.Min(math.Abs(float64(s.Year)-avg)/eraSpanYears, 1)
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func scoreBounds(candidates []Candidate) (lo, hi float64) {
	if len(candidates) == 0 {
		return 0, 0
	}
	lo, hi = candidates[0].Score, candidates[0].Score
	for _, c := range candidates[1:] {
		lo, hi = math.Min(lo, c.Score), math.Max(hi, c.Score)
	}
	return lo, hi
}

// normalizeScore maps an inclusion score into [0, 1] so it is comparable with coherence terms.
func normalizeScore(score, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return (score - lo) / (hi - lo)
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
