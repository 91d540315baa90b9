package curation

import (
	"fmt"
	"math"
	"sort"

	"github.com/desertthunder/daylist/internal/models"
)

// PlayCountFilter selects songs by play count. The variants are closed:
// [ExactPlays], [PlayRange], [PlayPercentile] and [PlayThreshold].
type PlayCountFilter interface {
	isPlayCountFilter()
	validate() error
	String() string
}

var (
	_ PlayCountFilter = ExactPlays{}
	_ PlayCountFilter = PlayRange{}
	_ PlayCountFilter = PlayPercentile{}
	_ PlayCountFilter = PlayThreshold{}
)

// ExactPlays keeps songs played exactly Count times. A nil Count means never played.
type ExactPlays struct {
	Count *int `json:"count"`
}

// PlayRange keeps songs whose play count lies in [Min, Max]. A nil bound is open.
type PlayRange struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

// Direction selects the end of the play-count distribution a percentile keeps.
type Direction string

const (
	Top    Direction = "top"
	Bottom Direction = "bottom"
)

// PlayPercentile keeps the most (Top) or least (Bottom) played Fraction of the pool.
type PlayPercentile struct {
	Direction Direction `json:"direction"`
	Fraction  float64   `json:"fraction"`
}

// Operator compares a play count against a threshold.
type Operator string

const (
	Above   Operator = "above"
	Below   Operator = "below"
	AtLeast Operator = "at_least"
	AtMost  Operator = "at_most"
)

// PlayThreshold keeps songs whose play count compares against Count per Operator.
type PlayThreshold struct {
	Operator Operator `json:"operator"`
	Count    int      `json:"count"`
}

func (ExactPlays) isPlayCountFilter()     {}
func (PlayRange) isPlayCountFilter()      {}
func (PlayPercentile) isPlayCountFilter() {}
func (PlayThreshold) isPlayCountFilter()  {}

func (f ExactPlays) target() int {
	if f.Count == nil {
		return 0
	}
	return *f.Count
}

func (f ExactPlays) validate() error {
	if f.target() < 0 {
		return fmt.Errorf("exact count must not be negative")
	}
	return nil
}

func (f PlayRange) validate() error {
	if (f.Min != nil && *f.Min < 0) || (f.Max != nil && *f.Max < 0) {
		return fmt.Errorf("range bounds must not be negative")
	}
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		return fmt.Errorf("range min %d exceeds max %d", *f.Min, *f.Max)
	}
	return nil
}

func (f PlayPercentile) validate() error {
	if f.Direction != Top && f.Direction != Bottom {
		return fmt.Errorf("unknown percentile direction %q", f.Direction)
	}
	if f.Fraction < 0 || f.Fraction > 1 || math.IsNaN(f.Fraction) {
		return fmt.Errorf("percentile fraction must be within [0, 1], got %g", f.Fraction)
	}
	return nil
}

func (f PlayThreshold) validate() error {
	switch f.Operator {
	case Above, Below, AtLeast, AtMost:
	default:
		return fmt.Errorf("unknown threshold operator %q", f.Operator)
	}
	if f.Count < 0 {
		return fmt.Errorf("threshold count must not be negative")
	}
	return nil
}

func (f ExactPlays) String() string { return fmt.Sprintf("exactly %d plays", f.target()) }

func (f PlayRange) String() string {
	switch {
	case f.Min != nil && f.Max != nil:
		return fmt.Sprintf("%d-%d plays", *f.Min, *f.Max)
	case f.Min != nil:
		return fmt.Sprintf("at least %d plays", *f.Min)
	case f.Max != nil:
		return fmt.Sprintf("at most %d plays", *f.Max)
	default:
		return "any play count"
	}
}

func (f PlayPercentile) String() string {
	return fmt.Sprintf("%s %.0f%% by plays", f.Direction, f.Fraction*100)
}

func (f PlayThreshold) String() string {
	return fmt.Sprintf("plays %s %d", f.Operator, f.Count)
}

func (f PlayThreshold) keep(count int) bool {
	switch f.Operator {
	case Above:
		return count > f.Count
	case Below:
		return count < f.Count
	case AtLeast:
		return count >= f.Count
	case AtMost:
		return count <= f.Count
	}
	return false
}

func (f PlayRange) keep(count int) bool {
	if f.Min != nil && count < *f.Min {
		return false
	}
	if f.Max != nil && count > *f.Max {
		return false
	}
	return true
}

// applyPlayCountFilter returns the songs of pool kept by f, preserving input order.
func applyPlayCountFilter(pool []models.Song, f PlayCountFilter) ([]models.Song, error) {
	switch f := f.(type) {
	case nil:
		return pool, nil
	case ExactPlays:
		return keepWhere(pool, func(s models.Song) bool { return s.PlayCount == f.target() }), nil
	case PlayRange:
		return keepWhere(pool, func(s models.Song) bool { return f.keep(s.PlayCount) }), nil
	case PlayThreshold:
		return keepWhere(pool, func(s models.Song) bool { return f.keep(s.PlayCount) }), nil
	case PlayPercentile:
		return percentile(pool, f), nil
	default:
		return nil, fmt.Errorf("unsupported play count filter %T", f)
	}
}

// percentile keeps exactly floor(fraction * len(pool)) songs from the requested end of the
// distribution. Songs tied at the boundary are admitted in input order until the quota is met.
func percentile(pool []models.Song, f PlayPercentile) []models.Song {
	quota := int(math.Floor(f.Fraction*float64(len(pool)) + 1e-9))
	if quota <= 0 {
		return nil
	}
	if quota >= len(pool) {
		return pool
	}

	order := make([]int, len(pool))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		pa, pb := pool[order[a]].PlayCount, pool[order[b]].PlayCount
		if f.Direction == Top {
			return pa > pb
		}
		return pa < pb
	})

	chosen := make([]bool, len(pool))
	for _, idx := range order[:quota] {
		chosen[idx] = true
	}

	kept := make([]models.Song, 0, quota)
	for i, s := range pool {
		if chosen[i] {
			kept = append(kept, s)
		}
	}
	return kept
}

func keepWhere(pool []models.Song, keep func(models.Song) bool) []models.Song {
	kept := make([]models.Song, 0, len(pool))
	for _, s := range pool {
		if keep(s) {
			kept = append(kept, s)
		}
	}
	return kept
}
