package curation

import (
	"testing"
	"time"

	"github.com/desertthunder/daylist/internal/models"
	tu "github.com/desertthunder/daylist/internal/testing"
)

var filterNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ids(songs []models.Song) []string {
	out := make([]string, len(songs))
	for i, s := range songs {
		out[i] = s.ID
	}
	return out
}

func sameIDs(got []models.Song, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i, s := range got {
		if s.ID != want[i] {
			return false
		}
	}
	return true
}

func intPtr(n int) *int { return &n }

func TestFilter(t *testing.T) {
	t.Run("no rules keeps the pool in order", func(t *testing.T) {
		pool := tu.NewPool(5)
		got, report, err := Filter(pool, DefaultSpec("All"), filterNow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !sameIDs(got, "1", "2", "3", "4", "5") {
			t.Errorf("expected input order, got %v", ids(got))
		}
		if report.Input != 5 || report.Eligible != 5 {
			t.Errorf("unexpected report: %+v", report)
		}
	})

	t.Run("acceptable genres", func(t *testing.T) {
		pool := []models.Song{
			tu.NewSong("1", tu.WithGenre("Indie Rock")),
			tu.NewSong("2", tu.WithGenre("Rockabilly")),
			tu.NewSong("3", tu.WithGenre("jazz")),
			tu.NewSong("4", tu.WithGenre("Pop; Rock")),
			tu.NewSong("5", tu.WithGenre("")),
		}
		spec := DefaultSpec("Rock")
		spec.AcceptableGenres = []string{"ROCK"}

		got, report, err := Filter(pool, spec, filterNow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !sameIDs(got, "1", "4") {
			t.Errorf("expected [1 4], got %v", ids(got))
		}
		if report.NotAcceptable != 3 {
			t.Errorf("expected 3 not acceptable, got %d", report.NotAcceptable)
		}
	})

	t.Run("unacceptable genres win over acceptable", func(t *testing.T) {
		pool := []models.Song{
			tu.NewSong("1", tu.WithGenre("rock")),
			tu.NewSong("2", tu.WithGenre("rock, metal")),
			tu.NewSong("3", tu.WithGenre("jazz")),
		}
		spec := DefaultSpec("Conflict")
		spec.AcceptableGenres = []string{"rock", "jazz"}
		spec.UnacceptableGenres = []string{"rock"}

		got, report, err := Filter(pool, spec, filterNow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !sameIDs(got, "3") {
			t.Errorf("expected [3], got %v", ids(got))
		}
		if report.Unacceptable != 2 {
			t.Errorf("expected 2 unacceptable, got %d", report.Unacceptable)
		}
	})

	t.Run("unacceptable genre matches any tag", func(t *testing.T) {
		song := tu.NewSong("1", tu.WithGenre("jazz"))
		song.Genres = []string{"Christmas", "Jazz"}

		spec := DefaultSpec("No Holidays")
		spec.UnacceptableGenres = []string{"christmas"}

		got, _, _ := Filter([]models.Song{song}, spec, filterNow)
		if len(got) != 0 {
			t.Errorf("expected song to be excluded, got %v", ids(got))
		}
	})

	t.Run("BPM range is inclusive and requires tempo metadata", func(t *testing.T) {
		pool := []models.Song{
			tu.NewSong("1", tu.WithBPM(90)),
			tu.NewSong("2", tu.WithBPM(110)),
			tu.NewSong("3", tu.WithBPM(111)),
			tu.NewSong("4", tu.WithBPM(0)),
			tu.NewSong("5", tu.WithBPM(100)),
		}
		spec := DefaultSpec("Steady")
		spec.BPM = &BPMRange{Min: 90, Max: 110}

		got, report, err := Filter(pool, spec, filterNow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !sameIDs(got, "1", "2", "5") {
			t.Errorf("expected [1 2 5], got %v", ids(got))
		}
		if report.OutsideBPM != 2 {
			t.Errorf("expected 2 outside BPM, got %d", report.OutsideBPM)
		}
	})

	t.Run("recency floor", func(t *testing.T) {
		pool := []models.Song{
			tu.NewSong("1", tu.WithLastPlayed(filterNow.Add(-24*time.Hour))),
			tu.NewSong("2", tu.WithLastPlayed(filterNow.Add(-10*24*time.Hour))),
			tu.NewSong("3"),
			tu.NewSong("4", tu.WithLastPlayed(filterNow.Add(-3*24*time.Hour))),
		}
		spec := DefaultSpec("Fresh")
		spec.MinDaysSinceLastPlay = 3

		got, report, err := Filter(pool, spec, filterNow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !sameIDs(got, "2", "3", "4") {
			t.Errorf("expected [2 3 4], got %v", ids(got))
		}
		if report.PlayedRecently != 1 {
			t.Errorf("expected 1 played recently, got %d", report.PlayedRecently)
		}
	})

	t.Run("percentile is computed after earlier predicates", func(t *testing.T) {
		pool := make([]models.Song, 0, 20)
		for i := range 10 {
			pool = append(pool, tu.NewSong(string(rune('a'+i)), tu.WithGenre("rock"), tu.WithPlays(i)))
		}
		for i := range 10 {
			pool = append(pool, tu.NewSong(string(rune('A'+i)), tu.WithGenre("jazz"), tu.WithPlays(100+i)))
		}

		spec := DefaultSpec("Rock Hits")
		spec.AcceptableGenres = []string{"rock"}
		spec.Preferences.PlayCountFilter = PlayPercentile{Direction: Top, Fraction: 0.2}

		got, report, err := Filter(pool, spec, filterNow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !sameIDs(got, "i", "j") {
			t.Errorf("expected [i j], got %v", ids(got))
		}
		if report.PlayCountFilter != 8 || report.Eligible != 2 {
			t.Errorf("unexpected report: %+v", report)
		}
	})

	t.Run("empty pool", func(t *testing.T) {
		got, report, err := Filter(nil, DefaultSpec("Empty"), filterNow)
		if err != nil || len(got) != 0 || report.Eligible != 0 {
			t.Errorf("expected empty result, got %v %+v %v", ids(got), report, err)
		}
	})
}

func TestGenreMatches(t *testing.T) {
	tc := []struct {
		token, pattern string
		want           bool
	}{
		{"rock", "rock", true},
		{"indie rock", "rock", true},
		{"rock and roll", "rock", true},
		{"rockabilly", "rock", false},
		{"punk rock", "punk", true},
		{"k-pop", "pop", true},
		{"hip hop", "hip hop", true},
		{"hip", "hip hop", false},
		{"jazz", "rock", false},
	}

	for _, tt := range tc {
		if got := genreMatches(tt.token, tt.pattern); got != tt.want {
			t.Errorf("genreMatches(%q, %q) = %v, want %v", tt.token, tt.pattern, got, tt.want)
		}
	}
}

func TestPlayCountFilters(t *testing.T) {
	pool := []models.Song{
		tu.NewSong("1", tu.WithPlays(0)),
		tu.NewSong("2", tu.WithPlays(1)),
		tu.NewSong("3", tu.WithPlays(5)),
		tu.NewSong("4", tu.WithPlays(10)),
		tu.NewSong("5", tu.WithPlays(0)),
		tu.NewSong("6", tu.WithPlays(20)),
	}

	tc := []struct {
		name   string
		filter PlayCountFilter
		want   []string
	}{
		{name: "nil filter keeps all", filter: nil, want: []string{"1", "2", "3", "4", "5", "6"}},
		{name: "exact without count means never played", filter: ExactPlays{}, want: []string{"1", "5"}},
		{name: "exact count", filter: ExactPlays{Count: intPtr(5)}, want: []string{"3"}},
		{name: "closed range", filter: PlayRange{Min: intPtr(1), Max: intPtr(10)}, want: []string{"2", "3", "4"}},
		{name: "open max", filter: PlayRange{Min: intPtr(10)}, want: []string{"4", "6"}},
		{name: "open min", filter: PlayRange{Max: intPtr(0)}, want: []string{"1", "5"}},
		{name: "above", filter: PlayThreshold{Operator: Above, Count: 5}, want: []string{"4", "6"}},
		{name: "below", filter: PlayThreshold{Operator: Below, Count: 5}, want: []string{"1", "2", "5"}},
		{name: "at least", filter: PlayThreshold{Operator: AtLeast, Count: 5}, want: []string{"3", "4", "6"}},
		{name: "at most", filter: PlayThreshold{Operator: AtMost, Count: 1}, want: []string{"1", "2", "5"}},
		{name: "top half", filter: PlayPercentile{Direction: Top, Fraction: 0.5}, want: []string{"3", "4", "6"}},
		{name: "bottom third", filter: PlayPercentile{Direction: Bottom, Fraction: 1.0 / 3}, want: []string{"1", "5"}},
		{name: "zero fraction", filter: PlayPercentile{Direction: Top, Fraction: 0}, want: []string{}},
		{name: "whole pool", filter: PlayPercentile{Direction: Bottom, Fraction: 1}, want: []string{"1", "2", "3", "4", "5", "6"}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := applyPlayCountFilter(pool, tt.filter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !sameIDs(got, tt.want...) {
				t.Errorf("expected %v, got %v", tt.want, ids(got))
			}
		})
	}

	t.Run("top 20 percent of 50 admits exactly 10", func(t *testing.T) {
		pool := tu.NewPool(50)
		for i := range pool {
			pool[i].PlayCount = i + 1
		}

		got, err := applyPlayCountFilter(pool, PlayPercentile{Direction: Top, Fraction: 0.2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 10 {
			t.Fatalf("expected 10 songs, got %d", len(got))
		}
		for _, s := range got {
			if s.PlayCount < 41 {
				t.Errorf("song with %d plays should not be in the top 20%%", s.PlayCount)
			}
		}
	})

	t.Run("ties at the boundary are admitted in input order", func(t *testing.T) {
		pool := tu.NewPool(50)
		for i := range pool {
			switch {
			case i < 5:
				pool[i].PlayCount = 100
			case i < 25:
				pool[i].PlayCount = 50
			}
		}

		got, err := applyPlayCountFilter(pool, PlayPercentile{Direction: Top, Fraction: 0.2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 10 {
			t.Fatalf("expected 10 songs, got %d", len(got))
		}
		for i, s := range got {
			if s.ID != pool[i].ID {
				t.Errorf("position %d: expected %s, got %s", i, pool[i].ID, s.ID)
			}
		}
	})

	t.Run("validation", func(t *testing.T) {
		bad := []PlayCountFilter{
			ExactPlays{Count: intPtr(-1)},
			PlayRange{Min: intPtr(5), Max: intPtr(1)},
			PlayRange{Min: intPtr(-1)},
			PlayPercentile{Direction: "middle", Fraction: 0.5},
			PlayPercentile{Direction: Top, Fraction: 1.5},
			PlayThreshold{Operator: "equals", Count: 1},
			PlayThreshold{Operator: Above, Count: -2},
		}
		for _, f := range bad {
			if err := f.validate(); err == nil {
				t.Errorf("expected %#v to be invalid", f)
			}
		}
	})

	t.Run("descriptions", func(t *testing.T) {
		tc := []struct {
			filter PlayCountFilter
			want   string
		}{
			{ExactPlays{}, "exactly 0 plays"},
			{PlayRange{Min: intPtr(2), Max: intPtr(8)}, "2-8 plays"},
			{PlayRange{Max: intPtr(8)}, "at most 8 plays"},
			{PlayPercentile{Direction: Top, Fraction: 0.25}, "top 25% by plays"},
			{PlayThreshold{Operator: AtLeast, Count: 3}, "plays at_least 3"},
		}
		for _, tt := range tc {
			if got := tt.filter.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		}
	})
}
