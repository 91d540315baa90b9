package curation

import (
	"math"
	"testing"

	"github.com/desertthunder/daylist/internal/models"
	tu "github.com/desertthunder/daylist/internal/testing"
)

func TestReport(t *testing.T) {
	t.Run("empty playlist", func(t *testing.T) {
		report := Report(nil, DefaultSpec("Empty"))
		if report.Score != 0 || report.Stats.SongCount != 0 || len(report.Stats.TopGenres) != 0 {
			t.Errorf("expected zero report, got %+v", report)
		}
	})

	t.Run("statistics", func(t *testing.T) {
		playlist := []models.Song{
			tu.NewSong("1", tu.WithArtist("a"), tu.WithBPM(100), tu.WithYear(1999), tu.WithDuration(200), tu.WithGenre("rock")),
			tu.NewSong("2", tu.WithArtist("b"), tu.WithBPM(130), tu.WithYear(2001), tu.WithDuration(100), tu.WithGenre("rock, pop")),
			tu.NewSong("3", tu.WithArtist("a"), tu.WithBPM(0), tu.WithYear(0), tu.WithDuration(300), tu.WithGenre("jazz")),
		}
		report := Report(playlist, DefaultSpec("Stats"))
		stats := report.Stats

		if stats.SongCount != 3 || stats.TotalDuration != 600 {
			t.Errorf("unexpected counts: %+v", stats)
		}
		if stats.AverageBPM != 115 || stats.MinBPM != 100 || stats.MaxBPM != 130 {
			t.Errorf("unexpected BPM stats: %+v", stats)
		}
		if stats.MinYear != 1999 || stats.MaxYear != 2001 {
			t.Errorf("unexpected year span: %d-%d", stats.MinYear, stats.MaxYear)
		}
		if stats.UniqueArtists != 2 {
			t.Errorf("expected 2 unique artists, got %d", stats.UniqueArtists)
		}

		want := []GenreCount{{"rock", 2}, {"jazz", 1}, {"pop", 1}}
		if len(stats.TopGenres) != len(want) {
			t.Fatalf("expected %v, got %v", want, stats.TopGenres)
		}
		for i, g := range want {
			if stats.TopGenres[i] != g {
				t.Errorf("top genre %d: expected %v, got %v", i, g, stats.TopGenres[i])
			}
		}

		if report.ArtistViolations != 1 || report.Breakdown.ArtistSpacing != 50 {
			t.Errorf("expected 1 artist violation scoring 50, got %d and %g", report.ArtistViolations, report.Breakdown.ArtistSpacing)
		}
		if report.BPMViolations != 1 || report.Breakdown.BPMSmoothness != 0 {
			t.Errorf("expected 1 BPM violation scoring 0, got %d and %g", report.BPMViolations, report.Breakdown.BPMSmoothness)
		}
		if !approx(report.ArtistDiversity, 2.0/3) {
			t.Errorf("expected artist diversity 2/3, got %g", report.ArtistDiversity)
		}
		if report.Score < 0 || report.Score > 100 {
			t.Errorf("score %g outside [0, 100]", report.Score)
		}
	})

	t.Run("a cohesive playlist scores 100 against matching targets", func(t *testing.T) {
		playlist := tu.NewPool(4, tu.WithGenre("house"), tu.WithYear(2010), tu.WithBPM(124))
		spec := DefaultSpec("Cohesive")
		spec.Quality.GenreCoherence = 1
		spec.Quality.EraCohesion = 1

		report := Report(playlist, spec)
		if !approx(report.Score, 100) {
			t.Errorf("expected 100, got %g (%+v)", report.Score, report.Breakdown)
		}
	})

	t.Run("repeat window of zero still checks adjacent artists", func(t *testing.T) {
		playlist := []models.Song{
			tu.NewSong("1", tu.WithArtist("x")),
			tu.NewSong("2", tu.WithArtist("x")),
			tu.NewSong("3", tu.WithArtist("y")),
			tu.NewSong("4", tu.WithArtist("x")),
		}
		spec := DefaultSpec("Adjacent")
		spec.Transitions.AvoidArtistRepeatsWithin = 0

		if got := Report(playlist, spec).ArtistViolations; got != 1 {
			t.Errorf("expected 1 violation, got %d", got)
		}
	})

	t.Run("smoothness without a jump limit follows the average jump", func(t *testing.T) {
		playlist := []models.Song{tu.NewSong("1", tu.WithBPM(100)), tu.NewSong("2", tu.WithBPM(130))}
		spec := DefaultSpec("Unlimited")
		spec.Transitions.MaxBPMJump = 0

		report := Report(playlist, spec)
		if report.BPMViolations != 0 || !approx(report.Breakdown.BPMSmoothness, 50) {
			t.Errorf("expected smoothness 50 with no violations, got %d and %g", report.BPMViolations, report.Breakdown.BPMSmoothness)
		}
	})

	t.Run("popularity spread", func(t *testing.T) {
		playlist := []models.Song{tu.NewSong("1", tu.WithPlays(0)), tu.NewSong("2", tu.WithPlays(10))}
		if got := Report(playlist, DefaultSpec("Spread")).PopularitySpread; !approx(got, 1) {
			t.Errorf("expected coefficient of variation 1, got %g", got)
		}
	})
}

func TestGenreCoherence(t *testing.T) {
	t.Run("single genre", func(t *testing.T) {
		if got := GenreCoherence(tu.NewPool(3, tu.WithGenre("soul"))); got != 1 {
			t.Errorf("expected 1, got %g", got)
		}
	})

	t.Run("even split", func(t *testing.T) {
		playlist := []models.Song{tu.NewSong("1", tu.WithGenre("soul")), tu.NewSong("2", tu.WithGenre("funk"))}
		if got := GenreCoherence(playlist); !approx(got, 0) {
			t.Errorf("expected 0, got %g", got)
		}
	})

	t.Run("uses the primary genre only", func(t *testing.T) {
		playlist := []models.Song{tu.NewSong("1", tu.WithGenre("soul, funk")), tu.NewSong("2", tu.WithGenre("soul"))}
		if got := GenreCoherence(playlist); got != 1 {
			t.Errorf("expected 1, got %g", got)
		}
	})

	t.Run("skewed split lies between the extremes", func(t *testing.T) {
		playlist := []models.Song{
			tu.NewSong("1", tu.WithGenre("soul")),
			tu.NewSong("2", tu.WithGenre("soul")),
			tu.NewSong("3", tu.WithGenre("soul")),
			tu.NewSong("4", tu.WithGenre("funk")),
		}
		want := 1 - (-(0.75*math.Log2(0.75) + 0.25*math.Log2(0.25)))
		if got := GenreCoherence(playlist); !approx(got, want) {
			t.Errorf("expected %g, got %g", want, got)
		}
	})
}

func TestEraCohesion(t *testing.T) {
	tc := []struct {
		name     string
		min, max int
		want     float64
	}{
		{"unknown years", 0, 0, 0.5},
		{"same year", 2000, 2000, 1},
		{"two years", 2000, 2002, 1},
		{"a decade", 2000, 2010, 0.5},
		{"six years", 2000, 2006, 0.65},
		{"two decades", 2000, 2020, 0.2},
		{"seventy years", 1950, 2020, 0},
	}

	for _, tt := range tc {
		if got := EraCohesion(tt.min, tt.max); !approx(got, tt.want) {
			t.Errorf("%s: EraCohesion(%d, %d) = %g, want %g", tt.name, tt.min, tt.max, got, tt.want)
		}
	}
}

func TestTopGenres(t *testing.T) {
	counts := map[string]int{"rock": 3, "jazz": 3, "pop": 5, "soul": 1, "funk": 1, "blues": 1}

	got := TopGenres(counts, 5)
	want := []string{"pop", "jazz", "rock", "blues", "funk"}
	if len(got) != len(want) {
		t.Fatalf("expected %d genres, got %d", len(want), len(got))
	}
	for i, g := range want {
		if got[i].Genre != g {
			t.Errorf("position %d: expected %s, got %s", i, g, got[i].Genre)
		}
	}

	if got := TopGenres(counts, 0); len(got) != 0 {
		t.Errorf("expected no genres for a zero limit, got %v", got)
	}
}
