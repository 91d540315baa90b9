package curation

import (
	"testing"

	tu "github.com/desertthunder/daylist/internal/testing"
)

func TestClassify(t *testing.T) {
	tc := []struct {
		name     string
		title    string
		duration int
		want     Reason
	}{
		{name: "regular song", title: "Harvest Moon", duration: 300, want: ReasonNone},
		{name: "intro marker", title: "Intro", duration: 95, want: ReasonTransition},
		{name: "interlude with suffix", title: "Interlude (Reprise)", duration: 120, want: ReasonTransition},
		{name: "marker is case-insensitive", title: "OUTRO", duration: 120, want: ReasonTransition},
		{name: "marker must be a whole word", title: "Introduction to Love", duration: 240, want: ReasonNone},
		{name: "spoken substring inside a word", title: "Song About Speaking", duration: 240, want: ReasonNone},
		{name: "fragment marker", title: "Demo Sketch", duration: 200, want: ReasonFragment},
		{name: "bits marker", title: "Bits and Pieces", duration: 200, want: ReasonFragment},
		{name: "bits inside a word", title: "Bittersweet", duration: 200, want: ReasonNone},
		{name: "spoken marker", title: "Radio Interview 1994", duration: 600, want: ReasonSpoken},
		{name: "ambient phrase", title: "Field Recording, Kyoto", duration: 300, want: ReasonAmbient},
		{name: "ambient phrase with extra spacing", title: "field  recording", duration: 300, want: ReasonAmbient},
		{name: "test marker", title: "Sound Test", duration: 60, want: ReasonAmbient},
		{name: "purely numeric", title: "0815", duration: 180, want: ReasonNumericTitle},
		{name: "numeric with separators", title: "1 - 2", duration: 180, want: ReasonNumericTitle},
		{name: "digits inside words", title: "99 Luftballons", duration: 230, want: ReasonNone},
		{name: "track placeholder", title: "Track 07", duration: 180, want: ReasonPlaceholderTitle},
		{name: "empty title", title: "   ", duration: 180, want: ReasonUntitled},
		{name: "short instrumental", title: "Blue (Instrumental)", duration: 60, want: ReasonShortInstrumental},
		{name: "full instrumental", title: "Blue (Instrumental)", duration: 200, want: ReasonNone},
		{name: "too short", title: "Quick One", duration: 20, want: ReasonTooShort},
		{name: "exactly the minimum", title: "Quick One", duration: MinSongDuration, want: ReasonNone},
		{name: "too long", title: "Epic", duration: MaxSongDuration + 1, want: ReasonTooLong},
		{name: "exactly the maximum", title: "Epic", duration: MaxSongDuration, want: ReasonNone},
		{name: "unknown duration", title: "Mystery", duration: 0, want: ReasonNone},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			song := tu.NewSong("1", tu.WithTitle(tt.title), tu.WithDuration(tt.duration))
			got := Classify(song)

			if got.Reason != tt.want {
				t.Errorf("Classify(%q, %ds) reason = %q, want %q", tt.title, tt.duration, got.Reason, tt.want)
			}
			if got.Song != (tt.want == ReasonNone) {
				t.Errorf("Classify(%q) song = %v, want %v", tt.title, got.Song, tt.want == ReasonNone)
			}
		})
	}

	t.Run("records the matched marker", func(t *testing.T) {
		got := Classify(tu.NewSong("1", tu.WithTitle("Gentle RAIN at Night")))
		if got.Marker != "rain" {
			t.Errorf("expected marker rain, got %q", got.Marker)
		}
	})

	t.Run("depends only on title and duration", func(t *testing.T) {
		a := tu.NewSong("1", tu.WithTitle("Outro"), tu.WithPlays(3), tu.WithStarred())
		b := tu.NewSong("2", tu.WithTitle("Outro"), tu.WithGenre("jazz"), tu.WithBPM(90))
		if Classify(a) != Classify(b) {
			t.Error("expected identical classification for identical title and duration")
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		song := tu.NewSong("1", tu.WithTitle("Skit"))
		first, second := Classify(song), Classify(song)
		if first != second {
			t.Errorf("expected repeated classification to match, got %+v and %+v", first, second)
		}
	})
}

func TestClassifyPool(t *testing.T) {
	pool := []struct {
		title    string
		duration int
	}{
		{"Harvest Moon", 300},
		{"Intro", 60},
		{"Outro", 60},
		{"Gone", 10},
		{"Long Road", 240},
		{"42", 200},
	}

	songs := make([]string, 0)
	input := tu.NewPool(len(pool))
	for i, p := range pool {
		input[i].Title = p.title
		input[i].Duration = p.duration
	}

	kept, report := ClassifyPool(input)
	for _, s := range kept {
		songs = append(songs, s.Title)
	}

	if len(kept) != 2 || songs[0] != "Harvest Moon" || songs[1] != "Long Road" {
		t.Fatalf("expected [Harvest Moon Long Road] in order, got %v", songs)
	}
	if report.Total != 6 || report.Kept != 2 || report.Excluded() != 4 {
		t.Errorf("unexpected totals: %+v", report)
	}
	if report.ByReason[ReasonTransition] != 2 {
		t.Errorf("expected 2 transition exclusions, got %d", report.ByReason[ReasonTransition])
	}
	if report.ByReason[ReasonTooShort] != 1 || report.ByReason[ReasonNumericTitle] != 1 {
		t.Errorf("unexpected reason counts: %v", report.ByReason)
	}
	if len(report.Exclusions) != 4 || report.Exclusions[0].Song.Title != "Intro" {
		t.Errorf("expected exclusions in input order, got %+v", report.Exclusions)
	}

	t.Run("empty pool", func(t *testing.T) {
		kept, report := ClassifyPool(nil)
		if len(kept) != 0 || report.Total != 0 || report.Excluded() != 0 {
			t.Errorf("expected empty results, got %d kept, %+v", len(kept), report)
		}
	})
}
