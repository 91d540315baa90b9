package curation

import (
	"strings"

	"github.com/desertthunder/daylist/internal/models"
	"github.com/desertthunder/daylist/internal/shared"
)

// nameSeparator joins the base name and the genre suffix.
const nameSeparator = " - "

// DisplayName suggests a name for playlist: the spec's base name, followed by its
// genre_suffix most frequent genres when that is 1 or 2.
func DisplayName(spec PlaylistSpec, playlist []models.Song) string {
	base := strings.TrimSpace(spec.Name)
	if spec.GenreSuffix <= 0 || len(playlist) == 0 {
		return base
	}

	counts := map[string]int{}
	for _, s := range playlist {
		for _, g := range s.GenreTokens() {
			counts[g]++
		}
	}

	top := TopGenres(counts, min(spec.GenreSuffix, 2))
	if len(top) == 0 {
		return base
	}

	names := make([]string, len(top))
	for i, g := range top {
		names[i] = shared.TitleCase(g.Genre)
	}
	return base + nameSeparator + strings.Join(names, " & ")
}

// MatchesBaseName reports whether a remote playlist name was produced from base,
// either bare or with a genre suffix.
func MatchesBaseName(name, base string) bool {
	name, base = strings.TrimSpace(name), strings.TrimSpace(base)
	if base == "" {
		return false
	}
	return name == base || strings.HasPrefix(name, base+nameSeparator)
}
