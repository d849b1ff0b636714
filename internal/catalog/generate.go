package catalog

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Generate builds a catalog of Size songs with sequential ids starting at 1.
// Every field is sampled independently from the fixed vocabularies.
func Generate(rng *rand.Rand) []Song {
	songs := make([]Song, 0, Size)
	for i := 0; i < Size; i++ {
		id := int64(i + 1)
		songs = append(songs, Song{
			ID:       id,
			Title:    strings.TrimSpace(pick(rng, titleStems) + " " + pick(rng, titleSuffixes)),
			Artist:   pick(rng, artists),
			Genre:    pick(rng, Genres),
			Mood:     pick(rng, Moods),
			Duration: fmt.Sprintf("%d:%02d", between(rng, 2, 5), between(rng, 10, 59)),
			Album:    fmt.Sprintf("Album %d", between(rng, 1, 50)),
			Year:     between(rng, 2015, 2024),
			Plays:    int64(between(rng, 1000, 10_000_000)),
			Preview:  PreviewURL(PreviewSlot(id)),
		})
	}
	return songs
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.IntN(len(values))]
}

// between returns an integer in the closed range [lo, hi].
func between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}
