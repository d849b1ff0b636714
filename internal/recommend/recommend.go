// Package recommend selects songs for the home, search, playlist and song
// detail views. Every function is pure apart from drawing from the supplied
// random source.
package recommend

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"moodtunes/internal/catalog"
)

const (
	moodRowSize   = 20
	popularSize   = 20
	recentSize    = 20
	forYouSize    = 12
	searchLimit   = 50
	playlistLimit = 50
	relatedLimit  = 10
)

// Preferences are the favorite tags of a user. The zero value means none.
type Preferences struct {
	Genres []string
	Moods  []string
}

// Empty reports whether no favorite genre or mood is set.
func (p Preferences) Empty() bool {
	return len(p.Genres) == 0 && len(p.Moods) == 0
}

// Matches reports whether the song carries a favorite genre or mood.
func (p Preferences) Matches(song catalog.Song) bool {
	return slices.Contains(p.Genres, song.Genre) || slices.Contains(p.Moods, song.Mood)
}

// MoodRow is one mood-specific row on the home page.
type MoodRow struct {
	Mood  string         `json:"mood"`
	Songs []catalog.Song `json:"songs"`
}

// HomeRows holds every list rendered on the home page.
type HomeRows struct {
	Moods   []MoodRow      `json:"moods"`
	Popular []catalog.Song `json:"popular"`
	Recent  []catalog.Song `json:"recent"`
	ForYou  []catalog.Song `json:"forYou"`
}

// Home builds the dashboard rows for a user with the given preferences.
func Home(songs []catalog.Song, prefs Preferences, rng *rand.Rand) HomeRows {
	rows := HomeRows{
		Moods:   make([]MoodRow, 0, len(catalog.Moods)),
		Popular: Popular(songs, popularSize),
		Recent:  Recent(songs, recentSize),
	}

	for _, mood := range catalog.Moods {
		rows.Moods = append(rows.Moods, MoodRow{
			Mood:  mood,
			Songs: sample(filter(songs, byMood(mood)), moodRowSize, rng),
		})
	}

	if forYou, ok := personalize(songs, rows.Popular, prefs, rng); ok {
		rows.ForYou = forYou
	} else {
		rows.ForYou = head(rows.Popular, forYouSize)
	}
	return rows
}

// personalize picks the "for you" row. It reports false when there is
// nothing to choose from, leaving the caller to fall back to popular songs.
func personalize(songs, popular []catalog.Song, prefs Preferences, rng *rand.Rand) ([]catalog.Song, bool) {
	var candidates []catalog.Song
	if prefs.Empty() {
		candidates = slices.Clone(popular)
	} else {
		candidates = filter(songs, prefs.Matches)
		if len(candidates) < forYouSize {
			candidates = appendMissing(candidates, popular, 0)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}

	shuffle(candidates, rng)
	return head(candidates, forYouSize), true
}

// Popular returns up to limit songs ordered by plays, most played first.
// Ties keep catalog order.
func Popular(songs []catalog.Song, limit int) []catalog.Song {
	sorted := slices.Clone(songs)
	slices.SortStableFunc(sorted, func(a, b catalog.Song) int {
		return cmp.Compare(b.Plays, a.Plays)
	})
	return head(sorted, limit)
}

// Recent returns up to limit songs ordered by release year, newest first.
// Ties keep catalog order.
func Recent(songs []catalog.Song, limit int) []catalog.Song {
	sorted := slices.Clone(songs)
	slices.SortStableFunc(sorted, func(a, b catalog.Song) int {
		return cmp.Compare(b.Year, a.Year)
	})
	return head(sorted, limit)
}

// Query narrows a search. Empty fields do not filter.
type Query struct {
	Mood  string
	Genre string
	Text  string
}

// Search applies the query filters, ranks songs matching the preferences
// ahead of the rest, then shuffles and truncates the result.
//
// The final shuffle discards the preference ranking; the ordering is kept
// only as the input to the shuffle.
func Search(songs []catalog.Song, prefs Preferences, q Query, rng *rand.Rand) []catalog.Song {
	result := filterQuery(songs, q)
	if !prefs.Empty() {
		result = prioritize(result, prefs)
	}
	shuffle(result, rng)
	return head(result, searchLimit)
}

func filterQuery(songs []catalog.Song, q Query) []catalog.Song {
	result := slices.Clone(songs)
	if q.Mood != "" {
		result = filter(result, byMood(q.Mood))
	}
	if q.Genre != "" {
		result = filter(result, byGenre(q.Genre))
	}
	if text := strings.ToLower(strings.TrimSpace(q.Text)); text != "" {
		result = filter(result, func(s catalog.Song) bool {
			return strings.Contains(strings.ToLower(s.Title), text) ||
				strings.Contains(strings.ToLower(s.Artist), text)
		})
	}
	return result
}

// prioritize moves songs matching prefs to the front, keeping the relative
// order inside both groups.
func prioritize(songs []catalog.Song, prefs Preferences) []catalog.Song {
	priority := make([]catalog.Song, 0, len(songs))
	var other []catalog.Song
	for _, song := range songs {
		if prefs.Matches(song) {
			priority = append(priority, song)
		} else {
			other = append(other, song)
		}
	}
	return append(priority, other...)
}

// Playlist returns up to 50 shuffled songs of a single mood.
func Playlist(songs []catalog.Song, mood string, rng *rand.Rand) []catalog.Song {
	result := filter(songs, byMood(mood))
	shuffle(result, rng)
	return head(result, playlistLimit)
}

// Related suggests up to 10 songs for target: same genre first, topped up
// with same mood and then with the most played songs when there are too few.
// The target itself is never included.
func Related(songs []catalog.Song, target catalog.Song, rng *rand.Rand) []catalog.Song {
	related := filter(songs, func(s catalog.Song) bool {
		return s.ID != target.ID && s.Genre == target.Genre
	})
	if len(related) < relatedLimit {
		related = appendMissing(related, filter(songs, byMood(target.Mood)), target.ID)
	}
	if len(related) < relatedLimit {
		related = appendMissing(related, Popular(songs, len(songs)), target.ID)
	}
	shuffle(related, rng)
	return head(related, relatedLimit)
}

// appendMissing appends the songs from extra that are not already in dst and
// whose id differs from exclude. An exclude of 0 matches nothing.
func appendMissing(dst, extra []catalog.Song, exclude int64) []catalog.Song {
	seen := make(map[int64]struct{}, len(dst))
	for _, song := range dst {
		seen[song.ID] = struct{}{}
	}
	for _, song := range extra {
		if song.ID == exclude {
			continue
		}
		if _, ok := seen[song.ID]; ok {
			continue
		}
		seen[song.ID] = struct{}{}
		dst = append(dst, song)
	}
	return dst
}

func byMood(mood string) func(catalog.Song) bool {
	return func(s catalog.Song) bool { return s.Mood == mood }
}

func byGenre(genre string) func(catalog.Song) bool {
	return func(s catalog.Song) bool { return s.Genre == genre }
}

func filter(songs []catalog.Song, keep func(catalog.Song) bool) []catalog.Song {
	result := make([]catalog.Song, 0)
	for _, song := range songs {
		if keep(song) {
			result = append(result, song)
		}
	}
	return result
}

// sample draws up to n songs uniformly without replacement.
func sample(songs []catalog.Song, n int, rng *rand.Rand) []catalog.Song {
	pool := slices.Clone(songs)
	if pool == nil {
		pool = []catalog.Song{}
	}
	shuffle(pool, rng)
	return head(pool, n)
}

func shuffle(songs []catalog.Song, rng *rand.Rand) {
	rng.Shuffle(len(songs), func(i, j int) {
		songs[i], songs[j] = songs[j], songs[i]
	})
}

func head(songs []catalog.Song, n int) []catalog.Song {
	if len(songs) > n {
		return songs[:n]
	}
	return songs
}

// NewRand returns an unseeded random source that is safe for concurrent use.
func NewRand() *rand.Rand {
	return rand.New(&lockedSource{src: rand.NewPCG(rand.Uint64(), rand.Uint64())})
}

type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}
