package catalog

import (
	"errors"
	"math"
	"math/rand/v2"
	"sort"
	"sync"
)

var (
	// ErrSongNotFound is returned when a song id is not part of the catalog.
	ErrSongNotFound = errors.New("song not found")
)

// Catalog holds the generated songs for the lifetime of the process.
// Its size never changes once built.
type Catalog struct {
	mu    sync.RWMutex
	songs []Song
	index map[int64]int
}

// New generates a full catalog from rng.
func New(rng *rand.Rand) *Catalog {
	return FromSongs(Generate(rng))
}

// FromSongs wraps an existing song list. The slice is copied.
func FromSongs(songs []Song) *Catalog {
	c := &Catalog{
		songs: make([]Song, len(songs)),
		index: make(map[int64]int, len(songs)),
	}
	copy(c.songs, songs)
	for i, song := range c.songs {
		c.index[song.ID] = i
	}
	return c
}

// Len reports the number of songs.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.songs)
}

// All returns a snapshot of every song in catalog order.
func (c *Catalog) All() []Song {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]Song, len(c.songs))
	copy(result, c.songs)
	return result
}

// Get returns a song by id.
func (c *Catalog) Get(id int64) (Song, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx, ok := c.index[id]
	if !ok {
		return Song{}, ErrSongNotFound
	}
	return c.songs[idx], nil
}

// RecordPlay increments the play counter of a song and returns the updated song.
// A counter that can no longer be incremented restarts at 1.
func (c *Catalog) RecordPlay(id int64) (Song, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.index[id]
	if !ok {
		return Song{}, ErrSongNotFound
	}

	song := &c.songs[idx]
	if next, ok := incrementPlays(song.Plays); ok {
		song.Plays = next
	} else {
		song.Plays = 1
	}
	return *song, nil
}

func incrementPlays(plays int64) (int64, bool) {
	if plays < 0 || plays == math.MaxInt64 {
		return 0, false
	}
	return plays + 1, true
}

// Genres returns the distinct genres present in the catalog, sorted.
func (c *Catalog) Genres() []string {
	return c.distinct(func(s Song) string { return s.Genre })
}

// Moods returns the distinct moods present in the catalog, sorted.
func (c *Catalog) Moods() []string {
	return c.distinct(func(s Song) string { return s.Mood })
}

func (c *Catalog) distinct(field func(Song) string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{})
	var values []string
	for _, song := range c.songs {
		v := field(song)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
