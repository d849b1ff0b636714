package songs

import (
	"context"
	"fmt"
	"math/rand/v2"

	"moodtunes/internal/catalog"
	"moodtunes/internal/recommend"
)

// Catalog exposes the song lookups required by the song service.
type Catalog interface {
	All() []catalog.Song
	RecordPlay(id int64) (catalog.Song, error)
	Genres() []string
	Moods() []string
}

// Options lists the values offered by the search and profile filters.
type Options struct {
	Genres []string `json:"genres"`
	Moods  []string `json:"moods"`
}

// Detail is a song page: the song after its play was recorded plus
// related suggestions.
type Detail struct {
	Song    catalog.Song   `json:"song"`
	Related []catalog.Song `json:"related"`
}

// Service exposes song-centric operations.
type Service interface {
	Home(ctx context.Context, prefs recommend.Preferences) (recommend.HomeRows, error)
	Recommendations(ctx context.Context, prefs recommend.Preferences, q recommend.Query) ([]catalog.Song, error)
	Playlist(ctx context.Context, mood string) ([]catalog.Song, error)
	Detail(ctx context.Context, id int64) (Detail, error)
	Options(ctx context.Context) (Options, error)
}

type service struct {
	catalog Catalog
	rng     *rand.Rand
}

// New constructs a song Service over the catalog. rng must be safe for
// concurrent use; recommend.NewRand provides one.
func New(c Catalog, rng *rand.Rand) Service {
	return &service{catalog: c, rng: rng}
}

func (s *service) Home(ctx context.Context, prefs recommend.Preferences) (recommend.HomeRows, error) {
	if err := ctx.Err(); err != nil {
		return recommend.HomeRows{}, err
	}
	return recommend.Home(s.catalog.All(), prefs, s.rng), nil
}

func (s *service) Recommendations(ctx context.Context, prefs recommend.Preferences, q recommend.Query) ([]catalog.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return recommend.Search(s.catalog.All(), prefs, q, s.rng), nil
}

func (s *service) Playlist(ctx context.Context, mood string) ([]catalog.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return recommend.Playlist(s.catalog.All(), mood, s.rng), nil
}

func (s *service) Detail(ctx context.Context, id int64) (Detail, error) {
	if err := ctx.Err(); err != nil {
		return Detail{}, err
	}

	song, err := s.catalog.RecordPlay(id)
	if err != nil {
		return Detail{}, fmt.Errorf("record play for song %d: %w", id, err)
	}

	return Detail{
		Song:    song,
		Related: recommend.Related(s.catalog.All(), song, s.rng),
	}, nil
}

func (s *service) Options(ctx context.Context) (Options, error) {
	if err := ctx.Err(); err != nil {
		return Options{}, err
	}
	return Options{Genres: s.catalog.Genres(), Moods: s.catalog.Moods()}, nil
}
