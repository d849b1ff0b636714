package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"moodtunes/internal/app/users"
	"moodtunes/internal/catalog"
	"moodtunes/internal/recommend"
	"moodtunes/internal/store"
)

type homeView struct {
	User store.User         `json:"user"`
	Rows recommend.HomeRows `json:"rows"`
}

type profileView struct {
	User   store.User `json:"user"`
	Genres []string   `json:"genres"`
	Moods  []string   `json:"moods"`
}

type recommendationsView struct {
	User      store.User     `json:"user"`
	Songs     []catalog.Song `json:"songs"`
	Mood      string         `json:"mood"`
	Genre     string         `json:"genre"`
	Q         string         `json:"q"`
	AllGenres []string       `json:"allGenres"`
	AllMoods  []string       `json:"allMoods"`
}

type playlistView struct {
	User  store.User     `json:"user"`
	Mood  string         `json:"mood"`
	Songs []catalog.Song `json:"songs"`
}

type songView struct {
	User    store.User     `json:"user"`
	Song    catalog.Song   `json:"song"`
	Related []catalog.Song `json:"related"`
}

func preferencesOf(user store.User) recommend.Preferences {
	return recommend.Preferences{Genres: user.FavoriteGenres, Moods: user.FavoriteMoods}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request, user store.User, _ string) {
	rows, err := s.songs.Home(r.Context(), preferencesOf(user))
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, pageHome, homeView{User: user, Rows: rows})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, user store.User, _ string) {
	opts, err := s.songs.Options(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, pageProfile, profileView{User: user, Genres: opts.Genres, Moods: opts.Moods})
}

func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request, user store.User, token string) {
	if err := r.ParseForm(); err != nil {
		if wantsJSON(r) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form submission"})
			return
		}
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	update := store.ProfileUpdate{
		Name:           r.PostForm.Get("name"),
		Email:          r.PostForm.Get("email"),
		Bio:            r.PostForm.Get("bio"),
		FavoriteGenres: r.PostForm["genres"],
		FavoriteMoods:  r.PostForm["moods"],
	}
	if _, err := s.users.UpdateProfile(r.Context(), token, update); err != nil {
		if errors.Is(err, users.ErrUnauthenticated) {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		s.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request, user store.User, _ string) {
	query := r.URL.Query()
	q := recommend.Query{
		Mood:  query.Get("mood"),
		Genre: query.Get("genre"),
		Text:  strings.TrimSpace(query.Get("q")),
	}

	found, err := s.songs.Recommendations(r.Context(), preferencesOf(user), q)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	opts, err := s.songs.Options(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, pageRecommendations, recommendationsView{
		User:      user,
		Songs:     found,
		Mood:      q.Mood,
		Genre:     q.Genre,
		Q:         q.Text,
		AllGenres: opts.Genres,
		AllMoods:  opts.Moods,
	})
}

func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request, user store.User, _ string) {
	mood := mux.Vars(r)["mood"]
	found, err := s.songs.Playlist(r.Context(), mood)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, pagePlaylist, playlistView{User: user, Mood: mood, Songs: found})
}

func (s *Server) handleSong(w http.ResponseWriter, r *http.Request, user store.User, _ string) {
	id, err := strconv.ParseInt(mux.Vars(r)["song_id"], 10, 64)
	if err != nil {
		s.songMissing(w, r)
		return
	}

	detail, err := s.songs.Detail(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrSongNotFound) {
			s.songMissing(w, r)
			return
		}
		s.serverError(w, r, err)
		return
	}

	s.metrics.SongPlayed()
	s.render(w, r, http.StatusOK, pageSong, songView{User: user, Song: detail.Song, Related: detail.Related})
}

func (s *Server) songMissing(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: catalog.ErrSongNotFound.Error()})
		return
	}
	http.Redirect(w, r, "/recommendations", http.StatusFound)
}
