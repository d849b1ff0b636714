package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"moodtunes/internal/app/songs"
	"moodtunes/internal/app/users"
	"moodtunes/internal/catalog"
	"moodtunes/internal/recommend"
	"moodtunes/internal/store"
)

// UserService captures the account operations needed by the HTTP handlers.
type UserService interface {
	Register(ctx context.Context, username, password, email string) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, token string) error
	Resolve(ctx context.Context, token string) (store.User, error)
	UpdateProfile(ctx context.Context, token string, update store.ProfileUpdate) (store.User, error)
}

// SongService exposes the catalog views.
type SongService interface {
	Home(ctx context.Context, prefs recommend.Preferences) (recommend.HomeRows, error)
	Recommendations(ctx context.Context, prefs recommend.Preferences, q recommend.Query) ([]catalog.Song, error)
	Playlist(ctx context.Context, mood string) ([]catalog.Song, error)
	Detail(ctx context.Context, id int64) (songs.Detail, error)
	Options(ctx context.Context) (songs.Options, error)
}

// Recorder receives domain events worth counting.
type Recorder interface {
	SongPlayed()
	UserRegistered()
	LoginAttempt(result string)
}

// Config carries optional collaborators. Zero values disable them.
type Config struct {
	Metrics Recorder
	// AuthLimiter wraps the login and registration handlers.
	AuthLimiter func(http.Handler) http.Handler
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	users         UserService
	songs         SongService
	metrics       Recorder
	authLimiter   func(http.Handler) http.Handler
	secureCookies bool
}

// New configures a Server over the given services.
func New(users UserService, songs SongService, cfg Config) *Server {
	s := &Server{
		users:         users,
		songs:         songs,
		metrics:       cfg.Metrics,
		authLimiter:   cfg.AuthLimiter,
		secureCookies: cfg.SecureCookies,
	}
	if s.metrics == nil {
		s.metrics = noopRecorder{}
	}
	if s.authLimiter == nil {
		s.authLimiter = func(next http.Handler) http.Handler { return next }
	}
	return s
}

// Routes exposes the page handlers.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/login", s.handleLoginForm).Methods(http.MethodGet)
	r.Handle("/login", s.authLimiter(http.HandlerFunc(s.handleLogin))).Methods(http.MethodPost)
	r.HandleFunc("/register", s.handleRegisterForm).Methods(http.MethodGet)
	r.Handle("/register", s.authLimiter(http.HandlerFunc(s.handleRegister))).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodGet)

	r.HandleFunc("/home", s.authenticated(s.handleHome)).Methods(http.MethodGet)
	r.HandleFunc("/profile", s.authenticated(s.handleProfile)).Methods(http.MethodGet)
	r.HandleFunc("/profile", s.authenticated(s.handleProfileUpdate)).Methods(http.MethodPost)
	r.HandleFunc("/recommendations", s.authenticated(s.handleRecommendations)).Methods(http.MethodGet)
	r.HandleFunc("/playlist/{mood}", s.authenticated(s.handlePlaylist)).Methods(http.MethodGet)
	r.HandleFunc("/song/{song_id}", s.authenticated(s.handleSong)).Methods(http.MethodGet)

	return r
}

// authedHandler is a handler for a request whose session resolved to user.
type authedHandler func(w http.ResponseWriter, r *http.Request, user store.User, token string)

// authenticated resolves the session before calling next and sends anonymous
// visitors to the login page.
func (s *Server) authenticated(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		user, err := s.users.Resolve(r.Context(), token)
		if err != nil {
			if !errors.Is(err, users.ErrUnauthenticated) {
				s.serverError(w, r, err)
				return
			}
			if wantsJSON(r) {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "login required"})
				return
			}
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next(w, r, user, token)
	}
}

type noopRecorder struct{}

func (noopRecorder) SongPlayed()         {}
func (noopRecorder) UserRegistered()     {}
func (noopRecorder) LoginAttempt(string) {}
