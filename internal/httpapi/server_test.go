package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"moodtunes/internal/app/songs"
	"moodtunes/internal/app/users"
	"moodtunes/internal/catalog"
	"moodtunes/internal/recommend"
	"moodtunes/internal/store"
)

type stubUserService struct {
	sessions map[string]store.User
	// passwords maps username to password for Login.
	passwords map[string]string

	registerErr error
	revoked     []string
	lastUpdate  store.ProfileUpdate
}

func newStubUserService() *stubUserService {
	return &stubUserService{
		sessions:  map[string]store.User{},
		passwords: map[string]string{},
	}
}

func (s *stubUserService) Register(_ context.Context, username, password, email string) (string, error) {
	if s.registerErr != nil {
		return "", s.registerErr
	}
	if _, ok := s.passwords[username]; ok {
		return "", store.ErrUserExists
	}
	s.passwords[username] = password
	token := "token-" + username
	s.sessions[token] = store.User{Username: username, Name: username, Email: email}
	return token, nil
}

func (s *stubUserService) Login(_ context.Context, username, password string) (string, error) {
	if want, ok := s.passwords[username]; !ok || want != password {
		return "", store.ErrInvalidCredentials
	}
	token := "token-" + username
	if _, ok := s.sessions[token]; !ok {
		s.sessions[token] = store.User{Username: username, Name: username}
	}
	return token, nil
}

func (s *stubUserService) Logout(_ context.Context, token string) error {
	s.revoked = append(s.revoked, token)
	delete(s.sessions, token)
	return nil
}

func (s *stubUserService) Resolve(_ context.Context, token string) (store.User, error) {
	user, ok := s.sessions[token]
	if !ok {
		return store.User{}, users.ErrUnauthenticated
	}
	return user, nil
}

func (s *stubUserService) UpdateProfile(_ context.Context, token string, update store.ProfileUpdate) (store.User, error) {
	user, ok := s.sessions[token]
	if !ok {
		return store.User{}, users.ErrUnauthenticated
	}
	s.lastUpdate = update
	user.Name = update.Name
	user.FavoriteGenres = update.FavoriteGenres
	user.FavoriteMoods = update.FavoriteMoods
	s.sessions[token] = user
	return user, nil
}

type stubSongService struct {
	songs []catalog.Song

	lastPrefs    recommend.Preferences
	lastQuery    recommend.Query
	lastPlaylist string
	played       []int64
}

func (s *stubSongService) Home(_ context.Context, prefs recommend.Preferences) (recommend.HomeRows, error) {
	s.lastPrefs = prefs
	return recommend.HomeRows{
		Moods:   []recommend.MoodRow{{Mood: "Happy", Songs: s.songs}},
		Popular: s.songs,
		Recent:  s.songs,
		ForYou:  s.songs,
	}, nil
}

func (s *stubSongService) Recommendations(_ context.Context, prefs recommend.Preferences, q recommend.Query) ([]catalog.Song, error) {
	s.lastPrefs = prefs
	s.lastQuery = q
	return s.songs, nil
}

func (s *stubSongService) Playlist(_ context.Context, mood string) ([]catalog.Song, error) {
	s.lastPlaylist = mood
	return s.songs, nil
}

func (s *stubSongService) Detail(_ context.Context, id int64) (songs.Detail, error) {
	for _, song := range s.songs {
		if song.ID == id {
			s.played = append(s.played, id)
			song.Plays++
			return songs.Detail{Song: song, Related: s.songs}, nil
		}
	}
	return songs.Detail{}, catalog.ErrSongNotFound
}

func (s *stubSongService) Options(context.Context) (songs.Options, error) {
	return songs.Options{Genres: []string{"Jazz", "Pop"}, Moods: []string{"Chill", "Happy"}}, nil
}

type countingRecorder struct {
	plays         int
	registrations int
	logins        map[string]int
}

func (c *countingRecorder) SongPlayed()     { c.plays++ }
func (c *countingRecorder) UserRegistered() { c.registrations++ }
func (c *countingRecorder) LoginAttempt(result string) {
	if c.logins == nil {
		c.logins = map[string]int{}
	}
	c.logins[result]++
}

func testSongs() []catalog.Song {
	return []catalog.Song{
		{ID: 1, Title: "Midnight Dreams", Artist: "Echo Valley", Genre: "Jazz", Mood: "Chill", Album: "Album 3", Duration: "3:15", Year: 2020, Plays: 10, Preview: "/static/previews/preview1.wav"},
		{ID: 2, Title: "Electric Heart", Artist: "Neon Pulse", Genre: "Pop", Mood: "Happy", Album: "Album 7", Duration: "4:02", Year: 2023, Plays: 20, Preview: "/static/previews/preview2.wav"},
	}
}

func setupServer(t *testing.T) (*Server, *stubUserService, *stubSongService, *countingRecorder) {
	t.Helper()
	userSvc := newStubUserService()
	songSvc := &stubSongService{songs: testSongs()}
	rec := &countingRecorder{}
	return New(userSvc, songSvc, Config{Metrics: rec}), userSvc, songSvc, rec
}

func loggedIn(userSvc *stubUserService, user store.User) *http.Cookie {
	token := "token-" + user.Username
	userSvc.sessions[token] = user
	return &http.Cookie{Name: sessionCookie, Value: token}
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func sessionCookieFrom(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatalf("expected %q cookie to be set", sessionCookie)
	return nil
}

func TestGatedRoutesRedirectAnonymousVisitors(t *testing.T) {
	srv, _, _, _ := setupServer(t)
	router := srv.Routes()

	for _, path := range []string{"/home", "/profile", "/recommendations", "/playlist/Happy", "/song/1"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != http.StatusFound {
				t.Fatalf("expected status 302, got %d", rr.Code)
			}
			if loc := rr.Header().Get("Location"); loc != "/login" {
				t.Fatalf("expected redirect to /login, got %q", loc)
			}
		})
	}
}

func TestGatedRouteJSONUnauthorized(t *testing.T) {
	srv, _, _, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.Header.Set("Accept", "application/json")
	rr := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestIndexRedirects(t *testing.T) {
	srv, userSvc, _, _ := setupServer(t)
	router := srv.Routes()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if loc := rr.Header().Get("Location"); rr.Code != http.StatusFound || loc != "/login" {
		t.Fatalf("expected 302 to /login, got %d %q", rr.Code, loc)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(loggedIn(userSvc, store.User{Username: "alice"}))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if loc := rr.Header().Get("Location"); rr.Code != http.StatusFound || loc != "/home" {
		t.Fatalf("expected 302 to /home, got %d %q", rr.Code, loc)
	}
}

func TestLoginAndRegisterFormsRender(t *testing.T) {
	srv, _, _, _ := setupServer(t)
	router := srv.Routes()

	for _, path := range []string{"/login", "/register"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d", path, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), `action="`+path+`"`) {
			t.Fatalf("%s: expected form posting to itself, got %s", path, rr.Body.String())
		}
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		wantStatus int
		wantResult string
	}{
		{name: "success", password: "pw", wantStatus: http.StatusSeeOther, wantResult: "success"},
		{name: "wrong password", password: "nope", wantStatus: http.StatusOK, wantResult: "invalid"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, userSvc, _, rec := setupServer(t)
			userSvc.passwords["alice"] = "pw"

			rr := httptest.NewRecorder()
			srv.Routes().ServeHTTP(rr, postForm("/login", url.Values{"username": {"alice"}, "password": {tc.password}}))

			if rr.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rr.Code)
			}
			if rec.logins[tc.wantResult] != 1 {
				t.Fatalf("expected one %q login attempt, got %v", tc.wantResult, rec.logins)
			}

			if tc.wantStatus == http.StatusSeeOther {
				if loc := rr.Header().Get("Location"); loc != "/home" {
					t.Fatalf("expected redirect to /home, got %q", loc)
				}
				cookie := sessionCookieFrom(t, rr)
				if cookie.Value != "token-alice" || !cookie.HttpOnly || cookie.SameSite != http.SameSiteLaxMode || cookie.Path != "/" {
					t.Fatalf("unexpected session cookie: %+v", cookie)
				}
				return
			}
			if !strings.Contains(rr.Body.String(), "Invalid credentials") {
				t.Fatalf("expected inline error, got %s", rr.Body.String())
			}
		})
	}
}

func TestLoginInvalidCredentialsJSON(t *testing.T) {
	srv, _, _, _ := setupServer(t)

	req := postForm("/login", url.Values{"username": {"ghost"}, "password": {"pw"}})
	req.Header.Set("Accept", "application/json")
	rr := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
	var body authView
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Error != "Invalid credentials" || body.Username != "ghost" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestRegister(t *testing.T) {
	srv, userSvc, _, rec := setupServer(t)
	router := srv.Routes()

	form := url.Values{"username": {"bob"}, "password": {"pw"}, "email": {"bob@example.com"}}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, postForm("/register", form))

	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected status 303, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/home" {
		t.Fatalf("expected redirect to /home, got %q", loc)
	}
	if cookie := sessionCookieFrom(t, rr); cookie.Value != "token-bob" {
		t.Fatalf("unexpected cookie value %q", cookie.Value)
	}
	if userSvc.sessions["token-bob"].Email != "bob@example.com" {
		t.Fatalf("expected email to be stored, got %+v", userSvc.sessions["token-bob"])
	}
	if rec.registrations != 1 {
		t.Fatalf("expected one registration, got %d", rec.registrations)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, postForm("/register", form))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected duplicate to re-render with 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Username already exists") {
		t.Fatalf("expected duplicate message, got %s", rr.Body.String())
	}
	if rec.registrations != 1 {
		t.Fatalf("expected registrations to stay at 1, got %d", rec.registrations)
	}
}

func TestRegisterMissingFieldsJSON(t *testing.T) {
	srv, userSvc, _, _ := setupServer(t)
	userSvc.registerErr = store.ErrInvalidUser

	req := postForm("/register", url.Values{"username": {""}})
	req.Header.Set("Accept", "application/json")
	rr := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestLogout(t *testing.T) {
	srv, userSvc, _, _ := setupServer(t)
	cookie := loggedIn(userSvc, store.User{Username: "alice"})

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/login" {
		t.Fatalf("expected 302 to /login, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	if len(userSvc.revoked) != 1 || userSvc.revoked[0] != cookie.Value {
		t.Fatalf("expected token to be revoked, got %v", userSvc.revoked)
	}
	if cleared := sessionCookieFrom(t, rr); cleared.MaxAge >= 0 {
		t.Fatalf("expected cookie to be cleared, got MaxAge %d", cleared.MaxAge)
	}
}

func TestHomePassesPreferences(t *testing.T) {
	srv, userSvc, songSvc, _ := setupServer(t)
	user := store.User{Username: "alice", FavoriteGenres: []string{"Jazz"}, FavoriteMoods: []string{"Chill"}}

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.AddCookie(loggedIn(userSvc, user))
	rr := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if len(songSvc.lastPrefs.Genres) != 1 || songSvc.lastPrefs.Genres[0] != "Jazz" {
		t.Fatalf("expected favorites to flow into preferences, got %+v", songSvc.lastPrefs)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Midnight Dreams") || !strings.Contains(body, `href="/playlist/Happy"`) {
		t.Fatalf("expected home rows in body, got %s", body)
	}
}

func TestProfileUpdate(t *testing.T) {
	srv, userSvc, _, _ := setupServer(t)
	cookie := loggedIn(userSvc, store.User{Username: "alice"})

	form := url.Values{
		"name":   {"Alice"},
		"email":  {"alice@example.com"},
		"bio":    {"hi"},
		"genres": {"Jazz", "Pop"},
		"moods":  {"Chill"},
	}
	req := postForm("/profile", form)
	req.AddCookie(cookie)
	rr := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/profile" {
		t.Fatalf("expected 303 to /profile, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	got := userSvc.lastUpdate
	if got.Name != "Alice" || got.Bio != "hi" || len(got.FavoriteGenres) != 2 || len(got.FavoriteMoods) != 1 {
		t.Fatalf("unexpected profile update: %+v", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(cookie)
	rr = httptest.NewRecorder()
	srv.Routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `value="Jazz" checked`) {
		t.Fatalf("expected saved genre to be checked, got %s", rr.Body.String())
	}
}

func TestRecommendationsParsesQuery(t *testing.T) {
	srv, userSvc, songSvc, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/recommendations?mood=Chill&genre=Jazz&q=+love+", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(loggedIn(userSvc, store.User{Username: "alice"}))
	rr := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	want := recommend.Query{Mood: "Chill", Genre: "Jazz", Text: "love"}
	if songSvc.lastQuery != want {
		t.Fatalf("expected query %+v, got %+v", want, songSvc.lastQuery)
	}

	var body recommendationsView
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Q != "love" || len(body.Songs) != 2 || len(body.AllGenres) != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestPlaylistUsesRouteMood(t *testing.T) {
	srv, userSvc, songSvc, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/playlist/Chill", nil)
	req.AddCookie(loggedIn(userSvc, store.User{Username: "alice"}))
	rr := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if songSvc.lastPlaylist != "Chill" {
		t.Fatalf("expected playlist mood Chill, got %q", songSvc.lastPlaylist)
	}
}

func TestSongPage(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantCode  int
		wantLoc   string
		wantPlays int
	}{
		{name: "known song", path: "/song/1", wantCode: http.StatusOK, wantPlays: 1},
		{name: "unknown song", path: "/song/999", wantCode: http.StatusFound, wantLoc: "/recommendations"},
		{name: "malformed id", path: "/song/abc", wantCode: http.StatusFound, wantLoc: "/recommendations"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, userSvc, _, rec := setupServer(t)

			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			req.AddCookie(loggedIn(userSvc, store.User{Username: "alice"}))
			rr := httptest.NewRecorder()
			srv.Routes().ServeHTTP(rr, req)

			if rr.Code != tc.wantCode {
				t.Fatalf("expected status %d, got %d", tc.wantCode, rr.Code)
			}
			if loc := rr.Header().Get("Location"); loc != tc.wantLoc {
				t.Fatalf("expected location %q, got %q", tc.wantLoc, loc)
			}
			if rec.plays != tc.wantPlays {
				t.Fatalf("expected %d recorded plays, got %d", tc.wantPlays, rec.plays)
			}
			if tc.wantCode == http.StatusOK && !strings.Contains(rr.Body.String(), `src="/static/previews/preview1.wav"`) {
				t.Fatalf("expected preview audio element, got %s", rr.Body.String())
			}
		})
	}
}

func TestSongPageJSON(t *testing.T) {
	srv, userSvc, _, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/song/2", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(loggedIn(userSvc, store.User{Username: "alice"}))
	rr := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rr, req)

	var body songView
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Song.ID != 2 || body.Song.Plays != 21 || body.User.Username != "alice" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestSessionTokenFallsBackToBearer(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc ")
	if got := sessionToken(req); got != "abc" {
		t.Fatalf("expected bearer token, got %q", got)
	}

	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "cookie"})
	if got := sessionToken(req); got != "cookie" {
		t.Fatalf("expected cookie to win, got %q", got)
	}
}

func TestAuthLimiterWrapsFormPosts(t *testing.T) {
	var wrapped int
	limiter := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped++
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	srv := New(newStubUserService(), &stubSongService{}, Config{AuthLimiter: limiter})
	router := srv.Routes()

	for _, path := range []string{"/login", "/register"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, postForm(path, url.Values{}))
		if rr.Code != http.StatusTooManyRequests {
			t.Fatalf("%s: expected limiter response, got %d", path, rr.Code)
		}
	}
	if wrapped != 2 {
		t.Fatalf("expected limiter to run twice, got %d", wrapped)
	}
}
