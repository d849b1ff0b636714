package httpapi

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"slices"
	"strings"
	"time"

	"moodtunes/internal/logging"
	"moodtunes/internal/session"
)

const sessionCookie = "session"

const (
	pageLogin           = "login.html"
	pageRegister        = "register.html"
	pageHome            = "home.html"
	pageProfile         = "profile.html"
	pageRecommendations = "recommendations.html"
	pagePlaylist        = "playlist.html"
	pageSong            = "song.html"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = mustParsePages(
	pageLogin,
	pageRegister,
	pageHome,
	pageProfile,
	pageRecommendations,
	pagePlaylist,
	pageSong,
)

var templateFuncs = template.FuncMap{
	"contains": slices.Contains[[]string, string],
}

func mustParsePages(names ...string) map[string]*template.Template {
	parsed := make(map[string]*template.Template, len(names))
	for _, name := range names {
		parsed[name] = template.Must(template.New(name).Funcs(templateFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name))
	}
	return parsed
}

type errorResponse struct {
	Error string `json:"error"`
}

// render writes view as the named page, or as JSON when the client asked for it.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, view any) {
	if wantsJSON(r) {
		writeJSON(w, status, view)
		return
	}

	tmpl, ok := pages[page]
	if !ok {
		s.serverError(w, r, fmt.Errorf("unknown page %q", page))
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", view); err != nil {
		s.serverError(w, r, fmt.Errorf("render %s: %w", page, err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// formError re-renders a form with its inline message. Browsers get 200 so the
// form shows; JSON clients get the error status.
func (s *Server) formError(w http.ResponseWriter, r *http.Request, status int, page string, view any) {
	if !wantsJSON(r) {
		status = http.StatusOK
	}
	s.render(w, r, status, page, view)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	logging.FromContext(r.Context()).Error().Err(err).
		Str("path", r.URL.Path).
		Msg("request failed")
	if wantsJSON(r) {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func (s *Server) setSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(session.DefaultTTL / time.Second),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionToken reads the session cookie, falling back to a bearer token for
// API clients.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return parseBearerToken(r.Header.Get("Authorization"))
}

func parseBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
