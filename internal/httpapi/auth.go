package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"moodtunes/internal/store"
)

type authView struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if _, err := s.users.Resolve(r.Context(), sessionToken(r)); err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/home", http.StatusFound)
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageLogin, authView{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.formError(w, r, http.StatusBadRequest, pageLogin, authView{Error: "Invalid form submission"})
		return
	}
	username := r.PostForm.Get("username")

	token, err := s.users.Login(r.Context(), username, r.PostForm.Get("password"))
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			s.metrics.LoginAttempt("invalid")
			s.formError(w, r, http.StatusUnauthorized, pageLogin, authView{Username: username, Error: "Invalid credentials"})
			return
		}
		s.metrics.LoginAttempt("error")
		s.serverError(w, r, err)
		return
	}

	s.metrics.LoginAttempt("success")
	s.setSession(w, token)
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageRegister, authView{})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.formError(w, r, http.StatusBadRequest, pageRegister, authView{Error: "Invalid form submission"})
		return
	}
	view := authView{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Email:    r.PostForm.Get("email"),
	}

	token, err := s.users.Register(r.Context(), view.Username, r.PostForm.Get("password"), view.Email)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrUserExists):
			view.Error = "Username already exists"
			s.formError(w, r, http.StatusConflict, pageRegister, view)
		case errors.Is(err, store.ErrInvalidUser):
			view.Error = "Username and password are required"
			s.formError(w, r, http.StatusBadRequest, pageRegister, view)
		default:
			s.serverError(w, r, err)
		}
		return
	}

	s.metrics.UserRegistered()
	s.setSession(w, token)
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := s.users.Logout(r.Context(), token); err != nil {
			s.serverError(w, r, err)
			return
		}
	}
	s.clearSession(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}
