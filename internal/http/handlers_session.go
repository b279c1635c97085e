package http

import (
	"context"
	"net/http"

	"freelanceflow/internal/auth"
	"freelanceflow/internal/log"
)

type ctxKey string

const identityKey ctxKey = "identity"

// requireAuth resolves the caller's session and stores the identity in the
// request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r, auth.CookieName)
		id, err := s.deps.Auth.Authenticate(r.Context(), token)
		if err != nil {
			if token != "" {
				s.clearCookie(w)
			}
			writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, id)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUserID, id.UserID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFrom(ctx context.Context) auth.Identity {
	id, _ := ctx.Value(identityKey).(auth.Identity)
	return id
}

func userID(r *http.Request) string { return identityFrom(r.Context()).UserID }

func (s *Server) setCookie(w http.ResponseWriter, sess auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.deps.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   auth.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleGuest(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Auth.Guest(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.setCookie(w, sess)
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := s.deps.Auth.Login(r.Context(), sanitizeInput(c.Email), c.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.setCookie(w, sess)
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := s.deps.Auth.Register(r.Context(), sanitizeInput(c.Name), sanitizeInput(c.Email), c.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.setCookie(w, sess)
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, identityFrom(r.Context()))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Auth.Logout(r.Context(), bearerToken(r, auth.CookieName)); err != nil {
		writeError(w, r, err)
		return
	}
	s.clearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
