package main

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	sessionCookieName = "session"
	csrfCookieName    = "csrf"
	csrfFieldName     = "csrf_token"
	loginPath         = "/auth/login/"
)

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// authenticate returns the user whose credentials match, or ErrUnauthorized.
func authenticate(ctx context.Context, db *sql.DB, username, password string) (*User, error) {
	user, err := getUserByUsername(ctx, db, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !checkPassword(user.PasswordHash, password) {
		return nil, ErrUnauthorized
	}
	return user, nil
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func createSession(ctx context.Context, db *sql.DB, userID int64, ttl time.Duration) (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generating session token: %w", err)
	}

	session := &Session{Token: token, UserID: userID, ExpiresAt: time.Now().Add(ttl).UTC().Truncate(time.Second)}
	_, err = db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, expires_at)
		VALUES (?, ?, ?)`, session.Token, session.UserID, dbTime(session.ExpiresAt))
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}

	return session, nil
}

// getSession returns the unexpired session for token, or ErrNotFound.
func getSession(ctx context.Context, db *sql.DB, token string) (*Session, error) {
	row := db.QueryRowContext(ctx, `
		SELECT token, user_id, expires_at
		FROM sessions
		WHERE token = ? AND expires_at > ?`, token, dbTime(time.Now()))

	var session Session
	if err := row.Scan(&session.Token, &session.UserID, &session.ExpiresAt); err != nil {
		return nil, mapError(err, "session")
	}
	return &session, nil
}

func deleteSession(ctx context.Context, db *sql.DB, token string) error {
	_, err := db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func cleanupExpiredSessions(ctx context.Context, db *sql.DB) (int64, error) {
	result, err := db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", dbTime(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("cleaning up expired sessions: %w", err)
	}
	return result.RowsAffected()
}

func (b *Blog) setSessionCookie(w http.ResponseWriter, s *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   b.cfg.Auth.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Path: "/", MaxAge: -1})
}

// currentUser resolves the session cookie to a user. Anonymous requests,
// unknown or expired sessions all yield nil.
func (b *Blog) currentUser(r *http.Request) *User {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	session, err := getSession(r.Context(), b.db, cookie.Value)
	if err != nil {
		return nil
	}

	user, err := getUserByID(r.Context(), b.db, session.UserID)
	if err != nil {
		return nil
	}
	return user
}

// requireAuth redirects anonymous requests to the login page, keeping the
// requested path in ?next=.
func (b *Blog) requireAuth(next func(http.ResponseWriter, *http.Request, *User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := b.currentUser(r)
		if user == nil {
			http.Redirect(w, r, loginURL(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next(w, r, user)
	}
}

func loginURL(next string) string {
	return loginPath + "?" + url.Values{"next": {next}}.Encode()
}

// safeRedirect keeps next only when it is a local absolute path.
func safeRedirect(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// CSRF protection using the double-submit cookie pattern.

func (b *Blog) setCSRFCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		Secure:   b.cfg.Auth.SecureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(b.cfg.Auth.SessionTTL.Seconds()),
	})
}

func getCSRFToken(r *http.Request) string {
	cookie, err := r.Cookie(csrfCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func validateCSRF(r *http.Request) bool {
	cookieToken := getCSRFToken(r)
	formToken := r.PostFormValue(csrfFieldName)

	if cookieToken == "" || formToken == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(cookieToken), []byte(formToken)) == 1
}

// ensureCSRFToken returns the request's token, issuing a cookie when absent.
func (b *Blog) ensureCSRFToken(w http.ResponseWriter, r *http.Request) string {
	if token := getCSRFToken(r); token != "" {
		return token
	}

	token, err := generateToken()
	if err != nil {
		return ""
	}
	b.setCSRFCookie(w, token)
	return token
}

// parseFormWithCSRF parses the body and checks the CSRF token, rendering
// the 400 or 403 page itself on failure.
func (b *Blog) parseFormWithCSRF(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return false
	}
	if !validateCSRF(r) {
		b.csrfFailure(w, r)
		return false
	}
	return true
}
