package main

import (
	"errors"
	"log/slog"
	"net/http"
)

const usernameTakenMsg = "A user with that username already exists."

func (b *Blog) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		b.render(w, r, http.StatusOK, "login.html", map[string]any{
			"Title": "Login",
			"Next":  r.URL.Query().Get("next"),
		})
		return
	}

	if !b.parseFormWithCSRF(w, r) {
		return
	}

	username := r.PostFormValue("username")
	next := r.PostFormValue("next")

	user, err := authenticate(r.Context(), b.db, username, r.PostFormValue("password"))
	if errors.Is(err, ErrUnauthorized) {
		b.render(w, r, http.StatusUnauthorized, "login.html", map[string]any{
			"Title":    "Login",
			"Next":     next,
			"Username": username,
			"Error":    "Invalid username or password.",
		})
		return
	}
	if err != nil {
		b.serverError(w, r, err)
		return
	}

	session, err := createSession(r.Context(), b.db, user.ID, b.cfg.Auth.SessionTTL)
	if err != nil {
		b.serverError(w, r, err)
		return
	}
	b.setSessionCookie(w, session)

	b.log.InfoContext(r.Context(), "user logged in", slog.Int64("user_id", user.ID))
	http.Redirect(w, r, safeRedirect(next), http.StatusSeeOther)
}

func (b *Blog) Logout(w http.ResponseWriter, r *http.Request) {
	if !b.parseFormWithCSRF(w, r) {
		return
	}

	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := deleteSession(r.Context(), b.db, cookie.Value); err != nil {
			b.serverError(w, r, err)
			return
		}
	}
	clearSessionCookie(w)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (b *Blog) Registration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		b.render(w, r, http.StatusOK, "registration.html", map[string]any{
			"Title": "Registration",
			"Form":  &registrationForm{},
		})
		return
	}

	if !b.parseFormWithCSRF(w, r) {
		return
	}

	form := newRegistrationForm(r)
	if !form.validate() {
		b.render(w, r, http.StatusBadRequest, "registration.html", map[string]any{
			"Title": "Registration",
			"Form":  form,
		})
		return
	}

	hash, err := hashPassword(form.Password1)
	if err != nil {
		b.serverError(w, r, err)
		return
	}

	user, err := createUser(r.Context(), b.db, User{Username: form.Username}, hash)
	if errors.Is(err, ErrAlreadyExists) {
		addError(&form.Errors, "username", usernameTakenMsg)
		b.render(w, r, http.StatusBadRequest, "registration.html", map[string]any{
			"Title": "Registration",
			"Form":  form,
		})
		return
	}
	if err != nil {
		b.serverError(w, r, err)
		return
	}

	b.log.InfoContext(r.Context(), "user registered", slog.Int64("user_id", user.ID))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// EditProfile lets user change their own account fields.
func (b *Blog) EditProfile(w http.ResponseWriter, r *http.Request, user *User) {
	if r.Method != http.MethodPost {
		b.render(w, r, http.StatusOK, "user.html", map[string]any{
			"Title": "Edit profile",
			"Form":  profileFormFor(*user),
			"User":  user,
		})
		return
	}

	if !b.parseFormWithCSRF(w, r) {
		return
	}

	form := newProfileForm(r)
	if form.validate() {
		taken, err := usernameTaken(r.Context(), b.db, form.Username, user.ID)
		if err != nil {
			b.serverError(w, r, err)
			return
		}
		if taken {
			addError(&form.Errors, "username", usernameTakenMsg)
		}
	}

	if form.Errors == nil {
		err := updateUserProfile(r.Context(), b.db, form.apply(*user))
		switch {
		case errors.Is(err, ErrAlreadyExists):
			addError(&form.Errors, "username", usernameTakenMsg)
		case err != nil:
			b.serverError(w, r, err)
			return
		default:
			http.Redirect(w, r, profileURL(form.Username), http.StatusSeeOther)
			return
		}
	}

	b.render(w, r, http.StatusBadRequest, "user.html", map[string]any{
		"Title": "Edit profile",
		"Form":  form,
		"User":  user,
	})
}
