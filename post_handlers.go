package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// ownedPost loads the post named by the path for a write action. When the
// post is missing it renders 404; when user is not its author it redirects
// to the post page. In both cases ok is false and the response is written.
func (b *Blog) ownedPost(w http.ResponseWriter, r *http.Request, user *User) (*Post, bool) {
	id, ok := pathID(r, "post_id")
	if !ok {
		b.notFound(w, r)
		return nil, false
	}

	post, err := getPostByID(r.Context(), b.db, id)
	if errors.Is(err, ErrNotFound) {
		b.notFound(w, r)
		return nil, false
	}
	if err != nil {
		b.serverError(w, r, err)
		return nil, false
	}

	if !canEdit(*post, user) {
		http.Redirect(w, r, postURL(post.ID), http.StatusSeeOther)
		return nil, false
	}
	return post, true
}

func (b *Blog) renderPostForm(w http.ResponseWriter, r *http.Request, status int, user *User, data map[string]any) {
	categories, err := listCategories(r.Context(), b.db)
	if err != nil {
		b.serverError(w, r, err)
		return
	}
	data["Categories"] = categories
	data["User"] = user
	b.render(w, r, status, "create.html", data)
}

func (b *Blog) CreatePost(w http.ResponseWriter, r *http.Request, user *User) {
	if r.Method != http.MethodPost {
		form := &postForm{PubDate: b.now().UTC().Format(dateLayout)}
		b.renderPostForm(w, r, http.StatusOK, user, map[string]any{
			"Title": "New post",
			"Form":  form,
		})
		return
	}

	if !b.parseFormWithCSRF(w, r) {
		return
	}

	categories, err := listCategories(r.Context(), b.db)
	if err != nil {
		b.serverError(w, r, err)
		return
	}

	form := newPostForm(r)
	in, ok := form.validate(categories)
	if !ok {
		b.renderPostForm(w, r, http.StatusBadRequest, user, map[string]any{
			"Title": "New post",
			"Form":  form,
		})
		return
	}

	id, err := createPost(r.Context(), b.db, user.ID, in)
	if err != nil {
		b.serverError(w, r, err)
		return
	}

	b.log.InfoContext(r.Context(), "post created",
		slog.Int64("post_id", id),
		slog.Int64("user_id", user.ID),
	)
	http.Redirect(w, r, profileURL(user.Username), http.StatusSeeOther)
}

func (b *Blog) EditPost(w http.ResponseWriter, r *http.Request, user *User) {
	post, ok := b.ownedPost(w, r, user)
	if !ok {
		return
	}

	title := fmt.Sprintf("Editing %q", post.Title)

	if r.Method != http.MethodPost {
		b.renderPostForm(w, r, http.StatusOK, user, map[string]any{
			"Title":  title,
			"Form":   postFormFor(*post),
			"Post":   post,
			"IsEdit": true,
		})
		return
	}

	if !b.parseFormWithCSRF(w, r) {
		return
	}

	categories, err := listCategories(r.Context(), b.db)
	if err != nil {
		b.serverError(w, r, err)
		return
	}

	form := newPostForm(r)
	in, ok := form.validate(categories)
	if !ok {
		b.renderPostForm(w, r, http.StatusBadRequest, user, map[string]any{
			"Title":  title,
			"Form":   form,
			"Post":   post,
			"IsEdit": true,
		})
		return
	}

	if err := updatePost(r.Context(), b.db, post.ID, in); err != nil {
		b.serverError(w, r, err)
		return
	}

	http.Redirect(w, r, postURL(post.ID), http.StatusSeeOther)
}

func (b *Blog) DeletePost(w http.ResponseWriter, r *http.Request, user *User) {
	post, ok := b.ownedPost(w, r, user)
	if !ok {
		return
	}

	if r.Method != http.MethodPost {
		b.renderPostForm(w, r, http.StatusOK, user, map[string]any{
			"Title":    fmt.Sprintf("Deleting %q", post.Title),
			"Form":     postFormFor(*post),
			"Post":     post,
			"IsDelete": true,
		})
		return
	}

	if !b.parseFormWithCSRF(w, r) {
		return
	}

	if err := deletePost(r.Context(), b.db, post.ID); err != nil {
		b.serverError(w, r, err)
		return
	}

	b.log.InfoContext(r.Context(), "post deleted",
		slog.Int64("post_id", post.ID),
		slog.Int64("user_id", user.ID),
	)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
