package main

import (
	"errors"
	"net/http"
)

// AddComment attaches a comment by user to the post in the path. The post
// only has to exist.
func (b *Blog) AddComment(w http.ResponseWriter, r *http.Request, user *User) {
	id, ok := pathID(r, "post_id")
	if !ok {
		b.notFound(w, r)
		return
	}

	post, err := getPostByID(r.Context(), b.db, id)
	if errors.Is(err, ErrNotFound) {
		b.notFound(w, r)
		return
	}
	if err != nil {
		b.serverError(w, r, err)
		return
	}

	if !b.parseFormWithCSRF(w, r) {
		return
	}

	form := newCommentForm(r)
	if !form.validate() {
		b.render(w, r, http.StatusBadRequest, "comment.html", map[string]any{
			"Title":  "Add comment",
			"Form":   form,
			"PostID": post.ID,
			"User":   user,
		})
		return
	}

	if _, err := createComment(r.Context(), b.db, post.ID, user.ID, form.Text); err != nil {
		b.serverError(w, r, err)
		return
	}

	http.Redirect(w, r, postURL(post.ID), http.StatusSeeOther)
}

// ownedComment loads the comment named by the path for a write action,
// mirroring ownedPost: 404 when missing, redirect to the post page when
// user is not the author.
func (b *Blog) ownedComment(w http.ResponseWriter, r *http.Request, user *User) (*Comment, bool) {
	postID, ok := pathID(r, "post_id")
	if !ok {
		b.notFound(w, r)
		return nil, false
	}
	commentID, ok := pathID(r, "comment_id")
	if !ok {
		b.notFound(w, r)
		return nil, false
	}

	comment, err := getComment(r.Context(), b.db, postID, commentID)
	if errors.Is(err, ErrNotFound) {
		b.notFound(w, r)
		return nil, false
	}
	if err != nil {
		b.serverError(w, r, err)
		return nil, false
	}

	if !canEdit(*comment, user) {
		http.Redirect(w, r, postURL(comment.PostID), http.StatusSeeOther)
		return nil, false
	}
	return comment, true
}

func (b *Blog) EditComment(w http.ResponseWriter, r *http.Request, user *User) {
	comment, ok := b.ownedComment(w, r, user)
	if !ok {
		return
	}

	if r.Method != http.MethodPost {
		b.render(w, r, http.StatusOK, "comment.html", map[string]any{
			"Title":   "Edit comment",
			"Form":    &commentForm{Text: comment.Text},
			"Comment": comment,
			"PostID":  comment.PostID,
			"IsEdit":  true,
			"User":    user,
		})
		return
	}

	if !b.parseFormWithCSRF(w, r) {
		return
	}

	form := newCommentForm(r)
	if !form.validate() {
		b.render(w, r, http.StatusBadRequest, "comment.html", map[string]any{
			"Title":   "Edit comment",
			"Form":    form,
			"Comment": comment,
			"PostID":  comment.PostID,
			"IsEdit":  true,
			"User":    user,
		})
		return
	}

	if err := updateComment(r.Context(), b.db, comment.ID, form.Text); err != nil {
		b.serverError(w, r, err)
		return
	}

	http.Redirect(w, r, postURL(comment.PostID), http.StatusSeeOther)
}

func (b *Blog) DeleteComment(w http.ResponseWriter, r *http.Request, user *User) {
	comment, ok := b.ownedComment(w, r, user)
	if !ok {
		return
	}

	if r.Method != http.MethodPost {
		b.render(w, r, http.StatusOK, "comment.html", map[string]any{
			"Title":    "Delete comment",
			"Comment":  comment,
			"PostID":   comment.PostID,
			"IsDelete": true,
			"User":     user,
		})
		return
	}

	if !b.parseFormWithCSRF(w, r) {
		return
	}

	if err := deleteComment(r.Context(), b.db, comment.ID); err != nil {
		b.serverError(w, r, err)
		return
	}

	http.Redirect(w, r, postURL(comment.PostID), http.StatusSeeOther)
}
