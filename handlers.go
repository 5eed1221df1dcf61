package main

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

func postURL(id int64) string {
	return "/posts/" + strconv.FormatInt(id, 10) + "/"
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// pageNumber reads ?page=, defaulting to 1.
func pageNumber(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// postPage loads the requested page of posts matching f. On failure it has
// already written the response.
func (b *Blog) postPage(w http.ResponseWriter, r *http.Request, f postFilter) (*Page[Post], bool) {
	number, ok := pageNumber(r)
	if !ok {
		b.notFound(w, r)
		return nil, false
	}

	page, err := listPosts(r.Context(), b.db, f, number, b.cfg.Blog.PageSize)
	if errors.Is(err, ErrNotFound) {
		b.notFound(w, r)
		return nil, false
	}
	if err != nil {
		b.serverError(w, r, err)
		return nil, false
	}
	return page, true
}

func (b *Blog) Index(w http.ResponseWriter, r *http.Request) {
	now := b.now()
	page, ok := b.postPage(w, r, postFilter{VisibleAt: &now})
	if !ok {
		return
	}

	b.render(w, r, http.StatusOK, "index.html", map[string]any{
		"Title": "Latest posts",
		"Page":  page,
	})
}

func (b *Blog) CategoryPosts(w http.ResponseWriter, r *http.Request) {
	category, err := getPublishedCategory(r.Context(), b.db, r.PathValue("slug"))
	if errors.Is(err, ErrNotFound) {
		b.notFound(w, r)
		return
	}
	if err != nil {
		b.serverError(w, r, err)
		return
	}

	now := b.now()
	page, ok := b.postPage(w, r, postFilter{CategoryID: category.ID, VisibleAt: &now})
	if !ok {
		return
	}

	b.render(w, r, http.StatusOK, "category.html", map[string]any{
		"Title":    category.Title,
		"Category": category,
		"Page":     page,
	})
}

// Profile lists the posts of one user. The owner also sees posts that are
// hidden, scheduled or filed under a hidden category.
func (b *Blog) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := getUserByUsername(r.Context(), b.db, r.PathValue("username"))
	if errors.Is(err, ErrNotFound) {
		b.notFound(w, r)
		return
	}
	if err != nil {
		b.serverError(w, r, err)
		return
	}

	viewer := b.currentUser(r)
	filter := postFilter{AuthorID: profile.ID}
	if viewer == nil || viewer.ID != profile.ID {
		now := b.now()
		filter.VisibleAt = &now
	}

	page, ok := b.postPage(w, r, filter)
	if !ok {
		return
	}

	b.render(w, r, http.StatusOK, "profile.html", map[string]any{
		"Title":   profile.Username,
		"Profile": profile,
		"IsOwner": viewer != nil && viewer.ID == profile.ID,
		"Page":    page,
		"User":    viewer,
	})
}

// PostDetail shows a post with its comments. Posts that are not publicly
// visible answer 404 to everyone except their author.
func (b *Blog) PostDetail(w http.ResponseWriter, r *http.Request) {
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

	viewer := b.currentUser(r)
	now := b.now()
	if !canView(*post, viewer, now) {
		b.notFound(w, r)
		return
	}

	comments, err := listVisibleCommentsFor(r.Context(), b.db, *post, viewer, now)
	if err != nil {
		b.serverError(w, r, err)
		return
	}

	b.render(w, r, http.StatusOK, "detail.html", map[string]any{
		"Title":    post.Title,
		"Post":     post,
		"Comments": comments,
		"Form":     &commentForm{},
		"IsAuthor": isAuthor(*post, viewer),
		"User":     viewer,
	})
}

func (b *Blog) staticPage(page, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.render(w, r, http.StatusOK, page, map[string]any{"Title": title})
	}
}
