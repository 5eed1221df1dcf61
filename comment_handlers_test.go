package main

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddComment(t *testing.T) {
	f := newFixture(t)
	path := fmt.Sprintf("/posts/%d/comment/", f.published.ID)

	w := doRequest(f.blog, loginAs(t, f.blog, newFormRequest(path, url.Values{"text": {"Lovely!"}}), f.bob))

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, postURL(f.published.ID), w.Header().Get("Location"))

	comments, err := listComments(t.Context(), f.blog.db, f.published.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Lovely!", comments[0].Text)
	assert.Equal(t, f.bob.ID, comments[0].Author.ID)
	assert.Equal(t, f.published.ID, comments[0].PostID)
}

func TestAddComment_Anonymous(t *testing.T) {
	f := newFixture(t)
	path := fmt.Sprintf("/posts/%d/comment/", f.published.ID)

	w := doRequest(f.blog, newFormRequest(path, url.Values{"text": {"hi"}}))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), loginPath)
}

func TestAddComment_Invalid(t *testing.T) {
	f := newFixture(t)
	path := fmt.Sprintf("/posts/%d/comment/", f.published.ID)

	w := doRequest(f.blog, loginAs(t, f.blog, newFormRequest(path, url.Values{"text": {"  "}}), f.bob))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), requiredMsg)
	comments, err := listComments(t.Context(), f.blog.db, f.published.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestAddComment_UnknownPost(t *testing.T) {
	f := newFixture(t)

	w := doRequest(f.blog, loginAs(t, f.blog, newFormRequest("/posts/999/comment/", url.Values{"text": {"hi"}}), f.bob))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddComment_GETNotRouted(t *testing.T) {
	f := newFixture(t)

	w := doRequest(f.blog, loginAs(t, f.blog, newGetRequest(fmt.Sprintf("/posts/%d/comment/", f.published.ID)), f.bob))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func commentFixture(t *testing.T) (*fixture, int64, string) {
	t.Helper()
	f := newFixture(t)
	id, err := createComment(t.Context(), f.blog.db, f.published.ID, f.bob.ID, "original")
	require.NoError(t, err)
	return f, id, fmt.Sprintf("/posts/%d/comment/%d/", f.published.ID, id)
}

func TestEditComment_ByAuthor(t *testing.T) {
	f, id, base := commentFixture(t)

	get := doRequest(f.blog, loginAs(t, f.blog, newGetRequest(base+"edit/"), f.bob))
	require.Equal(t, http.StatusOK, get.Code)
	assert.Contains(t, get.Body.String(), "original")

	w := doRequest(f.blog, loginAs(t, f.blog, newFormRequest(base+"edit/", url.Values{"text": {"edited"}}), f.bob))

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, postURL(f.published.ID), w.Header().Get("Location"))
	c, err := getComment(t.Context(), f.blog.db, f.published.ID, id)
	require.NoError(t, err)
	assert.Equal(t, "edited", c.Text)
}

func TestEditComment_ByOtherUser(t *testing.T) {
	f, id, base := commentFixture(t)

	// alice owns the post but not the comment
	for _, req := range []*http.Request{
		newGetRequest(base + "edit/"),
		newFormRequest(base+"edit/", url.Values{"text": {"hijacked"}}),
	} {
		w := doRequest(f.blog, loginAs(t, f.blog, req, f.alice))
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, postURL(f.published.ID), w.Header().Get("Location"))
	}

	c, err := getComment(t.Context(), f.blog.db, f.published.ID, id)
	require.NoError(t, err)
	assert.Equal(t, "original", c.Text)
}

func TestEditComment_WrongPost(t *testing.T) {
	f, id, _ := commentFixture(t)
	path := fmt.Sprintf("/posts/%d/comment/%d/edit/", f.scheduled.ID, id)

	w := doRequest(f.blog, loginAs(t, f.blog, newGetRequest(path), f.bob))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteComment_ByAuthor(t *testing.T) {
	f, id, base := commentFixture(t)

	get := doRequest(f.blog, loginAs(t, f.blog, newGetRequest(base+"delete/"), f.bob))
	require.Equal(t, http.StatusOK, get.Code)
	assert.Contains(t, get.Body.String(), "Delete this comment?")

	w := doRequest(f.blog, loginAs(t, f.blog, newFormRequest(base+"delete/", nil), f.bob))

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, postURL(f.published.ID), w.Header().Get("Location"))
	_, err := getComment(t.Context(), f.blog.db, f.published.ID, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteComment_ByOtherUser(t *testing.T) {
	f, id, base := commentFixture(t)

	w := doRequest(f.blog, loginAs(t, f.blog, newFormRequest(base+"delete/", nil), f.alice))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, postURL(f.published.ID), w.Header().Get("Location"))
	_, err := getComment(t.Context(), f.blog.db, f.published.ID, id)
	assert.NoError(t, err)
}
