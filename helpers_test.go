package main

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testNow is the clock of every test blog.
var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

const (
	testPassword  = "s3cret-pass"
	testCSRFToken = "test-csrf-token-12345"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := openDB(filepath.Join(t.TempDir(), "blog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, initDB(context.Background(), db))
	return db
}

func testConfig() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":0", ShutdownTimeout: time.Second},
		Database: DatabaseConfig{Path: "unused.db"},
		Auth:     AuthConfig{SessionTTL: 24 * time.Hour, CleanupInterval: time.Hour},
		Blog:     BlogConfig{PageSize: 10},
		Log:      LogConfig{Level: "error"},
	}
}

func setupTestBlog(t *testing.T) *Blog {
	t.Helper()
	blog := NewBlog(newTestDB(t), testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	blog.now = func() time.Time { return testNow }
	return blog
}

func createTestUser(t *testing.T, db *sql.DB, username string) *User {
	t.Helper()
	hash, err := hashPassword(testPassword)
	require.NoError(t, err)
	u, err := createUser(context.Background(), db, User{Username: username}, hash)
	require.NoError(t, err)
	return u
}

func createTestCategory(t *testing.T, db *sql.DB, slug string, published bool) *Category {
	t.Helper()
	c, err := createCategory(context.Background(), db, Category{
		Title:       strings.ToUpper(slug[:1]) + slug[1:],
		Slug:        slug,
		IsPublished: published,
	})
	require.NoError(t, err)
	return c
}

func createTestPost(t *testing.T, db *sql.DB, author *User, category *Category, title string, pubDate time.Time) *Post {
	t.Helper()
	id, err := createPost(context.Background(), db, author.ID, PostInput{
		Title:      title,
		Text:       "Text of " + title,
		PubDate:    pubDate,
		CategoryID: category.ID,
	})
	require.NoError(t, err)
	p, err := getPostByID(context.Background(), db, id)
	require.NoError(t, err)
	return p
}

// hidePost unpublishes a post the way an administrator would.
func hidePost(t *testing.T, db *sql.DB, id int64) {
	t.Helper()
	_, err := db.Exec("UPDATE posts SET is_published = 0 WHERE id = ?", id)
	require.NoError(t, err)
}

func newGetRequest(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, target, nil)
}

// newFormRequest builds a POST carrying a valid CSRF cookie and field.
func newFormRequest(target string, form url.Values) *http.Request {
	if form == nil {
		form = url.Values{}
	}
	form.Set(csrfFieldName, testCSRFToken)
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: testCSRFToken})
	return req
}

// loginAs attaches a fresh session of u to req.
func loginAs(t *testing.T, blog *Blog, req *http.Request, u *User) *http.Request {
	t.Helper()
	s, err := createSession(context.Background(), blog.db, u.ID, time.Hour)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: s.Token})
	return req
}

func doRequest(blog *Blog, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	blog.Routes().ServeHTTP(w, req)
	return w
}

// fixture is the common two-author world used by handler tests.
type fixture struct {
	blog      *Blog
	alice     *User
	bob       *User
	travel    *Category
	published *Post // visible to everyone
	scheduled *Post // pub_date tomorrow
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	blog := setupTestBlog(t)
	f := &fixture{
		blog:   blog,
		alice:  createTestUser(t, blog.db, "alice"),
		bob:    createTestUser(t, blog.db, "bob"),
		travel: createTestCategory(t, blog.db, "travel", true),
	}
	f.published = createTestPost(t, blog.db, f.alice, f.travel, "Yesterday's post", testNow.AddDate(0, 0, -1))
	f.scheduled = createTestPost(t, blog.db, f.alice, f.travel, "Tomorrow's post", testNow.AddDate(0, 0, 1))
	return f
}
