package main

import (
	"database/sql"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"time"
)

type Blog struct {
	db        *sql.DB
	templates map[string]*template.Template
	cfg       *Config
	log       *slog.Logger
	now       func() time.Time
}

func NewBlog(db *sql.DB, cfg *Config, logger *slog.Logger) *Blog {
	return &Blog{
		db:        db,
		templates: loadTemplates(),
		cfg:       cfg,
		log:       logger,
		now:       time.Now,
	}
}

// Routes returns the application handler with all middleware applied.
func (b *Blog) Routes() http.Handler {
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("GET /{$}", b.Index)
	mux.HandleFunc("GET /posts/{post_id}/{$}", b.PostDetail)
	mux.HandleFunc("GET /category/{slug}/{$}", b.CategoryPosts)
	mux.HandleFunc("GET /profile/{username}/{$}", b.Profile)
	mux.HandleFunc("GET /pages/about/{$}", b.staticPage("about.html", "About"))
	mux.HandleFunc("GET /pages/rules/{$}", b.staticPage("rules.html", "Rules"))
	handleForm(mux, "/auth/login/{$}", b.Login)
	handleForm(mux, "/auth/registration/{$}", b.Registration)
	mux.HandleFunc("POST /auth/logout/{$}", b.Logout)

	// Protected routes
	handleForm(mux, "/posts/create/{$}", b.requireAuth(b.CreatePost))
	handleForm(mux, "/posts/{post_id}/edit/{$}", b.requireAuth(b.EditPost))
	handleForm(mux, "/posts/{post_id}/delete/{$}", b.requireAuth(b.DeletePost))
	mux.HandleFunc("POST /posts/{post_id}/comment/{$}", b.requireAuth(b.AddComment))
	handleForm(mux, "/posts/{post_id}/comment/{comment_id}/edit/{$}", b.requireAuth(b.EditComment))
	handleForm(mux, "/posts/{post_id}/comment/{comment_id}/delete/{$}", b.requireAuth(b.DeleteComment))
	handleForm(mux, "/profile/edit/{$}", b.requireAuth(b.EditProfile))

	mux.HandleFunc("/", b.notFound)

	return chain(
		b.recoverPanics,
		requestID,
		accessLog(b.log),
	)(mux)
}

// handleForm registers h for GET (display) and POST (submit) on path.
// Naming the methods keeps literal paths such as /posts/create/ more
// specific than the GET-only wildcard routes next to them.
func handleForm(mux *http.ServeMux, path string, h http.HandlerFunc) {
	mux.HandleFunc("GET "+path, h)
	mux.HandleFunc("POST "+path, h)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
