package main

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
)

//go:embed templates
var templateFS embed.FS

func linebreaks(s string) template.HTML {
	s = template.HTMLEscapeString(s)

	paragraphs := strings.Split(s, "\n\n")
	var result []string

	for _, p := range paragraphs {
		if p = strings.TrimSpace(p); p != "" {
			p = strings.ReplaceAll(strings.ReplaceAll(p, "\r\n", "\n"), "\n", "<br>")
			result = append(result, "<p>"+p+"</p>")
		}
	}

	return template.HTML(strings.Join(result, "\n"))
}

// truncateWords keeps the first n words of s.
func truncateWords(n int, s string) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + " …"
}

var pages = []string{
	"index.html",
	"category.html",
	"profile.html",
	"detail.html",
	"create.html",
	"comment.html",
	"user.html",
	"login.html",
	"registration.html",
	"about.html",
	"rules.html",
	"403csrf.html",
	"404.html",
	"500.html",
}

func loadTemplates() map[string]*template.Template {
	templates := make(map[string]*template.Template)

	funcs := template.FuncMap{
		"linebreaks":    linebreaks,
		"truncatewords": truncateWords,
	}

	for _, page := range pages {
		templates[page] = template.Must(
			template.New("").Funcs(funcs).ParseFS(templateFS,
				"templates/base.html",
				"templates/includes/*.html",
				"templates/"+page,
			))
	}

	return templates
}

// render executes page inside the base layout. The current user and a
// CSRF token are always available to templates.
func (b *Blog) render(w http.ResponseWriter, r *http.Request, status int, page string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["User"]; !ok {
		data["User"] = b.currentUser(r)
	}
	data["CSRFToken"] = b.ensureCSRFToken(w, r)

	var buf bytes.Buffer
	if err := b.templates[page].ExecuteTemplate(&buf, "base", data); err != nil {
		b.log.ErrorContext(r.Context(), "rendering template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (b *Blog) notFound(w http.ResponseWriter, r *http.Request) {
	b.render(w, r, http.StatusNotFound, "404.html", map[string]any{"Title": "Page not found"})
}

func (b *Blog) csrfFailure(w http.ResponseWriter, r *http.Request) {
	b.render(w, r, http.StatusForbidden, "403csrf.html", map[string]any{"Title": "CSRF check failed"})
}

func (b *Blog) serverError(w http.ResponseWriter, r *http.Request, err error) {
	b.log.ErrorContext(r.Context(), "internal error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	b.render(w, r, http.StatusInternalServerError, "500.html", map[string]any{"Title": "Server error", "User": nil})
}
