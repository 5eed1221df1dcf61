package main

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
)

var categoryColumns = []string{"id", "title", "description", "slug", "is_published", "created_at"}

func scanCategory(row interface{ Scan(...any) error }) (*Category, error) {
	var c Category
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Slug, &c.IsPublished, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func getCategory(ctx context.Context, db *sql.DB, where sq.Sqlizer) (*Category, error) {
	query, args, err := sq.Select(categoryColumns...).From("categories").Where(where).ToSql()
	if err != nil {
		return nil, err
	}
	c, err := scanCategory(db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, "category")
	}
	return c, nil
}

func getCategoryByID(ctx context.Context, db *sql.DB, id int64) (*Category, error) {
	return getCategory(ctx, db, sq.Eq{"id": id})
}

// getPublishedCategory returns the category with slug, or ErrNotFound when
// it does not exist or is hidden.
func getPublishedCategory(ctx context.Context, db *sql.DB, slug string) (*Category, error) {
	return getCategory(ctx, db, sq.Eq{"slug": slug, "is_published": true})
}

func getCategoryBySlug(ctx context.Context, db *sql.DB, slug string) (*Category, error) {
	return getCategory(ctx, db, sq.Eq{"slug": slug})
}

func listCategories(ctx context.Context, db *sql.DB) ([]Category, error) {
	query, args, err := sq.Select(categoryColumns...).From("categories").OrderBy("title", "id").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

// createCategory inserts c. An empty slug is derived from the title.
func createCategory(ctx context.Context, db *sql.DB, c Category) (*Category, error) {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		ve := &ValidationError{}
		ve.Add("title", "This field is required.")
		return nil, ve
	}
	if c.Slug == "" {
		c.Slug = generateSlug(c.Title)
	}
	if !validSlug(c.Slug) {
		ve := &ValidationError{}
		ve.Add("slug", "Use only latin letters, digits, hyphens and underscores.")
		return nil, ve
	}
	c.CreatedAt = time.Now().UTC().Truncate(time.Second)

	query, args, err := sq.Insert("categories").
		Columns("title", "description", "slug", "is_published", "created_at").
		Values(c.Title, c.Description, c.Slug, c.IsPublished, dbTime(c.CreatedAt)).
		ToSql()
	if err != nil {
		return nil, err
	}
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("category %q", c.Slug))
	}
	if c.ID, err = result.LastInsertId(); err != nil {
		return nil, err
	}
	return &c, nil
}

func setCategoryPublished(ctx context.Context, db *sql.DB, slug string, published bool) error {
	query, args, err := sq.Update("categories").
		Set("is_published", published).
		Where(sq.Eq{"slug": slug}).
		ToSql()
	if err != nil {
		return err
	}
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, fmt.Sprintf("category %q", slug))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("category %q: %w", slug, ErrNotFound)
	}
	return nil
}

var (
	slugPattern  = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

func validSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// generateSlug lowercases title and joins its alphanumeric runs with hyphens.
// Titles with nothing usable become "untitled".
func generateSlug(title string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "untitled"
	}
	return slug
}
