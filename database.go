package main

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// sqliteTime matches CURRENT_TIMESTAMP so stored times compare as text.
const sqliteTime = "2006-01-02 15:04:05"

func dbTime(t time.Time) string {
	return t.UTC().Format(sqliteTime)
}

func openDB(path string) (*sql.DB, error) {
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// mapError converts driver errors to the package sentinels.
func mapError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%s: %w", entity, ErrAlreadyExists)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%s: %w", entity, ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", entity, err)
}

func newMigrator(db *sql.DB) (*goose.Provider, error) {
	migrations, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(goose.DialectSQLite3, db, migrations)
}

// initDB applies every pending migration. It is safe to call on an
// up-to-date database.
func initDB(ctx context.Context, db *sql.DB) error {
	migrator, err := newMigrator(db)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	results, err := migrator.Up(ctx)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	for _, res := range results {
		slog.Info("migration applied",
			slog.Int64("version", res.Source.Version),
			slog.Duration("duration", res.Duration),
		)
	}
	return nil
}

// seedDB fills an empty database with a demo author, category and posts.
func seedDB(ctx context.Context, db *sql.DB, password string) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	author, err := createUser(ctx, db, User{Username: "author", FirstName: "Demo", LastName: "Author"}, hash)
	if err != nil {
		return fmt.Errorf("seeding author: %w", err)
	}

	category, err := createCategory(ctx, db, Category{
		Title:       "Travel",
		Slug:        "travel",
		Description: "Notes from the road.",
		IsPublished: true,
	})
	if err != nil {
		return fmt.Errorf("seeding category: %w", err)
	}

	now := time.Now()
	posts := []PostInput{
		{Title: "Hey now", Text: "Everything is awesome!", PubDate: now.AddDate(0, 0, -2), CategoryID: category.ID},
		{Title: "What's the deal?", Text: "What is happening?!", PubDate: now.AddDate(0, 0, -1), CategoryID: category.ID},
		{Title: "Coming soon", Text: "Scheduled for next week.", PubDate: now.AddDate(0, 0, 7), CategoryID: category.ID},
	}
	for _, in := range posts {
		if _, err := createPost(ctx, db, author.ID, in); err != nil {
			return fmt.Errorf("seeding post %q: %w", in.Title, err)
		}
	}

	slog.Info("seeded demo data", slog.String("username", author.Username))
	return nil
}
