package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

var userColumns = []string{"id", "username", "first_name", "last_name", "email", "password_hash", "date_joined"}

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.DateJoined)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func getUser(ctx context.Context, db *sql.DB, where sq.Sqlizer) (*User, error) {
	query, args, err := sq.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, err
	}
	u, err := scanUser(db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, "user")
	}
	return u, nil
}

func getUserByID(ctx context.Context, db *sql.DB, id int64) (*User, error) {
	return getUser(ctx, db, sq.Eq{"id": id})
}

func getUserByUsername(ctx context.Context, db *sql.DB, username string) (*User, error) {
	return getUser(ctx, db, sq.Eq{"username": username})
}

// createUser inserts u with an already hashed password.
// Returns ErrAlreadyExists when the username is taken.
func createUser(ctx context.Context, db *sql.DB, u User, passwordHash string) (*User, error) {
	u.PasswordHash = passwordHash
	u.DateJoined = time.Now().UTC().Truncate(time.Second)

	query, args, err := sq.Insert("users").
		Columns("username", "first_name", "last_name", "email", "password_hash", "date_joined").
		Values(u.Username, u.FirstName, u.LastName, u.Email, u.PasswordHash, dbTime(u.DateJoined)).
		ToSql()
	if err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("user %q", u.Username))
	}
	if u.ID, err = result.LastInsertId(); err != nil {
		return nil, err
	}
	return &u, nil
}

// updateUserProfile stores the editable profile fields of u.
func updateUserProfile(ctx context.Context, db *sql.DB, u User) error {
	query, args, err := sq.Update("users").
		Set("username", u.Username).
		Set("first_name", u.FirstName).
		Set("last_name", u.LastName).
		Set("email", u.Email).
		Where(sq.Eq{"id": u.ID}).
		ToSql()
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, fmt.Sprintf("user %q", u.Username))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("user %d: %w", u.ID, ErrNotFound)
	}
	return nil
}

// usernameTaken reports whether another user already has username.
func usernameTaken(ctx context.Context, db *sql.DB, username string, exceptID int64) (bool, error) {
	query, args, err := sq.Select("COUNT(*)").From("users").
		Where(sq.Eq{"username": username}).
		Where(sq.NotEq{"id": exceptID}).
		ToSql()
	if err != nil {
		return false, err
	}
	var count int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
