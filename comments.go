package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

func commentsQuery() sq.SelectBuilder {
	return sq.Select("cm.id", "cm.post_id", "cm.text", "cm.created_at", "u.id", "u.username").
		From("comments cm").
		Join("users u ON u.id = cm.author_id")
}

func scanComment(row interface{ Scan(...any) error }) (*Comment, error) {
	var c Comment
	if err := row.Scan(&c.ID, &c.PostID, &c.Text, &c.CreatedAt, &c.Author.ID, &c.Author.Username); err != nil {
		return nil, err
	}
	return &c, nil
}

// listComments returns the comments of a post, oldest first.
func listComments(ctx context.Context, db *sql.DB, postID int64) ([]Comment, error) {
	query, args, err := commentsQuery().
		Where(sq.Eq{"cm.post_id": postID}).
		OrderBy("cm.created_at ASC", "cm.id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing comments of post %d: %w", postID, err)
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

// listVisibleCommentsFor returns the comments viewer may read. The post
// author sees them all; anyone else sees them only while the post is
// publicly visible.
func listVisibleCommentsFor(ctx context.Context, db *sql.DB, post Post, viewer *User, now time.Time) ([]Comment, error) {
	if !isAuthor(post, viewer) && !isPubliclyVisible(post, now) {
		return nil, nil
	}
	return listComments(ctx, db, post.ID)
}

// getComment returns comment id of post postID. A comment that belongs to
// another post is reported as ErrNotFound.
func getComment(ctx context.Context, db *sql.DB, postID, id int64) (*Comment, error) {
	query, args, err := commentsQuery().
		Where(sq.Eq{"cm.id": id, "cm.post_id": postID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	c, err := scanComment(db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("comment %d", id))
	}
	return c, nil
}

func createComment(ctx context.Context, db *sql.DB, postID, authorID int64, text string) (int64, error) {
	query, args, err := sq.Insert("comments").
		Columns("post_id", "author_id", "text", "created_at").
		Values(postID, authorID, text, dbTime(time.Now())).
		ToSql()
	if err != nil {
		return 0, err
	}
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapError(err, fmt.Sprintf("comment on post %d", postID))
	}
	return result.LastInsertId()
}

func updateComment(ctx context.Context, db *sql.DB, id int64, text string) error {
	result, err := db.ExecContext(ctx, "UPDATE comments SET text = ? WHERE id = ?", text, id)
	if err != nil {
		return fmt.Errorf("updating comment %d: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("comment %d: %w", id, ErrNotFound)
	}
	return nil
}

func deleteComment(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, "DELETE FROM comments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting comment %d: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("comment %d: %w", id, ErrNotFound)
	}
	return nil
}
