package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// PostInput holds the author-editable fields of a post.
type PostInput struct {
	Title      string
	Text       string
	PubDate    time.Time
	CategoryID int64
}

// postFilter narrows a post listing. Zero values mean "any".
type postFilter struct {
	AuthorID   int64
	CategoryID int64
	// VisibleAt keeps only posts publicly visible at that instant.
	VisibleAt *time.Time
}

func (f postFilter) apply(b sq.SelectBuilder) sq.SelectBuilder {
	if f.AuthorID != 0 {
		b = b.Where(sq.Eq{"p.author_id": f.AuthorID})
	}
	if f.CategoryID != 0 {
		b = b.Where(sq.Eq{"p.category_id": f.CategoryID})
	}
	if f.VisibleAt != nil {
		b = b.Where(sq.Eq{"p.is_published": true, "c.is_published": true}).
			Where(sq.LtOrEq{"p.pub_date": dbTime(*f.VisibleAt)})
	}
	return b
}

// Page is one page of a listing. Number is 1-based.
type Page[T any] struct {
	Items  []T
	Number int
	Size   int
	Total  int
}

func (p Page[T]) NumPages() int {
	if p.Total == 0 || p.Size <= 0 {
		return 1
	}
	return (p.Total + p.Size - 1) / p.Size
}

func (p Page[T]) HasPrev() bool { return p.Number > 1 }
func (p Page[T]) HasNext() bool { return p.Number < p.NumPages() }
func (p Page[T]) Prev() int     { return p.Number - 1 }
func (p Page[T]) Next() int     { return p.Number + 1 }

const postSelect = `p.id, p.title, p.text, p.pub_date, p.is_published, p.created_at,
	u.id, u.username, u.first_name, u.last_name,
	c.id, c.title, c.slug, c.is_published,
	COUNT(cm.id)`

// postsQuery selects posts with author, category and comment count.
func postsQuery() sq.SelectBuilder {
	return sq.Select(postSelect).
		From("posts p").
		Join("users u ON u.id = p.author_id").
		Join("categories c ON c.id = p.category_id").
		LeftJoin("comments cm ON cm.post_id = p.id").
		GroupBy("p.id")
}

func scanPost(row interface{ Scan(...any) error }) (*Post, error) {
	var p Post
	err := row.Scan(
		&p.ID, &p.Title, &p.Text, &p.PubDate, &p.IsPublished, &p.CreatedAt,
		&p.Author.ID, &p.Author.Username, &p.Author.FirstName, &p.Author.LastName,
		&p.Category.ID, &p.Category.Title, &p.Category.Slug, &p.Category.IsPublished,
		&p.CommentCount,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// listPosts returns page number of the posts matching f, newest pub_date
// first. A page outside [1, NumPages] yields ErrNotFound; page 1 of an
// empty listing is valid.
func listPosts(ctx context.Context, db *sql.DB, f postFilter, number, size int) (*Page[Post], error) {
	page := &Page[Post]{Number: number, Size: size}

	countQuery, args, err := f.apply(sq.Select("COUNT(*)").
		From("posts p").
		Join("categories c ON c.id = p.category_id")).
		ToSql()
	if err != nil {
		return nil, err
	}
	if err := db.QueryRowContext(ctx, countQuery, args...).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("counting posts: %w", err)
	}
	if number < 1 || number > page.NumPages() {
		return nil, fmt.Errorf("page %d: %w", number, ErrNotFound)
	}

	query, args, err := f.apply(postsQuery()).
		OrderBy("p.pub_date DESC", "p.id DESC").
		Limit(uint64(size)).
		Offset(uint64((number - 1) * size)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return page, nil
}

// listVisiblePosts returns the posts anyone may see at now.
func listVisiblePosts(ctx context.Context, db *sql.DB, now time.Time, number, size int) (*Page[Post], error) {
	return listPosts(ctx, db, postFilter{VisibleAt: &now}, number, size)
}

func getPostByID(ctx context.Context, db *sql.DB, id int64) (*Post, error) {
	query, args, err := postsQuery().Where(sq.Eq{"p.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	p, err := scanPost(db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("post %d", id))
	}
	return p, nil
}

// createPost inserts a published post owned by authorID.
func createPost(ctx context.Context, db *sql.DB, authorID int64, in PostInput) (int64, error) {
	query, args, err := sq.Insert("posts").
		Columns("title", "text", "pub_date", "is_published", "created_at", "author_id", "category_id").
		Values(in.Title, in.Text, dbTime(in.PubDate), true, dbTime(time.Now()), authorID, in.CategoryID).
		ToSql()
	if err != nil {
		return 0, err
	}
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapError(err, "post")
	}
	return result.LastInsertId()
}

// updatePost rewrites the editable fields. Author and is_published are
// never touched here.
func updatePost(ctx context.Context, db *sql.DB, id int64, in PostInput) error {
	query, args, err := sq.Update("posts").
		Set("title", in.Title).
		Set("text", in.Text).
		Set("pub_date", dbTime(in.PubDate)).
		Set("category_id", in.CategoryID).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err, fmt.Sprintf("post %d", id))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	return nil
}

// deletePost removes the post and its comments in one transaction.
func deletePost(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM comments WHERE post_id = ?", id); err != nil {
		return fmt.Errorf("deleting comments of post %d: %w", id, err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting post %d: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	return tx.Commit()
}
