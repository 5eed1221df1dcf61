package main

import "time"

// isPubliclyVisible reports whether anyone may see post at time now.
func isPubliclyVisible(post Post, now time.Time) bool {
	return post.IsPublished && post.Category.IsPublished && !post.PubDate.After(now)
}

// canView reports whether viewer may open the detail page of post.
// The author always can, even while the post is hidden from everyone else.
func canView(post Post, viewer *User, now time.Time) bool {
	return isAuthor(post, viewer) || isPubliclyVisible(post, now)
}

type authored interface {
	authorID() int64
}

func (p Post) authorID() int64    { return p.Author.ID }
func (c Comment) authorID() int64 { return c.Author.ID }

// canEdit reports whether actor owns entity. Anonymous actors own nothing.
func canEdit(entity authored, actor *User) bool {
	return actor != nil && actor.ID != 0 && entity.authorID() == actor.ID
}

func isAuthor(post Post, viewer *User) bool {
	return canEdit(post, viewer)
}
