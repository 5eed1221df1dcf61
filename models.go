package main

import "time"

type User struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	DateJoined   time.Time
}

// FullName returns "First Last", falling back to the username.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}

type Category struct {
	ID          int64
	Title       string
	Description string
	Slug        string
	IsPublished bool
	CreatedAt   time.Time
}

type Post struct {
	ID           int64
	Title        string
	Text         string
	PubDate      time.Time
	IsPublished  bool
	CreatedAt    time.Time
	Author       User
	Category     Category
	CommentCount int
}

type Comment struct {
	ID        int64
	PostID    int64
	Author    User
	Text      string
	CreatedAt time.Time
}

type Session struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}
