package domain

import "time"

// Comment is an append-only note on a bug thread.
type Comment struct {
	ID        string
	BugID     string
	AuthorID  string
	Body      string
	CreatedAt time.Time
}

// CommentWithAuthor carries a comment joined with the author display name.
type CommentWithAuthor struct {
	Comment
	AuthorName string
}
