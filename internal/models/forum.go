package models

import "time"

// Post is a forum thread.
type Post struct {
	ID        int       `db:"id" json:"id"`
	AuthorID  *int      `db:"author_id" json:"author_id,omitempty"`
	Title     string    `db:"title" json:"title"`
	Body      string    `db:"body" json:"body"`
	Category  string    `db:"category" json:"category"`
	Upvotes   int       `db:"upvotes" json:"upvotes"`
	Downvotes int       `db:"downvotes" json:"downvotes"`
	Reshares  int       `db:"reshares" json:"reshares"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Comment is a reply inside a thread.
type Comment struct {
	ID        int       `db:"id" json:"id"`
	PostID    int       `db:"post_id" json:"post_id"`
	AuthorID  *int      `db:"author_id" json:"author_id,omitempty"`
	Body      string    `db:"body" json:"body"`
	Upvotes   int       `db:"upvotes" json:"upvotes"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PostPreview is the reduced view served to anonymous visitors: truncated
// body, no author identity, no counters.
type PostPreview struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Excerpt   string    `json:"excerpt"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}
