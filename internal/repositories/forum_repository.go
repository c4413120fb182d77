package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/AbhishekkSaini/TheSafeVoice/internal/models"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
)

// ForumRepository defines persistence for forum threads and comments.
type ForumRepository interface {
	CreatePost(ctx context.Context, authorID int, title, body, category string) (models.Post, error)
	GetPost(ctx context.Context, postID int) (models.Post, error)
	ListPosts(ctx context.Context, category string, limit int) ([]models.Post, error)
	SearchPosts(ctx context.Context, query string, limit int) ([]models.Post, error)
	UpvotePost(ctx context.Context, postID int) error
	DownvotePost(ctx context.Context, postID int) error
	ResharePost(ctx context.Context, postID int) error
	CreateComment(ctx context.Context, postID, authorID int, body string) (models.Comment, error)
	ListComments(ctx context.Context, postID int) ([]models.Comment, error)
	UpvoteComment(ctx context.Context, commentID int) error
}

// ForumRepo is a sqlx-backed repository.
type ForumRepo struct {
	db *sqlx.DB
}

// NewForumRepo constructs ForumRepo.
func NewForumRepo(db *sqlx.DB) *ForumRepo {
	return &ForumRepo{db: db}
}

// CreatePost stores a new thread.
func (r *ForumRepo) CreatePost(ctx context.Context, authorID int, title, body, category string) (models.Post, error) {
	var post models.Post
	err := r.db.QueryRowxContext(ctx, `INSERT INTO posts (author_id, title, body, category)
        VALUES ($1, $2, $3, $4)
        RETURNING id, author_id, title, body, category, upvotes, downvotes, reshares, created_at`,
		authorID, title, body, category).
		Scan(&post.ID, &post.AuthorID, &post.Title, &post.Body, &post.Category,
			&post.Upvotes, &post.Downvotes, &post.Reshares, &post.CreatedAt)
	return post, err
}

// GetPost fetches a single thread.
func (r *ForumRepo) GetPost(ctx context.Context, postID int) (models.Post, error) {
	var post models.Post
	err := r.db.GetContext(ctx, &post, `SELECT id, author_id, title, body, category, upvotes, downvotes, reshares, created_at
        FROM posts WHERE id=$1`, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Post{}, ErrPostNotFound
	}
	return post, err
}

// ListPosts returns the newest threads, optionally filtered by category.
func (r *ForumRepo) ListPosts(ctx context.Context, category string, limit int) ([]models.Post, error) {
	var posts []models.Post
	if category != "" && category != "all" {
		err := r.db.SelectContext(ctx, &posts, `SELECT id, author_id, title, body, category, upvotes, downvotes, reshares, created_at
            FROM posts WHERE category=$1 ORDER BY created_at DESC LIMIT $2`, category, limit)
		return posts, err
	}
	err := r.db.SelectContext(ctx, &posts, `SELECT id, author_id, title, body, category, upvotes, downvotes, reshares, created_at
        FROM posts ORDER BY created_at DESC LIMIT $1`, limit)
	return posts, err
}

// SearchPosts returns the newest threads whose title or body contains
// the query, case-insensitively.
func (r *ForumRepo) SearchPosts(ctx context.Context, query string, limit int) ([]models.Post, error) {
	var posts []models.Post
	like := "%" + query + "%"
	err := r.db.SelectContext(ctx, &posts, `SELECT id, author_id, title, body, category, upvotes, downvotes, reshares, created_at
        FROM posts WHERE title ILIKE $1 OR body ILIKE $1 ORDER BY created_at DESC LIMIT $2`, like, limit)
	return posts, err
}

// Vote counters are atomic single-statement updates, mirroring the
// stored-procedure counters of the hosted backend they replace.

func (r *ForumRepo) UpvotePost(ctx context.Context, postID int) error {
	return r.bumpPost(ctx, `UPDATE posts SET upvotes = upvotes + 1 WHERE id=$1`, postID)
}

func (r *ForumRepo) DownvotePost(ctx context.Context, postID int) error {
	return r.bumpPost(ctx, `UPDATE posts SET downvotes = downvotes + 1 WHERE id=$1`, postID)
}

func (r *ForumRepo) ResharePost(ctx context.Context, postID int) error {
	return r.bumpPost(ctx, `UPDATE posts SET reshares = reshares + 1 WHERE id=$1`, postID)
}

func (r *ForumRepo) bumpPost(ctx context.Context, query string, postID int) error {
	res, err := r.db.ExecContext(ctx, query, postID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrPostNotFound
	}
	return nil
}

// CreateComment stores a reply in a thread.
func (r *ForumRepo) CreateComment(ctx context.Context, postID, authorID int, body string) (models.Comment, error) {
	var comment models.Comment
	err := r.db.QueryRowxContext(ctx, `INSERT INTO comments (post_id, author_id, body)
        VALUES ($1, $2, $3)
        RETURNING id, post_id, author_id, body, upvotes, created_at`,
		postID, authorID, body).
		Scan(&comment.ID, &comment.PostID, &comment.AuthorID, &comment.Body, &comment.Upvotes, &comment.CreatedAt)
	return comment, err
}

// ListComments returns a thread's comments oldest first.
func (r *ForumRepo) ListComments(ctx context.Context, postID int) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.SelectContext(ctx, &comments, `SELECT id, post_id, author_id, body, upvotes, created_at
        FROM comments WHERE post_id=$1 ORDER BY created_at ASC, id ASC`, postID)
	return comments, err
}

func (r *ForumRepo) UpvoteComment(ctx context.Context, commentID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE comments SET upvotes = upvotes + 1 WHERE id=$1`, commentID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrCommentNotFound
	}
	return nil
}
