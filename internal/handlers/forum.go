package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/AbhishekkSaini/TheSafeVoice/internal/models"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/repositories"
)

const (
	forumPageSize   = 50
	previewPageSize = 5
	previewExcerpt  = 160
)

// ForumHandler manages the community forum. Listing endpoints are
// privacy-tiered: anonymous visitors get a short preview with truncated
// bodies and no author identity, signed-in users get the full view.
type ForumHandler struct {
	forum repositories.ForumRepository
}

// NewForumHandler builds a ForumHandler.
func NewForumHandler(forum repositories.ForumRepository) *ForumHandler {
	return &ForumHandler{forum: forum}
}

// ListPosts returns the newest threads, tiered by authentication.
func (h *ForumHandler) ListPosts(c *gin.Context) {
	_, authed := c.Get("userID")
	category := c.Query("category")

	limit := forumPageSize
	if !authed {
		limit = previewPageSize
	}

	posts, err := h.forum.ListPosts(c.Request.Context(), category, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load posts"})
		return
	}

	if authed {
		c.JSON(http.StatusOK, gin.H{"posts": posts})
		return
	}

	previews := make([]models.PostPreview, 0, len(posts))
	for _, p := range posts {
		previews = append(previews, previewOf(p))
	}
	c.JSON(http.StatusOK, gin.H{"posts": previews, "preview": true})
}

// GetPost returns one thread, tiered by authentication.
func (h *ForumHandler) GetPost(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	post, err := h.forum.GetPost(c.Request.Context(), postID)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load post"})
		return
	}

	if _, authed := c.Get("userID"); !authed {
		c.JSON(http.StatusOK, gin.H{"post": previewOf(post), "preview": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// CreatePost stores a new thread.
func (h *ForumHandler) CreatePost(c *gin.Context) {
	var req struct {
		Title    string `json:"title" binding:"required"`
		Body     string `json:"body" binding:"required"`
		Category string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Category == "" {
		req.Category = "general"
	}

	userID := c.GetInt("userID")
	post, err := h.forum.CreatePost(c.Request.Context(), userID, req.Title, req.Body, req.Category)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create post"})
		return
	}
	c.JSON(http.StatusCreated, post)
}

// UpvotePost bumps the counter atomically.
func (h *ForumHandler) UpvotePost(c *gin.Context) {
	h.bump(c, h.forum.UpvotePost)
}

// DownvotePost bumps the counter atomically.
func (h *ForumHandler) DownvotePost(c *gin.Context) {
	h.bump(c, h.forum.DownvotePost)
}

// ResharePost bumps the counter atomically.
func (h *ForumHandler) ResharePost(c *gin.Context) {
	h.bump(c, h.forum.ResharePost)
}

func (h *ForumHandler) bump(c *gin.Context, op func(ctx context.Context, postID int) error) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}
	if err := op(c.Request.Context(), postID); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update post"})
		return
	}
	c.Status(http.StatusNoContent)
}

// ListComments returns a thread's comments oldest first.
func (h *ForumHandler) ListComments(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}
	comments, err := h.forum.ListComments(c.Request.Context(), postID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load comments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// CreateComment stores a reply.
func (h *ForumHandler) CreateComment(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}
	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	comment, err := h.forum.CreateComment(c.Request.Context(), postID, userID, req.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create comment"})
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// UpvoteComment bumps the counter atomically.
func (h *ForumHandler) UpvoteComment(c *gin.Context) {
	commentID, err := strconv.Atoi(c.Param("comment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return
	}
	if err := h.forum.UpvoteComment(c.Request.Context(), commentID); err != nil {
		if errors.Is(err, repositories.ErrCommentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upvote comment"})
		return
	}
	c.Status(http.StatusNoContent)
}

func previewOf(p models.Post) models.PostPreview {
	excerpt := p.Body
	if utf8.RuneCountInString(excerpt) > previewExcerpt {
		runes := []rune(excerpt)
		excerpt = string(runes[:previewExcerpt]) + "…"
	}
	return models.PostPreview{
		ID:        p.ID,
		Title:     p.Title,
		Excerpt:   excerpt,
		Category:  p.Category,
		CreatedAt: p.CreatedAt,
	}
}

func parsePostID(c *gin.Context) (int, bool) {
	postID, err := strconv.Atoi(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return 0, false
	}
	return postID, true
}
