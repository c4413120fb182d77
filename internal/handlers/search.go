package handlers

import (
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/AbhishekkSaini/TheSafeVoice/internal/models"
	"github.com/AbhishekkSaini/TheSafeVoice/internal/repositories"
)

const (
	searchMinQuery = 2

	searchPostLimit           = 10
	searchProfileLimit        = 10
	searchPreviewPostLimit    = 3
	searchPreviewProfileLimit = 5

	scoreProfileExact   = 100
	scoreProfilePartial = 70
	scorePostBase       = 50
	scorePostTitle      = 20
	scorePostBody       = 10
)

// SearchHandler answers combined profile and post searches. Like the
// forum listings, results are privacy-tiered: anonymous callers get a
// smaller page with post excerpts and bare usernames, signed-in users
// get the full rows.
type SearchHandler struct {
	forum    repositories.ForumRepository
	profiles repositories.ProfileRepository
}

// NewSearchHandler builds a SearchHandler.
func NewSearchHandler(forum repositories.ForumRepository, profiles repositories.ProfileRepository) *SearchHandler {
	return &SearchHandler{forum: forum, profiles: profiles}
}

// Search ranks profile matches above post matches and exact username
// hits above partial ones. Queries shorter than two runes return an
// empty result set without touching the database.
func (h *SearchHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	_, authed := c.Get("userID")

	if utf8.RuneCountInString(query) < searchMinQuery {
		c.JSON(http.StatusOK, gin.H{"results": []models.SearchResult{}, "preview": !authed})
		return
	}

	postLimit, profileLimit := searchPostLimit, searchProfileLimit
	if !authed {
		postLimit, profileLimit = searchPreviewPostLimit, searchPreviewProfileLimit
	}

	profiles, err := h.profiles.SearchProfiles(c.Request.Context(), query, profileLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	posts, err := h.forum.SearchPosts(c.Request.Context(), query, postLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	results := make([]models.SearchResult, 0, len(profiles)+len(posts))
	for _, p := range profiles {
		score := scoreProfilePartial
		if strings.EqualFold(p.Username, query) {
			score = scoreProfileExact
		}
		var item any = p
		if !authed {
			item = models.ProfilePreview{ID: p.ID, Username: p.Username}
		}
		results = append(results, models.SearchResult{Type: "profile", Score: score, Item: item})
	}
	lowered := strings.ToLower(query)
	for _, p := range posts {
		score := scorePostBase
		if strings.Contains(strings.ToLower(p.Title), lowered) {
			score += scorePostTitle
		}
		if strings.Contains(strings.ToLower(p.Body), lowered) {
			score += scorePostBody
		}
		var item any = p
		if !authed {
			item = previewOf(p)
		}
		results = append(results, models.SearchResult{Type: "post", Score: score, Item: item})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	c.JSON(http.StatusOK, gin.H{"results": results, "preview": !authed})
}
