package models

// ProfilePreview is the reduced profile view served to anonymous
// visitors in search results: the name and nothing else.
type ProfilePreview struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// SearchResult is one ranked hit across profiles and posts. Exact
// username matches outrank partial ones, which outrank post hits; a
// query present in a post title scores higher than one buried in the
// body.
type SearchResult struct {
	Type  string `json:"type"`
	Score int    `json:"score"`
	Item  any    `json:"item"`
}
