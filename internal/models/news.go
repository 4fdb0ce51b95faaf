package models

// NewsItem is one article from the news API. Items have no identity beyond list position.
type NewsItem struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
	CreatedAt   string `json:"createdAt"`
}
