package newsdesk

import (
	"time"

	"github.com/matthewjhunter/newsdesk/internal/storage"
)

// Defaults applied when a new article omits them.
const (
	DefaultArticleImgURL = storage.DefaultArticleImgURL
	DefaultVotes         = storage.DefaultVotes
)

// Listing defaults.
const (
	DefaultSortBy   = "created_at"
	DefaultOrder    = "desc"
	DefaultPage     = 1
	DefaultPageSize = 10
)

// ServiceConfig configures the newsdesk service.
type ServiceConfig struct {
	Database storage.DatabaseConfig
	PageSize int // default page size for listings; 0 means DefaultPageSize
}

// Topic is a category articles belong to.
type Topic struct {
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// User is an author of articles and comments.
type User struct {
	Username  string `json:"username"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// Article is a full article with its comment count.
type Article struct {
	ArticleID     int64     `json:"article_id"`
	Title         string    `json:"title"`
	Topic         string    `json:"topic"`
	Author        string    `json:"author"`
	Body          string    `json:"body"`
	CreatedAt     time.Time `json:"created_at"`
	Votes         int       `json:"votes"`
	ArticleImgURL string    `json:"article_img_url"`
	CommentCount  int       `json:"comment_count"`
}

// ArticleSummary is one row of an article listing. TotalCount is the number of
// articles matching the filter before pagination.
type ArticleSummary struct {
	Author        string    `json:"author"`
	Title         string    `json:"title"`
	ArticleID     int64     `json:"article_id"`
	Topic         string    `json:"topic"`
	CreatedAt     time.Time `json:"created_at"`
	Votes         int       `json:"votes"`
	ArticleImgURL string    `json:"article_img_url"`
	CommentCount  int       `json:"comment_count"`
	TotalCount    int       `json:"total_count"`
}

// Comment is a reply to an article.
type Comment struct {
	CommentID int64     `json:"comment_id"`
	Body      string    `json:"body"`
	ArticleID int64     `json:"article_id"`
	Author    string    `json:"author"`
	Votes     int       `json:"votes"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTopic is the request body for creating a topic.
type NewTopic struct {
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// NewArticle is the request body for creating an article.
type NewArticle struct {
	Author        string `json:"author"`
	Title         string `json:"title"`
	Body          string `json:"body"`
	Topic         string `json:"topic"`
	ArticleImgURL string `json:"article_img_url,omitempty"`
}

// NewComment is the request body for commenting on an article.
type NewComment struct {
	Username string `json:"username"`
	Body     string `json:"body"`
}

// FeedImport describes one RSS/Atom import request.
type FeedImport struct {
	URL    string `json:"url"`
	Topic  string `json:"topic"`
	Author string `json:"author"`
}

// ImportResult reports what a feed import stored.
type ImportResult struct {
	FeedURL    string  `json:"feed_url"`
	FeedTitle  string  `json:"feed_title"`
	Items      int     `json:"items"`
	Imported   int     `json:"imported"`
	Skipped    int     `json:"skipped"`
	ArticleIDs []int64 `json:"article_ids"`
}

// PollResult reports a pass over the configured feeds.
type PollResult struct {
	FeedsTotal   int `json:"feeds_total"`
	FeedsErrored int `json:"feeds_errored"`
	NewArticles  int `json:"new_articles"`
}
