package storage

import "context"

// Repository defines the data access the service layer depends on. *Store
// implements it for every supported driver.
type Repository interface {
	Close() error
	Driver() string
	Reset(ctx context.Context) error
	InTx(ctx context.Context, fn func(Repository) error) error

	// Existence
	Exists(ctx context.Context, ref Reference, value any) error

	// Topics
	ListTopics(ctx context.Context) ([]Topic, error)
	InsertTopic(ctx context.Context, t Topic) (*Topic, error)

	// Users
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, username string) (*User, error)
	InsertUser(ctx context.Context, u User) error

	// Articles
	ListArticles(ctx context.Context, f ArticleFilter) ([]ArticleSummary, error)
	GetArticle(ctx context.Context, articleID int64) (*Article, error)
	InsertArticle(ctx context.Context, a NewArticle) (int64, error)
	IncrementArticleVotes(ctx context.Context, articleID int64, delta int) error
	DeleteArticle(ctx context.Context, articleID int64) error
	ArticleTitleExists(ctx context.Context, topic, title string) (bool, error)

	// Comments
	ListComments(ctx context.Context, articleID int64, limit, offset int) ([]Comment, error)
	GetComment(ctx context.Context, commentID int64) (*Comment, error)
	InsertComment(ctx context.Context, c NewComment) (*Comment, error)
	IncrementCommentVotes(ctx context.Context, commentID int64, delta int) (*Comment, error)
	DeleteComment(ctx context.Context, commentID int64) error
}

var _ Repository = (*Store)(nil)
