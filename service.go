package newsdesk

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/matthewjhunter/newsdesk/internal/apperr"
	"github.com/matthewjhunter/newsdesk/internal/feeds"
	"github.com/matthewjhunter/newsdesk/internal/seed"
	"github.com/matthewjhunter/newsdesk/internal/storage"
)

// Service is the public API for newsdesk: topics, users, articles and
// comments over a relational store. Every error it returns is an
// *apperr.AppError.
type Service struct {
	store    storage.Repository
	importer *feeds.Importer
	pageSize int
}

// NewService opens the configured database and creates any missing tables.
func NewService(ctx context.Context, cfg ServiceConfig) (*Service, error) {
	store, err := storage.NewStore(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return NewServiceWithRepository(store, cfg.PageSize), nil
}

// NewServiceWithRepository wraps an already opened repository.
func NewServiceWithRepository(repo storage.Repository, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{
		store:    repo,
		importer: feeds.NewImporter(repo),
		pageSize: pageSize,
	}
}

// Close releases the database connection.
func (s *Service) Close() error {
	return s.store.Close()
}

// Topics lists every topic.
func (s *Service) Topics(ctx context.Context) ([]Topic, error) {
	topics, err := s.store.ListTopics(ctx)
	if err != nil {
		return nil, classify(err)
	}
	out := make([]Topic, len(topics))
	for i, t := range topics {
		out[i] = Topic{Slug: t.Slug, Description: t.Description}
	}
	return out, nil
}

// CreateTopic adds a topic. A missing slug or one already taken is a BadRequest.
func (s *Service) CreateTopic(ctx context.Context, in NewTopic) (*Topic, error) {
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		return nil, apperr.NewBadRequest(errors.New("topic slug is required"))
	}
	t, err := s.store.InsertTopic(ctx, storage.Topic{Slug: slug, Description: in.Description})
	if err != nil {
		return nil, classify(err)
	}
	return &Topic{Slug: t.Slug, Description: t.Description}, nil
}

// Users lists every user.
func (s *Service) Users(ctx context.Context) ([]User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, classify(err)
	}
	out := make([]User, len(users))
	for i, u := range users {
		out[i] = userFromInternal(u)
	}
	return out, nil
}

// User fetches one user by username.
func (s *Service) User(ctx context.Context, username string) (*User, error) {
	u, err := s.store.GetUser(ctx, username)
	if err != nil {
		return nil, classify(err)
	}
	out := userFromInternal(*u)
	return &out, nil
}

// Articles returns one page of the article listing. Invalid sort, order or
// paging values are a BadRequest; a page with no rows is a NotFound.
func (s *Service) Articles(ctx context.Context, q ArticleQuery) ([]ArticleSummary, error) {
	q = q.withDefaults(s.pageSize)
	if err := q.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.store.ListArticles(ctx, storage.ArticleFilter{
		Topic:  q.Topic,
		SortBy: q.SortBy,
		Order:  q.Order,
		Limit:  q.Limit,
		Offset: q.offset(),
	})
	if err != nil {
		return nil, classify(err)
	}
	if len(rows) == 0 {
		return nil, apperr.NewNotFound(fmt.Errorf("no articles for topic %q page %d", q.Topic, q.Page))
	}

	out := make([]ArticleSummary, len(rows))
	for i, a := range rows {
		out[i] = ArticleSummary{
			Author:        a.Author,
			Title:         a.Title,
			ArticleID:     a.ArticleID,
			Topic:         a.Topic,
			CreatedAt:     a.CreatedAt.UTC(),
			Votes:         a.Votes,
			ArticleImgURL: a.ArticleImgURL,
			CommentCount:  a.CommentCount,
			TotalCount:    a.TotalCount,
		}
	}
	return out, nil
}

// Article fetches one article with its comment count.
func (s *Service) Article(ctx context.Context, articleID int64) (*Article, error) {
	if err := validID("article", articleID); err != nil {
		return nil, err
	}
	a, err := s.store.GetArticle(ctx, articleID)
	if err != nil {
		return nil, classify(err)
	}
	out := articleFromInternal(*a)
	return &out, nil
}

// CreateArticle validates and stores a new article, returning it as stored.
// The author and topic must exist.
func (s *Service) CreateArticle(ctx context.Context, in NewArticle) (*Article, error) {
	if err := required(map[string]string{
		"author": in.Author, "title": in.Title, "body": in.Body, "topic": in.Topic,
	}); err != nil {
		return nil, err
	}

	err := s.checkAll(ctx,
		func(ctx context.Context) error { return s.store.Exists(ctx, storage.UserName, in.Author) },
		func(ctx context.Context) error { return s.store.Exists(ctx, storage.TopicSlug, in.Topic) },
	)
	if err != nil {
		return nil, err
	}

	id, err := s.store.InsertArticle(ctx, storage.NewArticle{
		Title:         in.Title,
		Topic:         in.Topic,
		Author:        in.Author,
		Body:          in.Body,
		ArticleImgURL: strings.TrimSpace(in.ArticleImgURL),
		Votes:         DefaultVotes,
	})
	if err != nil {
		return nil, classify(err)
	}
	return s.Article(ctx, id)
}

// VoteArticle adds delta to an article's votes and returns the updated article.
func (s *Service) VoteArticle(ctx context.Context, articleID int64, delta int) (*Article, error) {
	if err := validID("article", articleID); err != nil {
		return nil, err
	}
	if err := validDelta(delta); err != nil {
		return nil, err
	}
	if err := s.store.IncrementArticleVotes(ctx, articleID, delta); err != nil {
		return nil, classify(err)
	}
	return s.Article(ctx, articleID)
}

// DeleteArticle removes an article together with its comments.
func (s *Service) DeleteArticle(ctx context.Context, articleID int64) error {
	if err := validID("article", articleID); err != nil {
		return err
	}
	return classify(s.store.DeleteArticle(ctx, articleID))
}

// Comments returns one page of an article's comments, newest first. An
// existing article without comments yields an empty slice.
func (s *Service) Comments(ctx context.Context, articleID int64, q CommentQuery) ([]Comment, error) {
	if err := validID("article", articleID); err != nil {
		return nil, err
	}
	q = q.withDefaults(s.pageSize)
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var rows []storage.Comment
	err := s.checkAll(ctx,
		func(ctx context.Context) error { return s.store.Exists(ctx, storage.ArticleID, articleID) },
		func(ctx context.Context) error {
			var err error
			rows, err = s.store.ListComments(ctx, articleID, q.Limit, q.offset())
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return commentsFromInternal(rows), nil
}

// CreateComment adds a comment to an article. The article and the user must exist.
func (s *Service) CreateComment(ctx context.Context, articleID int64, in NewComment) (*Comment, error) {
	if err := validID("article", articleID); err != nil {
		return nil, err
	}
	if err := required(map[string]string{"username": in.Username, "body": in.Body}); err != nil {
		return nil, err
	}

	err := s.checkAll(ctx,
		func(ctx context.Context) error { return s.store.Exists(ctx, storage.ArticleID, articleID) },
		func(ctx context.Context) error { return s.store.Exists(ctx, storage.UserName, in.Username) },
	)
	if err != nil {
		return nil, err
	}

	c, err := s.store.InsertComment(ctx, storage.NewComment{
		ArticleID: articleID,
		Author:    in.Username,
		Body:      in.Body,
		Votes:     DefaultVotes,
	})
	if err != nil {
		return nil, classify(err)
	}
	out := commentFromInternal(*c)
	return &out, nil
}

// VoteComment adds delta to a comment's votes and returns the updated comment.
func (s *Service) VoteComment(ctx context.Context, commentID int64, delta int) (*Comment, error) {
	if err := validID("comment", commentID); err != nil {
		return nil, err
	}
	if err := validDelta(delta); err != nil {
		return nil, err
	}
	c, err := s.store.IncrementCommentVotes(ctx, commentID, delta)
	if err != nil {
		return nil, classify(err)
	}
	out := commentFromInternal(*c)
	return &out, nil
}

// DeleteComment removes a comment.
func (s *Service) DeleteComment(ctx context.Context, commentID int64) error {
	if err := validID("comment", commentID); err != nil {
		return err
	}
	return classify(s.store.DeleteComment(ctx, commentID))
}

// Exists reports whether a row with column = value exists in table. Only the
// pairs topics.slug, users.username, articles.article_id and
// comments.comment_id are accepted; any other pair is an Internal error.
func (s *Service) Exists(ctx context.Context, table, column string, value any) error {
	return classify(s.store.Exists(ctx, storage.Reference{Table: table, Column: column}, value))
}

// ImportFeed fetches an RSS/Atom feed and stores its new items as articles.
func (s *Service) ImportFeed(ctx context.Context, in FeedImport) (*ImportResult, error) {
	if err := required(map[string]string{"url": in.URL, "topic": in.Topic, "author": in.Author}); err != nil {
		return nil, err
	}
	r, err := s.importer.Import(ctx, storage.FeedSource(in))
	if err != nil {
		return nil, classify(err)
	}
	return &ImportResult{
		FeedURL:    r.FeedURL,
		FeedTitle:  r.FeedTitle,
		Items:      r.Items,
		Imported:   r.Imported,
		Skipped:    r.Skipped,
		ArticleIDs: r.ArticleIDs,
	}, nil
}

// PollFeeds imports every source once. Individual feed failures are logged
// and counted rather than returned.
func (s *Service) PollFeeds(ctx context.Context, sources []FeedImport) (*PollResult, error) {
	internal := make([]storage.FeedSource, len(sources))
	for i, src := range sources {
		internal[i] = storage.FeedSource(src)
	}
	stats, err := s.importer.ImportAll(ctx, internal)
	if err != nil {
		return nil, classify(err)
	}
	return &PollResult{
		FeedsTotal:   stats.FeedsTotal,
		FeedsErrored: stats.FeedsErrored,
		NewArticles:  stats.NewArticles,
	}, nil
}

// Seed replaces all data with the given fixture.
func (s *Service) Seed(ctx context.Context, f *seed.Fixture) error {
	return classify(seed.Apply(ctx, s.store, f))
}

// checkAll runs independent checks concurrently and returns the first failure.
func (s *Service) checkAll(ctx context.Context, checks ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, check := range checks {
		g.Go(func() error { return check(gctx) })
	}
	return classify(g.Wait())
}

func validID(kind string, id int64) error {
	if id <= 0 {
		return apperr.NewBadRequest(fmt.Errorf("invalid %s id %d", kind, id))
	}
	return nil
}

// validDelta bounds a vote increment to the range of the votes column.
func validDelta(delta int) error {
	if delta < math.MinInt32 || delta > math.MaxInt32 {
		return apperr.NewBadRequest(fmt.Errorf("inc_votes %d is out of range", delta))
	}
	return nil
}

// required fails with a BadRequest naming every blank field.
func required(fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return apperr.NewBadRequest(fmt.Errorf("missing required fields: %s", strings.Join(missing, ", ")))
	}
	return nil
}

// --- internal type conversion helpers ---

func userFromInternal(u storage.User) User {
	return User{Username: u.Username, Name: u.Name, AvatarURL: u.AvatarURL}
}

func articleFromInternal(a storage.Article) Article {
	return Article{
		ArticleID:     a.ArticleID,
		Title:         a.Title,
		Topic:         a.Topic,
		Author:        a.Author,
		Body:          a.Body,
		CreatedAt:     a.CreatedAt.UTC(),
		Votes:         a.Votes,
		ArticleImgURL: a.ArticleImgURL,
		CommentCount:  a.CommentCount,
	}
}

func commentFromInternal(c storage.Comment) Comment {
	return Comment{
		CommentID: c.CommentID,
		Body:      c.Body,
		ArticleID: c.ArticleID,
		Author:    c.Author,
		Votes:     c.Votes,
		CreatedAt: c.CreatedAt.UTC(),
	}
}

func commentsFromInternal(comments []storage.Comment) []Comment {
	out := make([]Comment, len(comments))
	for i, c := range comments {
		out[i] = commentFromInternal(c)
	}
	return out
}
