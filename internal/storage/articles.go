package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const articleColumns = `a.article_id, a.title, a.topic, a.author, a.body, a.created_at,
	a.votes, a.article_img_url, COUNT(c.comment_id) AS comment_count`

// GetArticle fetches one article with its comment count.
func (s *Store) GetArticle(ctx context.Context, articleID int64) (*Article, error) {
	var a Article
	err := s.q.GetContext(ctx, &a, s.rebind(
		`SELECT `+articleColumns+`
		 FROM articles a
		 LEFT JOIN comments c ON c.article_id = a.article_id
		 WHERE a.article_id = ?
		 GROUP BY a.article_id`), articleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("article %d: %w", articleID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get article %d: %w", articleID, err)
	}
	return &a, nil
}

// InsertArticle adds an article and returns its id. Empty image URLs are
// replaced with DefaultArticleImgURL.
func (s *Store) InsertArticle(ctx context.Context, a NewArticle) (int64, error) {
	if a.ArticleImgURL == "" {
		a.ArticleImgURL = DefaultArticleImgURL
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	var id int64
	err := s.q.QueryRowxContext(ctx, s.rebind(
		`INSERT INTO articles (title, topic, author, body, created_at, votes, article_img_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 RETURNING article_id`),
		a.Title, a.Topic, a.Author, a.Body, a.CreatedAt.UTC(), a.Votes, a.ArticleImgURL,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert article: %w", err)
	}
	return id, nil
}

// IncrementArticleVotes adds delta to the article's votes in a single statement.
func (s *Store) IncrementArticleVotes(ctx context.Context, articleID int64, delta int) error {
	var id int64
	err := s.q.QueryRowxContext(ctx, s.rebind(
		`UPDATE articles SET votes = votes + ? WHERE article_id = ?
		 RETURNING article_id`),
		delta, articleID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("article %d: %w", articleID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("increment article %d votes: %w", articleID, err)
	}
	return nil
}

// DeleteArticle removes an article; its comments go with it.
func (s *Store) DeleteArticle(ctx context.Context, articleID int64) error {
	res, err := s.q.ExecContext(ctx, s.rebind(
		"DELETE FROM articles WHERE article_id = ?"), articleID)
	if err != nil {
		return fmt.Errorf("delete article %d: %w", articleID, err)
	}
	return affectedOne(res, fmt.Sprintf("delete article %d", articleID))
}

// ArticleTitleExists reports whether the topic already has an article with this title.
func (s *Store) ArticleTitleExists(ctx context.Context, topic, title string) (bool, error) {
	var n int
	err := s.q.GetContext(ctx, &n, s.rebind(
		"SELECT COUNT(*) FROM articles WHERE topic = ? AND title = ?"), topic, title)
	if err != nil {
		return false, fmt.Errorf("check article title: %w", err)
	}
	return n > 0, nil
}
