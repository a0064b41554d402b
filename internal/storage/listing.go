package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ArticleFilter selects one page of the article listing. Limit and Offset must
// already be validated; SortBy and Order are checked against the whitelist.
type ArticleFilter struct {
	Topic  string
	SortBy string
	Order  string
	Limit  int
	Offset int
}

// articleSortColumns maps accepted sort keys to their SQL expressions.
var articleSortColumns = map[string]string{
	"article_id":    "a.article_id",
	"title":         "a.title",
	"topic":         "a.topic",
	"author":        "a.author",
	"created_at":    "a.created_at",
	"votes":         "a.votes",
	"comment_count": "comment_count",
}

// ValidSortColumn reports whether col may be used to order the listing.
func ValidSortColumn(col string) bool {
	_, ok := articleSortColumns[col]
	return ok
}

// ValidOrder reports whether dir is an accepted sort direction.
func ValidOrder(dir string) bool {
	return dir == "asc" || dir == "desc"
}

// buildArticleListQuery renders the listing statement with ? placeholders.
// Identifiers come only from the whitelist; values are always bound.
func buildArticleListQuery(f ArticleFilter) (string, []any, error) {
	col, ok := articleSortColumns[f.SortBy]
	if !ok {
		return "", nil, fmt.Errorf("sort by %q: %w", f.SortBy, ErrInvalidSort)
	}
	if !ValidOrder(f.Order) {
		return "", nil, fmt.Errorf("order %q: %w", f.Order, ErrInvalidSort)
	}
	dir := strings.ToUpper(f.Order)

	var b strings.Builder
	var args []any
	b.WriteString(`SELECT a.article_id, a.title, a.topic, a.author, a.created_at, a.votes,
	a.article_img_url, COUNT(c.comment_id) AS comment_count, COUNT(*) OVER () AS total_count
FROM articles a
LEFT JOIN comments c ON c.article_id = a.article_id`)
	if f.Topic != "" {
		b.WriteString("\nWHERE a.topic = ?")
		args = append(args, f.Topic)
	}
	b.WriteString("\nGROUP BY a.article_id")
	fmt.Fprintf(&b, "\nORDER BY %s %s", col, dir)
	if f.SortBy != "article_id" {
		// Stable pages when the sort column has duplicates.
		fmt.Fprintf(&b, ", a.article_id %s", dir)
	}
	b.WriteString("\nLIMIT ? OFFSET ?")
	args = append(args, f.Limit, f.Offset)

	return b.String(), args, nil
}

// ListArticles returns one page of article summaries. An empty slice means the
// page (or the filter) matched nothing.
func (s *Store) ListArticles(ctx context.Context, f ArticleFilter) ([]ArticleSummary, error) {
	query, args, err := buildArticleListQuery(f)
	if err != nil {
		return nil, err
	}

	rows, err := s.q.QueryxContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	articles := []ArticleSummary{}
	for rows.Next() {
		var a ArticleSummary
		err := rows.Scan(&a.ArticleID, &a.Title, &a.Topic, &a.Author, timeScanner{&a.CreatedAt},
			&a.Votes, &a.ArticleImgURL, &a.CommentCount, &a.TotalCount)
		if err != nil {
			return nil, fmt.Errorf("scan article summary: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}

// sqliteTimeLayouts are the text forms SQLite may hand back when a column's
// declared type is lost, as happens for window-function queries.
var sqliteTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// timeScanner scans a timestamp that may arrive as time.Time or as text.
type timeScanner struct {
	dst *time.Time
}

func (ts timeScanner) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*ts.dst = v.UTC()
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	case nil:
		*ts.dst = time.Time{}
		return nil
	}
	return fmt.Errorf("cannot scan %T into timestamp", src)
}

func (ts timeScanner) parse(s string) error {
	for _, layout := range sqliteTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*ts.dst = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}
