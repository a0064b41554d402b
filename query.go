package newsdesk

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/matthewjhunter/newsdesk/internal/apperr"
	"github.com/matthewjhunter/newsdesk/internal/storage"
)

// ArticleQuery selects one page of the article listing. Zero values take the
// listing defaults.
type ArticleQuery struct {
	Topic  string
	SortBy string
	Order  string
	Page   int
	Limit  int
}

// CommentQuery selects one page of an article's comments.
type CommentQuery struct {
	Page  int
	Limit int
}

// ParseArticleQuery reads topic, sort_by, order, p and limit from query
// parameters. Absent or empty parameters are left at their zero value.
func ParseArticleQuery(v url.Values) (ArticleQuery, error) {
	q := ArticleQuery{
		Topic:  v.Get("topic"),
		SortBy: v.Get("sort_by"),
		Order:  v.Get("order"),
	}
	var err error
	if q.Page, err = optionalPositiveInt(v, "p"); err != nil {
		return ArticleQuery{}, err
	}
	if q.Limit, err = optionalPositiveInt(v, "limit"); err != nil {
		return ArticleQuery{}, err
	}
	return q, nil
}

// ParseCommentQuery reads p and limit from query parameters.
func ParseCommentQuery(v url.Values) (CommentQuery, error) {
	var q CommentQuery
	var err error
	if q.Page, err = optionalPositiveInt(v, "p"); err != nil {
		return CommentQuery{}, err
	}
	if q.Limit, err = optionalPositiveInt(v, "limit"); err != nil {
		return CommentQuery{}, err
	}
	return q, nil
}

func optionalPositiveInt(v url.Values, key string) (int, error) {
	raw := v.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := ParsePositiveInt(raw)
	if err != nil {
		return 0, apperr.NewBadRequest(fmt.Errorf("%s: %w", key, err))
	}
	return n, nil
}

// ParsePositiveInt accepts any numeric string denoting a whole number greater
// than zero, so "2" and "2.0" both give 2 while "2.5", "0" and "-1" fail.
func ParsePositiveInt(raw string) (int, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%q is not an integer", raw)
	}
	if f <= 0 || f > math.MaxInt32 {
		return 0, fmt.Errorf("%q is out of range", raw)
	}
	return int(f), nil
}

// withDefaults fills unset fields.
func (q ArticleQuery) withDefaults(pageSize int) ArticleQuery {
	if q.SortBy == "" {
		q.SortBy = DefaultSortBy
	}
	if q.Order == "" {
		q.Order = DefaultOrder
	}
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.Limit == 0 {
		q.Limit = pageSize
	}
	return q
}

// Validate checks a defaulted query. Every failure is a BadRequest.
func (q ArticleQuery) Validate() error {
	switch {
	case !storage.ValidSortColumn(q.SortBy):
		return apperr.NewBadRequest(fmt.Errorf("invalid sort_by %q", q.SortBy))
	case !storage.ValidOrder(q.Order):
		return apperr.NewBadRequest(fmt.Errorf("invalid order %q", q.Order))
	case q.Page <= 0:
		return apperr.NewBadRequest(fmt.Errorf("invalid page %d", q.Page))
	case q.Limit <= 0:
		return apperr.NewBadRequest(fmt.Errorf("invalid limit %d", q.Limit))
	}
	return nil
}

func (q ArticleQuery) offset() int {
	return (q.Page - 1) * q.Limit
}

func (q CommentQuery) withDefaults(pageSize int) CommentQuery {
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.Limit == 0 {
		q.Limit = pageSize
	}
	return q
}

// Validate checks a defaulted query.
func (q CommentQuery) Validate() error {
	if q.Page <= 0 || q.Limit <= 0 {
		return apperr.NewBadRequest(fmt.Errorf("invalid page %d / limit %d", q.Page, q.Limit))
	}
	return nil
}

func (q CommentQuery) offset() int {
	return (q.Page - 1) * q.Limit
}
