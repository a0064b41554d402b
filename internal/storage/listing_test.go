package storage

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestBuildArticleListQuery(t *testing.T) {
	tests := []struct {
		name      string
		filter    ArticleFilter
		wantOrder string
		wantWhere bool
		wantArgs  []any
	}{
		{
			name:      "default listing",
			filter:    ArticleFilter{SortBy: "created_at", Order: "desc", Limit: 10},
			wantOrder: "ORDER BY a.created_at DESC, a.article_id DESC",
			wantArgs:  []any{10, 0},
		},
		{
			name:      "topic filter",
			filter:    ArticleFilter{Topic: "cats", SortBy: "votes", Order: "asc", Limit: 5, Offset: 10},
			wantOrder: "ORDER BY a.votes ASC, a.article_id ASC",
			wantWhere: true,
			wantArgs:  []any{"cats", 5, 10},
		},
		{
			name:      "comment count sorts by alias",
			filter:    ArticleFilter{SortBy: "comment_count", Order: "desc", Limit: 10},
			wantOrder: "ORDER BY comment_count DESC, a.article_id DESC",
			wantArgs:  []any{10, 0},
		},
		{
			name:      "article id has no tie-break",
			filter:    ArticleFilter{SortBy: "article_id", Order: "asc", Limit: 3},
			wantOrder: "ORDER BY a.article_id ASC\n",
			wantArgs:  []any{3, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := buildArticleListQuery(tt.filter)
			if err != nil {
				t.Fatalf("buildArticleListQuery failed: %v", err)
			}
			if !strings.Contains(query, tt.wantOrder) {
				t.Errorf("query missing %q:\n%s", tt.wantOrder, query)
			}
			if got := strings.Contains(query, "WHERE a.topic = ?"); got != tt.wantWhere {
				t.Errorf("topic filter present = %v, want %v", got, tt.wantWhere)
			}
			if !strings.Contains(query, "COUNT(*) OVER () AS total_count") {
				t.Error("query missing total_count window")
			}
			if !strings.HasSuffix(query, "LIMIT ? OFFSET ?") {
				t.Errorf("query does not end with LIMIT/OFFSET:\n%s", query)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestBuildArticleListQueryRejects(t *testing.T) {
	tests := []struct {
		name   string
		filter ArticleFilter
	}{
		{"unknown column", ArticleFilter{SortBy: "body", Order: "asc"}},
		{"injection attempt", ArticleFilter{SortBy: "votes; DROP TABLE articles", Order: "asc"}},
		{"uppercase order", ArticleFilter{SortBy: "votes", Order: "DESC"}},
		{"empty order", ArticleFilter{SortBy: "votes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := buildArticleListQuery(tt.filter)
			if !errors.Is(err, ErrInvalidSort) {
				t.Errorf("error = %v, want ErrInvalidSort", err)
			}
		})
	}
}

func TestTimeScanner(t *testing.T) {
	want := time.Date(2020, 7, 9, 20, 11, 0, 0, time.UTC)
	inputs := []any{
		want,
		"2020-07-09 20:11:00+00:00",
		"2020-07-09T20:11:00Z",
		[]byte("2020-07-09 20:11:00"),
	}
	for _, in := range inputs {
		var got time.Time
		if err := (timeScanner{&got}).Scan(in); err != nil {
			t.Fatalf("Scan(%v) failed: %v", in, err)
		}
		if !want.Equal(got) {
			t.Errorf("Scan(%v) = %v, want %v", in, got, want)
		}
	}

	var got time.Time
	if err := (timeScanner{&got}).Scan(42); err == nil {
		t.Error("expected error scanning an int")
	}
	if err := (timeScanner{&got}).Scan("yesterday"); err == nil {
		t.Error("expected error scanning an unparseable string")
	}
}
