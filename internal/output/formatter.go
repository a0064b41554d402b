package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/matthewjhunter/newsdesk"
)

type Format string

const (
	FormatJSON  Format = "json"
	FormatText  Format = "text"
	FormatHuman Format = "human"
)

// ParseFormat validates a --output flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatText, FormatHuman:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want json, text or human)", s)
}

type Formatter struct {
	format Format
	out    io.Writer
	err    io.Writer
}

// NewFormatter creates a new output formatter
func NewFormatter(format Format) *Formatter {
	return &Formatter{
		format: format,
		out:    os.Stdout,
		err:    os.Stderr,
	}
}

// NewFormatterWithWriters creates a formatter with custom output writers for testability
func NewFormatterWithWriters(format Format, out, errW io.Writer) *Formatter {
	return &Formatter{
		format: format,
		out:    out,
		err:    errW,
	}
}

// OutputTopics outputs every topic
func (f *Formatter) OutputTopics(topics []newsdesk.Topic) error {
	switch f.format {
	case FormatJSON:
		return f.encode(map[string]any{"topics": topics})
	case FormatText:
		for _, t := range topics {
			fmt.Fprintf(f.out, "slug=%s\tdescription=%s\n", t.Slug, t.Description)
		}
		return nil
	case FormatHuman:
		if len(topics) == 0 {
			fmt.Fprintln(f.out, "No topics")
			return nil
		}
		fmt.Fprintf(f.out, "Topics (%d):\n\n", len(topics))
		for _, t := range topics {
			fmt.Fprintf(f.out, "  %-16s %s\n", t.Slug, t.Description)
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputUsers outputs every user
func (f *Formatter) OutputUsers(users []newsdesk.User) error {
	switch f.format {
	case FormatJSON:
		return f.encode(map[string]any{"users": users})
	case FormatText:
		for _, u := range users {
			fmt.Fprintf(f.out, "username=%s\tname=%s\tavatar_url=%s\n", u.Username, u.Name, u.AvatarURL)
		}
		return nil
	case FormatHuman:
		if len(users) == 0 {
			fmt.Fprintln(f.out, "No users")
			return nil
		}
		fmt.Fprintf(f.out, "Users (%d):\n\n", len(users))
		for _, u := range users {
			fmt.Fprintf(f.out, "  %-16s %s\n", u.Username, u.Name)
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputArticleList outputs one page of the article listing
func (f *Formatter) OutputArticleList(articles []newsdesk.ArticleSummary) error {
	switch f.format {
	case FormatJSON:
		return f.encode(map[string]any{"articles": articles})
	case FormatText:
		for _, a := range articles {
			fmt.Fprintf(f.out, "id=%d\ttopic=%s\tauthor=%s\tvotes=%d\tcomments=%d\tcreated=%s\ttitle=%s\n",
				a.ArticleID, a.Topic, a.Author, a.Votes, a.CommentCount, formatTime(a.CreatedAt), a.Title)
		}
		return nil
	case FormatHuman:
		if len(articles) == 0 {
			fmt.Fprintln(f.out, "No articles")
			return nil
		}
		fmt.Fprintf(f.out, "Articles (%d of %d):\n\n", len(articles), articles[0].TotalCount)
		for _, a := range articles {
			fmt.Fprintf(f.out, "ID: %d\n", a.ArticleID)
			fmt.Fprintf(f.out, "Title: %s\n", a.Title)
			fmt.Fprintf(f.out, "By %s in %s, %s\n", a.Author, a.Topic, a.CreatedAt.Format("2006-01-02 15:04"))
			fmt.Fprintf(f.out, "Votes: %d  Comments: %d\n", a.Votes, a.CommentCount)
			fmt.Fprintln(f.out, "---")
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputArticle outputs a single article with its body
func (f *Formatter) OutputArticle(a *newsdesk.Article) error {
	switch f.format {
	case FormatJSON:
		return f.encode(map[string]any{"article": a})
	case FormatText:
		fmt.Fprintf(f.out, "id=%d\ttopic=%s\tauthor=%s\tvotes=%d\tcomments=%d\tcreated=%s\timg=%s\ttitle=%s\n",
			a.ArticleID, a.Topic, a.Author, a.Votes, a.CommentCount, formatTime(a.CreatedAt), a.ArticleImgURL, a.Title)
		return nil
	case FormatHuman:
		fmt.Fprintf(f.out, "%s\n", a.Title)
		fmt.Fprintln(f.out, strings.Repeat("=", 70))
		fmt.Fprintf(f.out, "By %s in %s, %s\n", a.Author, a.Topic, a.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Fprintf(f.out, "Votes: %d  Comments: %d\n\n", a.Votes, a.CommentCount)
		fmt.Fprintln(f.out, a.Body)
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputComments outputs one page of an article's comments
func (f *Formatter) OutputComments(comments []newsdesk.Comment) error {
	switch f.format {
	case FormatJSON:
		return f.encode(map[string]any{"comments": comments})
	case FormatText:
		for _, c := range comments {
			fmt.Fprintf(f.out, "id=%d\tarticle=%d\tauthor=%s\tvotes=%d\tcreated=%s\tbody=%s\n",
				c.CommentID, c.ArticleID, c.Author, c.Votes, formatTime(c.CreatedAt), truncate(c.Body, 80))
		}
		return nil
	case FormatHuman:
		if len(comments) == 0 {
			fmt.Fprintln(f.out, "No comments")
			return nil
		}
		for _, c := range comments {
			fmt.Fprintf(f.out, "%s (%d votes, %s):\n", c.Author, c.Votes, c.CreatedAt.Format("2006-01-02 15:04"))
			fmt.Fprintf(f.out, "  %s\n\n", c.Body)
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputImportResult outputs what a feed import stored
func (f *Formatter) OutputImportResult(r *newsdesk.ImportResult) error {
	switch f.format {
	case FormatJSON:
		return f.encode(r)
	case FormatText:
		fmt.Fprintf(f.out, "feed=%s\titems=%d\timported=%d\tskipped=%d\n", r.FeedURL, r.Items, r.Imported, r.Skipped)
		return nil
	case FormatHuman:
		title := r.FeedTitle
		if title == "" {
			title = r.FeedURL
		}
		fmt.Fprintf(f.out, "Imported %d of %d items from %s\n", r.Imported, r.Items, title)
		if r.Skipped > 0 {
			fmt.Fprintf(f.out, "Skipped %d items already present or untitled\n", r.Skipped)
		}
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// OutputPollResult outputs the result of a pass over the configured feeds
func (f *Formatter) OutputPollResult(r *newsdesk.PollResult) error {
	switch f.format {
	case FormatJSON:
		return f.encode(r)
	case FormatText:
		fmt.Fprintf(f.out, "feeds_total=%d\n", r.FeedsTotal)
		fmt.Fprintf(f.out, "feeds_errored=%d\n", r.FeedsErrored)
		fmt.Fprintf(f.out, "new_articles=%d\n", r.NewArticles)
		return nil
	case FormatHuman:
		fmt.Fprintf(f.out, "Polled %d feeds", r.FeedsTotal)
		if r.FeedsErrored > 0 {
			fmt.Fprintf(f.out, " (%d errored)", r.FeedsErrored)
		}
		fmt.Fprintln(f.out)
		fmt.Fprintf(f.out, "Stored %d new articles\n", r.NewArticles)
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// Status reports a completed action such as a migration or a delete.
func (f *Formatter) Status(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	switch f.format {
	case FormatJSON:
		return f.encode(map[string]string{"status": msg})
	case FormatText, FormatHuman:
		fmt.Fprintln(f.out, msg)
		return nil
	}
	return fmt.Errorf("unknown format: %s", f.format)
}

// Error outputs an error message to stderr
func (f *Formatter) Error(format string, args ...any) {
	fmt.Fprintf(f.err, format+"\n", args...)
}

// Warning outputs a warning message to stderr
func (f *Formatter) Warning(format string, args ...any) {
	fmt.Fprintf(f.err, "Warning: "+format+"\n", args...)
}

func (f *Formatter) encode(v any) error {
	return json.NewEncoder(f.out).Encode(v)
}

// formatTime formats a timestamp for text output
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// truncate shortens s to at most maxLen runes
func truncate(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
