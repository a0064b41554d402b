package feeds

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/matthewjhunter/newsdesk/internal/storage"
)

// ArticleStore is the part of the storage layer the importer writes through.
type ArticleStore interface {
	Exists(ctx context.Context, ref storage.Reference, value any) error
	ArticleTitleExists(ctx context.Context, topic, title string) (bool, error)
	InsertArticle(ctx context.Context, a storage.NewArticle) (int64, error)
}

// Importer turns RSS/Atom items into articles under a fixed topic and author.
type Importer struct {
	parser *gofeed.Parser
	client *http.Client
	store  ArticleStore
	policy *bluemonday.Policy
}

// OPML structures for parsing
type OPML struct {
	XMLName xml.Name `xml:"opml"`
	Body    OPMLBody `xml:"body"`
}

type OPMLBody struct {
	Outlines []OPMLOutline `xml:"outline"`
}

type OPMLOutline struct {
	Text     string        `xml:"text,attr"`
	Title    string        `xml:"title,attr"`
	Type     string        `xml:"type,attr"`
	XMLURL   string        `xml:"xmlUrl,attr"`
	HTMLURL  string        `xml:"htmlUrl,attr"`
	Outlines []OPMLOutline `xml:"outline"`
}

// NewImporter creates a feed importer writing to store.
func NewImporter(store ArticleStore) *Importer {
	parser := gofeed.NewParser()
	parser.UserAgent = "newsdesk/1.0"
	return &Importer{
		parser: parser,
		client: &http.Client{},
		store:  store,
		policy: bluemonday.StrictPolicy(),
	}
}

// ImportResult summarizes one feed import.
type ImportResult struct {
	FeedURL    string  `json:"feed_url"`
	FeedTitle  string  `json:"feed_title"`
	Items      int     `json:"items"`
	Imported   int     `json:"imported"`
	Skipped    int     `json:"skipped"`
	ArticleIDs []int64 `json:"article_ids"`
}

// PollStats summarizes a pass over several feeds.
type PollStats struct {
	FeedsTotal   int `json:"feeds_total"`
	FeedsErrored int `json:"feeds_errored"`
	NewArticles  int `json:"new_articles"`
}

// FetchFeed downloads and parses a single feed.
func (im *Importer) FetchFeed(ctx context.Context, url string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", im.parser.UserAgent)

	resp, err := im.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed %s: %w", url, err)
	}

	parsed, err := im.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", url, err)
	}
	return parsed, nil
}

// Import fetches src.URL and stores its new items. The topic and author must
// already exist; a missing one yields an error wrapping storage.ErrNotFound.
func (im *Importer) Import(ctx context.Context, src storage.FeedSource) (*ImportResult, error) {
	if err := im.checkSource(ctx, src); err != nil {
		return nil, err
	}
	feed, err := im.FetchFeed(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	result, err := im.StoreItems(ctx, src, feed)
	if err != nil {
		return nil, err
	}
	result.FeedURL = src.URL
	return result, nil
}

func (im *Importer) checkSource(ctx context.Context, src storage.FeedSource) error {
	if err := im.store.Exists(ctx, storage.TopicSlug, src.Topic); err != nil {
		return fmt.Errorf("feed topic: %w", err)
	}
	if err := im.store.Exists(ctx, storage.UserName, src.Author); err != nil {
		return fmt.Errorf("feed author: %w", err)
	}
	return nil
}

// StoreItems writes a parsed feed's items as articles. Items without a title,
// and items whose title already exists in the topic, are skipped.
func (im *Importer) StoreItems(ctx context.Context, src storage.FeedSource, feed *gofeed.Feed) (*ImportResult, error) {
	result := &ImportResult{FeedTitle: feed.Title, Items: len(feed.Items), ArticleIDs: []int64{}}

	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			result.Skipped++
			continue
		}
		dup, err := im.store.ArticleTitleExists(ctx, src.Topic, title)
		if err != nil {
			return nil, err
		}
		if dup {
			result.Skipped++
			continue
		}

		// Use content if available, otherwise use description
		body := im.plainText(item.Content)
		if body == "" {
			body = im.plainText(item.Description)
		}
		if body == "" {
			body = item.Link
		}

		var createdAt time.Time
		if item.PublishedParsed != nil {
			createdAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			createdAt = *item.UpdatedParsed
		}

		id, err := im.store.InsertArticle(ctx, storage.NewArticle{
			Title:         title,
			Topic:         src.Topic,
			Author:        src.Author,
			Body:          body,
			ArticleImgURL: itemImage(item),
			Votes:         storage.DefaultVotes,
			CreatedAt:     createdAt,
		})
		if err != nil {
			return nil, err
		}
		result.Imported++
		result.ArticleIDs = append(result.ArticleIDs, id)
	}
	return result, nil
}

// ImportAll imports every source, logging and counting per-feed failures.
func (im *Importer) ImportAll(ctx context.Context, sources []storage.FeedSource) (*PollStats, error) {
	stats := &PollStats{FeedsTotal: len(sources)}
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		// Add timeout per feed
		feedCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		result, err := im.Import(feedCtx, src)
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to import feed %s: %v\n", src.URL, err)
			stats.FeedsErrored++
			continue
		}
		stats.NewArticles += result.Imported
	}
	return stats, nil
}

// ReadOPML lists the feeds of an OPML file as sources for topic and author.
func ReadOPML(opmlPath, topic, author string) ([]storage.FeedSource, error) {
	data, err := os.ReadFile(opmlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read OPML file: %w", err)
	}

	var opml OPML
	if err := xml.Unmarshal(data, &opml); err != nil {
		return nil, fmt.Errorf("failed to parse OPML: %w", err)
	}

	var sources []storage.FeedSource
	var walk func(outlines []OPMLOutline)
	walk = func(outlines []OPMLOutline) {
		for _, outline := range outlines {
			if outline.XMLURL != "" {
				sources = append(sources, storage.FeedSource{URL: outline.XMLURL, Topic: topic, Author: author})
			}
			// Process nested outlines (folders)
			walk(outline.Outlines)
		}
	}
	walk(opml.Body.Outlines)
	return sources, nil
}

// plainText strips markup and decodes entities.
func (im *Importer) plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(im.policy.Sanitize(s)))
}

func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}
