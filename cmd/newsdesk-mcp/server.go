package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/matthewjhunter/newsdesk"
	"github.com/matthewjhunter/newsdesk/internal/apperr"
)

const version = "0.1.0"

// server is the newsdesk MCP server.
type server struct {
	svc    *newsdesk.Service
	poller *poller // non-nil when --poll is enabled
}

func newServer(svc *newsdesk.Service, p *poller) *server {
	return &server{svc: svc, poller: p}
}

// mcpServer registers every tool on a new MCP server.
func (s *server) mcpServer() *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "newsdesk", Version: version}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "topics_list",
		Description: "List every topic with its slug and description.",
	}, s.handleTopicsList)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "users_list",
		Description: "List every user with username, display name and avatar URL.",
	}, s.handleUsersList)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "articles_list",
		Description: "List one page of articles, optionally filtered by topic and sorted by any column. Each article carries its comment count and the total number of matching articles.",
	}, s.handleArticlesList)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "article_get",
		Description: "Get one article including its body and comment count.",
	}, s.handleArticleGet)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "comments_list",
		Description: "List one page of an article's comments, newest first.",
	}, s.handleCommentsList)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "article_vote",
		Description: "Add inc_votes (may be negative) to an article's votes and return the updated article.",
	}, s.handleArticleVote)

	if s.poller != nil {
		mcp.AddTool(srv, &mcp.Tool{
			Name:        "poll_now",
			Description: "Import every configured RSS/Atom feed immediately instead of waiting for the next poll.",
		}, s.handlePollNow)
	}

	return srv
}

func (s *server) handleTopicsList(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	topics, err := s.svc.Topics(ctx)
	if err != nil {
		return mcpError(err), nil, nil
	}
	return mcpJSON(topics), nil, nil
}

func (s *server) handleUsersList(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	users, err := s.svc.Users(ctx)
	if err != nil {
		return mcpError(err), nil, nil
	}
	return mcpJSON(users), nil, nil
}

func (s *server) handleArticlesList(ctx context.Context, _ *mcp.CallToolRequest, in articlesListInput) (*mcp.CallToolResult, any, error) {
	articles, err := s.svc.Articles(ctx, newsdesk.ArticleQuery{
		Topic:  deref(in.Topic),
		SortBy: deref(in.SortBy),
		Order:  deref(in.Order),
		Limit:  deref(in.Limit),
		Page:   deref(in.Page),
	})
	if err != nil {
		return mcpError(err), nil, nil
	}
	return mcpJSON(articles), nil, nil
}

func (s *server) handleArticleGet(ctx context.Context, _ *mcp.CallToolRequest, in articleIDInput) (*mcp.CallToolResult, any, error) {
	article, err := s.svc.Article(ctx, in.ArticleID)
	if err != nil {
		return mcpError(err), nil, nil
	}
	return mcpJSON(article), nil, nil
}

func (s *server) handleCommentsList(ctx context.Context, _ *mcp.CallToolRequest, in commentsListInput) (*mcp.CallToolResult, any, error) {
	comments, err := s.svc.Comments(ctx, in.ArticleID, newsdesk.CommentQuery{
		Limit: deref(in.Limit),
		Page:  deref(in.Page),
	})
	if err != nil {
		return mcpError(err), nil, nil
	}
	return mcpJSON(comments), nil, nil
}

func (s *server) handleArticleVote(ctx context.Context, _ *mcp.CallToolRequest, in articleVoteInput) (*mcp.CallToolResult, any, error) {
	article, err := s.svc.VoteArticle(ctx, in.ArticleID, in.IncVotes)
	if err != nil {
		return mcpError(err), nil, nil
	}
	return mcpJSON(article), nil, nil
}

func (s *server) handlePollNow(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	result, err := s.poller.poll(ctx)
	if err != nil {
		return mcpError(err), nil, nil
	}
	return mcpJSON(result), nil, nil
}

// --- MCP response helpers ---

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func mcpJSON(data any) *mcp.CallToolResult {
	b, err := json.Marshal(data)
	if err != nil {
		return mcpError(apperr.NewInternal(fmt.Errorf("marshal response: %w", err)))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}
}

// mcpError reports an application error as a tool error carrying {msg}.
// Internal causes are logged rather than returned.
func mcpError(err error) *mcp.CallToolResult {
	code := apperr.CodeOf(err)
	if code == apperr.Internal {
		log.Printf("newsdesk-mcp: %v", err)
	}
	b, _ := json.Marshal(map[string]string{"msg": http.StatusText(apperr.HTTPStatus(code))})
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
		IsError: true,
	}
}
