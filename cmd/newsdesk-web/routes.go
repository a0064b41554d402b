package main

import (
	_ "embed"
	"net/http"

	"github.com/matthewjhunter/newsdesk"
)

//go:embed endpoints.json
var endpointsJSON []byte

// newRouter sets up all API routes using Go 1.22+ enhanced routing and wraps
// them in the middleware chain.
func newRouter(svc *newsdesk.Service, allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()
	h := &handlers{svc: svc}

	mux.Handle("GET /api", apiHandler(h.handleEndpoints))

	mux.Handle("GET /api/topics", apiHandler(h.handleTopics))
	mux.Handle("POST /api/topics", apiHandler(h.handleCreateTopic))

	mux.Handle("GET /api/articles", apiHandler(h.handleArticles))
	mux.Handle("POST /api/articles", apiHandler(h.handleCreateArticle))
	mux.Handle("GET /api/articles/{article_id}", apiHandler(h.handleArticle))
	mux.Handle("PATCH /api/articles/{article_id}", apiHandler(h.handleVoteArticle))
	mux.Handle("DELETE /api/articles/{article_id}", apiHandler(h.handleDeleteArticle))

	mux.Handle("GET /api/articles/{article_id}/comments", apiHandler(h.handleComments))
	mux.Handle("POST /api/articles/{article_id}/comments", apiHandler(h.handleCreateComment))
	mux.Handle("PATCH /api/comments/{comment_id}", apiHandler(h.handleVoteComment))
	mux.Handle("DELETE /api/comments/{comment_id}", apiHandler(h.handleDeleteComment))

	mux.Handle("GET /api/users", apiHandler(h.handleUsers))
	mux.Handle("GET /api/users/{username}", apiHandler(h.handleUser))

	// Everything else, including unsupported methods on known paths.
	mux.Handle("/", apiHandler(h.handleNotFound))

	return logging(recovery(cors(allowedOrigins)(mux)))
}
