package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/matthewjhunter/newsdesk"
	"github.com/matthewjhunter/newsdesk/internal/apperr"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// handlers holds dependencies for all HTTP handler methods.
type handlers struct {
	svc *newsdesk.Service
}

// apiHandler is a handler that reports failure by returning an error. The
// error is written once, here, so handlers never produce partial responses.
type apiHandler func(w http.ResponseWriter, r *http.Request) error

func (fn apiHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := fn(w, r); err != nil {
		writeError(w, r, err)
	}
}

type errorBody struct {
	Msg string `json:"msg"`
}

// voteBody is the PATCH body for articles and comments. A missing inc_votes
// is rejected rather than treated as zero.
type voteBody struct {
	IncVotes *int `json:"inc_votes"`
}

// --- Helper methods ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("newsdesk-web: encode response: %v", err)
	}
}

// writeError maps err to its status and writes {msg}. Internal causes are
// logged and never sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.CodeOf(err)
	status := apperr.HTTPStatus(code)
	if code == apperr.Internal {
		log.Printf("newsdesk-web: %s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, errorBody{Msg: http.StatusText(status)})
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.NewBadRequest(fmt.Errorf("decode body: %w", err))
	}
	return nil
}

func decodeVote(w http.ResponseWriter, r *http.Request) (int, error) {
	var body voteBody
	if err := decodeJSON(w, r, &body); err != nil {
		return 0, err
	}
	if body.IncVotes == nil {
		return 0, apperr.NewBadRequest(errors.New("inc_votes is required"))
	}
	return *body.IncVotes, nil
}

// --- Handlers ---

func (h *handlers) handleEndpoints(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]json.RawMessage{"endpoints": endpointsJSON})
	return nil
}

func (h *handlers) handleNotFound(w http.ResponseWriter, r *http.Request) error {
	return apperr.NewNotFound(fmt.Errorf("no route for %s %s", r.Method, r.URL.Path))
}

func (h *handlers) handleTopics(w http.ResponseWriter, r *http.Request) error {
	topics, err := h.svc.Topics(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": topics})
	return nil
}

func (h *handlers) handleCreateTopic(w http.ResponseWriter, r *http.Request) error {
	var in newsdesk.NewTopic
	if err := decodeJSON(w, r, &in); err != nil {
		return err
	}
	topic, err := h.svc.CreateTopic(r.Context(), in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, map[string]any{"topic": topic})
	return nil
}

func (h *handlers) handleArticles(w http.ResponseWriter, r *http.Request) error {
	q, err := newsdesk.ParseArticleQuery(r.URL.Query())
	if err != nil {
		return err
	}
	articles, err := h.svc.Articles(r.Context(), q)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": articles})
	return nil
}

func (h *handlers) handleCreateArticle(w http.ResponseWriter, r *http.Request) error {
	var in newsdesk.NewArticle
	if err := decodeJSON(w, r, &in); err != nil {
		return err
	}
	article, err := h.svc.CreateArticle(r.Context(), in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, map[string]any{"article": article})
	return nil
}

func (h *handlers) handleArticle(w http.ResponseWriter, r *http.Request) error {
	id, err := idFromRequest(r, "article_id")
	if err != nil {
		return err
	}
	article, err := h.svc.Article(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"article": article})
	return nil
}

func (h *handlers) handleVoteArticle(w http.ResponseWriter, r *http.Request) error {
	id, err := idFromRequest(r, "article_id")
	if err != nil {
		return err
	}
	delta, err := decodeVote(w, r)
	if err != nil {
		return err
	}
	article, err := h.svc.VoteArticle(r.Context(), id, delta)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"article": article})
	return nil
}

func (h *handlers) handleDeleteArticle(w http.ResponseWriter, r *http.Request) error {
	id, err := idFromRequest(r, "article_id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteArticle(r.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *handlers) handleComments(w http.ResponseWriter, r *http.Request) error {
	id, err := idFromRequest(r, "article_id")
	if err != nil {
		return err
	}
	q, err := newsdesk.ParseCommentQuery(r.URL.Query())
	if err != nil {
		return err
	}
	comments, err := h.svc.Comments(r.Context(), id, q)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
	return nil
}

func (h *handlers) handleCreateComment(w http.ResponseWriter, r *http.Request) error {
	id, err := idFromRequest(r, "article_id")
	if err != nil {
		return err
	}
	var in newsdesk.NewComment
	if err := decodeJSON(w, r, &in); err != nil {
		return err
	}
	comment, err := h.svc.CreateComment(r.Context(), id, in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, map[string]any{"comment": comment})
	return nil
}

func (h *handlers) handleVoteComment(w http.ResponseWriter, r *http.Request) error {
	id, err := idFromRequest(r, "comment_id")
	if err != nil {
		return err
	}
	delta, err := decodeVote(w, r)
	if err != nil {
		return err
	}
	comment, err := h.svc.VoteComment(r.Context(), id, delta)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"comment": comment})
	return nil
}

func (h *handlers) handleDeleteComment(w http.ResponseWriter, r *http.Request) error {
	id, err := idFromRequest(r, "comment_id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteComment(r.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *handlers) handleUsers(w http.ResponseWriter, r *http.Request) error {
	users, err := h.svc.Users(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
	return nil
}

func (h *handlers) handleUser(w http.ResponseWriter, r *http.Request) error {
	user, err := h.svc.User(r.Context(), r.PathValue("username"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
	return nil
}
