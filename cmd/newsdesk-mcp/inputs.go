package main

// Input types for MCP tools. The SDK infers JSON Schema from these structs.
// Pointer types are optional; value types are required.

type articlesListInput struct {
	Topic  *string `json:"topic,omitempty"   jsonschema:"Only return articles in this topic slug"`
	SortBy *string `json:"sort_by,omitempty" jsonschema:"Sort column: article_id, title, topic, author, created_at, votes or comment_count (default created_at)"`
	Order  *string `json:"order,omitempty"   jsonschema:"Sort direction: asc or desc (default desc)"`
	Limit  *int    `json:"limit,omitempty"   jsonschema:"Page size (default 10)"`
	Page   *int    `json:"page,omitempty"    jsonschema:"Page number starting at 1 (default 1)"`
}

type articleIDInput struct {
	ArticleID int64 `json:"article_id" jsonschema:"The article ID"`
}

type commentsListInput struct {
	ArticleID int64 `json:"article_id"      jsonschema:"The article whose comments to list"`
	Limit     *int  `json:"limit,omitempty" jsonschema:"Page size (default 10)"`
	Page      *int  `json:"page,omitempty"  jsonschema:"Page number starting at 1 (default 1)"`
}

type articleVoteInput struct {
	ArticleID int64 `json:"article_id" jsonschema:"The article to vote on"`
	IncVotes  int   `json:"inc_votes"  jsonschema:"Amount to add to the article's votes; negative values subtract"`
}

type emptyInput struct{}
