package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matthewjhunter/newsdesk"
	"github.com/matthewjhunter/newsdesk/internal/feeds"
	"github.com/matthewjhunter/newsdesk/internal/output"
	"github.com/matthewjhunter/newsdesk/internal/seed"
	"github.com/matthewjhunter/newsdesk/internal/storage"
)

const defaultConfigPath = "newsdesk.yaml"

var (
	configPath   string
	cfg          *storage.Config
	outputFormat string
	formatter    *output.Formatter
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "newsdesk",
		Short:         "Manage the newsdesk database: schema, fixtures, articles, comments and feed imports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			format, err := output.ParseFormat(outputFormat)
			if err != nil {
				return err
			}
			formatter = output.NewFormatterWithWriters(format, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return loadConfig()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path, YAML or TOML (default: ./"+defaultConfigPath+")")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "human", "output format: json, text, human")

	rootCmd.AddCommand(initConfigCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(topicsCmd())
	rootCmd.AddCommand(usersCmd())
	rootCmd.AddCommand(articlesCmd())
	rootCmd.AddCommand(articleCmd())
	rootCmd.AddCommand(commentsCmd())
	rootCmd.AddCommand(voteCmd())
	rootCmd.AddCommand(importFeedCmd())
	rootCmd.AddCommand(pollCmd())

	return rootCmd
}

func loadConfig() error {
	if configPath == "" {
		configPath = defaultConfigPath
	}
	var err error
	cfg, err = storage.LoadConfig(configPath)
	return err
}

// openService opens the configured database.
func openService(ctx context.Context) (*newsdesk.Service, error) {
	svc, err := newsdesk.NewService(ctx, newsdesk.ServiceConfig{
		Database: cfg.Database,
		PageSize: cfg.Pagination.DefaultLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return svc, nil
}

// withService opens the database for the duration of fn.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *newsdesk.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, err := openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(ctx, svc)
}

func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID %q", what, raw)
	}
	return id, nil
}

func initConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Create a default config file (YAML, or TOML when the path ends in .toml)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir := filepath.Dir(configPath); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create config directory: %w", err)
				}
			}

			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("config file already exists: %s", configPath)
			}

			if err := storage.DefaultConfig().Save(configPath); err != nil {
				return err
			}
			return formatter.Status("Created default config at %s", configPath)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create any missing tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *newsdesk.Service) error {
				return formatter.Status("Schema is up to date (%s)", cfg.Database.Driver)
			})
		},
	}
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Drop all data and load a fixture (the built-in test data by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				fixture *seed.Fixture
				err     error
			)
			if file != "" {
				fixture, err = seed.ReadFile(file)
			} else {
				fixture, err = seed.Embedded("test")
			}
			if err != nil {
				return err
			}

			return withService(cmd, func(ctx context.Context, svc *newsdesk.Service) error {
				if err := svc.Seed(ctx, fixture); err != nil {
					return err
				}
				return formatter.Status("Seeded %d topics, %d users, %d articles, %d comments",
					len(fixture.Topics), len(fixture.Users), len(fixture.Articles), len(fixture.Comments))
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML fixture file to load instead of the built-in test data")
	return cmd
}

func topicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *newsdesk.Service) error {
				topics, err := svc.Topics(ctx)
				if err != nil {
					return err
				}
				return formatter.OutputTopics(topics)
			})
		},
	}
}

func usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *newsdesk.Service) error {
				users, err := svc.Users(ctx)
				if err != nil {
					return err
				}
				return formatter.OutputUsers(users)
			})
		},
	}
}

func articlesCmd() *cobra.Command {
	var q newsdesk.ArticleQuery
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "List one page of articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *newsdesk.Service) error {
				articles, err := svc.Articles(ctx, q)
				if err != nil {
					return err
				}
				return formatter.OutputArticleList(articles)
			})
		},
	}
	cmd.Flags().StringVarP(&q.Topic, "topic", "t", "", "only articles in this topic")
	cmd.Flags().StringVarP(&q.SortBy, "sort-by", "s", newsdesk.DefaultSortBy, "sort column: article_id, title, topic, author, created_at, votes, comment_count")
	cmd.Flags().StringVar(&q.Order, "order", newsdesk.DefaultOrder, "sort direction: asc or desc")
	cmd.Flags().IntVarP(&q.Limit, "limit", "n", 0, "page size (default from config)")
	cmd.Flags().IntVarP(&q.Page, "page", "p", newsdesk.DefaultPage, "page number, starting at 1")
	return cmd
}

func articleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "article <article-id>",
		Short: "Show one article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "article")
			if err != nil {
				return err
			}
			return withService(cmd, func(ctx context.Context, svc *newsdesk.Service) error {
				article, err := svc.Article(ctx, id)
				if err != nil {
					return err
				}
				return formatter.OutputArticle(article)
			})
		},
	}
}

func commentsCmd() *cobra.Command {
	var q newsdesk.CommentQuery
	cmd := &cobra.Command{
		Use:   "comments <article-id>",
		Short: "List one page of an article's comments, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "article")
			if err != nil {
				return err
			}
			return withService(cmd, func(ctx context.Context, svc *newsdesk.Service) error {
				comments, err := svc.Comments(ctx, id, q)
				if err != nil {
					return err
				}
				return formatter.OutputComments(comments)
			})
		},
	}
	cmd.Flags().IntVarP(&q.Limit, "limit", "n", 0, "page size (default from config)")
	cmd.Flags().IntVarP(&q.Page, "page", "p", newsdesk.DefaultPage, "page number, starting at 1")
	return cmd
}

func voteCmd() *cobra.Command {
	var comment bool
	cmd := &cobra.Command{
		Use:   "vote <id> <delta>",
		Short: "Add delta (may be negative) to an article's votes, or a comment's with --comment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			what := "article"
			if comment {
				what = "comment"
			}
			id, err := parseID(args[0], what)
			if err != nil {
				return err
			}
			delta, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid delta %q", args[1])
			}

			return withService(cmd, func(ctx context.Context, svc *newsdesk.Service) error {
				if comment {
					c, err := svc.VoteComment(ctx, id, delta)
					if err != nil {
						return err
					}
					return formatter.OutputComments([]newsdesk.Comment{*c})
				}
				a, err := svc.VoteArticle(ctx, id, delta)
				if err != nil {
					return err
				}
				return formatter.OutputArticle(a)
			})
		},
	}
	// Negative deltas must not be parsed as flags.
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVar(&comment, "comment", false, "vote on a comment instead of an article")
	return cmd
}

func importFeedCmd() *cobra.Command {
	var topic, author, opmlPath string
	cmd := &cobra.Command{
		Use:   "import-feed [url]",
		Short: "Import an RSS/Atom feed, or every feed in an OPML file, as articles",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (opmlPath != "") {
				return errors.New("give either a feed URL or --opml, not both")
			}

			return withService(cmd, func(ctx context.Context, svc *newsdesk.Service) error {
				if opmlPath == "" {
					result, err := svc.ImportFeed(ctx, newsdesk.FeedImport{URL: args[0], Topic: topic, Author: author})
					if err != nil {
						return err
					}
					return formatter.OutputImportResult(result)
				}

				sources, err := feeds.ReadOPML(opmlPath, topic, author)
				if err != nil {
					return err
				}
				result, err := svc.PollFeeds(ctx, feedImports(sources))
				if err != nil {
					return err
				}
				return formatter.OutputPollResult(result)
			})
		},
	}
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "topic slug for the imported articles (required)")
	cmd.Flags().StringVarP(&author, "author", "a", "", "username credited as author (required)")
	cmd.Flags().StringVar(&opmlPath, "opml", "", "import every feed listed in this OPML file")
	cmd.MarkFlagRequired("topic")
	cmd.MarkFlagRequired("author")
	return cmd
}

func feedImports(sources []storage.FeedSource) []newsdesk.FeedImport {
	out := make([]newsdesk.FeedImport, len(sources))
	for i, src := range sources {
		out[i] = newsdesk.FeedImport(src)
	}
	return out
}
