// newsdesk-mcp is a standalone MCP server for newsdesk. It opens the
// configured database and serves topic, user, article and comment tools
// over stdio.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/matthewjhunter/newsdesk"
	"github.com/matthewjhunter/newsdesk/internal/storage"
)

func main() {
	configPath := flag.String("config", "newsdesk.yaml", "path to config file (YAML or TOML)")
	poll := flag.Bool("poll", false, "import the configured feeds in the background")
	flag.Parse()

	// stdout carries the protocol.
	log.SetOutput(os.Stderr)

	cfg, err := storage.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("newsdesk-mcp: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newsdesk.NewService(ctx, newsdesk.ServiceConfig{
		Database: cfg.Database,
		PageSize: cfg.Pagination.DefaultLimit,
	})
	if err != nil {
		log.Fatalf("newsdesk-mcp: %v", err)
	}
	defer svc.Close()

	var p *poller
	if *poll && len(cfg.Feeds.Sources) > 0 {
		sources := make([]newsdesk.FeedImport, len(cfg.Feeds.Sources))
		for i, src := range cfg.Feeds.Sources {
			sources[i] = newsdesk.FeedImport(src)
		}
		p = newPoller(svc, sources, cfg.Feeds.Interval)
		p.start(ctx)
		defer p.stop()
	}

	log.Printf("newsdesk-mcp: starting (%s)", cfg.Database.Driver)
	if err := newServer(svc, p).mcpServer().Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Printf("newsdesk-mcp: server error: %v", err)
	}
}
