package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/matthewjhunter/newsdesk"
)

func pollCmd() *cobra.Command {
	var interval time.Duration
	var once bool

	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Import the feeds listed in the config on a timer",
		Long: `Continuously import every feed under feeds.sources in the config.
Designed for running inside a container or as a background service.
Handles SIGINT/SIGTERM for graceful shutdown (the current cycle is cancelled).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(cfg.Feeds.Sources) == 0 {
				return errors.New("no feeds configured under feeds.sources")
			}
			if interval <= 0 {
				interval = cfg.Feeds.Interval
			}
			sources := feedImports(cfg.Feeds.Sources)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := openService(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			if once {
				result, err := svc.PollFeeds(ctx, sources)
				if err != nil {
					return err
				}
				return formatter.OutputPollResult(result)
			}

			log.Printf("newsdesk poll: starting with %d feeds, interval %s", len(sources), interval)
			return pollLoop(ctx, svc, sources, interval)
		},
	}

	cmd.Flags().DurationVarP(&interval, "interval", "i", 0, "duration between poll cycles, e.g. 5m, 30s, 1h (default from config)")
	cmd.Flags().BoolVar(&once, "once", false, "poll every feed once and exit")
	return cmd
}

// pollLoop imports sources every interval until ctx is cancelled.
func pollLoop(ctx context.Context, svc *newsdesk.Service, sources []newsdesk.FeedImport, interval time.Duration) error {
	cycle := 1
	for {
		start := time.Now()
		log.Printf("newsdesk poll: cycle %d starting", cycle)

		result, err := svc.PollFeeds(ctx, sources)
		if err != nil {
			log.Printf("newsdesk poll: cycle %d error: %v", cycle, err)
		} else {
			log.Printf("newsdesk poll: cycle %d stored %d new articles (%d/%d feeds errored) in %s",
				cycle, result.NewArticles, result.FeedsErrored, result.FeedsTotal, time.Since(start).Round(time.Millisecond))
		}

		cycle++

		// Wait for the next tick or a shutdown signal.
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Println("newsdesk poll: received shutdown signal, exiting")
			return nil
		case <-timer.C:
		}
	}
}
